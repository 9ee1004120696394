package models

import "time"

// Asset is a photo written to the library by a save action.
type Asset struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	CreatedAt   time.Time `json:"created_at"`
}

type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// EditorState is the view of a single editing session.
type EditorState struct {
	Selected           *ImageInfo `json:"selected,omitempty"`
	Edited             *ImageInfo `json:"edited,omitempty"`
	Intensity          float64    `json:"intensity"`
	PickerPresented    bool       `json:"picker_presented"`
	SaveSheetPresented bool       `json:"save_sheet_presented"`
	Revision           uint64     `json:"revision"`
	Filters            []string   `json:"filters"`
}

type IntensityRequest struct {
	Intensity *float64 `json:"intensity" form:"intensity" binding:"required"`
}

type SaveResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
