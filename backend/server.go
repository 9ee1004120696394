package main

import (
	"embed"
	"errors"
	"html/template"
	"image"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/amandeep2102/photoedit/backend/editor"
	"github.com/amandeep2102/photoedit/backend/processor"
	"github.com/amandeep2102/photoedit/backend/worker"
	"github.com/amandeep2102/photoedit/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

//go:embed templates/*.html
var templatesFS embed.FS

// multipart framing around the image itself
const uploadOverhead = 1 << 20

const kindAll = "all"

type routerOptions struct {
	MaxUploadBytes int64
	PreviewSize    int
}

type server struct {
	session *editor.Session
	pool    *worker.Pool
	opts    routerOptions
}

func newRouter(session *editor.Session, pool *worker.Pool, opts routerOptions) *gin.Engine {
	s := &server{session: session, pool: pool, opts: opts}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	r.GET("/", s.handleIndex)
	r.GET("/health", s.handleHealth)
	r.GET("/state", s.handleState)
	r.GET("/image", s.handleImage)

	// Image source
	r.POST("/picker", s.handlePresentPicker)
	r.POST("/picker/cancel", s.handleCancelPicker)
	r.POST("/picker/image", s.handlePickImage)

	// Filters
	r.POST("/intensity", s.handleIntensity)
	r.POST("/filters/:kind", s.handleFilter)
	r.POST("/reset", s.handleReset)

	// Persistence
	r.POST("/save/sheet", s.handlePresentSaveSheet)
	r.POST("/save/sheet/dismiss", s.handleDismissSaveSheet)
	r.GET("/save/preview", s.handleSavePreview)
	r.POST("/save", s.handleSave)

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// respond sends browsers submitting a form back to the editor page and
// API clients the session state.
func (s *server) respond(c *gin.Context, status int) {
	if isFormPost(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.JSON(status, s.session.State())
}

func isFormPost(c *gin.Context) bool {
	switch c.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		return strings.Contains(c.GetHeader("Accept"), binding.MIMEHTML)
	}
	return false
}

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: err.Error()})
}

func (s *server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"State": s.session.State(),
		"Kinds": processor.Kinds,
	})
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"save_pool": s.pool.Stats(),
	})
}

func (s *server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.State())
}

func (s *server) handleImage(c *gin.Context) {
	s.writeImage(c, s.session.Display())
}

func (s *server) writeImage(c *gin.Context, img image.Image) {
	if img == nil {
		abortWithError(c, http.StatusNotFound, errors.New("no image"))
		return
	}

	c.Header("Content-Type", "image/png")
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	if err := processor.WritePNG(c.Writer, processor.Preview(img, s.opts.PreviewSize)); err != nil {
		slog.Warn("Failed to write preview", "error", err)
	}
}

// ============ Image source ============

func (s *server) handlePresentPicker(c *gin.Context) {
	s.session.PresentPicker()
	s.respond(c, http.StatusOK)
}

func (s *server) handleCancelPicker(c *gin.Context) {
	s.session.CancelPick()
	s.respond(c, http.StatusOK)
}

func (s *server) handlePickImage(c *gin.Context) {
	if s.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes+uploadOverhead)
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, processor.ErrTooLarge)
			return
		}
		abortWithError(c, http.StatusBadRequest, errors.New("no file uploaded"))
		return
	}
	defer file.Close()

	img, contentType, err := processor.Decode(file, s.opts.MaxUploadBytes)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, processor.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		abortWithError(c, status, err)
		return
	}

	if err := s.session.CompletePick(img); err != nil {
		abortWithError(c, http.StatusConflict, err)
		return
	}

	b := img.Bounds()
	slog.Info("Image picked", "filename", header.Filename, "content_type", contentType, "width", b.Dx(), "height", b.Dy())
	s.respond(c, http.StatusOK)
}

// ============ Filters ============

func (s *server) handleIntensity(c *gin.Context) {
	var req models.IntensityRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	s.session.SetIntensity(*req.Intensity)
	s.respond(c, http.StatusOK)
}

func (s *server) handleFilter(c *gin.Context) {
	name := c.Param("kind")
	if name == kindAll {
		s.session.ApplyAll()
		s.respond(c, http.StatusOK)
		return
	}

	kind, err := processor.ParseKind(name)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	s.session.ApplyFilter(kind)
	s.respond(c, http.StatusOK)
}

func (s *server) handleReset(c *gin.Context) {
	s.session.Reset()
	s.respond(c, http.StatusOK)
}

// ============ Persistence ============

func (s *server) handlePresentSaveSheet(c *gin.Context) {
	s.session.PresentSaveSheet()
	s.respond(c, http.StatusOK)
}

func (s *server) handleDismissSaveSheet(c *gin.Context) {
	s.session.DismissSaveSheet()
	s.respond(c, http.StatusOK)
}

func (s *server) handleSavePreview(c *gin.Context) {
	s.writeImage(c, s.session.Edited())
}

func (s *server) handleSave(c *gin.Context) {
	task := s.session.Save(c.Request.Context())

	if isFormPost(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	if task == nil {
		c.JSON(http.StatusOK, models.SaveResponse{Accepted: false, Message: "nothing to save"})
		return
	}
	c.JSON(http.StatusAccepted, models.SaveResponse{Accepted: true, Message: "saving to photo library"})
}
