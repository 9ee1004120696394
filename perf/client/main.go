package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amandeep2102/photoedit/shared/models"
)

type Metrics struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	TotalResponseTime  int64
	ResponseTimes      []int64
	mu                 sync.Mutex
}

type TestConfig struct {
	EditorURL         string
	ConcurrentClients int
	OperationsPerSec  int
	TestDuration      time.Duration
	ImageSize         int
	Operations        []string
}

var (
	metrics Metrics
	client  = &http.Client{Timeout: 60 * time.Second}
)

func main() {
	testType := flag.String("test", "scenario", "Test type: scenario, load")
	editorURL := flag.String("url", "http://localhost:8081", "Editor service base URL")
	OpPerSec := flag.Int("OpPerSec", 10, "Number of operations per sec")
	concurrent := flag.Int("concurrent", 4, "Number of concurrent clients")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	imageSize := flag.Int("image-size", 1024, "Image dimension (WxH)")

	flag.Parse()

	config := TestConfig{
		EditorURL:         strings.TrimRight(*editorURL, "/"),
		ConcurrentClients: *concurrent,
		OperationsPerSec:  max(*OpPerSec, 1),
		TestDuration:      *duration,
		ImageSize:         *imageSize,
		Operations:        []string{"sepia", "monochrome", "blur", "contrast", "all"},
	}

	switch *testType {
	case "scenario":
		if err := runScenario(config); err != nil {
			log.Fatal("Scenario failed: ", err)
		}
	case "load":
		testFilterLoad(config)
	default:
		log.Fatal("Unknown test type. Use: scenario or load")
	}
}

// ============ HELPER FUNCTIONS ============

func createTestImage(size int) []byte {
	filename := fmt.Sprintf("test_image_%d.jpg", size)

	// If image already exists, reuse it
	if data, err := os.ReadFile(filename); err == nil {
		return data
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r := uint8((x * 255) / size)
			g := uint8((y * 255) / size)
			b := uint8(((x + y) * 255) / (size * 2))
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}

	buf := new(bytes.Buffer)
	jpeg.Encode(buf, img, &jpeg.Options{Quality: 80})
	data := buf.Bytes()

	// Save for reuse
	os.WriteFile(filename, data, 0644)

	return data
}

func showImageStats(data []byte) {
	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		log.Printf("Error reading image config: %v", err)
		return
	}

	fmt.Printf("Image Format: %s\n", format)
	fmt.Printf("Image Size: %dx%d\n", config.Width, config.Height)
	fmt.Printf("Image File Size: %d bytes\n\n", len(data))
}

// call posts body as JSON (or nothing) and decodes the response into out.
func call(baseURL, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%s: decode response: %v", path, err)
		}
	}
	return resp.StatusCode, nil
}

func pickImage(baseURL string, imageData []byte) (models.EditorState, error) {
	var state models.EditorState
	if _, err := call(baseURL, "/picker", nil, &state); err != nil {
		return state, err
	}

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "test_image.jpg")
	if err != nil {
		return state, fmt.Errorf("failed to create form file: %v", err)
	}
	part.Write(imageData)
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, baseURL+"/picker/image", body)
	if err != nil {
		return state, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return state, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return state, fmt.Errorf("pick failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	err = json.NewDecoder(resp.Body).Decode(&state)
	return state, err
}

func fetchImageSize(baseURL, path string) (int, int, error) {
	resp, err := client.Get(baseURL + path)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("%s: status %d", path, resp.StatusCode)
	}
	cfg, _, err := image.DecodeConfig(resp.Body)
	return cfg.Width, cfg.Height, err
}

func fetchHealth(baseURL string) (map[string]interface{}, error) {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var health map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&health)
	return health, err
}

// ============ SCENARIO ============

func step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	status := "✓"
	if err != nil {
		status = "✗"
	}
	fmt.Printf("%s %-38s %6dms\n", status, name, time.Since(start).Milliseconds())
	return err
}

func runScenario(config TestConfig) error {
	fmt.Println("===== EDITING SCENARIO =====")
	testImage := createTestImage(config.ImageSize)
	showImageStats(testImage)

	base := config.EditorURL
	var state models.EditorState

	steps := []struct {
		name string
		fn   func() error
	}{
		{"pick image", func() (err error) {
			state, err = pickImage(base, testImage)
			if err == nil && state.Selected == nil {
				err = fmt.Errorf("no selected image after pick")
			}
			return err
		}},
		{"set intensity 0.2", func() error {
			_, err := call(base, "/intensity", models.IntensityRequest{Intensity: ptr(0.2)}, &state)
			return err
		}},
		{"blur", func() error {
			_, err := call(base, "/filters/blur", nil, &state)
			if err == nil && state.Edited == nil {
				err = fmt.Errorf("blur produced no edited image")
			}
			return err
		}},
		{"reset", func() error {
			_, err := call(base, "/reset", nil, &state)
			if err == nil && (state.Edited != nil || state.Intensity != 0.5) {
				err = fmt.Errorf("reset left edited=%v intensity=%v", state.Edited != nil, state.Intensity)
			}
			return err
		}},
		{"sepia", func() error {
			_, err := call(base, "/filters/sepia", nil, &state)
			return err
		}},
		{"open save sheet", func() error {
			_, err := call(base, "/save/sheet", nil, &state)
			if err == nil && !state.SaveSheetPresented {
				err = fmt.Errorf("save sheet not presented")
			}
			return err
		}},
		{"fetch save preview", func() error {
			w, h, err := fetchImageSize(base, "/save/preview")
			if err == nil {
				fmt.Printf("  preview %dx%d\n", w, h)
			}
			return err
		}},
		{"save", func() error {
			var resp models.SaveResponse
			code, err := call(base, "/save", nil, &resp)
			if err == nil && (code != http.StatusAccepted || !resp.Accepted) {
				err = fmt.Errorf("save not accepted: status %d", code)
			}
			return err
		}},
	}

	for _, s := range steps {
		if err := step(s.name, s.fn); err != nil {
			return err
		}
	}

	// the write is asynchronous; give the pool a moment before reporting
	time.Sleep(500 * time.Millisecond)
	if health, err := fetchHealth(base); err == nil {
		fmt.Printf("\nSave pool: %v\n", health["save_pool"])
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}

// ============ LOAD TEST ============

func testFilterLoad(config TestConfig) {
	fmt.Println("===== FILTER LOAD TEST =====")
	fmt.Printf("Configuration:\n")
	fmt.Printf("Concurrent clients: %d\n", config.ConcurrentClients)
	fmt.Printf("Operations/sec per client: %d\n", config.OperationsPerSec)
	fmt.Printf("Test duration: %v\n", config.TestDuration)
	fmt.Printf("Image size: %dx%d\n\n", config.ImageSize, config.ImageSize)

	testImage := createTestImage(config.ImageSize)
	showImageStats(testImage)

	if _, err := pickImage(config.EditorURL, testImage); err != nil {
		log.Fatal("Failed to pick image: ", err)
	}

	metrics = Metrics{ResponseTimes: []int64{}}

	var wg sync.WaitGroup
	testStart := time.Now()
	endTime := testStart.Add(config.TestDuration)
	operationIndex := int64(0)

	for clientID := 0; clientID < config.ConcurrentClients; clientID++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter := time.NewTicker(time.Second / time.Duration(config.OperationsPerSec))
			defer limiter.Stop()

			for time.Now().Before(endTime) {
				<-limiter.C

				operation := config.Operations[int(atomic.AddInt64(&operationIndex, 1)-1)%len(config.Operations)]

				startTime := time.Now()
				_, err := call(config.EditorURL, "/filters/"+operation, nil, nil)
				respTime := time.Since(startTime).Milliseconds()

				metrics.mu.Lock()
				metrics.ResponseTimes = append(metrics.ResponseTimes, respTime)
				metrics.mu.Unlock()

				atomic.AddInt64(&metrics.TotalRequests, 1)
				if err == nil {
					atomic.AddInt64(&metrics.SuccessfulRequests, 1)
					atomic.AddInt64(&metrics.TotalResponseTime, respTime)
				} else {
					atomic.AddInt64(&metrics.FailedRequests, 1)
					log.Printf("Operation %s failed: %v", operation, err)
				}
			}
		}()
	}

	wg.Wait()
	printMetrics("Filter Load Test", time.Since(testStart), config)
}

func printMetrics(testName string, duration time.Duration, config TestConfig) {
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("%s Results\n", testName)
	fmt.Println(strings.Repeat("=", 70))

	totalReq := atomic.LoadInt64(&metrics.TotalRequests)
	successReq := atomic.LoadInt64(&metrics.SuccessfulRequests)
	failedReq := atomic.LoadInt64(&metrics.FailedRequests)

	fmt.Printf("Duration: %.2fs\n", duration.Seconds())
	fmt.Printf("Concurrent clients: %d\n", config.ConcurrentClients)
	fmt.Printf("Requests: %d total, %d ok, %d failed\n", totalReq, successReq, failedReq)

	if totalReq == 0 {
		fmt.Println("No requests recorded, skipping latency stats.")
		fmt.Println(strings.Repeat("=", 70))
		return
	}

	fmt.Printf("Success Rate: %.2f%%\n", float64(successReq)/float64(totalReq)*100)
	fmt.Printf("Throughput: %.2f requests/sec\n", float64(totalReq)/duration.Seconds())

	if len(metrics.ResponseTimes) > 0 {
		sort.Slice(metrics.ResponseTimes, func(i, j int) bool {
			return metrics.ResponseTimes[i] < metrics.ResponseTimes[j]
		})

		n := len(metrics.ResponseTimes)
		avgTime := int64(0)
		if successReq > 0 {
			avgTime = atomic.LoadInt64(&metrics.TotalResponseTime) / successReq
		}

		// use (n-1)*q to stay in range
		p50 := metrics.ResponseTimes[int(float64(n-1)*0.50)]
		p95 := metrics.ResponseTimes[int(float64(n-1)*0.95)]
		p99 := metrics.ResponseTimes[int(float64(n-1)*0.99)]

		fmt.Printf("Response Times (ms):\n")
		fmt.Printf("  Min: %d, Max: %d, Avg: %d\n", metrics.ResponseTimes[0], metrics.ResponseTimes[n-1], avgTime)
		fmt.Printf("  P50: %d, P95: %d, P99: %d\n", p50, p95, p99)

		var sumSquares int64
		for _, rt := range metrics.ResponseTimes {
			diff := rt - avgTime
			sumSquares += diff * diff
		}
		fmt.Printf("  StdDev: %.2f\n", math.Sqrt(float64(sumSquares)/float64(n)))
	}

	fmt.Println(strings.Repeat("=", 70))
}
