package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/df07/go-blackhole-raytracer/pkg/renderer"
	"github.com/df07/go-blackhole-raytracer/pkg/scene"
)

// Server handles web requests for the live black hole view
type Server struct {
	port int
}

// NewServer creates a new web server
func NewServer(port int) *Server {
	return &Server{port: port}
}

// RenderRequest represents a live-view request from the client
type RenderRequest struct {
	Scene        string  `json:"scene"`        // Scene name ("default" or "disk")
	Width        int     `json:"width"`        // Image width
	Height       int     `json:"height"`       // Image height
	Frames       int     `json:"frames"`       // Number of animation frames
	VFov         float64 `json:"vfov"`         // Vertical field of view in degrees
	OrbitSpeed   float64 `json:"orbitSpeed"`   // Camera orbit speed in rad/s
	PreviewWidth int     `json:"previewWidth"` // Downscaled stream width (0 = full size)
}

// FrameUpdate represents a single animation frame sent via SSE
type FrameUpdate struct {
	FrameNumber int    `json:"frameNumber"`
	TotalFrames int    `json:"totalFrames"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG
	Stats       Stats  `json:"stats"`
	IsComplete  bool   `json:"isComplete"`
	ElapsedMs   int64  `json:"elapsedMs"`
}

// Stats represents per-frame render statistics
type Stats struct {
	TotalPixels  int     `json:"totalPixels"`
	CapturedRays int     `json:"capturedRays"`
	EscapedRays  int     `json:"escapedRays"`
	AverageSteps float64 `json:"averageSteps"`
	MaxStepsUsed int     `json:"maxStepsUsed"`
}

// SceneConfig is the uniform-block snapshot returned by /api/scene-config
type SceneConfig struct {
	Camera  scene.CameraUniforms `json:"camera"`
	Disk    scene.DiskUniforms   `json:"disk"`
	Objects []scene.ObjectData   `json:"objects"`
	Count   scene.ObjectUniforms `json:"count"`
}

// Start starts the web server
func (s *Server) Start() error {
	http.Handle("/", http.FileServer(http.Dir("static/")))

	http.HandleFunc("/api/render", s.handleRender)
	http.HandleFunc("/api/health", s.handleHealth)
	http.HandleFunc("/api/scene-config", s.handleSceneConfig)

	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, nil)
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleSceneConfig returns the uniform records the render core consumes,
// exactly as they would be laid out for a compute dispatch
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("scene")
	if name == "" {
		name = "default"
	}
	sceneObj, err := createScene(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	orbit := scene.DefaultOrbit()
	camera := renderer.NewCamera(renderer.CameraConfig{
		Center: orbit.Position(0),
		LookAt: orbit.Target,
		Up:     renderer.WorldUp,
		Width:  800,
		Height: 450,
		VFov:   60,
	})

	objects, count := sceneObj.ObjectBlock()
	config := SceneConfig{
		Camera:  camera.Uniforms(),
		Disk:    sceneObj.Disk.Uniform(),
		Objects: objects,
		Count:   count,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(config)
}

// handleRender streams animation frames via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.sendSSEError(w, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	sceneObj, err := createScene(req.Scene)
	if err != nil {
		s.sendSSEError(w, err.Error())
		return
	}

	orbit := scene.DefaultOrbit()
	orbit.Speed = req.OrbitSpeed

	cameraConfig := renderer.CameraConfig{
		Center: orbit.Position(0),
		LookAt: orbit.Target,
		Up:     renderer.WorldUp,
		Width:  req.Width,
		Height: req.Height,
		VFov:   req.VFov,
	}

	fr, err := renderer.NewFrameRenderer(sceneObj, cameraConfig, renderer.DefaultConfig(), newLogLogger())
	if err != nil {
		s.sendSSEError(w, fmt.Sprintf("Failed to create renderer: %v", err))
		return
	}

	// The request context cancels the animation when the client disconnects
	ctx := r.Context()
	startTime := time.Now()

	frameChan, errChan := fr.RenderAnimation(ctx, renderer.AnimationOptions{
		Frames:   req.Frames,
		TimeStep: 1.0,
		Orbit:    orbit,
		VFov:     req.VFov,
	})

	for result := range frameChan {
		img := scalePreview(result.Image, req.PreviewWidth)

		imageData, err := s.imageToBase64PNG(img)
		if err != nil {
			s.sendSSEError(w, fmt.Sprintf("Failed to encode frame: %v", err))
			return
		}

		update := FrameUpdate{
			FrameNumber: result.FrameNumber,
			TotalFrames: req.Frames,
			ImageData:   imageData,
			Stats: Stats{
				TotalPixels:  result.Stats.TotalPixels,
				CapturedRays: result.Stats.CapturedRays,
				EscapedRays:  result.Stats.EscapedRays,
				AverageSteps: result.Stats.AverageSteps,
				MaxStepsUsed: result.Stats.MaxStepsUsed,
			},
			IsComplete: result.IsLast,
			ElapsedMs:  time.Since(startTime).Milliseconds(),
		}
		if err := s.sendSSEUpdate(w, update); err != nil {
			return
		}
	}

	if err := <-errChan; err != nil {
		s.sendSSEError(w, fmt.Sprintf("Render error: %v", err))
		return
	}

	s.sendSSEEvent(w, "complete", "Animation completed")
}

// parseRenderRequest parses and validates request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}
	query := r.URL.Query()

	if sceneName := query.Get("scene"); sceneName != "" {
		req.Scene = sceneName
	} else {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 800, 100, 2000); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", 450, 100, 2000); err != nil {
		return nil, err
	}
	if req.Frames, err = parseIntParam(query, "frames", 60, 1, 10000); err != nil {
		return nil, err
	}
	if req.PreviewWidth, err = parseIntParam(query, "previewWidth", 0, 0, 2000); err != nil {
		return nil, err
	}
	if req.VFov, err = parseFloatParam(query, "vfov", 60.0, 10.0, 120.0); err != nil {
		return nil, err
	}
	if req.OrbitSpeed, err = parseFloatParam(query, "orbitSpeed", 0.15, 0.0, 10.0); err != nil {
		return nil, err
	}

	return req, nil
}

// parseIntParam parses an integer query parameter with default and bounds
func parseIntParam(query url.Values, name string, defaultValue, minValue, maxValue int) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %s must be an integer: %v", name, err)
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("parameter %s must be between %d and %d", name, minValue, maxValue)
	}
	return value, nil
}

// parseFloatParam parses a float query parameter with default and bounds
func parseFloatParam(query url.Values, name string, defaultValue, minValue, maxValue float64) (float64, error) {
	raw := query.Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %s must be a number: %v", name, err)
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("parameter %s must be between %g and %g", name, minValue, maxValue)
	}
	return value, nil
}

// createScene builds a scene by name
func createScene(name string) (*scene.Scene, error) {
	switch name {
	case "default":
		return scene.NewDefaultScene(), nil
	case "disk":
		s := scene.NewDefaultScene()
		s.Objects = nil
		return s, nil
	default:
		return nil, fmt.Errorf("unknown scene: %q", name)
	}
}

// imageToBase64PNG encodes an image as a base64 PNG string
func (s *Server) imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// sendSSEUpdate sends a frame update as an SSE event
func (s *Server) sendSSEUpdate(w http.ResponseWriter, update FrameUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return s.sendSSEEvent(w, "frame", string(data))
}

// sendSSEError sends an error message as an SSE event
func (s *Server) sendSSEError(w http.ResponseWriter, message string) {
	s.sendSSEEvent(w, "error", message)
}

// sendSSEEvent writes a single SSE event and flushes it to the client
func (s *Server) sendSSEEvent(w http.ResponseWriter, event, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// logLogger adapts the standard log package to the renderer's logger
type logLogger struct{}

func newLogLogger() *logLogger { return &logLogger{} }

func (l *logLogger) Printf(format string, args ...interface{}) {
	log.Printf(format, args...)
}
