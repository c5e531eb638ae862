package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-curve-kernels/pkg/intersect"
	"github.com/df07/go-curve-kernels/pkg/log"
	"github.com/df07/go-curve-kernels/pkg/scene"
)

var logger = log.New("server")

// Request limits
const (
	minImageSize = 16
	maxImageSize = 2000
)

// Server handles web requests for rendering and inspecting scenes
type Server struct {
	port      int
	staticDir string
	vi        *intersect.VirtualIntersector
}

// NewServer creates a new web server. The intersector table is shared by every request.
func NewServer(port int, staticDir string, config intersect.Config) *Server {
	return &Server{
		port:      port,
		staticDir: staticDir,
		vi:        intersect.NewVirtualIntersector(config, logger),
	}
}

// RenderRequest represents a render or inspect request from the client
type RenderRequest struct {
	Scene       string  `json:"scene"`       // Built-in scene name or .pbrt path
	Width       int     `json:"width"`       // Image width, 0 for the scene's
	Height      int     `json:"height"`      // Image height, 0 for the scene's
	PacketWidth int     `json:"packetWidth"` // Rays traced together
	Time        float64 `json:"time"`        // Motion blur time
}

// Handler returns the request router
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}

	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	logger.Noticef("starting web server on http://localhost%s (packet widths %s)", addr, s.vi.Widths())
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scenes with their default image sizes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	type sceneInfo struct {
		Name       string `json:"name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		Primitives int    `json:"primitives"`
	}

	var scenes []sceneInfo
	for _, name := range scene.BuiltinNames() {
		sc, err := scene.NewBuiltinScene(name)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		scenes = append(scenes, sceneInfo{Name: name, Width: sc.Width, Height: sc.Height, Primitives: sc.GetPrimitiveCount()})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenes":       scenes,
		"packetWidths": s.vi.Widths().String(),
		"limits": map[string]int{
			"minSize": minImageSize,
			"maxSize": maxImageSize,
		},
	})
}

// parseCommonSceneParams parses the scene, image size and ray parameters shared by every endpoint
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) error {
	query := r.URL.Query()
	req.Scene = query.Get("scene")
	if req.Scene == "" {
		req.Scene = "hair"
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 0, minImageSize, maxImageSize); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(query, "height", 0, minImageSize, maxImageSize); err != nil {
		return err
	}
	if req.PacketWidth, err = parseIntParam(query, "packetWidth", 4, 1, 16); err != nil {
		return err
	}
	if !s.vi.Widths().Has(req.PacketWidth) {
		return fmt.Errorf("packetWidth %d not enabled (have %s)", req.PacketWidth, s.vi.Widths())
	}
	if req.Time, err = parseFloatParam(query, "time", 0, 0, 1); err != nil {
		return err
	}
	return nil
}

// loadScene loads the requested scene and fills in its default image size
func (s *Server) loadScene(req *RenderRequest) (*scene.Scene, error) {
	sc, err := scene.Load(req.Scene)
	if err != nil {
		return nil, err
	}
	if req.Width == 0 {
		req.Width = sc.Width
	}
	if req.Height == 0 {
		req.Height = sc.Height
	}
	sc.CameraConfig.Width = req.Width
	sc.CameraConfig.AspectRatio = float64(req.Width) / float64(req.Height)
	return sc, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warningf("error encoding response: %v", err)
	}
}
