package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/df07/go-curve-kernels/pkg/core"
	"github.com/df07/go-curve-kernels/pkg/renderer"
)

// TileUpdate represents a single finished tile sent via SSE
type TileUpdate struct {
	TileX      int    `json:"tileX"`
	TileY      int    `json:"tileY"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	ImageData  string `json:"imageData"`  // Base64 encoded PNG of just this tile
	TileNumber int    `json:"tileNumber"` // Tiles finished so far (1-based)
	TotalTiles int    `json:"totalTiles"`
	Hits       int    `json:"hits"`
}

// CompleteUpdate summarizes a finished render
type CompleteUpdate struct {
	ElapsedMs      int64   `json:"elapsedMs"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	PacketWidth    int     `json:"packetWidth"`
	PrimitiveCount int     `json:"primitiveCount"`
	PrimaryRays    int     `json:"primaryRays"`
	ShadowRays     int     `json:"shadowRays"`
	HitRatio       float64 `json:"hitRatio"`
	RaysPerSecond  float64 `json:"raysPerSecond"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "tile", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// handleRender renders a frame and streams each tile as it finishes via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx := r.Context()

	// Single writer goroutine; the handler waits for it so the response is
	// complete when the handler returns
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, ctx, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, req); err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	consoleChan, webLogger := s.setupConsoleLogging()
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()
	// Console messages go out before the final event
	flushConsole := func() {
		close(consoleChan)
		<-consoleDone
	}

	rt, primitives, err := s.setupRaytracer(req, webLogger)
	if err != nil {
		flushConsole()
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	startTime := time.Now()
	tileNumber := 0
	totalTiles := len(renderer.NewTileGrid(req.Width, req.Height, renderer.DefaultConfig().TileSize))
	_, stats, err := rt.RenderTiles(ctx, func(tile *renderer.Tile, img *image.RGBA, tileStats renderer.RenderStats) {
		tileNumber++
		s.handleTileUpdate(ctx, sseEventChan, tile, img, tileStats, tileNumber, totalTiles)
	})
	flushConsole()
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	data, err := json.Marshal(CompleteUpdate{
		ElapsedMs:      time.Since(startTime).Milliseconds(),
		Width:          req.Width,
		Height:         req.Height,
		PacketWidth:    req.PacketWidth,
		PrimitiveCount: primitives,
		PrimaryRays:    stats.PrimaryRays,
		ShadowRays:     stats.ShadowRays,
		HitRatio:       stats.HitRatio(),
		RaysPerSecond:  stats.RaysPerSecond,
	})
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: string(data)}:
	case <-ctx.Done():
	}
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	return consoleChan, NewWebLogger(renderID, consoleChan)
}

// setupRaytracer loads the scene and builds a raytracer for it
func (s *Server) setupRaytracer(req *RenderRequest, logger core.Logger) (*renderer.Raytracer, int, error) {
	sc, err := s.loadScene(req)
	if err != nil {
		return nil, 0, err
	}
	logger.Infof("loaded scene %q with %d primitives", req.Scene, sc.GetPrimitiveCount())

	config := renderer.DefaultConfig()
	config.Width = req.Width
	config.Height = req.Height
	config.PacketWidth = req.PacketWidth
	config.Time = req.Time

	rt, err := renderer.NewRaytracer(sc.Geometry, renderer.NewCamera(sc.CameraConfig), s.vi, config, logger)
	if err != nil {
		return nil, 0, err
	}
	return rt, sc.GetPrimitiveCount(), nil
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe)
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}

			_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data)
			if err != nil {
				// Client disconnected during write
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

// streamConsoleMessages forwards console messages until consoleChan is closed
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan chan ConsoleMessage, sseEventChan chan SSEEvent) {
	for consoleMsg := range consoleChan {
		data, err := json.Marshal(consoleMsg)
		if err != nil {
			logger.Warningf("error marshaling console message: %v", err)
			continue
		}

		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		default:
			// Channel full, skip message to avoid blocking
		}
	}
}

// handleTileUpdate encodes a finished tile and sends it
func (s *Server) handleTileUpdate(ctx context.Context, sseEventChan chan SSEEvent, tile *renderer.Tile, img *image.RGBA, stats renderer.RenderStats, tileNumber, totalTiles int) {
	if ctx.Err() != nil {
		return
	}

	tileData, err := imageToBase64PNG(img.SubImage(tile.Bounds))
	if err != nil {
		logger.Warningf("error encoding tile %d: %v", tile.ID, err)
		return
	}

	data, err := json.Marshal(TileUpdate{
		TileX:      tile.Bounds.Min.X,
		TileY:      tile.Bounds.Min.Y,
		Width:      tile.Bounds.Dx(),
		Height:     tile.Bounds.Dy(),
		ImageData:  tileData,
		TileNumber: tileNumber,
		TotalTiles: totalTiles,
		Hits:       stats.Hits,
	})
	if err != nil {
		logger.Warningf("error marshaling tile update: %v", err)
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "tile", Data: string(data)}:
	case <-ctx.Done():
	}
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
