package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/df07/go-tiled-pathtracer/pkg/imageio"
	"github.com/df07/go-tiled-pathtracer/pkg/renderer"
	"github.com/df07/go-tiled-pathtracer/pkg/scene"
)

// TileUpdate represents a single tile update sent via SSE
type TileUpdate struct {
	TileX       int    `json:"tileX"`
	TileY       int    `json:"tileY"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG of just this tile
	PassNumber  int    `json:"passNumber"`
	Samples     int    `json:"samples"`     // Samples taken for the tile in this pass
	TotalTiles  int    `json:"totalTiles"`  // Total number of tiles in the image
	TotalPasses int    `json:"totalPasses"` // Total number of passes planned
}

// PassUpdate represents a completed pass sent via SSE
type PassUpdate struct {
	PassNumber     int     `json:"passNumber"`
	TotalPasses    int     `json:"totalPasses"`
	ImageData      string  `json:"imageData"` // Base64 encoded PNG of the whole image
	ElapsedMs      int64   `json:"elapsedMs"`
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int     `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	MaxSamples     int     `json:"maxSamples"`
	MinSamples     int     `json:"minSamples"`
	MaxSamplesUsed int     `json:"maxSamplesUsed"`
	ShapeCount     int     `json:"shapeCount"`
	IsComplete     bool    `json:"isComplete"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "tile", "passComplete", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// handleRender handles progressive rendering with real-time tile streaming via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx := r.Context()

	// Create unified SSE event channel for thread-safe writing. The writer is
	// drained and joined before the handler returns.
	sseEventChan := make(chan SSEEvent, 100)
	var writer sync.WaitGroup
	writer.Go(func() { s.writeSSEEvents(ctx, w, sseEventChan) })
	defer func() {
		close(sseEventChan)
		writer.Wait()
	}()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Console lines are flushed before the final event so it stays last
	consoleCtx, stopConsole := context.WithCancel(ctx)
	consoleChan := make(chan ConsoleMessage, 50)
	var console sync.WaitGroup
	console.Go(func() { s.streamConsoleMessages(consoleCtx, consoleChan, sseEventChan) })
	flushConsole := func() {
		stopConsole()
		console.Wait()
	}
	defer flushConsole()

	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	logger := slog.New(NewConsoleHandler(consoleChan, s.logger.Handler())).With("render", renderID)

	sceneObj, err := s.createScene(req.Scene)
	if err != nil {
		flushConsole()
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	config := req.config()
	camera := sceneObj.View.Camera(float64(config.Width) / float64(config.Height))
	raytracer, err := renderer.New(sceneObj, camera, config, logger)
	if err != nil {
		flushConsole()
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	startTime := time.Now()
	passChan, tileChan, errChan := raytracer.RenderProgressive(ctx, renderer.RenderOptions{TileUpdates: true})

	err = s.handleRenderingEvents(ctx, sseEventChan, passChan, tileChan, errChan, sceneObj, config.Passes, startTime)
	flushConsole()
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: "Rendering completed"}:
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

// writeSSEEvents writes all SSE events from a single goroutine. It keeps
// draining the channel after the client goes away so senders never block.
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, sseEventChan <-chan SSEEvent) {
	flusher, _ := w.(http.Flusher)
	failed := false

	for event := range sseEventChan {
		if failed || ctx.Err() != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			failed = true
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// streamConsoleMessages forwards console messages until ctx is done, then
// forwards whatever is still buffered
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	forward := func(msg ConsoleMessage) {
		data, err := json.Marshal(msg)
		if err != nil {
			s.logger.Error("failed to marshal console message", "error", err)
			return
		}
		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		default:
			// Channel full, skip message to avoid blocking
		}
	}

	for {
		select {
		case msg := <-consoleChan:
			forward(msg)
		case <-ctx.Done():
			for {
				select {
				case msg := <-consoleChan:
					forward(msg)
				default:
					return
				}
			}
		}
	}
}

// handleRenderingEvents forwards pass and tile results until the render ends
// and returns its error
func (s *Server) handleRenderingEvents(ctx context.Context, sseEventChan chan<- SSEEvent,
	passChan <-chan renderer.PassResult, tileChan <-chan renderer.TileCompletionResult, errChan <-chan error,
	sceneObj *scene.Scene, totalPasses int, startTime time.Time) error {

	for passChan != nil || tileChan != nil {
		select {
		case passResult, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			s.handlePassComplete(ctx, sseEventChan, passResult, sceneObj, totalPasses, startTime)

		case tileResult, ok := <-tileChan:
			if !ok {
				tileChan = nil
				continue
			}
			s.handleTileUpdate(ctx, sseEventChan, tileResult)

		case <-ctx.Done():
			// Client disconnected; the render stops on the same context
			return ctx.Err()
		}
	}

	return <-errChan
}

// handlePassComplete processes and sends pass completion events
func (s *Server) handlePassComplete(ctx context.Context, sseEventChan chan<- SSEEvent, passResult renderer.PassResult, sceneObj *scene.Scene, totalPasses int, startTime time.Time) {
	imageData, err := imageToBase64PNG(passResult.Image)
	if err != nil {
		s.logger.Error("failed to encode pass image", "pass", passResult.PassNumber, "error", err)
		return
	}

	stats := passResult.Stats
	update := PassUpdate{
		PassNumber:     passResult.PassNumber,
		TotalPasses:    totalPasses,
		ImageData:      imageData,
		ElapsedMs:      time.Since(startTime).Milliseconds(),
		TotalPixels:    stats.TotalPixels,
		TotalSamples:   stats.TotalSamples,
		AverageSamples: stats.AverageSamples,
		MaxSamples:     stats.MaxSamples,
		MinSamples:     stats.MinSamples,
		MaxSamplesUsed: stats.MaxSamplesUsed,
		ShapeCount:     sceneObj.NumShapes(),
		IsComplete:     passResult.IsLast,
	}

	s.sendEvent(ctx, sseEventChan, "passComplete", update)
}

// handleTileUpdate processes and sends tile update events
func (s *Server) handleTileUpdate(ctx context.Context, sseEventChan chan<- SSEEvent, tileResult renderer.TileCompletionResult) {
	tileData, err := imageToBase64PNG(tileResult.TileImage)
	if err != nil {
		s.logger.Error("failed to encode tile image", "tile_x", tileResult.TileX, "tile_y", tileResult.TileY, "error", err)
		return
	}

	update := TileUpdate{
		TileX:       tileResult.TileX,
		TileY:       tileResult.TileY,
		ImageData:   tileData,
		PassNumber:  tileResult.PassNumber,
		Samples:     tileResult.Samples,
		TotalTiles:  tileResult.TotalTiles,
		TotalPasses: tileResult.TotalPasses,
	}

	s.sendEvent(ctx, sseEventChan, "tile", update)
}

// sendEvent marshals v and queues it for the SSE writer
func (s *Server) sendEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to marshal event", "type", eventType, "error", err)
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: string(data)}:
	case <-ctx.Done():
	}
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan<- SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("no image")
	}
	var buf bytes.Buffer
	if err := imageio.Encode(&buf, img, imageio.PNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
