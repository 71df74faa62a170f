package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-tiled-pathtracer/pkg/integrator"
	"github.com/df07/go-tiled-pathtracer/pkg/loaders"
	"github.com/df07/go-tiled-pathtracer/pkg/renderer"
	"github.com/df07/go-tiled-pathtracer/pkg/scene"
)

// DefaultTileSize is the tile edge used for web renders
const DefaultTileSize = 16

// Server handles web requests for the progressive path tracer
type Server struct {
	port     int
	sceneDir string
	logger   *slog.Logger
}

// NewServer creates a new web server. Scene files are discovered in sceneDir.
// A nil logger discards output.
func NewServer(port int, sceneDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{port: port, sceneDir: sceneDir, logger: logger}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene      string             `json:"scene"`      // Scene ID (e.g., "cornell" or "file:room")
	Width      int                `json:"width"`      // Image width
	Height     int                `json:"height"`     // Image height
	TileSize   int                `json:"tileSize"`   // Tile edge length
	MaxSamples int                `json:"maxSamples"` // Samples per pixel after the last pass
	MaxPasses  int                `json:"maxPasses"`  // Number of progressive passes
	Variant    integrator.Variant `json:"variant"`    // Integrator variant
	Seed       uint64             `json:"seed"`       // Run seed
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/scenes", s.handleScenes)
	mux.HandleFunc("GET /api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("GET /api/render", s.handleRender)
	mux.HandleFunc("GET /api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting web server", "addr", "http://localhost"+srv.Addr)
	return srv.ListenAndServe()
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scenes followed by the scene files
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	scenes := scene.Builtins()
	if s.sceneDir != "" {
		files, err := loaders.ListSceneFiles(s.sceneDir, s.logger)
		if err != nil {
			s.logger.Warn("scene discovery failed", "dir", s.sceneDir, "error", err)
		}
		scenes = append(scenes, files...)
	}
	writeJSON(w, http.StatusOK, scenes)
}

// handleSceneConfig returns the default render settings and the accepted limits
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	req := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sceneObj, err := s.createScene(req.Scene)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	defaults := renderer.DefaultConfig()
	var variants []string
	for _, v := range integrator.Variants() {
		variants = append(variants, v.String())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"scene":  req.Scene,
		"name":   sceneObj.Name,
		"shapes": sceneObj.NumShapes(),
		"defaults": map[string]any{
			"width":      req.Width,
			"height":     req.Height,
			"tileSize":   DefaultTileSize,
			"maxSamples": defaults.SamplesPerPixel,
			"maxPasses":  7,
			"variant":    defaults.Variant.String(),
			"seed":       defaults.Seed,
		},
		"variants": variants,
		"limits": map[string]any{
			"width":      map[string]int{"min": 16, "max": 2048},
			"height":     map[string]int{"min": 16, "max": 2048},
			"maxSamples": map[string]int{"min": 1, "max": 10000},
			"maxPasses":  map[string]int{"min": 1, "max": 10000},
		},
	})
}

// createScene resolves a scene ID. IDs with the "file:" prefix name a JSON
// file in the scene directory; everything else is a built-in scene.
func (s *Server) createScene(id string) (*scene.Scene, error) {
	name, isFile := strings.CutPrefix(id, "file:")
	if !isFile {
		return scene.ByName(id)
	}
	if s.sceneDir == "" || name == "" || name != filepath.Base(name) || name == ".." {
		return nil, fmt.Errorf("%w: %q", scene.ErrUnknownScene, id)
	}
	return loaders.LoadScene(filepath.Join(s.sceneDir, name+".json"), s.logger)
}

// parseCommonSceneParams parses the parameters shared by render and inspect requests
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) error {
	query := r.URL.Query()

	req.Scene = query.Get("scene")
	if req.Scene == "" {
		req.Scene = "cornell" // Default scene
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", 400, 16, 2048); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(query, "height", 400, 16, 2048); err != nil {
		return err
	}
	return nil
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, req); err != nil {
		return nil, err
	}

	query := r.URL.Query()
	var err error
	if req.TileSize, err = parseIntParam(query, "tileSize", DefaultTileSize, 1, 512); err != nil {
		return nil, err
	}
	if req.MaxSamples, err = parseIntParam(query, "maxSamples", 64, 1, 10000); err != nil {
		return nil, err
	}
	if req.MaxPasses, err = parseIntParam(query, "maxPasses", 7, 1, 10000); err != nil {
		return nil, err
	}

	req.Variant = renderer.DefaultConfig().Variant
	if name := query.Get("variant"); name != "" {
		if req.Variant, err = integrator.ParseVariant(name); err != nil {
			return nil, err
		}
	}

	req.Seed = renderer.DefaultConfig().Seed
	if value := query.Get("seed"); value != "" {
		if req.Seed, err = strconv.ParseUint(value, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid seed: %s", value)
		}
	}

	// Performance warning
	if req.Width*req.Height > 800*600 && req.MaxSamples > 100 {
		s.logger.Warn("large image with high samples may render slowly",
			"width", req.Width, "height", req.Height, "samples", req.MaxSamples)
	}

	return req, nil
}

// config converts the request into a render config
func (req *RenderRequest) config() renderer.Config {
	config := renderer.DefaultConfig()
	config.Width = req.Width
	config.Height = req.Height
	config.TileSize = req.TileSize
	config.SamplesPerPixel = req.MaxSamples
	config.Passes = min(req.MaxPasses, req.MaxSamples)
	config.Variant = req.Variant
	config.Seed = req.Seed
	return config
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

// writeJSON writes v with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
