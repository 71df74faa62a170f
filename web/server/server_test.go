package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
	"github.com/df07/go-tiled-pathtracer/pkg/scene"
)

const testSceneJSON = `{
	"name": "test-room",
	"description": "Floor and a lamp",
	"camera": {"lookFrom": [0, 1, -5], "lookAt": [0, 1, 0]},
	"materials": {
		"floor": {"diffuse": [0.8, 0.8, 0.8]},
		"lamp": {"emissive": [5, 4, 3]}
	},
	"quads": [{"corner": [-5, 0, -5], "u": [0, 0, 10], "v": [10, 0, 0], "material": "floor"}],
	"spheres": [{"center": [0, 3, 0], "radius": 0.5, "material": "lamp"}]
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "room.json"), []byte(testSceneJSON), 0o644); err != nil {
		t.Fatalf("failed to write scene: %v", err)
	}
	return NewServer(0, dir, nil)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// sseEvents splits an SSE body into event types and payloads
func sseEvents(body string) (types []string, data []string) {
	for _, block := range strings.Split(body, "\n\n") {
		var typ, payload string
		for _, line := range strings.Split(block, "\n") {
			if v, ok := strings.CutPrefix(line, "event: "); ok {
				typ = v
			} else if v, ok := strings.CutPrefix(line, "data: "); ok {
				payload = v
			}
		}
		if typ != "" {
			types = append(types, typ)
			data = append(data, payload)
		}
	}
	return types, data
}

func TestHandleHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/health")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("Unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandleScenes(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/scenes")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var scenes []scene.SceneInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &scenes); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	ids := make(map[string]bool)
	for _, info := range scenes {
		ids[info.ID] = true
	}
	for _, want := range []string{"cubes", "cornell", "file:room"} {
		if !ids[want] {
			t.Errorf("Scene %q missing from %v", want, scenes)
		}
	}
}

func TestHandleSceneConfig(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/api/scene-config?scene=cubes")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var response map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if response["shapes"] != float64(32) {
		t.Errorf("Expected 32 shapes, got %v", response["shapes"])
	}

	if rec := get(t, s, "/api/scene-config?scene=nope"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an unknown scene, got %d", rec.Code)
	}
}

func TestCreateScene(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		id      string
		wantErr bool
	}{
		{"cornell", false},
		{"Cubes", false},
		{"file:room", false},
		{"file:missing", true},
		{"file:../room", true},
		{"file:", true},
		{"nonexistent", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			sceneObj, err := s.createScene(tt.id)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.id)
				}
				return
			}
			if err != nil || sceneObj == nil {
				t.Errorf("Unexpected error for %q: %v", tt.id, err)
			}
		})
	}
}

func TestHandleRender(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/render?scene=cornell&width=32&height=32&tileSize=16&maxSamples=2&maxPasses=2")

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected SSE content type, got %q", ct)
	}

	types, data := sseEvents(rec.Body.String())
	counts := make(map[string]int)
	for _, typ := range types {
		counts[typ]++
	}

	if counts["error"] != 0 {
		t.Fatalf("Unexpected error events: %v", data)
	}
	if counts["passComplete"] != 2 {
		t.Errorf("Expected 2 passComplete events, got %d", counts["passComplete"])
	}
	if counts["tile"] < 1 || counts["tile"] > 8 {
		t.Errorf("Unexpected number of tile events: %d", counts["tile"])
	}
	if len(types) == 0 || types[len(types)-1] != "complete" {
		t.Errorf("Expected the stream to end with complete, got %v", types)
	}

	for i, typ := range types {
		if typ != "passComplete" {
			continue
		}
		var update PassUpdate
		if err := json.Unmarshal([]byte(data[i]), &update); err != nil {
			t.Fatalf("Invalid pass update: %v", err)
		}
		if update.TotalPasses != 2 || update.TotalPixels != 32*32 || update.ImageData == "" {
			t.Errorf("Unexpected pass update %+v", update)
		}
		if update.IsComplete && update.MinSamples != 2 {
			t.Errorf("Expected 2 samples after the last pass, got %d", update.MinSamples)
		}
	}
}

func TestHandleRenderErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown scene", "scene=nonexistent&width=32&height=32"},
		{"bad width", "width=abc"},
		{"width out of range", "width=4096"},
		{"unknown variant", "variant=bidirectional"},
		{"uneven tiles", "width=40&height=32&tileSize=16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(t), "/api/render?"+tt.query)
			types, _ := sseEvents(rec.Body.String())
			if len(types) == 0 || types[len(types)-1] != "error" {
				t.Errorf("Expected a final error event, got %v", types)
			}
		})
	}
}

func TestHandleInspect(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name         string
		query        string
		wantHit      bool
		wantMaterial string
	}{
		{"white block or back wall", "x=200&y=200", true, "diffuse"},
		{"ceiling light", "x=200&y=55", true, "emissive"},
		{"above the open box", "x=200&y=0", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, "/api/inspect?scene=cornell&width=400&height=400&"+tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var response InspectResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
				t.Fatalf("Invalid JSON: %v", err)
			}
			if response.Hit != tt.wantHit || response.MaterialType != tt.wantMaterial {
				t.Errorf("Got hit=%v material=%q, expected hit=%v material=%q",
					response.Hit, response.MaterialType, tt.wantHit, tt.wantMaterial)
			}
			if response.Hit && response.Distance <= 800 {
				t.Errorf("Expected a hit inside the box, distance %g", response.Distance)
			}
		})
	}

	for _, query := range []string{"x=400&y=0", "x=-1&y=0", "x=a&y=0", "x=0"} {
		if rec := get(t, s, "/api/inspect?scene=cornell&width=400&height=400&"+query); rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %q, got %d", query, rec.Code)
		}
	}
}

func TestHexColor(t *testing.T) {
	tests := []struct {
		name  string
		color core.Vec3
		want  string
	}{
		{"black", core.NewVec3(0, 0, 0), "#000000"},
		{"white", core.NewVec3(1, 1, 1), "#ffffff"},
		{"clamped", core.NewVec3(-2, 0.5, 7), "#007fff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hexColor(tt.color); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
