package renderer

import (
	"image"
	"testing"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// MockIntegrator returns a constant color and counts calls
type MockIntegrator struct {
	returnColor core.Vec3
	callCount   int
}

func (m *MockIntegrator) Sample(ray core.Ray, scene core.Scene, sampler core.Sampler) core.Vec3 {
	m.callCount++
	return m.returnColor
}

func TestTileRendererTopsUpToTarget(t *testing.T) {
	acc := NewAccumulator(32, 32)
	mock := &MockIntegrator{returnColor: core.NewVec3(0.5, 0.25, 1)}
	tr := NewTileRenderer(&MockScene{}, testCamera(), mock, acc)
	tile := Tile{ID: 1, Bounds: image.Rect(16, 0, 32, 16)}

	taken := tr.RenderTile(tile, 4, core.NewStreamSampler(1, 1))
	if taken != 16*16*4 || mock.callCount != taken {
		t.Fatalf("Expected %d samples, got %d (calls %d)", 16*16*4, taken, mock.callCount)
	}

	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			inside := image.Pt(x, y).In(tile.Bounds)
			n := acc.Count(x, y)
			if inside && (n != 4 || acc.Mean(x, y) != mock.returnColor) {
				t.Fatalf("Pixel (%d,%d): n=%d mean=%v", x, y, n, acc.Mean(x, y))
			}
			if !inside && n != 0 {
				t.Fatalf("Pixel (%d,%d) outside the tile has %d samples", x, y, n)
			}
		}
	}

	// A second call with a higher target only adds the difference
	taken = tr.RenderTile(tile, 6, core.NewStreamSampler(1, 2))
	if taken != 16*16*2 {
		t.Errorf("Expected %d additional samples, got %d", 16*16*2, taken)
	}

	// Pixels already at the target are left alone
	if taken = tr.RenderTile(tile, 6, core.NewStreamSampler(1, 3)); taken != 0 {
		t.Errorf("Expected no samples for a complete tile, got %d", taken)
	}
}

func TestTileRendererStreamID(t *testing.T) {
	acc := NewAccumulator(32, 32)
	tr := NewTileRenderer(&MockScene{}, testCamera(), &MockIntegrator{}, acc)
	tile := Tile{ID: 3, Bounds: image.Rect(16, 16, 32, 32)}

	first := tr.streamID(tile)
	if first != 3<<32 {
		t.Errorf("Expected stream %d, got %d", uint64(3)<<32, first)
	}

	tr.RenderTile(tile, 2, core.NewStreamSampler(0, first))
	if second := tr.streamID(tile); second == first {
		t.Error("Expected a new stream once the tile holds samples")
	}
}
