package geometry

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// bruteForceHit finds the closest hit by testing every shape
func bruteForceHit(shapes []Shape, ray core.Ray, tMin, tMax float64) (SurfaceHit, bool) {
	var closest SurfaceHit
	hitAnything := false
	for _, shape := range shapes {
		if hit, isHit := shape.Hit(ray, tMin, tMax); isHit {
			hitAnything = true
			tMax = hit.T
			closest = hit
		}
	}
	return closest, hitAnything
}

func randomShapes(random *rand.Rand, n int) []Shape {
	shapes := make([]Shape, 0, n)
	for i := 0; i < n; i++ {
		center := core.NewVec3(random.Float64()*20-10, random.Float64()*20-10, random.Float64()*20-10)
		if i%2 == 0 {
			shapes = append(shapes, NewSphere(center, 0.2+random.Float64()))
		} else {
			shapes = append(shapes, NewBox(center, core.NewVec3(0.5, 0.3, 0.8), random.Float64()*math.Pi))
		}
	}
	return shapes
}

func TestBVH_MatchesBruteForce(t *testing.T) {
	random := rand.New(rand.NewPCG(1, 2))
	shapes := randomShapes(random, 100)
	bvh := NewBVH(shapes)

	for i := 0; i < 2000; i++ {
		origin := core.NewVec3(random.Float64()*30-15, random.Float64()*30-15, random.Float64()*30-15)
		dir := core.SampleUniformSphere(core.NewVec2(random.Float64(), random.Float64()))
		ray := core.NewRay(origin, dir)

		want, wantHit := bruteForceHit(shapes, ray, 1e-5, math.Inf(1))
		got, gotHit := bvh.Hit(ray, 1e-5, math.Inf(1))
		if wantHit != gotHit {
			t.Fatalf("Ray %d: BVH hit=%v, brute force hit=%v", i, gotHit, wantHit)
		}
		if wantHit && math.Abs(want.T-got.T) > tolerance {
			t.Fatalf("Ray %d: BVH t=%f, brute force t=%f", i, got.T, want.T)
		}
	}
}

func TestBVH_LeafThresholdBoundary(t *testing.T) {
	shapes := make([]Shape, leafThreshold)
	for i := range shapes {
		shapes[i] = NewSphere(core.NewVec3(float64(i)*3, 0, 0), 1)
	}

	stats := NewBVH(shapes).getStats()
	if stats.totalNodes != 1 || stats.leafNodes != 1 {
		t.Errorf("Expected a single leaf for %d shapes, got %+v", len(shapes), stats)
	}

	shapes = append(shapes, NewSphere(core.NewVec3(100, 0, 0), 1))
	stats = NewBVH(shapes).getStats()
	if stats.totalNodes == 1 {
		t.Errorf("Expected split for %d shapes", len(shapes))
	}
	if stats.totalShapes != len(shapes) {
		t.Errorf("Expected %d shapes in leaves, got %d", len(shapes), stats.totalShapes)
	}
}

func TestBVH_Empty(t *testing.T) {
	bvh := NewBVH(nil)
	if _, isHit := bvh.Hit(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1)), 1e-5, math.Inf(1)); isHit {
		t.Error("Expected miss on an empty BVH")
	}
}

func TestBVH_DoesNotReorderInput(t *testing.T) {
	shapes := []Shape{}
	for i := 20; i > 0; i-- {
		shapes = append(shapes, NewSphere(core.NewVec3(float64(i), 0, 0), 0.1))
	}
	first := shapes[0]
	NewBVH(shapes)
	if shapes[0] != first {
		t.Error("NewBVH reordered the caller's slice")
	}
}

// bvhStats contains statistics about the BVH structure
type bvhStats struct {
	totalNodes  int
	leafNodes   int
	maxDepth    int
	totalShapes int
}

// getStats returns statistics about the BVH structure
func (bvh *BVH) getStats() bvhStats {
	var stats bvhStats
	if bvh.Root != nil {
		bvh.collectStats(bvh.Root, 0, &stats)
	}
	return stats
}

// collectStats recursively collects statistics about the BVH
func (bvh *BVH) collectStats(node *BVHNode, depth int, stats *bvhStats) {
	stats.totalNodes++
	stats.maxDepth = max(stats.maxDepth, depth)

	if node.Shapes != nil {
		stats.leafNodes++
		stats.totalShapes += len(node.Shapes)
		return
	}
	if node.Left != nil {
		bvh.collectStats(node.Left, depth+1, stats)
	}
	if node.Right != nil {
		bvh.collectStats(node.Right, depth+1, stats)
	}
}
