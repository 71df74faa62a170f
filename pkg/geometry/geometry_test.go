package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

const tolerance = 1e-9

func vecNear(a, b core.Vec3) bool {
	return math.Abs(a.X-b.X) <= tolerance &&
		math.Abs(a.Y-b.Y) <= tolerance &&
		math.Abs(a.Z-b.Z) <= tolerance
}

func TestAABB_Hit(t *testing.T) {
	box := NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))

	tests := []struct {
		name   string
		origin core.Vec3
		dir    core.Vec3
		want   bool
	}{
		{"straight through", core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1), true},
		{"diagonal", core.NewVec3(-5, -5, -5), core.NewVec3(1, 1, 1).Normalize(), true},
		{"miss beside", core.NewVec3(2, 0, -5), core.NewVec3(0, 0, 1), false},
		{"pointing away", core.NewVec3(0, 0, -5), core.NewVec3(0, 0, -1), false},
		{"parallel inside slab", core.NewVec3(0.5, 0, -5), core.NewVec3(0, 0, 1), true},
		{"parallel outside slab", core.NewVec3(0, 1.5, -5), core.NewVec3(0, 0, 1), false},
		{"origin inside", core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.Hit(core.NewRay(tt.origin, tt.dir), 1e-5, math.Inf(1)); got != tt.want {
				t.Errorf("Hit = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestAABB_UnionAndAxis(t *testing.T) {
	a := NewAABB(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1))
	b := NewAABB(core.NewVec3(-2, 0.5, 0), core.NewVec3(0, 3, 0.5))

	u := a.Union(b)
	if u.Min != core.NewVec3(-2, 0, 0) || u.Max != core.NewVec3(1, 3, 1) {
		t.Errorf("Unexpected union %v", u)
	}
	if u.LongestAxis() != 0 && u.LongestAxis() != 1 {
		t.Errorf("Expected X or Y as longest axis, got %d", u.LongestAxis())
	}
	if NewAABB(core.Vec3{}, core.NewVec3(1, 1, 5)).LongestAxis() != 2 {
		t.Error("Expected Z as longest axis")
	}
}

func TestQuad_Hit(t *testing.T) {
	// 1x1 quad in the XZ plane at y=0; U × V points up
	quad := NewQuad(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1), core.NewVec3(1, 0, 0))
	if !vecNear(quad.Normal, core.NewVec3(0, 1, 0)) {
		t.Fatalf("Expected normal (0,1,0), got %v", quad.Normal)
	}

	tests := []struct {
		name       string
		origin     core.Vec3
		dir        core.Vec3
		wantHit    bool
		wantT      float64
		wantNormal core.Vec3
		wantFront  bool
	}{
		{"from above", core.NewVec3(0.5, 1, 0.5), core.NewVec3(0, -1, 0), true, 1, core.NewVec3(0, 1, 0), true},
		{"from below", core.NewVec3(0.5, -2, 0.5), core.NewVec3(0, 1, 0), true, 2, core.NewVec3(0, -1, 0), false},
		{"outside x", core.NewVec3(-0.5, 1, 0.5), core.NewVec3(0, -1, 0), false, 0, core.Vec3{}, false},
		{"outside z", core.NewVec3(0.5, 1, 1.5), core.NewVec3(0, -1, 0), false, 0, core.Vec3{}, false},
		{"parallel", core.NewVec3(0.5, 1, 0.5), core.NewVec3(1, 0, 0), false, 0, core.Vec3{}, false},
		{"behind origin", core.NewVec3(0.5, 1, 0.5), core.NewVec3(0, 1, 0), false, 0, core.Vec3{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, isHit := quad.Hit(core.NewRay(tt.origin, tt.dir), 1e-5, math.Inf(1))
			if isHit != tt.wantHit {
				t.Fatalf("Hit = %v, expected %v", isHit, tt.wantHit)
			}
			if !isHit {
				return
			}
			if math.Abs(hit.T-tt.wantT) > tolerance {
				t.Errorf("Expected t=%f, got %f", tt.wantT, hit.T)
			}
			if !vecNear(hit.Normal, tt.wantNormal) || hit.FrontFace != tt.wantFront {
				t.Errorf("Expected normal %v front=%v, got %v front=%v", tt.wantNormal, tt.wantFront, hit.Normal, hit.FrontFace)
			}
		})
	}
}

func TestBox_FacesPointOutward(t *testing.T) {
	box := NewAxisAlignedBox(core.NewVec3(0, 0.5, 0), core.NewVec3(1, 1, 1))

	tests := []struct {
		name       string
		origin     core.Vec3
		dir        core.Vec3
		wantT      float64
		wantNormal core.Vec3
	}{
		{"front", core.NewVec3(0, 0.5, 5), core.NewVec3(0, 0, -1), 4, core.NewVec3(0, 0, 1)},
		{"back", core.NewVec3(0, 0.5, -5), core.NewVec3(0, 0, 1), 4, core.NewVec3(0, 0, -1)},
		{"right", core.NewVec3(5, 0.5, 0), core.NewVec3(-1, 0, 0), 4, core.NewVec3(1, 0, 0)},
		{"left", core.NewVec3(-5, 0.5, 0), core.NewVec3(1, 0, 0), 4, core.NewVec3(-1, 0, 0)},
		{"top", core.NewVec3(0, 5, 0), core.NewVec3(0, -1, 0), 3.5, core.NewVec3(0, 1, 0)},
		{"bottom", core.NewVec3(0, -5, 0), core.NewVec3(0, 1, 0), 4.5, core.NewVec3(0, -1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, isHit := box.Hit(core.NewRay(tt.origin, tt.dir), 1e-5, math.Inf(1))
			if !isHit {
				t.Fatal("Expected hit")
			}
			if math.Abs(hit.T-tt.wantT) > tolerance {
				t.Errorf("Expected t=%f, got %f", tt.wantT, hit.T)
			}
			if !vecNear(hit.Normal, tt.wantNormal) || !hit.FrontFace {
				t.Errorf("Expected outward normal %v, got %v front=%v", tt.wantNormal, hit.Normal, hit.FrontFace)
			}
		})
	}
}

func TestBox_HitFromInside(t *testing.T) {
	box := NewAxisAlignedBox(core.Vec3{}, core.NewVec3(1, 1, 1))
	hit, isHit := box.Hit(core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0)), 1e-5, math.Inf(1))
	if !isHit {
		t.Fatal("Expected hit from inside")
	}
	if hit.FrontFace || !vecNear(hit.Normal, core.NewVec3(0, -1, 0)) {
		t.Errorf("Expected back face with normal against the ray, got %v front=%v", hit.Normal, hit.FrontFace)
	}
}

func TestBox_RotationY(t *testing.T) {
	box := NewBox(core.Vec3{}, core.NewVec3(1, 1, 1), math.Pi/4)
	bbox := box.BoundingBox()
	if math.Abs(bbox.Max.X-math.Sqrt2) > tolerance || math.Abs(bbox.Max.Y-1) > tolerance {
		t.Errorf("Unexpected rotated bounds %v", bbox)
	}

	// The rotated corner sits on the X axis; just beside it the face is the plane x + z = √2
	hit, isHit := box.Hit(core.NewRay(core.NewVec3(5, 0, 0.1), core.NewVec3(-1, 0, 0)), 1e-5, math.Inf(1))
	want := 5 - (math.Sqrt2 - 0.1)
	if !isHit || math.Abs(hit.T-want) > 1e-6 {
		t.Errorf("Expected hit at t=%f, got %v (hit=%v)", want, hit.T, isHit)
	}
	wantNormal := core.NewVec3(1, 0, 1).Normalize()
	if math.Abs(hit.Normal.Subtract(wantNormal).Length()) > 1e-6 {
		t.Errorf("Expected normal %v, got %v", wantNormal, hit.Normal)
	}
}

func TestSphere_Hit(t *testing.T) {
	sphere := NewSphere(core.Vec3{}, 1)

	hit, isHit := sphere.Hit(core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1)), 1e-5, math.Inf(1))
	if !isHit || math.Abs(hit.T-1) > tolerance || !hit.FrontFace || !vecNear(hit.Normal, core.NewVec3(0, 0, 1)) {
		t.Errorf("Front hit: t=%v normal=%v front=%v", hit.T, hit.Normal, hit.FrontFace)
	}

	hit, isHit = sphere.Hit(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), 1e-5, math.Inf(1))
	if !isHit || math.Abs(hit.T-1) > tolerance || hit.FrontFace || !vecNear(hit.Normal, core.NewVec3(0, 0, 1)) {
		t.Errorf("Inside hit: t=%v normal=%v front=%v", hit.T, hit.Normal, hit.FrontFace)
	}

	if _, isHit := sphere.Hit(core.NewRay(core.NewVec3(2, 0, 0), core.NewVec3(0, 1, 0)), 1e-5, math.Inf(1)); isHit {
		t.Error("Expected miss")
	}
	if _, isHit := sphere.Hit(core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1)), 1e-5, 0.5); isHit {
		t.Error("Expected miss beyond tMax")
	}
}

func TestTriangle_Hit(t *testing.T) {
	tri := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0))
	if !vecNear(tri.Normal(), core.NewVec3(0, 0, 1)) {
		t.Fatalf("Expected normal (0,0,1), got %v", tri.Normal())
	}

	tests := []struct {
		name      string
		origin    core.Vec3
		wantHit   bool
		wantFront bool
	}{
		{"inside from front", core.NewVec3(0.25, 0.25, 2), true, true},
		{"outside hypotenuse", core.NewVec3(0.75, 0.75, 2), false, false},
		{"outside u", core.NewVec3(-0.1, 0.5, 2), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, isHit := tri.Hit(core.NewRay(tt.origin, core.NewVec3(0, 0, -1)), 1e-5, math.Inf(1))
			if isHit != tt.wantHit {
				t.Fatalf("Hit = %v, expected %v", isHit, tt.wantHit)
			}
			if isHit && (math.Abs(hit.T-2) > tolerance || hit.FrontFace != tt.wantFront) {
				t.Errorf("Unexpected hit t=%f front=%v", hit.T, hit.FrontFace)
			}
		})
	}

	hit, isHit := tri.Hit(core.NewRay(core.NewVec3(0.25, 0.25, -1), core.NewVec3(0, 0, 1)), 1e-5, math.Inf(1))
	if !isHit || hit.FrontFace || !vecNear(hit.Normal, core.NewVec3(0, 0, -1)) {
		t.Errorf("Back hit: normal %v front=%v hit=%v", hit.Normal, hit.FrontFace, isHit)
	}

	if !NewTriangle(core.Vec3{}, core.NewVec3(1, 0, 0), core.NewVec3(2, 0, 0)).IsDegenerate() {
		t.Error("Expected collinear triangle to be degenerate")
	}
}
