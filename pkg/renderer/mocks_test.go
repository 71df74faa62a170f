package renderer

import (
	"sync/atomic"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// MockScene hits a constant surface for every ray pointing down (Y < 0) and
// returns a direction dependent sky otherwise. It counts intersection calls.
type MockScene struct {
	diffuse  core.Vec3
	emissive core.Vec3
	calls    atomic.Int64
}

func (m *MockScene) IntersectClosest(ray core.Ray) (core.HitRecord, bool) {
	m.calls.Add(1)
	if ray.Direction.Y >= 0 {
		return core.HitRecord{}, false
	}
	return core.HitRecord{
		Point:    ray.Origin.Add(ray.Direction),
		Normal:   core.NewVec3(0, 1, 0),
		Diffuse:  m.diffuse,
		Emissive: m.emissive,
	}, true
}

func (m *MockScene) SkyRadiance(direction core.Vec3) core.Vec3 {
	t := 0.5 * (direction.Y + 1.0)
	return core.NewVec3(1.0-0.5*t, 1.0-0.3*t, 1.0)
}

// EmissiveScene hits the same emitter for every ray
type EmissiveScene struct {
	emissive core.Vec3
}

func (e EmissiveScene) IntersectClosest(ray core.Ray) (core.HitRecord, bool) {
	return core.HitRecord{
		Point:    ray.Origin.Add(ray.Direction),
		Normal:   ray.Direction.Negate(),
		Emissive: e.emissive,
	}, true
}

func (e EmissiveScene) SkyRadiance(direction core.Vec3) core.Vec3 {
	return core.Vec3{}
}

// PanicScene fails on the intersection call with the given ordinal
type PanicScene struct {
	after int64
	calls atomic.Int64
}

func (p *PanicScene) IntersectClosest(ray core.Ray) (core.HitRecord, bool) {
	if p.calls.Add(1) > p.after {
		panic("intersection backend failure")
	}
	return core.HitRecord{}, false
}

func (p *PanicScene) SkyRadiance(direction core.Vec3) core.Vec3 {
	return core.NewVec3(0.9, 0.9, 1.2)
}

// testCamera looks down +Z with a 90 degree square frustum
func testCamera() *Camera {
	return NewCamera(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1), core.NewVec3(0, 1, 0), 90, 1)
}

// testConfig returns a small render config
func testConfig(width, height, samples int) Config {
	config := DefaultConfig()
	config.Width = width
	config.Height = height
	config.SamplesPerPixel = samples
	return config
}
