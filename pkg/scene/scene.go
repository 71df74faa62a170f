package scene

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
	"github.com/df07/go-tiled-pathtracer/pkg/geometry"
	"github.com/df07/go-tiled-pathtracer/pkg/renderer"
)

var (
	// ErrUnknownScene is returned when a scene name is not registered
	ErrUnknownScene = errors.New("unknown scene")
	// ErrInvalidScene is returned for scenes that cannot be built
	ErrInvalidScene = errors.New("invalid scene")
)

// TMin is the closest hit distance accepted along a ray
const TMin = 1e-5

// DefaultSky is the constant background radiance
var DefaultSky = core.NewVec3(0.9, 0.9, 1.2)

// Material is the surface description seen by the integrator
type Material struct {
	Diffuse  core.Vec3 // Lambertian albedo, componentwise in [0,1]
	Emissive core.Vec3 // Emitted radiance
}

// Validate rejects negative or non-finite components and albedo above 1
func (m Material) Validate() error {
	for _, c := range []float64{m.Diffuse.X, m.Diffuse.Y, m.Diffuse.Z, m.Emissive.X, m.Emissive.Y, m.Emissive.Z} {
		if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: material component %v", ErrInvalidScene, c)
		}
	}
	if m.Diffuse.X > 1 || m.Diffuse.Y > 1 || m.Diffuse.Z > 1 {
		return fmt.Errorf("%w: diffuse albedo %v exceeds 1", ErrInvalidScene, m.Diffuse)
	}
	return nil
}

// View describes where the camera sits; the aspect ratio comes from the render size
type View struct {
	LookFrom core.Vec3
	LookAt   core.Vec3
	Up       core.Vec3
	VFov     float64 // Vertical field of view in degrees
}

// Camera creates the camera for an image with the given width/height ratio
func (v View) Camera(aspectRatio float64) *renderer.Camera {
	return renderer.NewCamera(v.LookFrom, v.LookAt, v.Up, v.VFov, aspectRatio)
}

// primitive binds a shape to a material index
type primitive struct {
	geometry.Shape
	material int
}

func (p primitive) Hit(ray core.Ray, tMin, tMax float64) (geometry.SurfaceHit, bool) {
	hit, isHit := p.Shape.Hit(ray, tMin, tMax)
	hit.Material = p.material
	return hit, isHit
}

// Scene is a set of shapes with materials under a sky. It implements
// core.Scene. Shapes are added first; the BVH is built on the first query (or
// by Build), after which the scene is read-only and safe for concurrent use.
type Scene struct {
	Name        string
	View        View
	Sky         core.Vec3 // Constant background radiance
	SkyGradient *Gradient // Replaces Sky when set

	materials  []Material
	primitives []geometry.Shape
	bvh        *geometry.BVH
	buildOnce  sync.Once
}

// New creates an empty scene with the default sky
func New(name string, view View) *Scene {
	return &Scene{
		Name: name,
		View: view,
		Sky:  DefaultSky,
	}
}

// AddMaterial registers a material and returns its index
func (s *Scene) AddMaterial(m Material) (int, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	s.materials = append(s.materials, m)
	return len(s.materials) - 1, nil
}

// Add places a shape in the scene with a previously registered material
func (s *Scene) Add(shape geometry.Shape, material int) error {
	if s.bvh != nil {
		return fmt.Errorf("%w: scene %q is already built", ErrInvalidScene, s.Name)
	}
	if material < 0 || material >= len(s.materials) {
		return fmt.Errorf("%w: material index %d out of range", ErrInvalidScene, material)
	}
	s.primitives = append(s.primitives, primitive{Shape: shape, material: material})
	return nil
}

// mustAdd is used by the built-in scenes, whose materials are known to exist
func (s *Scene) mustAdd(shape geometry.Shape, material int) {
	if err := s.Add(shape, material); err != nil {
		panic(err)
	}
}

// mustMaterial is used by the built-in scenes, whose materials are known to be valid
func (s *Scene) mustMaterial(m Material) int {
	index, err := s.AddMaterial(m)
	if err != nil {
		panic(err)
	}
	return index
}

// Build constructs the acceleration structure. It is idempotent.
func (s *Scene) Build() {
	s.buildOnce.Do(func() {
		s.bvh = geometry.NewBVH(s.primitives)
	})
}

// NumShapes returns the number of shapes in the scene
func (s *Scene) NumShapes() int {
	return len(s.primitives)
}

// NumMaterials returns the number of registered materials
func (s *Scene) NumMaterials() int {
	return len(s.materials)
}

// IntersectClosest returns the nearest surface along the ray beyond TMin.
// The normal faces against the ray.
func (s *Scene) IntersectClosest(ray core.Ray) (core.HitRecord, bool) {
	s.Build()

	hit, isHit := s.bvh.Hit(ray, TMin, math.Inf(1))
	if !isHit {
		return core.HitRecord{}, false
	}

	m := s.materials[hit.Material]
	return core.HitRecord{
		Point:    hit.Point,
		Normal:   hit.Normal,
		Diffuse:  m.Diffuse,
		Emissive: m.Emissive,
	}, true
}

// SkyRadiance returns the background radiance along direction
func (s *Scene) SkyRadiance(direction core.Vec3) core.Vec3 {
	if s.SkyGradient != nil {
		return s.SkyGradient.Radiance(direction)
	}
	return s.Sky
}
