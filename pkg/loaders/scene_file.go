package loaders

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
	"github.com/df07/go-tiled-pathtracer/pkg/geometry"
	"github.com/df07/go-tiled-pathtracer/pkg/scene"
)

// ErrInvalidSceneFile is returned for scene or mesh files that cannot be used
var ErrInvalidSceneFile = errors.New("invalid scene file")

// Vec is a JSON triple [x, y, z]
type Vec [3]float64

func (v Vec) vec3() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// CameraSpec places the camera
type CameraSpec struct {
	LookFrom Vec     `json:"lookFrom"`
	LookAt   Vec     `json:"lookAt"`
	Up       *Vec    `json:"up,omitempty"`   // default [0,1,0]
	VFov     float64 `json:"vfov,omitempty"` // degrees, default 40
}

// MaterialSpec is a diffuse and emissive pair
type MaterialSpec struct {
	Diffuse  Vec `json:"diffuse"`
	Emissive Vec `json:"emissive"`
}

// BoxSpec is a box given by center and half extents
type BoxSpec struct {
	Center   Vec     `json:"center"`
	HalfSize Vec     `json:"halfSize"`
	RotateY  float64 `json:"rotateY,omitempty"` // degrees
	Material string  `json:"material"`
}

// QuadSpec is a parallelogram given by a corner and two edges
type QuadSpec struct {
	Corner   Vec    `json:"corner"`
	U        Vec    `json:"u"`
	V        Vec    `json:"v"`
	Material string `json:"material"`
}

// SphereSpec is a sphere
type SphereSpec struct {
	Center   Vec     `json:"center"`
	Radius   float64 `json:"radius"`
	Material string  `json:"material"`
}

// MeshSpec references an STL file, relative to the scene file
type MeshSpec struct {
	File      string  `json:"file"`
	Scale     float64 `json:"scale,omitempty"` // default 1
	Translate Vec     `json:"translate"`
	Material  string  `json:"material"`
}

// GradientSpec is a background blending from bottom to top
type GradientSpec struct {
	Top    Vec `json:"top"`
	Bottom Vec `json:"bottom"`
}

// SceneFile is the JSON scene description
type SceneFile struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Camera      CameraSpec              `json:"camera"`
	Sky         *Vec                    `json:"sky,omitempty"` // default [0.9,0.9,1.2]
	SkyGradient *GradientSpec           `json:"skyGradient,omitempty"`
	Materials   map[string]MaterialSpec `json:"materials"`
	Boxes       []BoxSpec               `json:"boxes,omitempty"`
	Quads       []QuadSpec              `json:"quads,omitempty"`
	Spheres     []SphereSpec            `json:"spheres,omitempty"`
	Meshes      []MeshSpec              `json:"meshes,omitempty"`
}

// LoadScene reads and builds a JSON scene file. A nil logger discards output.
func LoadScene(path string, logger *slog.Logger) (*scene.Scene, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	sf, err := DecodeSceneFile(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sf.Name == "" {
		sf.Name = sceneID(path)
	}

	s, err := sf.Build(filepath.Dir(path), logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// DecodeSceneFile parses a scene description. Unknown fields are rejected.
func DecodeSceneFile(r io.Reader) (*SceneFile, error) {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var sf SceneFile
	if err := decoder.Decode(&sf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSceneFile, err)
	}
	return &sf, nil
}

// Build converts the description into a scene. Mesh paths are resolved
// against baseDir.
func (sf *SceneFile) Build(baseDir string, logger *slog.Logger) (*scene.Scene, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	view, err := sf.Camera.view()
	if err != nil {
		return nil, err
	}
	s := scene.New(sf.Name, view)
	if sf.Sky != nil {
		s.Sky = sf.Sky.vec3()
		if !s.Sky.IsNonNegative() {
			return nil, fmt.Errorf("%w: sky radiance %v is negative", ErrInvalidSceneFile, s.Sky)
		}
	}
	if sf.SkyGradient != nil {
		gradient := &scene.Gradient{Top: sf.SkyGradient.Top.vec3(), Bottom: sf.SkyGradient.Bottom.vec3()}
		if err := gradient.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSceneFile, err)
		}
		s.SkyGradient = gradient
	}

	// Register materials in name order so indices are stable
	names := make([]string, 0, len(sf.Materials))
	for name := range sf.Materials {
		names = append(names, name)
	}
	slices.Sort(names)

	materials := make(map[string]int, len(names))
	for _, name := range names {
		spec := sf.Materials[name]
		index, err := s.AddMaterial(scene.Material{Diffuse: spec.Diffuse.vec3(), Emissive: spec.Emissive.vec3()})
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", name, err)
		}
		materials[name] = index
	}

	add := func(kind string, i int, shape geometry.Shape, material string) error {
		index, ok := materials[material]
		if !ok {
			return fmt.Errorf("%w: %s %d: unknown material %q", ErrInvalidSceneFile, kind, i, material)
		}
		return s.Add(shape, index)
	}

	for i, b := range sf.Boxes {
		if b.HalfSize[0] <= 0 || b.HalfSize[1] <= 0 || b.HalfSize[2] <= 0 {
			return nil, fmt.Errorf("%w: box %d: half size must be positive", ErrInvalidSceneFile, i)
		}
		box := geometry.NewBox(b.Center.vec3(), b.HalfSize.vec3(), b.RotateY*math.Pi/180)
		if err := add("box", i, box, b.Material); err != nil {
			return nil, err
		}
	}

	for i, q := range sf.Quads {
		if q.U.vec3().Cross(q.V.vec3()).IsZero() {
			return nil, fmt.Errorf("%w: quad %d: edges are parallel", ErrInvalidSceneFile, i)
		}
		if err := add("quad", i, geometry.NewQuad(q.Corner.vec3(), q.U.vec3(), q.V.vec3()), q.Material); err != nil {
			return nil, err
		}
	}

	for i, sp := range sf.Spheres {
		if sp.Radius <= 0 {
			return nil, fmt.Errorf("%w: sphere %d: radius must be positive", ErrInvalidSceneFile, i)
		}
		if err := add("sphere", i, geometry.NewSphere(sp.Center.vec3(), sp.Radius), sp.Material); err != nil {
			return nil, err
		}
	}

	for i, m := range sf.Meshes {
		triangles, err := loadMesh(baseDir, m)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		for _, tri := range triangles {
			if err := add("mesh", i, tri, m.Material); err != nil {
				return nil, err
			}
		}
		logger.Debug("loaded mesh", "file", m.File, "triangles", len(triangles))
	}

	if s.NumShapes() == 0 {
		return nil, fmt.Errorf("%w: scene %q has no shapes", ErrInvalidSceneFile, sf.Name)
	}

	s.Build()
	logger.Info("scene loaded", "name", sf.Name, "shapes", s.NumShapes(), "materials", s.NumMaterials())
	return s, nil
}

// view validates the camera and fills in defaults
func (c CameraSpec) view() (scene.View, error) {
	view := scene.View{
		LookFrom: c.LookFrom.vec3(),
		LookAt:   c.LookAt.vec3(),
		Up:       core.NewVec3(0, 1, 0),
		VFov:     c.VFov,
	}
	if c.Up != nil {
		view.Up = c.Up.vec3()
	}
	if view.VFov == 0 {
		view.VFov = 40
	}

	forward := view.LookAt.Subtract(view.LookFrom)
	switch {
	case forward.IsZero():
		return scene.View{}, fmt.Errorf("%w: camera lookFrom equals lookAt", ErrInvalidSceneFile)
	case view.Up.Cross(forward).IsZero():
		return scene.View{}, fmt.Errorf("%w: camera up is parallel to the view direction", ErrInvalidSceneFile)
	case view.VFov <= 0 || view.VFov >= 180:
		return scene.View{}, fmt.Errorf("%w: camera vfov %v must be in (0, 180)", ErrInvalidSceneFile, view.VFov)
	}
	return view, nil
}

// loadMesh reads an STL mesh and applies its scale and translation
func loadMesh(baseDir string, m MeshSpec) ([]*geometry.Triangle, error) {
	path := m.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	triangles, err := LoadSTL(path)
	if err != nil {
		return nil, err
	}

	scale := m.Scale
	if scale == 0 {
		scale = 1
	}
	offset := m.Translate.vec3()
	transform := func(v core.Vec3) core.Vec3 { return v.Multiply(scale).Add(offset) }

	for i, tri := range triangles {
		triangles[i] = geometry.NewTriangle(transform(tri.V0), transform(tri.V1), transform(tri.V2))
	}
	return triangles, nil
}
