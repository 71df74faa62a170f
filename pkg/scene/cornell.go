package scene

import (
	"math"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
	"github.com/df07/go-tiled-pathtracer/pkg/geometry"
)

// NewCornellScene creates a classic Cornell box with quad walls, an emissive
// ceiling panel and two rotated white blocks
func NewCornellScene() *Scene {
	s := New("cornell", View{
		LookFrom: core.NewVec3(278, 278, -800), // Outside the box looking in
		LookAt:   core.NewVec3(278, 278, 0),
		Up:       core.NewVec3(0, 1, 0),
		VFov:     40,
	})
	s.Sky = core.Vec3{} // Closed box, black background

	white := s.mustMaterial(Material{Diffuse: core.NewVec3(0.73, 0.73, 0.73)})
	red := s.mustMaterial(Material{Diffuse: core.NewVec3(0.65, 0.05, 0.05)})
	green := s.mustMaterial(Material{Diffuse: core.NewVec3(0.12, 0.45, 0.15)})
	light := s.mustMaterial(Material{Emissive: core.NewVec3(15, 15, 15)})

	// Standard 555x555x555 box
	boxSize := 555.0
	x := core.NewVec3(boxSize, 0, 0)
	y := core.NewVec3(0, boxSize, 0)
	z := core.NewVec3(0, 0, boxSize)

	s.mustAdd(geometry.NewQuad(core.NewVec3(0, 0, 0), x, z), white) // floor
	s.mustAdd(geometry.NewQuad(y, x, z), white)                     // ceiling
	s.mustAdd(geometry.NewQuad(z, x, y), white)                     // back wall
	s.mustAdd(geometry.NewQuad(core.NewVec3(0, 0, 0), z, y), red)   // left wall
	s.mustAdd(geometry.NewQuad(x, y, z), green)                     // right wall

	// Ceiling light, slightly below the ceiling
	lightSize := 130.0
	lightOffset := (boxSize - lightSize) / 2.0
	s.mustAdd(geometry.NewQuad(
		core.NewVec3(lightOffset, boxSize-1, lightOffset),
		core.NewVec3(lightSize, 0, 0),
		core.NewVec3(0, 0, lightSize),
	), light)

	// Tall block at the back left, short block at the front right
	s.mustAdd(geometry.NewBox(core.NewVec3(185, 165, 351), core.NewVec3(82.5, 165, 82.5), 15*math.Pi/180), white)
	s.mustAdd(geometry.NewBox(core.NewVec3(370, 82.5, 169), core.NewVec3(82.5, 82.5, 82.5), -18*math.Pi/180), white)

	s.Build()
	return s
}
