package scene

import (
	"github.com/df07/go-tiled-pathtracer/pkg/core"
	"github.com/df07/go-tiled-pathtracer/pkg/geometry"
)

// NewCubesScene creates the default scene: three rows of small red cubes
// crossing above a white floor, with a red emissive cube at the origin
func NewCubesScene() *Scene {
	s := New("cubes", View{
		LookFrom: core.NewVec3(0, 5, -10),
		LookAt:   core.NewVec3(0, 5, 0),
		Up:       core.NewVec3(0, 1, 0),
		VFov:     90,
	})

	red := s.mustMaterial(Material{Diffuse: core.NewVec3(1.0, 0.5, 0.5)})
	white := s.mustMaterial(Material{Diffuse: core.NewVec3(0.9, 0.9, 0.9)})
	redEmissive := s.mustMaterial(Material{Emissive: core.NewVec3(2.0, 0, 0)})

	cube := core.NewVec3(0.5, 0.5, 0.5)
	for x := -5; x <= 5; x++ {
		if x == 0 {
			continue
		}
		offset := float64(x) * 2.0
		s.mustAdd(geometry.NewAxisAlignedBox(core.NewVec3(offset, 2, 0), cube), red)
		s.mustAdd(geometry.NewAxisAlignedBox(core.NewVec3(0, 2, offset), cube), red)
		s.mustAdd(geometry.NewAxisAlignedBox(core.NewVec3(0, 2+float64(5+x)*2.0, 0), cube), red)
	}

	// Floor slab
	s.mustAdd(geometry.NewAxisAlignedBox(core.NewVec3(0, -0.5, 0), core.NewVec3(100, 0.5, 100)), white)
	s.mustAdd(geometry.NewAxisAlignedBox(core.NewVec3(0, 0.5, 0), core.NewVec3(1, 1, 1)), redEmissive)

	s.Build()
	return s
}
