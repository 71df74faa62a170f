package geometry

import (
	"math"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// Box represents a box made of 6 quads, optionally rotated around the Y axis
type Box struct {
	Center    core.Vec3 // Center point of the box
	HalfSize  core.Vec3 // Half extents along each axis
	RotationY float64   // Rotation around the Y axis in radians
	faces     [6]*Quad
	bbox      AABB
}

// NewBox creates a box. halfSize holds half-extents, so (1,1,1) is a 2x2x2 box.
func NewBox(center, halfSize core.Vec3, rotationY float64) *Box {
	box := &Box{
		Center:    center,
		HalfSize:  halfSize,
		RotationY: rotationY,
	}
	box.generateFaces()
	return box
}

// NewAxisAlignedBox creates a box without rotation
func NewAxisAlignedBox(center, halfSize core.Vec3) *Box {
	return NewBox(center, halfSize, 0)
}

// generateFaces builds the 6 outward-facing quads
func (b *Box) generateFaces() {
	corners := [8]core.Vec3{
		core.NewVec3(-1, -1, -1), // 0: left-bottom-back
		core.NewVec3(1, -1, -1),  // 1: right-bottom-back
		core.NewVec3(1, 1, -1),   // 2: right-top-back
		core.NewVec3(-1, 1, -1),  // 3: left-top-back
		core.NewVec3(-1, -1, 1),  // 4: left-bottom-front
		core.NewVec3(1, -1, 1),   // 5: right-bottom-front
		core.NewVec3(1, 1, 1),    // 6: right-top-front
		core.NewVec3(-1, 1, 1),   // 7: left-top-front
	}

	sin, cos := math.Sincos(b.RotationY)
	for i, c := range corners {
		c = c.MultiplyVec(b.HalfSize)
		c = core.NewVec3(cos*c.X+sin*c.Z, c.Y, -sin*c.X+cos*c.Z)
		corners[i] = c.Add(b.Center)
	}

	face := func(origin, uEnd, vEnd int) *Quad {
		return NewQuad(
			corners[origin],
			corners[uEnd].Subtract(corners[origin]),
			corners[vEnd].Subtract(corners[origin]),
		)
	}

	// Edge order makes U × V point out of the box
	b.faces[0] = face(4, 5, 7) // front  (Z+)
	b.faces[1] = face(1, 0, 2) // back   (Z-)
	b.faces[2] = face(5, 1, 6) // right  (X+)
	b.faces[3] = face(0, 4, 3) // left   (X-)
	b.faces[4] = face(3, 7, 2) // top    (Y+)
	b.faces[5] = face(4, 0, 5) // bottom (Y-)

	b.bbox = NewAABBFromPoints(corners[:]...)
}

// Hit tests if a ray intersects with any face of the box
func (b *Box) Hit(ray core.Ray, tMin, tMax float64) (SurfaceHit, bool) {
	var closest SurfaceHit
	hitAnything := false
	closestT := tMax

	for _, face := range b.faces {
		if hit, isHit := face.Hit(ray, tMin, closestT); isHit {
			hitAnything = true
			closestT = hit.T
			closest = hit
		}
	}

	return closest, hitAnything
}

// BoundingBox returns the axis-aligned bounding box for this box
func (b *Box) BoundingBox() AABB {
	return b.bbox
}
