package geometry

import (
	"math"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// Triangle is a single flat triangle with vertices in counter-clockwise order
type Triangle struct {
	V0, V1, V2 core.Vec3
	edge1      core.Vec3
	edge2      core.Vec3
	normal     core.Vec3
	bbox       AABB
}

// NewTriangle creates a triangle. The outward normal follows the right-hand rule.
func NewTriangle(v0, v1, v2 core.Vec3) *Triangle {
	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)
	return &Triangle{
		V0:     v0,
		V1:     v1,
		V2:     v2,
		edge1:  edge1,
		edge2:  edge2,
		normal: edge1.Cross(edge2).Normalize(),
		bbox:   NewAABBFromPoints(v0, v1, v2).Expand(1e-4),
	}
}

// Normal returns the outward unit normal
func (tri *Triangle) Normal() core.Vec3 {
	return tri.normal
}

// IsDegenerate reports whether the triangle has no area
func (tri *Triangle) IsDegenerate() bool {
	return tri.normal.IsZero()
}

// Hit tests ray intersection with the Möller-Trumbore algorithm
func (tri *Triangle) Hit(ray core.Ray, tMin, tMax float64) (SurfaceHit, bool) {
	h := ray.Direction.Cross(tri.edge2)
	a := tri.edge1.Dot(h)
	if math.Abs(a) < 1e-12 {
		return SurfaceHit{}, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(tri.V0)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return SurfaceHit{}, false
	}

	q := s.Cross(tri.edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return SurfaceHit{}, false
	}

	t := f * tri.edge2.Dot(q)
	if t < tMin || t > tMax {
		return SurfaceHit{}, false
	}

	hit := SurfaceHit{T: t, Point: ray.At(t)}
	hit.SetFaceNormal(ray, tri.normal)
	return hit, true
}

// BoundingBox returns the axis-aligned bounding box for this triangle
func (tri *Triangle) BoundingBox() AABB {
	return tri.bbox
}
