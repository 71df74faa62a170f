package geometry

import (
	"math"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// Quad represents a parallelogram defined by a corner and two edge vectors
type Quad struct {
	Corner core.Vec3 // One corner of the quad
	U      core.Vec3 // First edge vector
	V      core.Vec3 // Second edge vector
	Normal core.Vec3 // Outward normal (U × V, normalized)
	D      float64   // Plane equation constant: normal · p = d
	W      core.Vec3 // Cached n / (n · n) for planar coordinates
	bbox   AABB
}

// NewQuad creates a new quad from a corner point and two edge vectors
func NewQuad(corner, u, v core.Vec3) *Quad {
	n := u.Cross(v)
	normal := n.Normalize()

	return &Quad{
		Corner: corner,
		U:      u,
		V:      v,
		Normal: normal,
		D:      normal.Dot(corner),
		W:      n.Multiply(1.0 / n.Dot(n)),
		bbox: NewAABBFromPoints(
			corner, corner.Add(u), corner.Add(v), corner.Add(u).Add(v),
		).Expand(1e-4),
	}
}

// Hit tests if a ray intersects with the quad
func (q *Quad) Hit(ray core.Ray, tMin, tMax float64) (SurfaceHit, bool) {
	denominator := ray.Direction.Dot(q.Normal)

	// Ray parallel to the plane
	if math.Abs(denominator) < 1e-12 {
		return SurfaceHit{}, false
	}

	t := (q.D - ray.Origin.Dot(q.Normal)) / denominator
	if t < tMin || t > tMax {
		return SurfaceHit{}, false
	}

	hitPoint := ray.At(t)
	planar := hitPoint.Subtract(q.Corner)
	alpha := q.W.Dot(planar.Cross(q.V))
	beta := q.W.Dot(q.U.Cross(planar))
	if alpha < 0 || alpha > 1 || beta < 0 || beta > 1 {
		return SurfaceHit{}, false
	}

	hit := SurfaceHit{T: t, Point: hitPoint}
	hit.SetFaceNormal(ray, q.Normal)
	return hit, true
}

// BoundingBox returns the axis-aligned bounding box for this quad
func (q *Quad) BoundingBox() AABB {
	return q.bbox
}
