package geometry

import "github.com/df07/go-tiled-pathtracer/pkg/core"

// SurfaceHit contains information about a ray-shape intersection
type SurfaceHit struct {
	T         float64   // Parameter t along the ray
	Point     core.Vec3 // Point of intersection
	Normal    core.Vec3 // Unit surface normal, facing against the ray
	FrontFace bool      // Whether the ray hit the outward side
	Material  int       // Material index, assigned by the owning scene
}

// SetFaceNormal orients the normal against the ray and records which side was hit
func (h *SurfaceHit) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Negate()
	}
}

// Shape interface for objects that can be hit by rays.
// Implementations must be safe for concurrent use once constructed.
type Shape interface {
	Hit(ray core.Ray, tMin, tMax float64) (SurfaceHit, bool)
	BoundingBox() AABB
}
