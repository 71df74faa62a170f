package core

// HitRecord is the surface snapshot returned by a closest-hit query.
// Normal is unit length and always faces against the incoming ray.
type HitRecord struct {
	Point    Vec3 // Hit position
	Normal   Vec3 // Shading normal, flipped to oppose the ray
	Diffuse  Vec3 // Diffuse reflectance
	Emissive Vec3 // Emitted radiance
}

// Scene is the only view of the world the integrator has: a closest-hit
// oracle plus the radiance of rays that escape all geometry.
// Implementations must be safe for concurrent read-only use.
type Scene interface {
	// IntersectClosest returns the nearest surface along the ray, or false on a miss.
	// Ray directions are normalized.
	IntersectClosest(ray Ray) (HitRecord, bool)

	// SkyRadiance returns the background radiance seen along direction.
	SkyRadiance(direction Vec3) Vec3
}
