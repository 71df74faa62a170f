package geometry

import (
	"math"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min core.Vec3 // Minimum corner
	Max core.Vec3 // Maximum corner
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max core.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...core.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}

	box := AABB{Min: points[0], Max: points[0]}
	for _, point := range points[1:] {
		box = box.Union(AABB{Min: point, Max: point})
	}
	return box
}

// axis returns component i (0=X, 1=Y, 2=Z) of v
func axis(v core.Vec3, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Hit tests if a ray intersects with this AABB using the slab method
func (aabb AABB) Hit(ray core.Ray, tMin, tMax float64) bool {
	for i := 0; i < 3; i++ {
		lo, hi := axis(aabb.Min, i), axis(aabb.Max, i)
		origin, direction := axis(ray.Origin, i), axis(ray.Direction, i)

		// Ray parallel to the slab
		if math.Abs(direction) < 1e-12 {
			if origin < lo || origin > hi {
				return false
			}
			continue
		}

		invDirection := 1.0 / direction
		t1 := (lo - origin) * invDirection
		t2 := (hi - origin) * invDirection
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}

	return true
}

// Union returns an AABB that bounds both this AABB and another
func (aabb AABB) Union(other AABB) AABB {
	return AABB{
		Min: core.NewVec3(
			math.Min(aabb.Min.X, other.Min.X),
			math.Min(aabb.Min.Y, other.Min.Y),
			math.Min(aabb.Min.Z, other.Min.Z),
		),
		Max: core.NewVec3(
			math.Max(aabb.Max.X, other.Max.X),
			math.Max(aabb.Max.Y, other.Max.Y),
			math.Max(aabb.Max.Z, other.Max.Z),
		),
	}
}

// Center returns the center point of the AABB
func (aabb AABB) Center() core.Vec3 {
	return aabb.Min.Add(aabb.Max).Multiply(0.5)
}

// Size returns the extent of the AABB along each axis
func (aabb AABB) Size() core.Vec3 {
	return aabb.Max.Subtract(aabb.Min)
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the longest extent
func (aabb AABB) LongestAxis() int {
	size := aabb.Size()
	if size.X > size.Y && size.X > size.Z {
		return 0
	}
	if size.Y > size.Z {
		return 1
	}
	return 2
}

// Expand returns an AABB grown by amount in all directions.
// Flat shapes such as quads use it to get a non-degenerate box.
func (aabb AABB) Expand(amount float64) AABB {
	expansion := core.NewVec3(amount, amount, amount)
	return AABB{
		Min: aabb.Min.Subtract(expansion),
		Max: aabb.Max.Add(expansion),
	}
}
