package core

import (
	"math"
	"math/rand/v2"
)

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler wraps a standard Go random generator.
// It is not safe for concurrent use; each worker owns its own.
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewStreamSampler creates an independent, reproducible stream identified by
// (seed, stream). The renderer derives one stream per tile and pass.
func NewStreamSampler(seed, stream uint64) *RandomSampler {
	hi := splitMix64(seed ^ splitMix64(stream))
	lo := splitMix64(hi ^ stream)
	return NewRandomSampler(rand.New(rand.NewPCG(hi, lo)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// splitMix64 scrambles a 64-bit value so that nearby seeds give unrelated PCG states
func splitMix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// OrthonormalBasis builds two tangent axes for a unit normal. The seed axis is
// the coordinate axis least aligned with the normal, so the cross product
// never collapses.
func OrthonormalBasis(normal Vec3) (tangent, bitangent Vec3) {
	ax, ay, az := math.Abs(normal.X), math.Abs(normal.Y), math.Abs(normal.Z)

	var minorAxis Vec3
	if ax < ay {
		if ax < az {
			minorAxis.X = 1
		} else {
			minorAxis.Z = 1
		}
	} else {
		if ay < az {
			minorAxis.Y = 1
		} else {
			minorAxis.Z = 1
		}
	}

	tangent = normal.Cross(minorAxis).Normalize()
	bitangent = tangent.Cross(normal)
	return tangent, bitangent
}

// FromBasis maps local coordinates (x, y, z), with z along normal, to world space
func FromBasis(normal Vec3, x, y, z float64) Vec3 {
	tangent, bitangent := OrthonormalBasis(normal)
	return tangent.Multiply(x).Add(bitangent.Multiply(y)).Add(normal.Multiply(z))
}

// SampleCosineHemisphere generates a cosine-weighted direction in the hemisphere around normal.
// The density is cos(theta)/pi with respect to solid angle.
func SampleCosineHemisphere(normal Vec3, sample Vec2) Vec3 {
	cosTheta := math.Sqrt(sample.Y)
	sinTheta := math.Sqrt(math.Max(1.0-sample.Y, 0))
	phi := 2.0 * math.Pi * sample.X

	x := sinTheta * math.Cos(phi)
	y := sinTheta * math.Sin(phi)
	return FromBasis(normal, x, y, cosTheta)
}

// SampleUniformSphere generates a uniform random direction on the unit sphere
func SampleUniformSphere(sample Vec2) Vec3 {
	cosTheta := 2.0*sample.Y - 1.0
	sinTheta := math.Sqrt(math.Max(1.0-cosTheta*cosTheta, 0))
	phi := 2.0 * math.Pi * sample.X
	return NewVec3(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
}

// SampleUniformHemisphere generates a uniform direction in the hemisphere around normal
// by mirroring a sphere sample through the origin when it points the wrong way.
func SampleUniformHemisphere(normal Vec3, sample Vec2) Vec3 {
	dir := SampleUniformSphere(sample)
	if dir.Dot(normal) < 0 {
		return dir.Negate()
	}
	return dir
}

// CosineHemispherePDF returns the solid angle density of SampleCosineHemisphere
func CosineHemispherePDF(cosTheta float64) float64 {
	return math.Max(cosTheta, 0) / math.Pi
}

// UniformHemispherePDF returns the solid angle density of SampleUniformHemisphere
func UniformHemispherePDF() float64 {
	return 1.0 / (2.0 * math.Pi)
}
