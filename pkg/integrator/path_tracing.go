package integrator

import (
	"math"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// FixedDepthIntegrator traces up to Config.FixedDepth cosine-weighted bounces.
// The cosine of the Lambertian BRDF cancels against the sampling density, so the
// throughput is simply multiplied by the diffuse reflectance.
type FixedDepthIntegrator struct {
	config Config
}

// NewFixedDepthIntegrator creates a new fixed depth integrator
func NewFixedDepthIntegrator(config Config) *FixedDepthIntegrator {
	return &FixedDepthIntegrator{config: config}
}

// Sample implements Integrator
func (fd *FixedDepthIntegrator) Sample(ray core.Ray, scene core.Scene, sampler core.Sampler) core.Vec3 {
	color := core.Vec3{}
	throughput := core.NewVec3(1, 1, 1)

	for depth := 0; depth < fd.config.FixedDepth; depth++ {
		hit, isHit := scene.IntersectClosest(ray)
		if !isHit {
			color = color.Add(throughput.MultiplyVec(scene.SkyRadiance(ray.Direction)))
			break
		}

		color = color.Add(hit.Emissive.MultiplyVec(throughput))
		throughput = throughput.MultiplyVec(hit.Diffuse)

		ray = core.NewRay(
			offsetOrigin(hit, fd.config.RayBias),
			core.SampleCosineHemisphere(hit.Normal, sampler.Get2D()),
		)
	}

	return color
}

// RussianRouletteIntegrator is unbounded cosine-weighted path tracing. After
// each bounce the path survives with probability p = clamp(mean(throughput))
// and survivors are divided by p, which keeps the estimator unbiased.
type RussianRouletteIntegrator struct {
	config Config
}

// NewRussianRouletteIntegrator creates a new Russian roulette integrator
func NewRussianRouletteIntegrator(config Config) *RussianRouletteIntegrator {
	return &RussianRouletteIntegrator{config: config}
}

// Sample implements Integrator
func (rr *RussianRouletteIntegrator) Sample(ray core.Ray, scene core.Scene, sampler core.Sampler) core.Vec3 {
	color := core.Vec3{}
	throughput := core.NewVec3(1, 1, 1)

	for bounce := 0; bounce < rr.config.MaxBounces; bounce++ {
		hit, isHit := scene.IntersectClosest(ray)
		if !isHit {
			color = color.Add(throughput.MultiplyVec(scene.SkyRadiance(ray.Direction)))
			break
		}

		color = color.Add(hit.Emissive.MultiplyVec(throughput))
		throughput = throughput.MultiplyVec(hit.Diffuse)

		survive, p := rr.config.roulette(throughput, sampler)
		if !survive {
			break
		}
		throughput = throughput.Multiply(1.0 / p)

		ray = core.NewRay(
			offsetOrigin(hit, rr.config.RayBias),
			core.SampleCosineHemisphere(hit.Normal, sampler.Get2D()),
		)
	}

	return color
}

// UniformHemisphereIntegrator samples directions uniformly over the hemisphere
// and applies the Lambertian BRDF and the sampling density explicitly:
// throughput *= diffuse * (cos/pi) / (1/2pi). Same expectation as the
// cosine-weighted variants, higher variance.
//
// Paths end by Russian roulette rather than a fixed bounce cap, so its noise
// reflects both the uniform directions and the roulette.
type UniformHemisphereIntegrator struct {
	config Config
}

// NewUniformHemisphereIntegrator creates a new uniform hemisphere integrator
func NewUniformHemisphereIntegrator(config Config) *UniformHemisphereIntegrator {
	return &UniformHemisphereIntegrator{config: config}
}

// Sample implements Integrator
func (uh *UniformHemisphereIntegrator) Sample(ray core.Ray, scene core.Scene, sampler core.Sampler) core.Vec3 {
	color := core.Vec3{}
	throughput := core.NewVec3(1, 1, 1)
	pdf := core.UniformHemispherePDF()

	for bounce := 0; bounce < uh.config.MaxBounces; bounce++ {
		hit, isHit := scene.IntersectClosest(ray)
		if !isHit {
			color = color.Add(throughput.MultiplyVec(scene.SkyRadiance(ray.Direction)))
			break
		}

		color = color.Add(hit.Emissive.MultiplyVec(throughput))

		direction := core.SampleUniformHemisphere(hit.Normal, sampler.Get2D())
		// cos/pi is the Lambertian BRDF times the cosine term
		cosTerm := core.CosineHemispherePDF(direction.Dot(hit.Normal))
		throughput = throughput.MultiplyVec(hit.Diffuse).Multiply(cosTerm / pdf)

		survive, p := uh.config.roulette(throughput, sampler)
		if !survive {
			break
		}
		throughput = throughput.Multiply(1.0 / p)

		ray = core.NewRay(offsetOrigin(hit, uh.config.RayBias), direction)
	}

	return color
}

// continuation returns the survival probability for a path with the given throughput
func (c Config) continuation(throughput core.Vec3) float64 {
	return math.Min(c.MaxContinuation, math.Max(c.MinContinuation, throughput.Mean()))
}

// roulette draws one variate and reports whether the path survives, along with
// the survival probability used
func (c Config) roulette(throughput core.Vec3, sampler core.Sampler) (bool, float64) {
	p := c.continuation(throughput)
	return sampler.Get1D() <= p, p
}

// offsetOrigin moves the hit point off the surface to avoid self-intersection
func offsetOrigin(hit core.HitRecord, bias float64) core.Vec3 {
	return hit.Point.Add(hit.Normal.Multiply(bias))
}
