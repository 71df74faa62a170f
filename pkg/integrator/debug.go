package integrator

import (
	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// DiffuseVisualizationIntegrator shows the diffuse reflectance of the first
// surface hit. Rays that miss see the sky unchanged.
type DiffuseVisualizationIntegrator struct{}

// Sample implements Integrator
func (DiffuseVisualizationIntegrator) Sample(ray core.Ray, scene core.Scene, sampler core.Sampler) core.Vec3 {
	hit, isHit := scene.IntersectClosest(ray)
	if !isHit {
		return scene.SkyRadiance(ray.Direction)
	}
	return hit.Diffuse
}

// EmissiveVisualizationIntegrator shows the emitted radiance of the first
// surface hit. Rays that miss see the sky unchanged.
type EmissiveVisualizationIntegrator struct{}

// Sample implements Integrator
func (EmissiveVisualizationIntegrator) Sample(ray core.Ray, scene core.Scene, sampler core.Sampler) core.Vec3 {
	hit, isHit := scene.IntersectClosest(ray)
	if !isHit {
		return scene.SkyRadiance(ray.Direction)
	}
	return hit.Emissive
}
