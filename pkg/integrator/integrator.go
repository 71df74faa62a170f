package integrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

var (
	// ErrUnknownVariant is returned when a variant name or value is not recognised
	ErrUnknownVariant = errors.New("unknown integrator variant")
	// ErrInvalidConfig is returned by Config.Validate
	ErrInvalidConfig = errors.New("invalid integrator config")
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// Sample returns one Monte Carlo radiance estimate for a camera ray.
	// Callers average many samples per pixel.
	Sample(ray core.Ray, scene core.Scene, sampler core.Sampler) core.Vec3
}

// Variant selects the light transport algorithm for a whole render
type Variant uint8

// The closed set of integrator variants.
const (
	// RussianRoulette is unbounded path tracing with probabilistic termination
	RussianRoulette Variant = iota
	// FixedDepth traces a constant number of cosine-weighted bounces
	FixedDepth
	// UniformHemisphere samples directions uniformly and weights them by BRDF/pdf explicitly
	UniformHemisphere
	// DiffuseVisualization returns the diffuse reflectance of the first hit
	DiffuseVisualization
	// EmissiveVisualization returns the emitted radiance of the first hit
	EmissiveVisualization
	//
	numVariants
)

// String implements fmt.Stringer; the names are the ones accepted by ParseVariant
func (v Variant) String() string {
	switch v {
	case RussianRoulette:
		return "russian-roulette"
	case FixedDepth:
		return "fixed-depth"
	case UniformHemisphere:
		return "uniform-hemisphere"
	case DiffuseVisualization:
		return "diffuse"
	case EmissiveVisualization:
		return "emissive"
	default:
		return fmt.Sprintf("Variant(%d)", uint8(v))
	}
}

// Valid reports whether v is one of the declared variants
func (v Variant) Valid() bool {
	return v < numVariants
}

// Variants returns every variant in declaration order
func Variants() []Variant {
	variants := make([]Variant, 0, numVariants)
	for v := Variant(0); v < numVariants; v++ {
		variants = append(variants, v)
	}
	return variants
}

// ParseVariant maps a variant name to its value
func ParseVariant(name string) (Variant, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, v := range Variants() {
		if v.String() == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// Config holds the tunable constants of the integrators
type Config struct {
	FixedDepth      int     // Bounces traced by FixedDepth
	MaxBounces      int     // Hard cap for the unbounded variants
	MinContinuation float64 // Lower clamp of the Russian roulette continuation probability
	MaxContinuation float64 // Upper clamp of the Russian roulette continuation probability
	RayBias         float64 // Offset along the normal for secondary ray origins
}

// DefaultConfig returns the default constants
func DefaultConfig() Config {
	return Config{
		FixedDepth:      4,
		MaxBounces:      100,
		MinContinuation: 0.05,
		MaxContinuation: 0.98,
		RayBias:         1e-6,
	}
}

// Validate checks that the config guarantees termination and a finite estimator
func (c Config) Validate() error {
	switch {
	case c.FixedDepth < 1:
		return fmt.Errorf("%w: fixed depth %d must be at least 1", ErrInvalidConfig, c.FixedDepth)
	case c.MaxBounces < 1:
		return fmt.Errorf("%w: max bounces %d must be at least 1", ErrInvalidConfig, c.MaxBounces)
	case !(c.MinContinuation > 0):
		return fmt.Errorf("%w: min continuation %g must be > 0", ErrInvalidConfig, c.MinContinuation)
	case c.MaxContinuation > 1 || c.MaxContinuation < c.MinContinuation:
		return fmt.Errorf("%w: max continuation %g must be in [%g, 1]", ErrInvalidConfig, c.MaxContinuation, c.MinContinuation)
	case c.RayBias < 0:
		return fmt.Errorf("%w: ray bias %g must be >= 0", ErrInvalidConfig, c.RayBias)
	}
	return nil
}

// New returns the integrator for variant. The choice is made once per render.
func New(variant Variant, config Config) (Integrator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch variant {
	case RussianRoulette:
		return NewRussianRouletteIntegrator(config), nil
	case FixedDepth:
		return NewFixedDepthIntegrator(config), nil
	case UniformHemisphere:
		return NewUniformHemisphereIntegrator(config), nil
	case DiffuseVisualization:
		return DiffuseVisualizationIntegrator{}, nil
	case EmissiveVisualization:
		return EmissiveVisualizationIntegrator{}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownVariant, variant)
	}
}
