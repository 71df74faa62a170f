package scene

import (
	"fmt"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// Gradient is a background that blends from Bottom (looking straight down)
// to Top (looking straight up) with the Y component of the view direction
type Gradient struct {
	Top    core.Vec3
	Bottom core.Vec3
}

// Radiance returns the gradient color along a normalized direction
func (g Gradient) Radiance(direction core.Vec3) core.Vec3 {
	t := 0.5 * (direction.Y + 1.0) // Map Y from [-1,1] to [0,1]
	t = min(max(t, 0), 1)
	return g.Bottom.Multiply(1.0 - t).Add(g.Top.Multiply(t))
}

// Validate rejects negative or non-finite colors
func (g Gradient) Validate() error {
	for _, c := range []core.Vec3{g.Top, g.Bottom} {
		if err := (Material{Emissive: c}).Validate(); err != nil {
			return fmt.Errorf("sky gradient: %w", err)
		}
	}
	return nil
}
