package renderer

import (
	"math"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// ACESFilm applies Krzysztof Narkowicz's fit of the ACES filmic curve
// componentwise and saturates the result to [0,1].
// https://knarkowicz.wordpress.com/2016/01/06/aces-filmic-tone-mapping-curve/
func ACESFilm(x core.Vec3) core.Vec3 {
	return core.NewVec3(acesChannel(x.X), acesChannel(x.Y), acesChannel(x.Z))
}

func acesChannel(x float64) float64 {
	const (
		a = 2.51
		b = 0.03
		c = 2.43
		d = 0.59
		e = 0.14
	)
	// The curve tends to a/c > 1 at infinity
	if math.IsInf(x, 1) {
		return 1
	}
	t := x * (a*x + b)
	n := x*(c*x+d) + e
	return saturate(t / n)
}

// saturate clamps to [0,1]; NaN becomes 0
func saturate(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Quantize maps a display value to 8 bits: round(clamp(v,0,1)*255)
func Quantize(v float64) uint8 {
	return uint8(math.Round(saturate(v) * 255.0))
}
