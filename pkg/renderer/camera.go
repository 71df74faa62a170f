package renderer

import (
	"math"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
)

// Camera is a pinhole camera described by its position and three axes.
// Right and Up are scaled to the half extents of the image plane at unit
// distance along Forward.
type Camera struct {
	Position core.Vec3
	Forward  core.Vec3
	Up       core.Vec3
	Right    core.Vec3
}

// NewCamera creates a camera at lookFrom looking at lookAt with a vertical
// field of view in degrees and a width/height aspect ratio
func NewCamera(lookFrom, lookAt, vup core.Vec3, vfovDegrees, aspectRatio float64) *Camera {
	forward := lookAt.Subtract(lookFrom).Normalize()
	right := vup.Cross(forward).Normalize()
	up := forward.Cross(right)

	halfHeight := math.Tan(vfovDegrees * math.Pi / 360.0)
	halfWidth := halfHeight * aspectRatio

	return &Camera{
		Position: lookFrom,
		Forward:  forward,
		Up:       up.Multiply(halfHeight),
		Right:    right.Multiply(halfWidth),
	}
}

// Direction returns the normalized view direction through image coordinates
// (u, v) in [0,1]; (0,0) is the top left corner
func (c *Camera) Direction(u, v float64) core.Vec3 {
	d := c.Forward.
		Add(c.Right.Multiply(u*2.0 - 1.0)).
		Add(c.Up.Multiply(1.0 - v*2.0))
	return d.Normalize()
}

// GetRay generates a ray through a random point inside pixel (x, y)
func (c *Camera) GetRay(x, y, width, height int, sampler core.Sampler) core.Ray {
	jitter := sampler.Get2D()
	u := (float64(x) + jitter.X) / float64(width)
	v := (float64(y) + jitter.Y) / float64(height)
	return core.NewRay(c.Position, c.Direction(u, v))
}
