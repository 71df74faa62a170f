package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-tiled-pathtracer/pkg/core"
	"github.com/df07/go-tiled-pathtracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool       `json:"hit"`
	MaterialType string     `json:"materialType,omitempty"` // "diffuse" or "emissive"
	Point        [3]float64 `json:"point"`
	Normal       [3]float64 `json:"normal"`
	Distance     float64    `json:"distance"`
	Diffuse      [3]float64 `json:"diffuse"`
	Emissive     [3]float64 `json:"emissive"`
	Color        string     `json:"color,omitempty"` // Hex preview of the surface
	Sky          [3]float64 `json:"sky"`             // Radiance of the background along the ray
}

// InspectResult contains the surface hit by an inspection ray
type InspectResult struct {
	Hit    bool
	Ray    core.Ray
	Record core.HitRecord
}

// inspectPixel casts a ray through the center of pixel (pixelX, pixelY) and
// returns the closest surface
func inspectPixel(sceneObj *scene.Scene, width, height, pixelX, pixelY int) InspectResult {
	camera := sceneObj.View.Camera(float64(width) / float64(height))

	u := (float64(pixelX) + 0.5) / float64(width)
	v := (float64(pixelY) + 0.5) / float64(height)
	ray := core.NewRay(camera.Position, camera.Direction(u, v))

	record, hit := sceneObj.IntersectClosest(ray)
	return InspectResult{Hit: hit, Ray: ray, Record: record}
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid scene parameters: " + err.Error()})
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
		return
	}
	if pixelX < 0 || pixelX >= req.Width || pixelY < 0 || pixelY >= req.Height {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Pixel coordinates out of bounds"})
		return
	}

	sceneObj, err := s.createScene(req.Scene)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result := inspectPixel(sceneObj, req.Width, req.Height, pixelX, pixelY)
	response := InspectResponse{
		Hit: result.Hit,
		Sky: vec(sceneObj.SkyRadiance(result.Ray.Direction)),
	}
	if !result.Hit {
		writeJSON(w, http.StatusOK, response)
		return
	}

	rec := result.Record
	response.MaterialType = "diffuse"
	preview := rec.Diffuse
	if rec.Emissive.X > 0 || rec.Emissive.Y > 0 || rec.Emissive.Z > 0 {
		response.MaterialType = "emissive"
		preview = rec.Emissive
	}
	response.Point = vec(rec.Point)
	response.Normal = vec(rec.Normal)
	response.Distance = rec.Point.Subtract(result.Ray.Origin).Length()
	response.Diffuse = vec(rec.Diffuse)
	response.Emissive = vec(rec.Emissive)
	response.Color = hexColor(preview)

	writeJSON(w, http.StatusOK, response)
}

func vec(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// hexColor formats a color as #rrggbb, clamping each channel to [0,1]
func hexColor(c core.Vec3) string {
	c = c.Clamp(0, 1)
	channel := func(v float64) int {
		return int(v * 255)
	}
	return fmt.Sprintf("#%02x%02x%02x", channel(c.X), channel(c.Y), channel(c.Z))
}
