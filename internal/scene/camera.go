// Package scene holds the viewport model the interaction machine drives: an
// orbit camera and a raycaster over the document's solids and the sketch
// plane.
package scene

import (
	"math"
	"sync"

	"github.com/ayusman/starkcad/internal/document"
)

// minPolar keeps the camera off the poles, where the view basis degenerates.
const minPolar = 1e-6

// CameraConfig describes the initial orbit camera.
type CameraConfig struct {
	Position document.Point
	Target   document.Point
	FOV      float64 // vertical field of view, degrees
	Aspect   float64 // width / height
}

// DefaultCameraConfig looks at the origin from (5, 5, 5).
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Position: document.Point{X: 5, Y: 5, Z: 5},
		Target:   document.Point{},
		FOV:      50,
		Aspect:   16.0 / 9.0,
	}
}

// View is a snapshot of the camera for UI collaborators.
type View struct {
	Position document.Point `json:"position"`
	Target   document.Point `json:"target"`
	Azimuth  float64        `json:"azimuth"`
	Polar    float64        `json:"polar"`
	Radius   float64        `json:"radius"`
	FOV      float64        `json:"fov"`
}

// OrbitCamera is a perspective camera orbiting a target on a sphere. It is
// safe for concurrent use.
type OrbitCamera struct {
	mu      sync.RWMutex
	target  vec3
	radius  float64
	azimuth float64
	polar   float64
	fov     float64
	aspect  float64
}

// NewOrbitCamera creates a camera at cfg.Position looking at cfg.Target.
func NewOrbitCamera(cfg CameraConfig) *OrbitCamera {
	def := DefaultCameraConfig()
	if cfg.FOV <= 0 || cfg.FOV >= 180 {
		cfg.FOV = def.FOV
	}
	if cfg.Aspect <= 0 {
		cfg.Aspect = def.Aspect
	}

	offset := fromPoint(cfg.Position).sub(fromPoint(cfg.Target))
	if offset.length() == 0 {
		offset = fromPoint(def.Position)
	}
	r := offset.length()

	return &OrbitCamera{
		target:  fromPoint(cfg.Target),
		radius:  r,
		azimuth: math.Atan2(offset.x, offset.z),
		polar:   clampPolar(math.Acos(offset.y / r)),
		fov:     cfg.FOV,
		aspect:  cfg.Aspect,
	}
}

// Rotate orbits the camera. Positive azimuth swings the camera to the left
// around the target and positive polar tilts it up, matching a drag of the
// scene in the cursor's direction.
func (c *OrbitCamera) Rotate(azimuth, polar float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth -= azimuth
	c.polar = clampPolar(c.polar - polar)
}

func clampPolar(p float64) float64 {
	return math.Max(minPolar, math.Min(math.Pi-minPolar, p))
}

// View returns the camera's current state.
func (c *OrbitCamera) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return View{
		Position: c.position().point(),
		Target:   c.target.point(),
		Azimuth:  c.azimuth,
		Polar:    c.polar,
		Radius:   c.radius,
		FOV:      c.fov,
	}
}

func (c *OrbitCamera) position() vec3 {
	sp, cp := math.Sincos(c.polar)
	sa, ca := math.Sincos(c.azimuth)
	return c.target.add(vec3{sp * sa, cp, sp * ca}.scale(c.radius))
}

// Ray returns the world-space ray through the given NDC point.
func (c *OrbitCamera) Ray(ndcX, ndcY float64) (origin, dir document.Point) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, d := c.ray(ndcX, ndcY)
	return o.point(), d.point()
}

func (c *OrbitCamera) ray(ndcX, ndcY float64) (vec3, vec3) {
	eye := c.position()
	forward := c.target.sub(eye).normalize()
	right := forward.cross(vec3{0, 1, 0}).normalize()
	up := right.cross(forward)

	h := math.Tan(c.fov * math.Pi / 360)
	dir := forward.
		add(right.scale(ndcX * h * c.aspect)).
		add(up.scale(ndcY * h)).
		normalize()
	return eye, dir
}
