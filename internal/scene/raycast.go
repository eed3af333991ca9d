package scene

import (
	"math"
	"sort"

	"github.com/ayusman/starkcad/internal/document"
	"github.com/ayusman/starkcad/internal/interaction"
)

// SketchPlaneID is the entity id reported for sketch-plane hits.
const SketchPlaneID = "sketch-plane"

// DefaultPlaneSize is the side length of the square sketch plane.
const DefaultPlaneSize = 100.0

// SolidSource lists the solids to test against.
type SolidSource interface {
	Solids() []document.Solid
}

// PlaneConfig describes the bounded square sketch plane.
type PlaneConfig struct {
	Origin document.Point
	Normal document.Point
	Size   float64
}

// DefaultPlaneConfig is the ground plane y=0, 100x100.
func DefaultPlaneConfig() PlaneConfig {
	return PlaneConfig{
		Normal: document.Point{Y: 1},
		Size:   DefaultPlaneSize,
	}
}

// Raycaster intersects camera rays with solids and the sketch plane.
type Raycaster struct {
	camera *OrbitCamera
	solids SolidSource
	plane  PlaneConfig
	normal vec3
	u, v   vec3
}

// NewRaycaster creates a raycaster over solids viewed through camera.
func NewRaycaster(camera *OrbitCamera, solids SolidSource, plane PlaneConfig) *Raycaster {
	if plane.Size <= 0 {
		plane.Size = DefaultPlaneSize
	}
	n := fromPoint(plane.Normal).normalize()
	if n.length() == 0 {
		n = vec3{0, 1, 0}
	}

	// In-plane axes used for the square bounds.
	ref := vec3{1, 0, 0}
	if math.Abs(n.x) > 0.9 {
		ref = vec3{0, 0, 1}
	}
	u := n.cross(ref).normalize()
	v := n.cross(u)

	return &Raycaster{camera: camera, solids: solids, plane: plane, normal: n, u: u, v: v}
}

// Cast implements interaction.Raycaster. Hits behind the camera are dropped;
// the rest are ordered nearest first.
func (r *Raycaster) Cast(ndcX, ndcY float64) []interaction.Intersection {
	r.camera.mu.RLock()
	origin, dir := r.camera.ray(ndcX, ndcY)
	r.camera.mu.RUnlock()

	var hits []interaction.Intersection

	if r.solids != nil {
		for _, s := range r.solids.Solids() {
			if t, ok := intersectSolid(origin, dir, s); ok {
				hits = append(hits, interaction.Intersection{
					EntityID: s.ID,
					Category: interaction.CategorySolid,
					Point:    origin.add(dir.scale(t)).point(),
					Distance: t,
				})
			}
		}
	}

	if t, ok := r.intersectPlane(origin, dir); ok {
		hits = append(hits, interaction.Intersection{
			EntityID: SketchPlaneID,
			Category: interaction.CategorySketchPlane,
			Point:    origin.add(dir.scale(t)).point(),
			Distance: t,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}

func (r *Raycaster) intersectPlane(origin, dir vec3) (float64, bool) {
	denom := r.normal.dot(dir)
	if math.Abs(denom) < 1e-12 {
		return 0, false
	}
	o := fromPoint(r.plane.Origin)
	t := r.normal.dot(o.sub(origin)) / denom
	if t <= 0 {
		return 0, false
	}
	rel := origin.add(dir.scale(t)).sub(o)
	half := r.plane.Size / 2
	if math.Abs(rel.dot(r.u)) > half || math.Abs(rel.dot(r.v)) > half {
		return 0, false
	}
	return t, true
}

// intersectSolid tests the ray in the solid's local frame. The local
// direction is not renormalized, so the returned t is a world distance.
func intersectSolid(origin, dir vec3, s document.Solid) (float64, bool) {
	scale := fromPoint(s.Scale)
	if scale == (vec3{}) {
		scale = vec3{1, 1, 1}
	}
	if scale.x == 0 || scale.y == 0 || scale.z == 0 {
		return 0, false
	}

	rot := fromPoint(s.Rotation)
	lo := origin.sub(fromPoint(s.Position)).unrotate(rot).div(scale)
	ld := dir.unrotate(rot).div(scale)

	switch s.Kind {
	case document.SolidSphere:
		return intersectSphere(lo, ld, 0.5)
	default:
		// Drawn as a unit box whatever its params; only Scale sizes it.
		return intersectBox(lo, ld, 0.5)
	}
}

// intersectBox is the slab test against an origin-centered cube.
func intersectBox(o, d vec3, half float64) (float64, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		oc, dc := o.component(axis), d.component(axis)
		if math.Abs(dc) < 1e-12 {
			if oc < -half || oc > half {
				return 0, false
			}
			continue
		}
		t1 := (-half - oc) / dc
		t2 := (half - oc) / dc
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return nearestPositive(tmin, tmax)
}

func intersectSphere(o, d vec3, radius float64) (float64, bool) {
	a := d.dot(d)
	b := 2 * o.dot(d)
	c := o.dot(o) - radius*radius
	disc := b*b - 4*a*c
	if a == 0 || disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	return nearestPositive((-b-sq)/(2*a), (-b+sq)/(2*a))
}

// nearestPositive returns the entry distance, or the exit distance when the
// ray starts inside the volume.
func nearestPositive(enter, exit float64) (float64, bool) {
	if exit <= 0 {
		return 0, false
	}
	if enter > 0 {
		return enter, true
	}
	return exit, true
}
