package scene

import (
	"math"

	"github.com/ayusman/starkcad/internal/document"
)

type vec3 struct{ x, y, z float64 }

func fromPoint(p document.Point) vec3 { return vec3{p.X, p.Y, p.Z} }

func (v vec3) point() document.Point { return document.Point{X: v.x, Y: v.y, Z: v.z} }

func (v vec3) add(o vec3) vec3      { return vec3{v.x + o.x, v.y + o.y, v.z + o.z} }
func (v vec3) sub(o vec3) vec3      { return vec3{v.x - o.x, v.y - o.y, v.z - o.z} }
func (v vec3) scale(k float64) vec3 { return vec3{v.x * k, v.y * k, v.z * k} }
func (v vec3) dot(o vec3) float64   { return v.x*o.x + v.y*o.y + v.z*o.z }
func (v vec3) length() float64      { return math.Sqrt(v.dot(v)) }

func (v vec3) cross(o vec3) vec3 {
	return vec3{
		v.y*o.z - v.z*o.y,
		v.z*o.x - v.x*o.z,
		v.x*o.y - v.y*o.x,
	}
}

func (v vec3) normalize() vec3 {
	l := v.length()
	if l == 0 {
		return v
	}
	return v.scale(1 / l)
}

// div divides componentwise; zero components of o leave v's component as is.
func (v vec3) div(o vec3) vec3 {
	d := func(a, b float64) float64 {
		if b == 0 {
			return a
		}
		return a / b
	}
	return vec3{d(v.x, o.x), d(v.y, o.y), d(v.z, o.z)}
}

func (v vec3) component(axis int) float64 {
	switch axis {
	case 0:
		return v.x
	case 1:
		return v.y
	default:
		return v.z
	}
}

// unrotate applies the inverse of an XYZ Euler rotation (radians).
func (v vec3) unrotate(euler vec3) vec3 {
	v = rotateX(v, -euler.x)
	v = rotateY(v, -euler.y)
	return rotateZ(v, -euler.z)
}

func rotateX(v vec3, a float64) vec3 {
	s, c := math.Sincos(a)
	return vec3{v.x, v.y*c - v.z*s, v.y*s + v.z*c}
}

func rotateY(v vec3, a float64) vec3 {
	s, c := math.Sincos(a)
	return vec3{v.x*c + v.z*s, v.y, -v.x*s + v.z*c}
}

func rotateZ(v vec3, a float64) vec3 {
	s, c := math.Sincos(a)
	return vec3{v.x*c - v.y*s, v.x*s + v.y*c, v.z}
}
