package synthetic

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/ecopia-map/rgbd_mapper/internal/data"
)

type surface int

const (
	surfaceNone surface = iota
	surfaceWall
	surfaceFloor
	surfaceSphere
)

// Scene is a fixed room seen from the depth sensor origin, camera axes
// (x right, y down, z forward), meters.
type Scene struct {
	WallZ        float64
	FloorY       float64
	SphereCenter r3.Vector
	SphereRadius float64
	MaxRange     float64
}

func NewDefaultScene() *Scene {
	return &Scene{
		WallZ:        2.5,
		FloorY:       0.6,
		SphereCenter: r3.Vector{X: 0.15, Y: 0.1, Z: 1.4},
		SphereRadius: 0.3,
		MaxRange:     6,
	}
}

// Trace returns the ray parameter of the closest hit of origin + t*dir.
func (s *Scene) Trace(origin, dir r3.Vector) (float64, surface) {
	best, hit := math.Inf(1), surfaceNone
	if dir.Z > 0 {
		if t := (s.WallZ - origin.Z) / dir.Z; t > 0 && t < best {
			best, hit = t, surfaceWall
		}
	}
	if dir.Y > 0 {
		if t := (s.FloorY - origin.Y) / dir.Y; t > 0 && t < best {
			best, hit = t, surfaceFloor
		}
	}
	if t, ok := s.traceSphere(origin, dir); ok && t < best {
		best, hit = t, surfaceSphere
	}
	if hit != surfaceNone && origin.Add(dir.Mul(best)).Norm() > s.MaxRange {
		return 0, surfaceNone
	}
	return best, hit
}

func (s *Scene) traceSphere(origin, dir r3.Vector) (float64, bool) {
	oc := origin.Sub(s.SphereCenter)
	a := dir.Dot(dir)
	b := 2 * oc.Dot(dir)
	c := oc.Dot(oc) - s.SphereRadius*s.SphereRadius
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	t := (-b - math.Sqrt(disc)) / (2 * a)
	return t, t > 0
}

// Shade returns the color of a surface point.
func (s *Scene) Shade(p r3.Vector, hit surface) data.RGB {
	switch hit {
	case surfaceWall:
		if checker(p.X, p.Y, 0.25) {
			return data.RGB{R: 210, G: 205, B: 190}
		}
		return data.RGB{R: 120, G: 140, B: 170}
	case surfaceFloor:
		if checker(p.X, p.Z, 0.5) {
			return data.RGB{R: 90, G: 90, B: 90}
		}
		return data.RGB{R: 60, G: 55, B: 50}
	case surfaceSphere:
		light := r3.Vector{X: -0.4, Y: -0.8, Z: -0.45}.Normalize()
		lambert := math.Max(0, p.Sub(s.SphereCenter).Normalize().Dot(light))
		k := 0.25 + 0.75*lambert
		return data.RGB{R: uint8(230 * k), G: uint8(120 * k), B: uint8(40 * k)}
	}
	return data.RGB{}
}

func checker(a, b, size float64) bool {
	return (int(math.Floor(a/size))+int(math.Floor(b/size)))%2 == 0
}
