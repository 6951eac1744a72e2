package camera

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const rotationTolerance = 1e-3

// Extrinsics is the rigid transform from one sensor frame to another.
// Rotation is row-major, Translation is in meters.
type Extrinsics struct {
	Rotation    [9]float64 `json:"rotation"`
	Translation [3]float64 `json:"translation"`
}

func IdentityExtrinsics() Extrinsics {
	return Extrinsics{Rotation: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// NewTranslation builds extrinsics for sensors that differ only by an offset.
func NewTranslation(x, y, z float64) Extrinsics {
	e := IdentityExtrinsics()
	e.Translation = [3]float64{x, y, z}
	return e
}

// Transform maps a point from the source frame to the destination frame.
func (e *Extrinsics) Transform(p r3.Vector) r3.Vector {
	r := &e.Rotation
	return r3.Vector{
		X: r[0]*p.X + r[1]*p.Y + r[2]*p.Z + e.Translation[0],
		Y: r[3]*p.X + r[4]*p.Y + r[5]*p.Z + e.Translation[1],
		Z: r[6]*p.X + r[7]*p.Y + r[8]*p.Z + e.Translation[2],
	}
}

// CheckValid checks that Rotation is a proper rotation matrix.
func (e *Extrinsics) CheckValid() error {
	if e == nil {
		return errors.New("extrinsics do not exist")
	}
	r := mat.NewDense(3, 3, append([]float64(nil), e.Rotation[:]...))

	var rtr mat.Dense
	rtr.Mul(r.T(), r)
	if !mat.EqualApprox(&rtr, mat.NewDiagDense(3, []float64{1, 1, 1}), rotationTolerance) {
		return errors.Errorf("rotation matrix is not orthonormal: %v", e.Rotation)
	}
	if det := mat.Det(r); det < 1-rotationTolerance || det > 1+rotationTolerance {
		return errors.Errorf("rotation matrix has determinant %.4f, want 1", det)
	}
	return nil
}

// Inverse returns the transform from the destination frame back to the source frame.
func (e *Extrinsics) Inverse() Extrinsics {
	r := mat.NewDense(3, 3, append([]float64(nil), e.Rotation[:]...))
	var rt mat.Dense
	rt.CloneFrom(r.T())

	var t mat.VecDense
	t.MulVec(&rt, mat.NewVecDense(3, append([]float64(nil), e.Translation[:]...)))
	t.ScaleVec(-1, &t)

	var out Extrinsics
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Rotation[i*3+j] = rt.At(i, j)
		}
		out.Translation[i] = t.AtVec(i)
	}
	return out
}
