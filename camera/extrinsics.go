package camera

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Extrinsics is the rigid transform between two camera frames: a 3x3 rotation
// followed by a translation in millimeters.
type Extrinsics struct {
	Rotation    []float64 `json:"rotation"`    // row-major 3x3
	Translation []float64 `json:"translation"` // x, y, z in mm
}

// NewExtrinsics returns the identity transform.
func NewExtrinsics() Extrinsics {
	return Extrinsics{
		Rotation:    []float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		Translation: []float64{0, 0, 0},
	}
}

// CheckValid checks the shape of the rotation and translation and that the
// rotation is proper (determinant +1 within tolerance).
func (e *Extrinsics) CheckValid() error {
	if len(e.Rotation) != 9 {
		return errors.Errorf("extrinsic rotation must have 9 elements, got %d", len(e.Rotation))
	}
	if len(e.Translation) != 3 {
		return errors.Errorf("extrinsic translation must have 3 elements, got %d", len(e.Translation))
	}
	r := mat.NewDense(3, 3, e.Rotation)
	if det := mat.Det(r); det < 0.99 || det > 1.01 {
		return errors.Errorf("extrinsic rotation is not a proper rotation, det = %v", det)
	}
	return nil
}

// RotationMatrix returns the rotation as a gonum matrix.
func (e *Extrinsics) RotationMatrix() *mat.Dense {
	return mat.NewDense(3, 3, e.Rotation)
}

// Transform applies the extrinsic transform to a point.
func (e *Extrinsics) Transform(pt r3.Vector) r3.Vector {
	r := e.Rotation
	t := e.Translation
	return r3.Vector{
		X: r[0]*pt.X + r[1]*pt.Y + r[2]*pt.Z + t[0],
		Y: r[3]*pt.X + r[4]*pt.Y + r[5]*pt.Z + t[1],
		Z: r[6]*pt.X + r[7]*pt.Y + r[8]*pt.Z + t[2],
	}
}

// Inverse returns the inverse transform.
func (e *Extrinsics) Inverse() Extrinsics {
	r := e.RotationMatrix()
	var rt mat.Dense
	rt.CloneFrom(r.T())

	t := mat.NewVecDense(3, e.Translation)
	var ti mat.VecDense
	ti.MulVec(&rt, t)

	inv := Extrinsics{
		Rotation:    make([]float64, 9),
		Translation: []float64{-ti.AtVec(0), -ti.AtVec(1), -ti.AtVec(2)},
	}
	copy(inv.Rotation, rt.RawMatrix().Data)
	return inv
}
