package camera

import (
	"math"

	"github.com/golang/geo/r2"
)

// XYTable holds precomputed per-pixel unprojection factors for one camera:
// a pixel's 3D point is depth * (X[i], Y[i], 1). Pixels outside the camera's
// defined field of view hold NaN in both factors. The table is immutable once
// built and safe to share between goroutines.
type XYTable struct {
	Width  int
	Height int
	X      []float32
	Y      []float32
}

// NewXYTable builds the unprojection table for a camera by inverting its
// projection at every pixel center.
func NewXYTable(in *Intrinsics) (*XYTable, error) {
	if err := in.CheckValid(); err != nil {
		return nil, err
	}

	table := &XYTable{
		Width:  in.Width,
		Height: in.Height,
		X:      make([]float32, in.Width*in.Height),
		Y:      make([]float32, in.Width*in.Height),
	}

	nan := float32(math.NaN())
	idx := 0
	for y := 0; y < in.Height; y++ {
		for x := 0; x < in.Width; x++ {
			ray, valid := in.Unproject(r2.Point{X: float64(x), Y: float64(y)})
			if valid {
				table.X[idx] = float32(ray.X)
				table.Y[idx] = float32(ray.Y)
			} else {
				table.X[idx] = nan
				table.Y[idx] = nan
			}
			idx++
		}
	}
	return table, nil
}

// Valid reports whether the pixel at the linear index is inside the defined
// field of view.
func (t *XYTable) Valid(idx int) bool {
	return !math.IsNaN(float64(t.X[idx]))
}
