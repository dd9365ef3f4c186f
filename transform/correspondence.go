package transform

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"go.viam.com/depthcam/camera"
	"go.viam.com/depthcam/rimage"
)

// correspondence maps one depth pixel into the color camera's space: its 2D
// coordinate in the color image, the depth of the point in the color camera's
// frame, and whether the mapping landed inside the color camera's field of
// view. Invalid correspondences are the zero value.
type correspondence struct {
	point2D r2.Point
	depth   float64
	valid   bool
}

// computeCorrespondence maps the depth pixel at linear index idx with raw
// depth d into the color camera. A depth of 0 means "no return" and always
// yields an invalid correspondence, as does a pixel outside the depth
// camera's field of view.
func computeCorrespondence(idx int, d rimage.Depth, cal *camera.Calibration, table *camera.XYTable) correspondence {
	if d == 0 || !table.Valid(idx) {
		return correspondence{}
	}

	z := float64(d)
	depthPoint := r3.Vector{
		X: float64(table.X[idx]) * z,
		Y: float64(table.Y[idx]) * z,
		Z: z,
	}

	colorPoint := cal.DepthPointToColor(depthPoint)

	point2D, valid := cal.ColorCamera.Project(colorPoint)
	return correspondence{
		point2D: point2D,
		depth:   colorPoint.Z,
		valid:   valid,
	}
}

// interpolateCorrespondences returns the midpoint of two correspondences,
// valid only if both inputs are.
func interpolateCorrespondences(v1, v2 correspondence) correspondence {
	return correspondence{
		point2D: r2.Point{
			X: (v1.point2D.X + v2.point2D.X) * 0.5,
			Y: (v1.point2D.Y + v2.point2D.Y) * 0.5,
		},
		depth: (v1.depth + v2.depth) * 0.5,
		valid: v1.valid && v2.valid,
	}
}
