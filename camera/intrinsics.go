// Package camera models the device's calibration: per-camera pinhole
// intrinsics with Brown-Conrady distortion, the depth-to-color extrinsic
// transform, and the precomputed per-pixel unprojection tables used by the
// transformation engine.
package camera

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intrinsics are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrapf(ErrNoIntrinsics, msg)
}

// Intrinsics holds the pinhole parameters and Brown-Conrady distortion
// coefficients of one camera. The rational 6KT polynomial (K1-K6) plus the
// two tangential terms (P1, P2) match the device's factory calibration.
type Intrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Cx     float64 `json:"cx"`
	Cy     float64 `json:"cy"`
	K1     float64 `json:"k1"`
	K2     float64 `json:"k2"`
	K3     float64 `json:"k3"`
	K4     float64 `json:"k4"`
	K5     float64 `json:"k5"`
	K6     float64 `json:"k6"`
	P1     float64 `json:"p1"`
	P2     float64 `json:"p2"`
	// MetricRadius bounds the calibrated field of view in normalized image
	// coordinates. Rays beyond it are outside the defined FOV. Zero means
	// unbounded.
	MetricRadius float64 `json:"metric_radius"`
}

// CheckValid checks if the fields for Intrinsics have valid inputs.
func (in *Intrinsics) CheckValid() error {
	if in == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if in.Width <= 0 || in.Height <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", in.Width, in.Height))
	}
	if in.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", in.Fx))
	}
	if in.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", in.Fy))
	}
	if in.Cx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Cx = %#v", in.Cx))
	}
	if in.Cy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Cy = %#v", in.Cy))
	}
	return nil
}

// distort applies the forward Brown-Conrady model to normalized coordinates:
//
//	d = (1 + k1*r² + k2*r⁴ + k3*r⁶) / (1 + k4*r² + k5*r⁴ + k6*r⁶)
//	x_d = x*d + 2*p1*x*y + p2*(r² + 2*x²)
//	y_d = y*d + 2*p2*x*y + p1*(r² + 2*y²)
func (in *Intrinsics) distort(x, y float64) (float64, float64) {
	r2v := x*x + y*y
	r4 := r2v * r2v
	r6 := r4 * r2v

	num := 1.0 + in.K1*r2v + in.K2*r4 + in.K3*r6
	den := 1.0 + in.K4*r2v + in.K5*r4 + in.K6*r6
	d := num / den

	xd := x*d + 2.0*in.P1*x*y + in.P2*(r2v+2.0*x*x)
	yd := y*d + 2.0*in.P2*x*y + in.P1*(r2v+2.0*y*y)
	return xd, yd
}

// Project projects a 3D point in this camera's frame into its 2D pixel space.
// The boolean result reports whether the point lands inside the camera's
// defined field of view; points behind the camera or beyond the calibrated
// metric radius are invalid and map to the origin.
func (in *Intrinsics) Project(pt r3.Vector) (r2.Point, bool) {
	if pt.Z <= 0 {
		return r2.Point{}, false
	}

	x := pt.X / pt.Z
	y := pt.Y / pt.Z

	if in.MetricRadius > 0 && x*x+y*y > in.MetricRadius*in.MetricRadius {
		return r2.Point{}, false
	}

	xd, yd := in.distort(x, y)
	return r2.Point{
		X: xd*in.Fx + in.Cx,
		Y: yd*in.Fy + in.Cy,
	}, true
}

// Unproject converts a pixel coordinate to the normalized ray (x, y, 1) along
// which its depth lies. The boolean result reports whether the pixel is inside
// the camera's defined field of view; the distortion inversion may not
// converge for pixels well outside the calibrated area.
func (in *Intrinsics) Unproject(px r2.Point) (r2.Point, bool) {
	xd := (px.X - in.Cx) / in.Fx
	yd := (px.Y - in.Cy) / in.Fy

	x, y, ok := in.undistort(xd, yd)
	if !ok {
		return r2.Point{}, false
	}
	if in.MetricRadius > 0 && x*x+y*y > in.MetricRadius*in.MetricRadius {
		return r2.Point{}, false
	}
	return r2.Point{X: x, Y: y}, true
}

// undistort inverts the Brown-Conrady model with a Newton-Raphson iteration,
// solving for the undistorted normalized coordinates that produce (xd, yd).
func (in *Intrinsics) undistort(xd, yd float64) (float64, float64, bool) {
	const maxIterations = 20
	const tolerance = 1e-10

	xu, yu := xd, yd
	converged := false

	for i := 0; i < maxIterations; i++ {
		xdEst, ydEst := in.distort(xu, yu)
		errX := xdEst - xd
		errY := ydEst - yd
		if errX*errX+errY*errY < tolerance {
			converged = true
			break
		}

		// Numeric Jacobian of the forward model. The rational radial term
		// makes the analytic form unwieldy; central differences at this
		// scale are well within the solve tolerance.
		const h = 1e-7
		xpx, ypx := in.distort(xu+h, yu)
		xmx, ymx := in.distort(xu-h, yu)
		xpy, ypy := in.distort(xu, yu+h)
		xmy, ymy := in.distort(xu, yu-h)

		j00 := (xpx - xmx) / (2 * h)
		j01 := (xpy - xmy) / (2 * h)
		j10 := (ypx - ymx) / (2 * h)
		j11 := (ypy - ymy) / (2 * h)

		det := j00*j11 - j01*j10
		if det == 0 {
			break
		}

		xu -= (j11*errX - j01*errY) / det
		yu -= (-j10*errX + j00*errY) / det
	}

	if !converged {
		// One final residual check; a point that settled within a loose
		// bound is still usable even if it missed the tight tolerance.
		xdEst, ydEst := in.distort(xu, yu)
		errX := xdEst - xd
		errY := ydEst - yd
		if errX*errX+errY*errY > 1e-6 {
			return 0, 0, false
		}
	}
	if math.IsNaN(xu) || math.IsNaN(yu) {
		return 0, 0, false
	}
	return xu, yu, true
}
