// Package transform implements the geometric correspondence and reprojection
// engine between the depth and color cameras: warping depth frames into the
// color camera's image, sampling color frames into the depth camera's image,
// and bulk unprojection of depth frames to per-pixel 3D points.
package transform

import (
	"github.com/pkg/errors"

	"go.viam.com/depthcam/camera"
	"go.viam.com/depthcam/rimage"
)

// ErrDescriptorMismatch is returned when an image's layout does not match
// what the calibration expects. It is distinct from nil-argument validation
// failures so callers can tell a wrongly-sized buffer from a missing one.
var ErrDescriptorMismatch = errors.New("unexpected image descriptor")

var errorNilColorImage = errors.New("color image is nil")

func descriptorMismatch(what string, expected, actual rimage.ImageDescriptor) error {
	return errors.Wrapf(ErrDescriptorMismatch,
		"%s: expected width %d, height %d, stride %d, got width %d, height %d, stride %d",
		what,
		expected.Width, expected.Height, expected.Stride,
		actual.Width, actual.Height, actual.Stride)
}

// expectedDepthDescriptor is the layout of a raw depth frame for the given
// calibration: 16 bits per pixel at the depth camera's resolution.
func expectedDepthDescriptor(cal *camera.Calibration) rimage.ImageDescriptor {
	return rimage.NewImageDescriptor(
		cal.DepthCamera.Width,
		cal.DepthCamera.Height,
		cal.DepthCamera.Width*2,
	)
}

// expectedColorDescriptor is the layout of a color frame for the given
// calibration: 4 bytes per pixel at the color camera's resolution.
func expectedColorDescriptor(cal *camera.Calibration) rimage.ImageDescriptor {
	return rimage.NewImageDescriptor(
		cal.ColorCamera.Width,
		cal.ColorCamera.Height,
		cal.ColorCamera.Width*4,
	)
}

func validateDepthInput(cal *camera.Calibration, table *camera.XYTable, depth *rimage.DepthMap) error {
	if cal == nil {
		return errors.New("calibration is nil")
	}
	if table == nil {
		return errors.New("depth camera xy table is nil")
	}
	if depth == nil {
		return errors.New("depth image is nil")
	}
	if table.Width != cal.DepthCamera.Width || table.Height != cal.DepthCamera.Height {
		return errors.Wrapf(ErrDescriptorMismatch,
			"xy table: expected %dx%d, got %dx%d",
			cal.DepthCamera.Width, cal.DepthCamera.Height, table.Width, table.Height)
	}
	if expected, actual := expectedDepthDescriptor(cal), depth.Descriptor(); !actual.Equal(expected) {
		return descriptorMismatch("depth image", expected, actual)
	}
	return nil
}
