package transform

import (
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/depthcam/camera"
	"go.viam.com/depthcam/rimage"
)

// pointInsideImage reports whether the 2x2 pixel window containing the
// coordinate lies entirely inside an image of the given size, which bilinear
// sampling requires.
func pointInsideImage(width, height int, point r2.Point) bool {
	x := int(math.Floor(point.X))
	y := int(math.Floor(point.Y))
	return x >= 0 && y >= 0 && x+1 < width && y+1 < height
}

// bilinearInterpolation samples one channel of a 4-channel image at a
// fractional coordinate.
func bilinearInterpolation(data []uint8, stride int, point r2.Point) uint8 {
	xFloor := math.Floor(point.X)
	yFloor := math.Floor(point.Y)
	fx := point.X - xFloor
	fy := point.Y - yFloor

	idx := int(yFloor)*stride + 4*int(xFloor)
	v00 := float64(data[idx])
	v01 := float64(data[idx+4])
	idx += stride
	v10 := float64(data[idx])
	v11 := float64(data[idx+4])

	top := (1-fx)*v00 + fx*v01
	bottom := (1-fx)*v10 + fx*v11
	return uint8((1-fy)*top + fy*bottom + 0.5)
}

// ColorToDepth samples the color image at each depth pixel's reprojected
// coordinate, returning a BGRA image at the depth camera's resolution. Pixels
// with no valid mapping stay (0,0,0,0); a genuinely sampled all-zero color is
// remapped to (1,0,0,0) so zero unambiguously means "unmapped".
func ColorToDepth(
	cal *camera.Calibration,
	table *camera.XYTable,
	depth *rimage.DepthMap,
	color *rimage.Image,
) (*rimage.Image, error) {
	if err := validateDepthInput(cal, table, depth); err != nil {
		return nil, err
	}
	if color == nil {
		return nil, errorNilColorImage
	}
	if expected, actual := expectedColorDescriptor(cal), color.Descriptor(); !actual.Equal(expected) {
		return nil, descriptorMismatch("color image", expected, actual)
	}

	out := rimage.NewImage(depth.Width(), depth.Height())
	outData := out.Data()
	colorData := color.Data()
	stride := color.Descriptor().Stride
	depthData := depth.Data()

	for idx, d := range depthData {
		c := computeCorrespondence(idx, d, cal, table)
		if !c.valid || !pointInsideImage(color.Width(), color.Height(), c.point2D) {
			continue
		}

		b := bilinearInterpolation(colorData, stride, c.point2D)
		g := bilinearInterpolation(colorData[1:], stride, c.point2D)
		r := bilinearInterpolation(colorData[2:], stride, c.point2D)
		a := bilinearInterpolation(colorData[3:], stride, c.point2D)

		if b == 0 && g == 0 && r == 0 && a == 0 {
			b++
		}

		outData[4*idx+0] = b
		outData[4*idx+1] = g
		outData[4*idx+2] = r
		outData[4*idx+3] = a
	}
	return out, nil
}
