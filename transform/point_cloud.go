package transform

import (
	"github.com/pkg/errors"

	"go.viam.com/depthcam/camera"
	"go.viam.com/depthcam/rimage"
)

// unprojectBatch is the number of pixels converted per inner-loop iteration.
// The conversion is a pure per-pixel map, so the batch size is a throughput
// knob, not a semantic one.
const unprojectBatch = 8

// DepthToPointCloud converts a raw depth frame to a per-pixel XYZ image using
// the precomputed unprojection table: X = d * xFactor, Y = d * yFactor,
// Z = d. Pixels outside the defined field of view produce an all-zero point.
func DepthToPointCloud(table *camera.XYTable, depth *rimage.DepthMap) (*rimage.XYZImage, error) {
	if table == nil {
		return nil, errors.New("depth camera xy table is nil")
	}
	if depth == nil {
		return nil, errors.New("depth image is nil")
	}
	expected := rimage.NewImageDescriptor(table.Width, table.Height, table.Width*2)
	if actual := depth.Descriptor(); !actual.Equal(expected) {
		return nil, descriptorMismatch("depth image", expected, actual)
	}

	out := rimage.NewEmptyXYZImage(table.Width, table.Height)
	depthData := depth.Data()
	xyz := out.Data()

	n := len(depthData)
	batched := n - n%unprojectBatch

	for i := 0; i < batched; i += unprojectBatch {
		d := depthData[i : i+unprojectBatch : i+unprojectBatch]
		xt := table.X[i : i+unprojectBatch : i+unprojectBatch]
		yt := table.Y[i : i+unprojectBatch : i+unprojectBatch]
		o := xyz[i*3 : (i+unprojectBatch)*3 : (i+unprojectBatch)*3]
		for j := 0; j < unprojectBatch; j++ {
			unprojectPixel(d[j], xt[j], yt[j], o[j*3:j*3+3:j*3+3])
		}
	}
	for i := batched; i < n; i++ {
		unprojectPixel(depthData[i], table.X[i], table.Y[i], xyz[i*3:i*3+3:i*3+3])
	}
	return out, nil
}

func unprojectPixel(d rimage.Depth, xFactor, yFactor float32, out []int16) {
	// NaN factors mark pixels outside the field of view.
	if d == 0 || xFactor != xFactor {
		out[0], out[1], out[2] = 0, 0, 0
		return
	}
	z := float32(d)
	out[0] = roundToInt16(xFactor * z)
	out[1] = roundToInt16(yFactor * z)
	out[2] = roundToInt16(z)
}

func roundToInt16(v float32) int16 {
	const maxInt16 = 32767
	const minInt16 = -32768
	if v >= 0 {
		v += 0.5
	} else {
		v -= 0.5
	}
	if v > maxInt16 {
		return maxInt16
	}
	if v < minInt16 {
		return minInt16
	}
	return int16(v)
}
