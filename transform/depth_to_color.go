package transform

import (
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/depthcam/camera"
	"go.viam.com/depthcam/rimage"
)

// skipInterpolationRatio rejects quads straddling a depth discontinuity.
// The threshold is estimated from the per-pixel angular resolution:
//   - angle between two pixels: theta = 0.234375 degree (120 degree / 512)
//   - distance between two pixels at the same depth: A ~= sin(theta) * depth
//   - at a highly slanted surface (alpha = 85 degree): B = A / cos(alpha)
//   - ratio ~= sin(theta) / cos(alpha)
//
// A larger spread than B across a cell is treated as an object edge rather
// than a slanted surface.
const skipInterpolationRatio = 0.04693441759

type boundingBox struct {
	topLeft     [2]int
	bottomRight [2]int
}

func min4(v1, v2, v3, v4 float64) float64 {
	return math.Min(math.Min(v1, v2), math.Min(v3, v4))
}

func max4(v1, v2, v3, v4 float64) float64 {
	return math.Max(math.Max(v1, v2), math.Max(v3, v4))
}

// computeBoundingBox returns the integer pixel box covering the quad, clipped
// to the destination image.
func computeBoundingBox(v1, v2, v3, v4 *correspondence, width, height int) boundingBox {
	xMin := min4(v1.point2D.X, v2.point2D.X, v3.point2D.X, v4.point2D.X)
	yMin := min4(v1.point2D.Y, v2.point2D.Y, v3.point2D.Y, v4.point2D.Y)
	xMax := max4(v1.point2D.X, v2.point2D.X, v3.point2D.X, v4.point2D.X)
	yMax := max4(v1.point2D.Y, v2.point2D.Y, v3.point2D.Y, v4.point2D.Y)

	var box boundingBox
	box.topLeft[0] = max2i(int(math.Ceil(xMin)), 0)
	box.topLeft[1] = max2i(int(math.Ceil(yMin)), 0)
	box.bottomRight[0] = min2i(int(math.Ceil(xMax)), width)
	box.bottomRight[1] = min2i(int(math.Ceil(yMax)), height)
	return box
}

func min2i(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max2i(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// checkValidCorrespondences repairs a cell with exactly one invalid corner and
// rejects cells with two or more, or with a depth spread past the
// discontinuity threshold. The repaired corners keep the quad's clockwise
// winding order.
func checkValidCorrespondences(
	topLeft, topRight, bottomRight, bottomLeft correspondence,
) (vTopLeft, vTopRight, vBottomRight, vBottomLeft correspondence, ok bool) {
	vTopLeft = topLeft
	vTopRight = topRight
	vBottomRight = bottomRight
	vBottomLeft = bottomLeft

	numInvalid := 0
	if !topLeft.valid {
		numInvalid++
		vTopLeft = interpolateCorrespondences(topRight, bottomLeft)
	}
	if !topRight.valid {
		numInvalid++
		vTopRight = bottomRight
		vBottomRight = interpolateCorrespondences(bottomRight, bottomLeft)
	}
	if !bottomRight.valid {
		numInvalid++
		vBottomRight = interpolateCorrespondences(topRight, bottomLeft)
	}
	if !bottomLeft.valid {
		numInvalid++
		vBottomLeft = bottomRight
		vBottomRight = interpolateCorrespondences(topRight, bottomRight)
	}

	// Two or more invalid vertices cannot form a valid triangle pair.
	ok = numInvalid < 2

	dMin := math.Min(math.Min(vTopLeft.depth, vTopRight.depth), math.Min(vBottomRight.depth, vBottomLeft.depth))
	dMax := math.Max(math.Max(vTopLeft.depth, vTopRight.depth), math.Max(vBottomRight.depth, vBottomLeft.depth))
	if dMax-dMin > skipInterpolationRatio*dMin {
		ok = false
	}
	return vTopLeft, vTopRight, vBottomRight, vBottomLeft, ok
}

// areaFunction is twice the signed area of triangle (a, b, c): the area of
// the parallelogram spanned by (ab) and (ac). Negative when c is on the left
// of (ab).
func areaFunction(a, b, c r2.Point) float64 {
	return (c.Y-a.Y)*(b.X-a.X) - (c.X-a.X)*(b.Y-a.Y)
}

// pointInsideTriangle tests the destination pixel against one of the two
// triangles of the split quad and interpolates its depth from area weights.
// The top/left edge is inclusive while the bottom/right edge is exclusive so
// adjacent quads do not double-write shared edges.
func pointInsideTriangle(
	vTopLeft, vIntermediate, vBottomRight *correspondence,
	point r2.Point,
	areaIntermediate float64,
	counterClockwise bool,
) (float64, bool) {
	areaTopLeft := areaFunction(vIntermediate.point2D, vTopLeft.point2D, point)
	areaBottomRight := areaFunction(vBottomRight.point2D, vIntermediate.point2D, point)

	if !counterClockwise {
		areaTopLeft = -areaTopLeft
		areaBottomRight = -areaBottomRight
	}
	if areaTopLeft >= 0 && areaBottomRight > 0 {
		sumWeights := areaTopLeft + areaIntermediate + areaBottomRight
		if sumWeights != 0 {
			sumWeights = 1.0 / sumWeights
		}
		depth := (areaTopLeft*vBottomRight.depth +
			areaIntermediate*vIntermediate.depth +
			areaBottomRight*vTopLeft.depth) * sumWeights
		return depth, true
	}
	return 0, false
}

// pointInsideQuad splits the quad along the diagonal from top-left to
// bottom-right and tests the point against whichever triangle it falls in,
// chosen by the sign of the signed area so winding stays consistent.
func pointInsideQuad(
	vTopLeft, vTopRight, vBottomRight, vBottomLeft *correspondence,
	point r2.Point,
) (float64, bool) {
	areaIntermediate := areaFunction(vTopLeft.point2D, vBottomRight.point2D, point)
	counterClockwise := areaIntermediate >= 0

	intermediate := vTopRight
	if counterClockwise {
		intermediate = vBottomLeft
	}
	if !counterClockwise {
		areaIntermediate = -areaIntermediate
	}
	return pointInsideTriangle(vTopLeft, intermediate, vBottomRight, point, areaIntermediate, counterClockwise)
}

// drawRectangle rasterizes one repaired quad into the destination depth map,
// resolving overlaps with nearest-surface-wins: a pixel is overwritten only
// if unwritten (0) or if the new depth is closer.
func drawRectangle(
	box boundingBox,
	vTopLeft, vTopRight, vBottomRight, vBottomLeft *correspondence,
	out *rimage.DepthMap,
) {
	for y := box.topLeft[1]; y < box.bottomRight[1]; y++ {
		for x := box.topLeft[0]; x < box.bottomRight[0]; x++ {
			point := r2.Point{X: float64(x), Y: float64(y)}
			interpolated, inside := pointInsideQuad(vTopLeft, vTopRight, vBottomRight, vBottomLeft, point)
			if !inside {
				continue
			}
			depth := rimage.Depth(interpolated + 0.5)
			if existing := out.GetDepth(x, y); existing == 0 || depth < existing {
				out.Set(x, y, depth)
			}
		}
	}
}

// DepthToColor warps a raw depth frame into the color camera's image space,
// returning a depth map at the color camera's resolution. Depth pixels are
// grouped into 2x2 cells, reprojected as quadrilaterals, and rasterized with
// z-buffer occlusion resolution; unreliable cells at depth discontinuities
// are dropped rather than interpolated across.
func DepthToColor(
	cal *camera.Calibration,
	table *camera.XYTable,
	depth *rimage.DepthMap,
) (*rimage.DepthMap, error) {
	if err := validateDepthInput(cal, table, depth); err != nil {
		return nil, err
	}

	out := rimage.NewEmptyDepthMap(cal.ColorCamera.Width, cal.ColorCamera.Height)
	width := depth.Width()
	height := depth.Height()
	depthData := depth.Data()

	// Correspondences are computed row by row; each finished row's vertices
	// become the next row's top edge so every pixel is mapped exactly once.
	vertexRow := make([]correspondence, width)
	idx := 0
	for ; idx < width; idx++ {
		vertexRow[idx] = computeCorrespondence(idx, depthData[idx], cal, table)
	}

	for y := 1; y < height; y++ {
		topLeft := vertexRow[0]
		bottomLeft := computeCorrespondence(idx, depthData[idx], cal, table)
		idx++
		vertexRow[0] = bottomLeft

		for x := 1; x < width; x++ {
			topRight := vertexRow[x]
			bottomRight := computeCorrespondence(idx, depthData[idx], cal, table)
			idx++

			vTL, vTR, vBR, vBL, ok := checkValidCorrespondences(topLeft, topRight, bottomRight, bottomLeft)
			if ok {
				box := computeBoundingBox(&vTL, &vTR, &vBR, &vBL, out.Width(), out.Height())
				drawRectangle(box, &vTL, &vTR, &vBR, &vBL, out)
			}

			vertexRow[x] = bottomRight
			topLeft = topRight
			bottomLeft = bottomRight
		}
	}
	return out, nil
}
