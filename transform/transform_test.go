package transform

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/depthcam/camera"
	"go.viam.com/depthcam/rimage"
)

const (
	testDepthWidth  = 16
	testDepthHeight = 16
)

// testCalibration pairs two identical distortion-free cameras with an identity
// transform between them, so every depth pixel corresponds to the same color
// pixel and expected outputs can be written down exactly.
func testCalibration() *camera.Calibration {
	in := camera.Intrinsics{
		Width:  testDepthWidth,
		Height: testDepthHeight,
		Fx:     20,
		Fy:     20,
		Cx:     7.5,
		Cy:     7.5,
	}
	return &camera.Calibration{
		DepthCamera:  in,
		ColorCamera:  in,
		DepthToColor: camera.NewExtrinsics(),
	}
}

func testXYTable(t *testing.T, cal *camera.Calibration) *camera.XYTable {
	t.Helper()
	table, err := camera.NewXYTable(&cal.DepthCamera)
	test.That(t, err, test.ShouldBeNil)
	return table
}

func constantDepthMap(d rimage.Depth) *rimage.DepthMap {
	dm := rimage.NewEmptyDepthMap(testDepthWidth, testDepthHeight)
	for y := 0; y < testDepthHeight; y++ {
		for x := 0; x < testDepthWidth; x++ {
			dm.Set(x, y, d)
		}
	}
	return dm
}

func TestValidateDepthInput(t *testing.T) {
	cal := testCalibration()
	table := testXYTable(t, cal)
	depth := constantDepthMap(1000)

	test.That(t, validateDepthInput(nil, table, depth), test.ShouldNotBeNil)
	test.That(t, validateDepthInput(cal, nil, depth), test.ShouldNotBeNil)
	test.That(t, validateDepthInput(cal, table, nil), test.ShouldNotBeNil)
	test.That(t, validateDepthInput(cal, table, depth), test.ShouldBeNil)

	// A wrongly-sized depth frame is a descriptor mismatch, not a nil error.
	wrong := rimage.NewEmptyDepthMap(8, 8)
	err := validateDepthInput(cal, table, wrong)
	test.That(t, errors.Is(err, ErrDescriptorMismatch), test.ShouldBeTrue)
}

func TestCorrespondenceDepthSentinel(t *testing.T) {
	cal := testCalibration()
	table := testXYTable(t, cal)

	// Depth 0 means "no return" and never produces a correspondence.
	c := computeCorrespondence(0, 0, cal, table)
	test.That(t, c.valid, test.ShouldBeFalse)
	test.That(t, c.depth, test.ShouldEqual, 0)

	// With identity geometry, pixel i maps back onto itself.
	idx := 5*testDepthWidth + 3
	c = computeCorrespondence(idx, 1000, cal, table)
	test.That(t, c.valid, test.ShouldBeTrue)
	test.That(t, c.point2D.X, test.ShouldAlmostEqual, 3, 1e-6)
	test.That(t, c.point2D.Y, test.ShouldAlmostEqual, 5, 1e-6)
	test.That(t, c.depth, test.ShouldAlmostEqual, 1000, 1e-9)
}

func TestCheckValidCorrespondences(t *testing.T) {
	mk := func(x, y, d float64) correspondence {
		return correspondence{point2D: r2.Point{X: x, Y: y}, depth: d, valid: true}
	}
	tl := mk(0, 0, 1000)
	tr := mk(1, 0, 1001)
	br := mk(1, 1, 1002)
	bl := mk(0, 1, 1003)

	_, _, _, _, ok := checkValidCorrespondences(tl, tr, br, bl)
	test.That(t, ok, test.ShouldBeTrue)

	// One invalid corner is repaired from its neighbors.
	vTL, _, _, _, ok := checkValidCorrespondences(correspondence{}, tr, br, bl)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, vTL.point2D.X, test.ShouldAlmostEqual, 0.5)
	test.That(t, vTL.point2D.Y, test.ShouldAlmostEqual, 0.5)
	test.That(t, vTL.depth, test.ShouldAlmostEqual, 1002)

	// Two invalid corners cannot form a triangle pair.
	_, _, _, _, ok = checkValidCorrespondences(correspondence{}, tr, br, correspondence{})
	test.That(t, ok, test.ShouldBeFalse)

	// A depth spread past the discontinuity threshold is an object edge.
	_, _, _, _, ok = checkValidCorrespondences(tl, tr, mk(1, 1, 1100), bl)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestDrawRectangleNearestWins(t *testing.T) {
	out := rimage.NewEmptyDepthMap(8, 8)
	quad := func(d float64) (correspondence, correspondence, correspondence, correspondence) {
		mk := func(x, y float64) correspondence {
			return correspondence{point2D: r2.Point{X: x, Y: y}, depth: d, valid: true}
		}
		return mk(1, 1), mk(5, 1), mk(5, 5), mk(1, 5)
	}
	box := boundingBox{topLeft: [2]int{0, 0}, bottomRight: [2]int{8, 8}}

	// Far surface first, then a nearer one: the near surface wins.
	tl, tr, br, bl := quad(1000)
	drawRectangle(box, &tl, &tr, &br, &bl, out)
	test.That(t, out.GetDepth(3, 3), test.ShouldEqual, rimage.Depth(1000))

	tl, tr, br, bl = quad(500)
	drawRectangle(box, &tl, &tr, &br, &bl, out)
	test.That(t, out.GetDepth(3, 3), test.ShouldEqual, rimage.Depth(500))

	// Drawing the far surface again does not overwrite the near one.
	tl, tr, br, bl = quad(1000)
	drawRectangle(box, &tl, &tr, &br, &bl, out)
	test.That(t, out.GetDepth(3, 3), test.ShouldEqual, rimage.Depth(500))

	// Pixels outside the quad stay unwritten.
	test.That(t, out.GetDepth(7, 7), test.ShouldEqual, rimage.Depth(0))
}

func TestDepthToColorPlanarSurface(t *testing.T) {
	cal := testCalibration()
	table := testXYTable(t, cal)

	out, err := DepthToColor(cal, table, constantDepthMap(1000))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Width(), test.ShouldEqual, testDepthWidth)
	test.That(t, out.Height(), test.ShouldEqual, testDepthHeight)

	// With identity geometry a flat surface warps onto itself.
	for y := 0; y < testDepthHeight-1; y++ {
		for x := 0; x < testDepthWidth-1; x++ {
			test.That(t, out.GetDepth(x, y), test.ShouldEqual, rimage.Depth(1000))
		}
	}
}

func TestDepthToColorHole(t *testing.T) {
	cal := testCalibration()
	table := testXYTable(t, cal)

	depth := constantDepthMap(1000)
	depth.Set(5, 5, 0)

	out, err := DepthToColor(cal, table, depth)
	test.That(t, err, test.ShouldBeNil)

	// The hole's neighbors are still mapped through repaired cells but the
	// hole itself stays empty.
	test.That(t, out.GetDepth(5, 5), test.ShouldEqual, rimage.Depth(0))
	test.That(t, out.GetDepth(4, 4), test.ShouldEqual, rimage.Depth(1000))
	test.That(t, out.GetDepth(6, 6), test.ShouldEqual, rimage.Depth(1000))
}

func TestDepthToColorAllInvalid(t *testing.T) {
	cal := testCalibration()
	table := testXYTable(t, cal)

	out, err := DepthToColor(cal, table, constantDepthMap(0))
	test.That(t, err, test.ShouldBeNil)
	min, max := out.MinMax()
	test.That(t, min, test.ShouldEqual, rimage.Depth(0))
	test.That(t, max, test.ShouldEqual, rimage.Depth(0))
}

func TestColorToDepth(t *testing.T) {
	cal := testCalibration()
	table := testXYTable(t, cal)
	depth := constantDepthMap(1000)

	color := rimage.NewImage(testDepthWidth, testDepthHeight)
	for y := 0; y < testDepthHeight; y++ {
		for x := 0; x < testDepthWidth; x++ {
			color.SetBGRA(x, y, 10, 20, 30, 255)
		}
	}

	out, err := ColorToDepth(cal, table, depth, color)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Width(), test.ShouldEqual, testDepthWidth)

	b, g, r, a := out.GetBGRA(7, 7)
	test.That(t, b, test.ShouldEqual, 10)
	test.That(t, g, test.ShouldEqual, 20)
	test.That(t, r, test.ShouldEqual, 30)
	test.That(t, a, test.ShouldEqual, 255)

	// The last row and column cannot fit a bilinear window and stay unmapped.
	b, g, r, a = out.GetBGRA(15, 15)
	test.That(t, b, test.ShouldEqual, 0)
	test.That(t, g, test.ShouldEqual, 0)
	test.That(t, r, test.ShouldEqual, 0)
	test.That(t, a, test.ShouldEqual, 0)

	// An unreturned depth pixel is never given a color.
	depth.Set(3, 3, 0)
	out, err = ColorToDepth(cal, table, depth, color)
	test.That(t, err, test.ShouldBeNil)
	b, g, r, a = out.GetBGRA(3, 3)
	test.That(t, int(b)+int(g)+int(r)+int(a), test.ShouldEqual, 0)
}

func TestColorToDepthZeroRemap(t *testing.T) {
	cal := testCalibration()
	table := testXYTable(t, cal)
	depth := constantDepthMap(1000)

	// A genuinely sampled all-zero color becomes (1,0,0,0) so an all-zero
	// output pixel unambiguously means "unmapped".
	color := rimage.NewImage(testDepthWidth, testDepthHeight)
	out, err := ColorToDepth(cal, table, depth, color)
	test.That(t, err, test.ShouldBeNil)

	b, g, r, a := out.GetBGRA(7, 7)
	test.That(t, b, test.ShouldEqual, 1)
	test.That(t, g, test.ShouldEqual, 0)
	test.That(t, r, test.ShouldEqual, 0)
	test.That(t, a, test.ShouldEqual, 0)
}

func TestColorToDepthValidation(t *testing.T) {
	cal := testCalibration()
	table := testXYTable(t, cal)
	depth := constantDepthMap(1000)

	_, err := ColorToDepth(cal, table, depth, nil)
	test.That(t, err, test.ShouldNotBeNil)

	wrong := rimage.NewImage(8, 8)
	_, err = ColorToDepth(cal, table, depth, wrong)
	test.That(t, errors.Is(err, ErrDescriptorMismatch), test.ShouldBeTrue)
}

func TestDepthToPointCloud(t *testing.T) {
	cal := testCalibration()
	table := testXYTable(t, cal)

	out, err := DepthToPointCloud(table, constantDepthMap(1000))
	test.That(t, err, test.ShouldBeNil)

	// Pixel (11, 9): X = (11 - 7.5) / 20 * 1000, Y = (9 - 7.5) / 20 * 1000.
	x, y, z := out.GetXYZ(11, 9)
	test.That(t, x, test.ShouldEqual, int16(175))
	test.That(t, y, test.ShouldEqual, int16(75))
	test.That(t, z, test.ShouldEqual, int16(1000))

	// The principal point unprojects straight down the optical axis; the
	// half-pixel center offset rounds away.
	x, y, z = out.GetXYZ(7, 7)
	test.That(t, x, test.ShouldEqual, int16(-25))
	test.That(t, y, test.ShouldEqual, int16(-25))
	test.That(t, z, test.ShouldEqual, int16(1000))
}

func TestDepthToPointCloudSentinels(t *testing.T) {
	cal := testCalibration()
	table := testXYTable(t, cal)

	depth := constantDepthMap(1000)
	depth.Set(2, 3, 0)
	out, err := DepthToPointCloud(table, depth)
	test.That(t, err, test.ShouldBeNil)

	// A pixel with no depth return produces the zero point.
	x, y, z := out.GetXYZ(2, 3)
	test.That(t, int(x)|int(y)|int(z), test.ShouldEqual, 0)

	// A pixel outside the defined field of view produces the zero point even
	// with a depth return.
	nanTable := &camera.XYTable{
		Width:  table.Width,
		Height: table.Height,
		X:      append([]float32{}, table.X...),
		Y:      append([]float32{}, table.Y...),
	}
	nan := float32(math.NaN())
	nanTable.X[0] = nan
	nanTable.Y[0] = nan
	out, err = DepthToPointCloud(nanTable, constantDepthMap(1000))
	test.That(t, err, test.ShouldBeNil)
	x, y, z = out.GetXYZ(0, 0)
	test.That(t, int(x)|int(y)|int(z), test.ShouldEqual, 0)
}

func TestDepthToPointCloudSaturation(t *testing.T) {
	cal := testCalibration()
	table := testXYTable(t, cal)

	depth := constantDepthMap(1000)
	depth.Set(0, 0, rimage.MaxDepth)
	out, err := DepthToPointCloud(table, depth)
	test.That(t, err, test.ShouldBeNil)

	// Depths past the int16 range clamp instead of wrapping.
	_, _, z := out.GetXYZ(0, 0)
	test.That(t, z, test.ShouldEqual, int16(32767))
}
