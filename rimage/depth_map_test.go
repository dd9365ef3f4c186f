package rimage

import (
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func sampleDepthMap() *DepthMap {
	dm := NewEmptyDepthMap(6, 4)
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			dm.Set(x, y, Depth(100*y+x))
		}
	}
	dm.Set(0, 0, 0)
	return dm
}

func TestDepthMapBasics(t *testing.T) {
	dm := sampleDepthMap()
	test.That(t, dm.Width(), test.ShouldEqual, 6)
	test.That(t, dm.Height(), test.ShouldEqual, 4)
	test.That(t, dm.GetDepth(3, 2), test.ShouldEqual, Depth(203))
	test.That(t, dm.Bounds().Dx(), test.ShouldEqual, 6)

	d := dm.Descriptor()
	test.That(t, d.Width, test.ShouldEqual, 6)
	test.That(t, d.Stride, test.ShouldEqual, 12)
	test.That(t, d.CheckValid(), test.ShouldBeNil)

	min, max := dm.MinMax()
	test.That(t, min, test.ShouldEqual, Depth(1))
	test.That(t, max, test.ShouldEqual, Depth(305))

	clone := dm.Clone()
	clone.Set(0, 0, 999)
	test.That(t, dm.GetDepth(0, 0), test.ShouldEqual, Depth(0))
}

func TestDepthMapBytesRoundTrip(t *testing.T) {
	dm := sampleDepthMap()
	buf := dm.ToBytes()
	test.That(t, len(buf), test.ShouldEqual, 6*4*2)

	back, err := DepthMapFromBytes(buf, 6, 4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back, test.ShouldResemble, dm)

	_, err = DepthMapFromBytes(buf, 5, 4)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDepthMapFileRoundTrip(t *testing.T) {
	dm := sampleDepthMap()
	dir := t.TempDir()

	for _, name := range []string{"depth.dat", "depth.dat.gz"} {
		fn := filepath.Join(dir, name)
		test.That(t, dm.WriteToFile(fn), test.ShouldBeNil)

		back, err := ParseDepthMap(fn)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, back, test.ShouldResemble, dm)
	}

	_, err := ParseDepthMap(filepath.Join(dir, "missing.dat"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewDepthMapFromData(t *testing.T) {
	data := make([]Depth, 12)
	dm, err := NewDepthMapFromData(data, 4, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dm.Width(), test.ShouldEqual, 4)

	_, err = NewDepthMapFromData(data, 4, 4)
	test.That(t, err, test.ShouldNotBeNil)
}
