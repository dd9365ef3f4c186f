package rimage

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// Depth is the depth in millimeters at a single pixel. Zero means "no return"
// and is a sentinel, not a physical distance.
type Depth uint16

// MaxDepth is the largest depth value representable in a DepthMap.
const MaxDepth = Depth(^uint16(0))

// DepthMap is a row-major 16-bit depth image.
type DepthMap struct {
	width  int
	height int

	data []Depth
}

// NewEmptyDepthMap returns a zeroed depth map of the given size.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]Depth, width*height),
	}
}

// NewDepthMapFromData wraps existing row-major depth data in a DepthMap.
func NewDepthMapFromData(data []Depth, width, height int) (*DepthMap, error) {
	if len(data) != width*height {
		return nil, errors.Errorf("depth data length %d does not match %dx%d", len(data), width, height)
	}
	return &DepthMap{width: width, height: height, data: data}, nil
}

// Width returns the width of the depth map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the height of the depth map.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Bounds returns the rectangle of valid pixel coordinates.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// Descriptor returns the memory layout of the depth map.
func (dm *DepthMap) Descriptor() ImageDescriptor {
	return NewImageDescriptor(dm.width, dm.height, dm.width*2)
}

// GetDepth returns the depth at (x, y).
func (dm *DepthMap) GetDepth(x, y int) Depth {
	return dm.data[y*dm.width+x]
}

// Get returns the depth at an image point.
func (dm *DepthMap) Get(p image.Point) Depth {
	return dm.data[p.Y*dm.width+p.X]
}

// Set sets the depth at (x, y).
func (dm *DepthMap) Set(x, y int, val Depth) {
	dm.data[y*dm.width+x] = val
}

// Data returns the underlying row-major depth values.
func (dm *DepthMap) Data() []Depth {
	return dm.data
}

// Clone returns a deep copy of the depth map.
func (dm *DepthMap) Clone() *DepthMap {
	out := NewEmptyDepthMap(dm.width, dm.height)
	copy(out.data, dm.data)
	return out
}

// MinMax returns the smallest and largest nonzero depth values.
func (dm *DepthMap) MinMax() (Depth, Depth) {
	min, max := MaxDepth, Depth(0)
	for _, z := range dm.data {
		if z == 0 {
			continue
		}
		if z < min {
			min = z
		}
		if z > max {
			max = z
		}
	}
	if max == 0 {
		return 0, 0
	}
	return min, max
}

// ToBytes serializes the depth values in little-endian order.
func (dm *DepthMap) ToBytes() []byte {
	buf := make([]byte, len(dm.data)*2)
	for i, z := range dm.data {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(z))
	}
	return buf
}

// DepthMapFromBytes decodes little-endian depth values into a DepthMap.
func DepthMapFromBytes(buf []byte, width, height int) (*DepthMap, error) {
	if len(buf) != width*height*2 {
		return nil, errors.Errorf("depth buffer length %d does not match %dx%d 16-bit image", len(buf), width, height)
	}
	dm := NewEmptyDepthMap(width, height)
	for i := range dm.data {
		dm.data[i] = Depth(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return dm, nil
}

// ParseDepthMap reads a depth map from a file, gunzipping if the
// file name ends in ".gz".
func ParseDepthMap(fn string) (*DepthMap, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	var in io.Reader = f
	if filepath.Ext(fn) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer utils.UncheckedErrorFunc(gz.Close)
		in = gz
	}

	return ReadDepthMap(bufio.NewReader(in))
}

// ReadDepthMap reads a serialized depth map.
func ReadDepthMap(r io.Reader) (*DepthMap, error) {
	var header [16]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, errors.Wrap(err, "error reading depth map header")
	}
	width := int(binary.LittleEndian.Uint64(header[:8]))
	height := int(binary.LittleEndian.Uint64(header[8:]))
	if width <= 0 || width >= 100000 || height <= 0 || height >= 100000 {
		return nil, errors.Errorf("bad width or height for depth map %v %v", width, height)
	}

	buf := make([]byte, width*height*2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "error reading depth map data")
	}
	return DepthMapFromBytes(buf, width, height)
}

// WriteToFile writes the depth map to a file, gzipping if the file
// name ends in ".gz".
func (dm *DepthMap) WriteToFile(fn string) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var out io.Writer = f
	var gout *gzip.Writer
	if filepath.Ext(fn) == ".gz" {
		gout = gzip.NewWriter(f)
		out = gout
	}

	if err := dm.WriteTo(out); err != nil {
		return err
	}
	if gout != nil {
		if err := gout.Close(); err != nil {
			return err
		}
	}
	return f.Sync()
}

// WriteTo serializes the depth map.
func (dm *DepthMap) WriteTo(out io.Writer) error {
	var header [16]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(dm.width))
	binary.LittleEndian.PutUint64(header[8:], uint64(dm.height))
	if _, err := out.Write(header[:]); err != nil {
		return err
	}
	_, err := out.Write(dm.ToBytes())
	return err
}
