package rimage

import (
	"github.com/pkg/errors"
)

// XYZImage is a per-pixel point image: three int16 values (X, Y, Z in
// millimeters) packed row-major. A pixel with no depth return is all zero.
type XYZImage struct {
	width  int
	height int

	data []int16
}

// NewEmptyXYZImage returns a zeroed XYZ image of the given size.
func NewEmptyXYZImage(width, height int) *XYZImage {
	return &XYZImage{
		width:  width,
		height: height,
		data:   make([]int16, width*height*3),
	}
}

// NewXYZImageFromData wraps existing packed XYZ data in an XYZImage.
func NewXYZImageFromData(data []int16, width, height int) (*XYZImage, error) {
	if len(data) != width*height*3 {
		return nil, errors.Errorf("xyz data length %d does not match %dx%d", len(data), width, height)
	}
	return &XYZImage{width: width, height: height, data: data}, nil
}

// Width returns the width of the image.
func (xi *XYZImage) Width() int {
	return xi.width
}

// Height returns the height of the image.
func (xi *XYZImage) Height() int {
	return xi.height
}

// Descriptor returns the memory layout of the image.
func (xi *XYZImage) Descriptor() ImageDescriptor {
	return NewImageDescriptor(xi.width, xi.height, xi.width*3*2)
}

// GetXYZ returns the point at (x, y).
func (xi *XYZImage) GetXYZ(x, y int) (int16, int16, int16) {
	idx := (y*xi.width + x) * 3
	return xi.data[idx], xi.data[idx+1], xi.data[idx+2]
}

// SetXYZ sets the point at (x, y).
func (xi *XYZImage) SetXYZ(x, y int, px, py, pz int16) {
	idx := (y*xi.width + x) * 3
	xi.data[idx] = px
	xi.data[idx+1] = py
	xi.data[idx+2] = pz
}

// Data returns the underlying packed values.
func (xi *XYZImage) Data() []int16 {
	return xi.data
}
