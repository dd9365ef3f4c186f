package rimage

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// Image is an 8-bit 4-channel color image stored row-major in BGRA order,
// the native layout of the camera's color frames.
type Image struct {
	width  int
	height int

	data []uint8
}

// NewImage returns a zeroed BGRA image of the given size.
func NewImage(width, height int) *Image {
	return &Image{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// NewImageFromData wraps existing row-major BGRA data in an Image.
func NewImageFromData(data []uint8, width, height int) (*Image, error) {
	if len(data) != width*height*4 {
		return nil, errors.Errorf("color data length %d does not match %dx%d BGRA image", len(data), width, height)
	}
	return &Image{width: width, height: height, data: data}, nil
}

// Width returns the width of the image.
func (i *Image) Width() int {
	return i.width
}

// Height returns the height of the image.
func (i *Image) Height() int {
	return i.height
}

// Bounds returns the rectangle of valid pixel coordinates.
func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.width, i.height)
}

// Descriptor returns the memory layout of the image.
func (i *Image) Descriptor() ImageDescriptor {
	return NewImageDescriptor(i.width, i.height, i.width*4)
}

// Data returns the underlying row-major BGRA bytes.
func (i *Image) Data() []uint8 {
	return i.data
}

// GetBGRA returns the channel values at (x, y).
func (i *Image) GetBGRA(x, y int) (b, g, r, a uint8) {
	idx := (y*i.width + x) * 4
	return i.data[idx], i.data[idx+1], i.data[idx+2], i.data[idx+3]
}

// SetBGRA sets the channel values at (x, y).
func (i *Image) SetBGRA(x, y int, b, g, r, a uint8) {
	idx := (y*i.width + x) * 4
	i.data[idx] = b
	i.data[idx+1] = g
	i.data[idx+2] = r
	i.data[idx+3] = a
}

// At returns the color at (x, y), implementing a subset of image.Image.
func (i *Image) At(x, y int) color.Color {
	b, g, r, a := i.GetBGRA(x, y)
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// Clone returns a deep copy of the image.
func (i *Image) Clone() *Image {
	out := NewImage(i.width, i.height)
	copy(out.data, i.data)
	return out
}
