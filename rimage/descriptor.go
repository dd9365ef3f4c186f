// Package rimage contains the image containers shared by the playback and
// transformation engines: 16-bit depth maps, BGRA color images, and packed
// XYZ point images, each described by a width/height/stride descriptor.
package rimage

import "github.com/pkg/errors"

// ImageDescriptor describes the memory layout of an image buffer.
type ImageDescriptor struct {
	Width  int // pixels per row
	Height int // rows
	Stride int // bytes per row
}

// NewImageDescriptor returns a descriptor for the given dimensions and stride.
func NewImageDescriptor(width, height, stride int) ImageDescriptor {
	return ImageDescriptor{Width: width, Height: height, Stride: stride}
}

// Equal reports whether two descriptors describe the same layout.
func (d ImageDescriptor) Equal(other ImageDescriptor) bool {
	return d.Width == other.Width && d.Height == other.Height && d.Stride == other.Stride
}

// CheckValid checks the descriptor's fields for impossible layouts.
func (d ImageDescriptor) CheckValid() error {
	if d.Width <= 0 || d.Height <= 0 {
		return errors.Errorf("invalid image size (%d, %d)", d.Width, d.Height)
	}
	if d.Stride < d.Width {
		return errors.Errorf("stride %d is smaller than width %d", d.Stride, d.Width)
	}
	return nil
}
