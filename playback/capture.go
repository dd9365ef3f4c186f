package playback

// Image is one decoded-or-encoded frame read back from a video track. The
// payload is owned by the caller once returned; the session keeps no
// reference to it.
type Image struct {
	Format ImageFormat
	Width  int
	Height int
	Stride int

	// DeviceTimestampUsec is the frame's device timestamp in microseconds.
	DeviceTimestampUsec uint64

	Data []byte
}

// Capture aggregates the images of one sampling instant. Any of the three
// images may be nil if the corresponding frame was dropped or its track is
// disabled, but an assembled capture always contains at least one image.
type Capture struct {
	Color *Image
	Depth *Image
	IR    *Image
}

// ImageCount returns the number of non-nil images in the capture.
func (c *Capture) ImageCount() int {
	n := 0
	if c.Color != nil {
		n++
	}
	if c.Depth != nil {
		n++
	}
	if c.IR != nil {
		n++
	}
	return n
}
