// Package playback implements the recording session: bidirectional,
// timestamp-seekable iteration over the tracks of a multi-track capture
// recording, assembling captures, IMU samples, and custom data blocks.
package playback

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrEOF marks the normal end of iteration in either direction. It is a
// terminal condition of the stream, not a failure; true read errors are never
// reported as ErrEOF.
var ErrEOF = errors.New("end of stream")

// ErrEmptyRecording is returned when a recording contains no blocks at all.
var ErrEmptyRecording = errors.New("recording is empty")

// ErrTrackNotFound is returned when a named track does not exist in the
// recording.
var ErrTrackNotFound = errors.New("track name cannot be found")

// BufferTooSmallError is returned by the buffer-query calls when the supplied
// buffer (possibly nil) cannot hold the result. Required is the size a
// successful call needs; passing a nil buffer first is the supported way to
// discover it.
type BufferTooSmallError struct {
	Required int
}

func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("buffer too small, %d bytes required", e.Required)
}

// IsBufferTooSmall reports whether err is a BufferTooSmallError and returns
// the required size if so.
func IsBufferTooSmall(err error) (int, bool) {
	var tooSmall *BufferTooSmallError
	if errors.As(err, &tooSmall) {
		return tooSmall.Required, true
	}
	return 0, false
}
