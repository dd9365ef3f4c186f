package playback

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"go.viam.com/depthcam/camera"
)

// SeekOrigin is the reference point of a SeekTimestamp offset.
type SeekOrigin int

const (
	// SeekBegin resolves the offset from the start of the recording.
	SeekBegin SeekOrigin = iota
	// SeekEnd resolves the (non-positive) offset from the end of the
	// recording.
	SeekEnd
)

// VideoInfo describes a video track's frame geometry and rate.
type VideoInfo struct {
	Width     int
	Height    int
	FrameRate uint64
}

// trackReader pairs one track's immutable index with its mutable cursor.
// Each track owns its own cursor; there is no shared positional state.
type trackReader struct {
	info   TrackInfo
	index  *trackIndex
	cursor *blockCursor
}

// Reader is a recording session: it owns a cursor per track and coordinates
// captures, IMU samples, data blocks, and seeks across them. A Reader is not
// safe for concurrent use; callers needing concurrency must synchronize
// externally.
type Reader struct {
	source Source
	logger golog.Logger
	config RecordConfiguration

	tracks      map[string]*trackReader
	imageTracks []*trackReader
	imuTrack    *trackReader

	syncPeriodNS    uint64
	lastTimestampNS uint64
	totalBlocks     int

	calibration *camera.Calibration
}

// NewReader opens a recording session over a source. It parses the track
// list, builds a timestamp index per track, and positions every cursor at
// timestamp 0. An empty recording (zero blocks across all tracks) or a
// malformed track table is a fatal error and no session is returned; the
// source is left for the caller to close.
func NewReader(src Source, logger golog.Logger) (*Reader, error) {
	if src == nil {
		return nil, errors.New("source is nil")
	}
	if logger == nil {
		logger = golog.NewLogger("depthcam.playback")
	}

	config, err := src.Configuration()
	if err != nil {
		return nil, errors.Wrap(err, "error reading record configuration")
	}

	r := &Reader{
		source: src,
		logger: logger,
		config: config,
		tracks: map[string]*trackReader{},
	}

	for _, info := range src.Tracks() {
		if _, exists := r.tracks[info.Name]; exists {
			return nil, errors.Errorf("duplicate track name %q", info.Name)
		}
		timestamps, err := src.Timestamps(info.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading timestamps for track %q", info.Name)
		}
		index, err := newTrackIndex(timestamps)
		if err != nil {
			return nil, errors.Wrapf(err, "track %q", info.Name)
		}
		tr := &trackReader{
			info:   info,
			index:  index,
			cursor: newBlockCursor(index),
		}
		r.tracks[info.Name] = tr
		r.totalBlocks += index.frameCount()
		if last := index.lastTimestampNS(); last > r.lastTimestampNS {
			r.lastTimestampNS = last
		}

		switch {
		case info.Type == TrackTypeVideo:
			r.imageTracks = append(r.imageTracks, tr)
			if info.FramePeriodNS > r.syncPeriodNS {
				r.syncPeriodNS = info.FramePeriodNS
			}
		case info.Type == TrackTypeIMU:
			r.imuTrack = tr
		}
	}

	if r.totalBlocks == 0 {
		return nil, ErrEmptyRecording
	}
	if r.syncPeriodNS == 0 && config.CameraFPS > 0 {
		r.syncPeriodNS = uint64(1e9) / uint64(config.CameraFPS)
	}

	for _, tr := range r.tracks {
		tr.cursor.seek(0)
	}

	logger.Debugw("recording opened",
		"tracks", len(r.tracks),
		"blocks", r.totalBlocks,
		"last_timestamp_usec", r.lastTimestampNS/1000)
	return r, nil
}

// RecordConfiguration returns the recording's immutable configuration.
func (r *Reader) RecordConfiguration() RecordConfiguration {
	return r.config
}

// LastTimestampUsec returns the maximum timestamp across all tracks; the
// recording's valid timestamp domain is [0, LastTimestampUsec].
func (r *Reader) LastTimestampUsec() uint64 {
	return r.lastTimestampNS / 1000
}

// TrackExists reports whether the recording contains a track with the name.
func (r *Reader) TrackExists(name string) bool {
	_, ok := r.tracks[name]
	return ok
}

// TrackVideoInfo returns the frame geometry and rate of a video track.
func (r *Reader) TrackVideoInfo(name string) (VideoInfo, error) {
	tr, ok := r.tracks[name]
	if !ok {
		return VideoInfo{}, errors.Wrapf(ErrTrackNotFound, "%q", name)
	}
	if tr.info.Type != TrackTypeVideo {
		return VideoInfo{}, errors.Errorf("track %q is not a video track", name)
	}
	info := VideoInfo{Width: tr.info.Width, Height: tr.info.Height}
	if tr.info.FramePeriodNS > 0 {
		info.FrameRate = uint64(1e9) / tr.info.FramePeriodNS
	}
	return info, nil
}

// TrackFrameCount returns the number of blocks in a track, or 0 for an
// unknown track.
func (r *Reader) TrackFrameCount(name string) int {
	tr, ok := r.tracks[name]
	if !ok {
		return 0
	}
	return tr.index.frameCount()
}

// TrackFrameUsecByIndex returns the timestamp of a track's block by position,
// or -1 if the track is unknown or the position is out of range.
func (r *Reader) TrackFrameUsecByIndex(name string, frameIndex int) int64 {
	tr, ok := r.tracks[name]
	if !ok {
		return -1
	}
	return tr.index.timestampUsecByIndex(frameIndex)
}

// SeekTimestamp resolves the offset against the origin and repositions every
// track's cursor to the resulting absolute timestamp: the next read in either
// direction behaves as if iteration had just reached that time. Offsets are
// non-negative from SeekBegin and non-positive from SeekEnd; a target before
// the start of the recording clamps to 0. On failure the position is
// unchanged.
func (r *Reader) SeekTimestamp(offsetUsec int64, origin SeekOrigin) error {
	if origin != SeekBegin && origin != SeekEnd {
		return errors.Errorf("invalid seek origin %d", origin)
	}
	if origin == SeekBegin && offsetUsec < 0 {
		return errors.New("seek offset from begin must not be negative")
	}
	if origin == SeekEnd && offsetUsec > 0 {
		return errors.New("seek offset from end must not be positive")
	}
	if r.totalBlocks == 0 {
		return ErrEmptyRecording
	}

	var targetNS uint64
	if origin == SeekEnd {
		offsetNS := uint64(-offsetUsec) * 1000
		if offsetNS >= r.lastTimestampNS {
			// Clamp to 0 so the target does not underflow.
			targetNS = 0
		} else {
			targetNS = r.lastTimestampNS + 1 - offsetNS
		}
	} else {
		targetNS = uint64(offsetUsec) * 1000
	}

	for _, tr := range r.tracks {
		tr.cursor.seek(targetNS)
	}
	return nil
}

// NextCapture assembles the next capture in the forward direction. It
// returns ErrEOF once every image track is exhausted, leaving the cursors at
// the end so PreviousCapture returns the final capture again.
func (r *Reader) NextCapture() (*Capture, error) {
	return r.readCapture(true)
}

// PreviousCapture assembles the capture preceding the current position. It
// returns ErrEOF at the start of the recording, leaving the cursors at the
// beginning so NextCapture returns the first capture again.
func (r *Reader) PreviousCapture() (*Capture, error) {
	return r.readCapture(false)
}

type captureCandidate struct {
	tr   *trackReader
	pos  int
	tsNS uint64
}

// readCapture steps the image tracks one capture in the given direction.
// Each step picks the earliest (or latest) pending frame as the pivot and
// includes every track whose pending frame falls within half a sync period
// of it, advancing only those cursors; a capture therefore always contains
// at least one image.
func (r *Reader) readCapture(forward bool) (*Capture, error) {
	if len(r.imageTracks) == 0 {
		return nil, errors.New("recording has no video tracks")
	}

	candidates := make([]captureCandidate, 0, len(r.imageTracks))
	for _, tr := range r.imageTracks {
		var pos int
		var ok bool
		if forward {
			pos, ok = tr.cursor.peekNext()
		} else {
			pos, ok = tr.cursor.peekPrev()
		}
		if !ok {
			continue
		}
		candidates = append(candidates, captureCandidate{tr: tr, pos: pos, tsNS: tr.index.timestampsNS[pos]})
	}

	if len(candidates) == 0 {
		// Rest every cursor at the terminal marker so iteration can resume
		// symmetrically in the other direction.
		for _, tr := range r.imageTracks {
			if forward {
				tr.cursor.next()
			} else {
				tr.cursor.prev()
			}
		}
		return nil, ErrEOF
	}

	pivot := candidates[0].tsNS
	for _, c := range candidates[1:] {
		if forward && c.tsNS < pivot {
			pivot = c.tsNS
		}
		if !forward && c.tsNS > pivot {
			pivot = c.tsNS
		}
	}

	window := r.syncPeriodNS / 2
	capture := &Capture{}
	for _, c := range candidates {
		inWindow := c.tsNS == pivot
		if forward {
			inWindow = inWindow || c.tsNS < pivot+window
		} else {
			inWindow = inWindow || c.tsNS+window > pivot
		}
		if !inWindow {
			continue
		}

		if forward {
			c.tr.cursor.next()
		} else {
			c.tr.cursor.prev()
		}
		img, err := r.readImage(c.tr, c.pos)
		if err != nil {
			return nil, err
		}
		switch c.tr.info.Name {
		case TrackNameColor:
			capture.Color = img
		case TrackNameDepth:
			capture.Depth = img
		case TrackNameIR:
			capture.IR = img
		}
	}

	if capture.ImageCount() == 0 {
		// Unreachable by construction; a capture with zero images is a
		// defect, never a value to return.
		return nil, errors.New("assembled capture has no images")
	}
	return capture, nil
}

// readImage materializes one video block as an Image owned by the caller.
func (r *Reader) readImage(tr *trackReader, pos int) (*Image, error) {
	block, err := r.source.BlockAt(tr.info.Name, pos)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading block %d of track %q", pos, tr.info.Name)
	}
	img := &Image{
		Width:               tr.info.Width,
		Height:              tr.info.Height,
		DeviceTimestampUsec: block.TimestampNS / 1000,
		Data:                block.Payload,
	}
	switch tr.info.Name {
	case TrackNameColor:
		img.Format = r.config.ColorFormat
		img.Stride = colorStride(r.config.ColorFormat, tr.info.Width)
	case TrackNameDepth:
		img.Format = FormatDepth16
		img.Stride = tr.info.Width * 2
	case TrackNameIR:
		img.Format = FormatIR16
		img.Stride = tr.info.Width * 2
	}
	return img, nil
}

// colorStride returns the row stride of an uncompressed color format, or 0
// for compressed formats.
func colorStride(format ImageFormat, width int) int {
	switch format {
	case FormatColorBGRA32:
		return width * 4
	case FormatColorYUY2:
		return width * 2
	case FormatColorNV12:
		return width
	case FormatColorMJPG, FormatDepth16, FormatIR16:
		return 0
	}
	return 0
}

// NextIMUSample returns the next IMU sample, or ErrEOF at the end of the IMU
// track.
func (r *Reader) NextIMUSample() (IMUSample, error) {
	return r.readIMUSample(true)
}

// PreviousIMUSample returns the IMU sample preceding the current position,
// or ErrEOF at the start of the IMU track.
func (r *Reader) PreviousIMUSample() (IMUSample, error) {
	return r.readIMUSample(false)
}

func (r *Reader) readIMUSample(forward bool) (IMUSample, error) {
	if r.imuTrack == nil {
		return IMUSample{}, errors.Wrap(ErrTrackNotFound, "recording has no IMU track")
	}
	var pos int
	var ok bool
	if forward {
		pos, ok = r.imuTrack.cursor.next()
	} else {
		pos, ok = r.imuTrack.cursor.prev()
	}
	if !ok {
		return IMUSample{}, ErrEOF
	}
	block, err := r.source.BlockAt(r.imuTrack.info.Name, pos)
	if err != nil {
		return IMUSample{}, errors.Wrapf(err, "error reading IMU block %d", pos)
	}
	return UnmarshalIMUSample(block.Payload)
}

// NextDataBlock returns the next block of a named custom track, or ErrEOF at
// the end of that track. The returned payload is owned by the caller.
func (r *Reader) NextDataBlock(trackName string) (DataBlock, error) {
	return r.readDataBlock(trackName, true)
}

// PreviousDataBlock returns the block preceding the current position of a
// named custom track, or ErrEOF at the start of that track.
func (r *Reader) PreviousDataBlock(trackName string) (DataBlock, error) {
	return r.readDataBlock(trackName, false)
}

func (r *Reader) readDataBlock(trackName string, forward bool) (DataBlock, error) {
	tr, ok := r.tracks[trackName]
	if !ok {
		return DataBlock{}, errors.Wrapf(ErrTrackNotFound, "%q", trackName)
	}
	if tr.info.Type != TrackTypeCustom {
		return DataBlock{}, errors.Errorf("track %q is not a custom track", trackName)
	}
	var pos int
	if forward {
		pos, ok = tr.cursor.next()
	} else {
		pos, ok = tr.cursor.prev()
	}
	if !ok {
		return DataBlock{}, ErrEOF
	}
	block, err := r.source.BlockAt(trackName, pos)
	if err != nil {
		return DataBlock{}, errors.Wrapf(err, "error reading block %d of track %q", pos, trackName)
	}
	return DataBlock{
		TimestampUsec: block.TimestampNS / 1000,
		Payload:       block.Payload,
	}, nil
}

// Calibration returns the device calibration parsed from the recording's
// calibration attachment. It fails if the recording was made without a
// device present.
func (r *Reader) Calibration() (*camera.Calibration, error) {
	if r.calibration != nil {
		return r.calibration, nil
	}
	raw, ok := r.source.Attachment(CalibrationAttachmentName)
	if !ok {
		r.logger.Error("the device calibration is missing from the recording")
		return nil, errors.New("the device calibration is missing from the recording")
	}
	cal, err := camera.ParseCalibration(raw)
	if err != nil {
		return nil, err
	}
	r.calibration = cal
	return cal, nil
}

// RawCalibration copies the raw calibration attachment into buf using the
// two-call protocol: a nil or short buffer returns a BufferTooSmallError
// carrying the required size.
func (r *Reader) RawCalibration(buf []byte) (int, error) {
	raw, ok := r.source.Attachment(CalibrationAttachmentName)
	if !ok {
		return 0, errors.New("the device calibration is missing from the recording")
	}
	return copyToBuffer(raw, buf)
}

// Tag copies a named metadata tag's value into buf using the two-call
// protocol.
func (r *Reader) Tag(name string, buf []byte) (int, error) {
	value, ok := r.source.Tag(name)
	if !ok {
		return 0, errors.Errorf("tag %q not found", name)
	}
	return copyToBuffer([]byte(value), buf)
}

// Attachment copies a named file attachment into buf using the two-call
// protocol.
func (r *Reader) Attachment(fileName string, buf []byte) (int, error) {
	data, ok := r.source.Attachment(fileName)
	if !ok {
		return 0, errors.Errorf("attachment %q not found", fileName)
	}
	return copyToBuffer(data, buf)
}

// TrackCodecID copies a track's codec identifier into buf using the two-call
// protocol.
func (r *Reader) TrackCodecID(name string, buf []byte) (int, error) {
	tr, ok := r.tracks[name]
	if !ok {
		return 0, errors.Wrapf(ErrTrackNotFound, "%q", name)
	}
	return copyToBuffer([]byte(tr.info.CodecID), buf)
}

// TrackCodecPrivate copies a track's codec private data into buf using the
// two-call protocol.
func (r *Reader) TrackCodecPrivate(name string, buf []byte) (int, error) {
	tr, ok := r.tracks[name]
	if !ok {
		return 0, errors.Wrapf(ErrTrackNotFound, "%q", name)
	}
	return copyToBuffer(tr.info.CodecPrivate, buf)
}

// copyToBuffer implements the buffer-query calling convention shared by the
// variable-length outputs: success, too-small (with the required size), and
// failure are three distinct outcomes.
func copyToBuffer(data, buf []byte) (int, error) {
	if buf == nil || len(buf) < len(data) {
		return len(data), &BufferTooSmallError{Required: len(data)}
	}
	copy(buf, data)
	return len(data), nil
}

// Close releases the session and its underlying source.
func (r *Reader) Close() error {
	return r.source.Close()
}
