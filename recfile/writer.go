package recfile

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"go.viam.com/depthcam/camera"
	"go.viam.com/depthcam/playback"
)

type tagEntry struct {
	name  string
	value string
}

type attachmentEntry struct {
	name string
	data []byte
}

type writerBlock struct {
	trackIdx    uint32
	timestampNS uint64
	payload     []byte
}

// Writer produces a recording file. Metadata, tracks, and blocks are
// buffered and serialized on Close so the track table can precede the block
// stream regardless of call order. A Writer is not safe for concurrent use.
type Writer struct {
	f      *os.File
	config playback.RecordConfiguration

	tags        []tagEntry
	attachments []attachmentEntry
	tracks      []playback.TrackInfo
	trackIdx    map[string]uint32
	lastTSNS    map[string]uint64
	blocks      []writerBlock

	closed bool
}

// NewWriter creates a recording file with the given configuration.
func NewWriter(path string, config playback.RecordConfiguration) (*Writer, error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create recording %q", path)
	}
	return &Writer{
		f:        f,
		config:   config,
		trackIdx: map[string]uint32{},
		lastTSNS: map[string]uint64{},
	}, nil
}

// AddTag records a named metadata tag.
func (w *Writer) AddTag(name, value string) {
	w.tags = append(w.tags, tagEntry{name: name, value: value})
}

// AddAttachment records a named file attachment.
func (w *Writer) AddAttachment(name string, data []byte) {
	w.attachments = append(w.attachments, attachmentEntry{name: name, data: data})
}

// SetCalibration attaches the device calibration under the standard name.
func (w *Writer) SetCalibration(cal *camera.Calibration) error {
	raw, err := cal.Marshal()
	if err != nil {
		return err
	}
	w.AddAttachment(playback.CalibrationAttachmentName, raw)
	return nil
}

// AddTrack declares a track. Every track must be declared before its first
// block is written.
func (w *Writer) AddTrack(info playback.TrackInfo) error {
	if _, exists := w.trackIdx[info.Name]; exists {
		return errors.Errorf("duplicate track name %q", info.Name)
	}
	w.trackIdx[info.Name] = uint32(len(w.tracks))
	w.tracks = append(w.tracks, info)
	return nil
}

// WriteBlock appends a timestamped payload to a track. Timestamps must be
// monotonically non-decreasing within a track; ties are permitted.
func (w *Writer) WriteBlock(trackName string, timestampNS uint64, payload []byte) error {
	idx, ok := w.trackIdx[trackName]
	if !ok {
		return errors.Errorf("track %q has not been declared", trackName)
	}
	if last, seen := w.lastTSNS[trackName]; seen && timestampNS < last {
		return errors.Errorf("block timestamp %d ns precedes track %q's last timestamp %d ns",
			timestampNS, trackName, last)
	}
	w.lastTSNS[trackName] = timestampNS
	owned := make([]byte, len(payload))
	copy(owned, payload)
	w.blocks = append(w.blocks, writerBlock{trackIdx: idx, timestampNS: timestampNS, payload: owned})
	return nil
}

// WriteIMUSample appends an IMU sample to the IMU track, timestamped by its
// accelerometer reading.
func (w *Writer) WriteIMUSample(s playback.IMUSample) error {
	return w.WriteBlock(playback.TrackNameIMU, s.AccTimestampUsec*1000, playback.MarshalIMUSample(s))
}

// Close serializes the buffered recording and closes the file.
func (w *Writer) Close() (err error) {
	if w.closed {
		return errors.New("writer already closed")
	}
	w.closed = true
	defer func() {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
	}()

	out := bufio.NewWriter(w.f)
	if err := w.writeHeader(out); err != nil {
		return err
	}
	if err := w.writeBlocks(out); err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return err
	}
	return w.f.Sync()
}

func (w *Writer) writeHeader(out io.Writer) error {
	if _, err := out.Write(fileMagic[:]); err != nil {
		return err
	}
	if err := writeUint32(out, formatVersion); err != nil {
		return err
	}

	configJSON, err := json.Marshal(w.config)
	if err != nil {
		return errors.Wrap(err, "error encoding record configuration")
	}
	if err := writeBytes32(out, configJSON); err != nil {
		return err
	}

	if err := writeUint32(out, uint32(len(w.tags))); err != nil {
		return err
	}
	for _, tag := range w.tags {
		if err := writeString16(out, tag.name); err != nil {
			return err
		}
		if err := writeBytes32(out, []byte(tag.value)); err != nil {
			return err
		}
	}

	if err := writeUint32(out, uint32(len(w.attachments))); err != nil {
		return err
	}
	for _, att := range w.attachments {
		if err := writeString16(out, att.name); err != nil {
			return err
		}
		if err := writeBytes32(out, att.data); err != nil {
			return err
		}
	}

	if err := writeUint32(out, uint32(len(w.tracks))); err != nil {
		return err
	}
	for _, track := range w.tracks {
		if err := writeString16(out, track.Name); err != nil {
			return err
		}
		if _, err := out.Write([]byte{byte(track.Type)}); err != nil {
			return err
		}
		if err := writeString16(out, track.CodecID); err != nil {
			return err
		}
		if err := writeBytes32(out, track.CodecPrivate); err != nil {
			return err
		}
		if err := writeUint32(out, uint32(track.Width)); err != nil {
			return err
		}
		if err := writeUint32(out, uint32(track.Height)); err != nil {
			return err
		}
		if err := writeUint64(out, track.FramePeriodNS); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeBlocks(out io.Writer) error {
	if err := writeUint64(out, uint64(len(w.blocks))); err != nil {
		return err
	}
	for _, block := range w.blocks {
		if err := writeUint32(out, block.trackIdx); err != nil {
			return err
		}
		if err := writeUint64(out, block.timestampNS); err != nil {
			return err
		}
		if err := writeBytes32(out, block.payload); err != nil {
			return err
		}
	}
	return nil
}

func writeUint32(out io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := out.Write(buf[:])
	return err
}

func writeUint64(out io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := out.Write(buf[:])
	return err
}

func writeString16(out io.Writer, s string) error {
	if len(s) > 1<<16-1 {
		return errors.Errorf("string too long: %d bytes", len(s))
	}
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(len(s)))
	if _, err := out.Write(buf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(out, s)
	return err
}

func writeBytes32(out io.Writer, b []byte) error {
	if err := writeUint32(out, uint32(len(b))); err != nil {
		return err
	}
	_, err := out.Write(b)
	return err
}
