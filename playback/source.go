package playback

// TrackType classifies a stream within a recording.
type TrackType int

const (
	// TrackTypeVideo is a stream of timestamped image frames.
	TrackTypeVideo TrackType = iota
	// TrackTypeIMU is the inertial sample stream.
	TrackTypeIMU
	// TrackTypeCustom is an opaque user-defined stream.
	TrackTypeCustom
)

// Names of the standard tracks written by the recorder.
const (
	TrackNameColor = "COLOR"
	TrackNameDepth = "DEPTH"
	TrackNameIR    = "IR"
	TrackNameIMU   = "IMU"
)

// CalibrationAttachmentName is the attachment holding the device calibration.
const CalibrationAttachmentName = "calibration.json"

// TrackInfo describes one track of a recording. Immutable once the recording
// is opened.
type TrackInfo struct {
	Name         string
	Type         TrackType
	CodecID      string
	CodecPrivate []byte

	// Video-only fields.
	Width         int
	Height        int
	FramePeriodNS uint64
}

// Block is one timestamped payload from a track.
type Block struct {
	TimestampNS uint64
	Payload     []byte
}

// Source is the abstract container a recording session reads from: an
// ordered, seekable set of tracks whose blocks are addressable by index.
// Implementations must allow independent stateless reads; all cursor state
// lives in the session.
type Source interface {
	// Tracks lists every track in the recording.
	Tracks() []TrackInfo
	// Timestamps returns the monotonically non-decreasing block timestamps
	// (nanoseconds) of a track. Ties are permitted.
	Timestamps(trackName string) ([]uint64, error)
	// BlockAt materializes the block at the given position of a track.
	BlockAt(trackName string, index int) (Block, error)
	// Configuration returns the recording's immutable record configuration.
	Configuration() (RecordConfiguration, error)
	// Tag looks up a named metadata tag.
	Tag(name string) (string, bool)
	// Attachment looks up a named file attachment.
	Attachment(name string) ([]byte, bool)
	// Close releases the underlying container.
	Close() error
}
