package playback

// ImageFormat identifies the pixel format of a video track.
type ImageFormat string

// Image formats written by the recorder.
const (
	FormatColorMJPG   ImageFormat = "COLOR_MJPG"
	FormatColorNV12   ImageFormat = "COLOR_NV12"
	FormatColorYUY2   ImageFormat = "COLOR_YUY2"
	FormatColorBGRA32 ImageFormat = "COLOR_BGRA32"
	FormatDepth16     ImageFormat = "DEPTH16"
	FormatIR16        ImageFormat = "IR16"
)

// DepthMode is the depth camera mode the recording was captured in.
type DepthMode string

// Depth camera modes.
const (
	DepthModeOff           DepthMode = "OFF"
	DepthModeNFOV2x2Binned DepthMode = "NFOV_2X2BINNED"
	DepthModeNFOVUnbinned  DepthMode = "NFOV_UNBINNED"
	DepthModeWFOV2x2Binned DepthMode = "WFOV_2X2BINNED"
	DepthModeWFOVUnbinned  DepthMode = "WFOV_UNBINNED"
	DepthModePassiveIR     DepthMode = "PASSIVE_IR"
)

// IsPassiveIR reports whether the mode records IR frames without active depth.
func (m DepthMode) IsPassiveIR() bool {
	return m == DepthModePassiveIR
}

// ColorResolution is the color camera resolution the recording was captured in.
type ColorResolution string

// Color resolutions.
const (
	ColorResolutionOff   ColorResolution = "OFF"
	ColorResolution720p  ColorResolution = "720P"
	ColorResolution1080p ColorResolution = "1080P"
	ColorResolution1440p ColorResolution = "1440P"
	ColorResolution1536p ColorResolution = "1536P"
	ColorResolution2160p ColorResolution = "2160P"
	ColorResolution3072p ColorResolution = "3072P"
)

// WiredSyncMode is the multi-device sync role the device recorded in.
type WiredSyncMode string

// Wired sync modes.
const (
	WiredSyncStandalone  WiredSyncMode = "STANDALONE"
	WiredSyncMaster      WiredSyncMode = "MASTER"
	WiredSyncSubordinate WiredSyncMode = "SUBORDINATE"
)

// RecordConfiguration is the read-once, immutable metadata describing how a
// recording was produced. The session uses it to interpret per-track content,
// in particular to pair depth and IR frames when assembling captures.
type RecordConfiguration struct {
	ColorFormat     ImageFormat     `json:"color_format"`
	ColorResolution ColorResolution `json:"color_resolution"`
	DepthMode       DepthMode       `json:"depth_mode"`
	CameraFPS       int             `json:"camera_fps"`

	ColorTrackEnabled bool `json:"color_track_enabled"`
	DepthTrackEnabled bool `json:"depth_track_enabled"`
	IRTrackEnabled    bool `json:"ir_track_enabled"`
	IMUTrackEnabled   bool `json:"imu_track_enabled"`

	// DepthDelayOffColorUsec is the delay between color and depth frames at
	// capture time.
	DepthDelayOffColorUsec int32 `json:"depth_delay_off_color_usec"`

	WiredSyncMode WiredSyncMode `json:"wired_sync_mode"`

	// SubordinateDelayOffMasterUsec is the capture delay between the master
	// device and this device.
	SubordinateDelayOffMasterUsec uint32 `json:"subordinate_delay_off_master_usec"`

	// StartTimestampOffsetUsec is the device timestamp of the recording's
	// first frame.
	StartTimestampOffsetUsec uint32 `json:"start_timestamp_offset_usec"`
}
