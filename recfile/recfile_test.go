package recfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/depthcam/camera"
	"go.viam.com/depthcam/playback"
)

func testConfig() playback.RecordConfiguration {
	return playback.RecordConfiguration{
		ColorFormat:       playback.FormatColorBGRA32,
		ColorResolution:   playback.ColorResolution720p,
		DepthMode:         playback.DepthModeNFOVUnbinned,
		CameraFPS:         30,
		ColorTrackEnabled: true,
		DepthTrackEnabled: true,
		IMUTrackEnabled:   true,
		WiredSyncMode:     playback.WiredSyncStandalone,
	}
}

func testCal() *camera.Calibration {
	return &camera.Calibration{
		DepthCamera:  camera.Intrinsics{Width: 4, Height: 3, Fx: 20, Fy: 20, Cx: 1.5, Cy: 1},
		ColorCamera:  camera.Intrinsics{Width: 4, Height: 3, Fx: 20, Fy: 20, Cx: 1.5, Cy: 1},
		DepthToColor: camera.NewExtrinsics(),
	}
}

func writeTestRecording(t *testing.T, path string) {
	t.Helper()

	w, err := NewWriter(path, testConfig())
	test.That(t, err, test.ShouldBeNil)

	w.AddTag("K4A_DEVICE_SERIAL_NUMBER", "000123456789")
	w.AddAttachment("notes.txt", []byte("hello"))
	test.That(t, w.SetCalibration(testCal()), test.ShouldBeNil)

	test.That(t, w.AddTrack(playback.TrackInfo{
		Name: playback.TrackNameDepth, Type: playback.TrackTypeVideo,
		CodecID: "V_UNCOMPRESSED", CodecPrivate: []byte{1, 2, 3},
		Width: 4, Height: 3, FramePeriodNS: 100 * 1000,
	}), test.ShouldBeNil)
	test.That(t, w.AddTrack(playback.TrackInfo{
		Name: playback.TrackNameIMU, Type: playback.TrackTypeIMU, CodecID: "S_K4A/IMU",
	}), test.ShouldBeNil)
	test.That(t, w.AddTrack(playback.TrackInfo{
		Name: "GPS", Type: playback.TrackTypeCustom, CodecID: "S_CUSTOM",
	}), test.ShouldBeNil)

	for _, usec := range []uint64{0, 100, 200} {
		test.That(t, w.WriteBlock(playback.TrackNameDepth, usec*1000, make([]byte, 4*3*2)), test.ShouldBeNil)
	}
	test.That(t, w.WriteIMUSample(playback.IMUSample{
		Temperature:      24.5,
		Acc:              r3.Vector{Z: -9.81},
		AccTimestampUsec: 10,
		Gyro:             r3.Vector{X: 0.1},
	}), test.ShouldBeNil)
	test.That(t, w.WriteBlock("GPS", 5*1000, []byte("fix")), test.ShouldBeNil)

	test.That(t, w.Close(), test.ShouldBeNil)
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.dcr")
	writeTestRecording(t, path)

	reader, err := OpenReader(path, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, reader.Close(), test.ShouldBeNil)
	}()

	config := reader.RecordConfiguration()
	test.That(t, config, test.ShouldResemble, testConfig())
	test.That(t, reader.LastTimestampUsec(), test.ShouldEqual, 200)

	test.That(t, reader.TrackExists(playback.TrackNameDepth), test.ShouldBeTrue)
	test.That(t, reader.TrackFrameCount(playback.TrackNameDepth), test.ShouldEqual, 3)
	info, err := reader.TrackVideoInfo(playback.TrackNameDepth)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Width, test.ShouldEqual, 4)
	test.That(t, info.Height, test.ShouldEqual, 3)
	test.That(t, info.FrameRate, test.ShouldEqual, 10000)

	for _, want := range []uint64{0, 100, 200} {
		cap, err := reader.NextCapture()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cap.Depth, test.ShouldNotBeNil)
		test.That(t, cap.Depth.DeviceTimestampUsec, test.ShouldEqual, want)
		test.That(t, len(cap.Depth.Data), test.ShouldEqual, 4*3*2)
	}
	_, err = reader.NextCapture()
	test.That(t, errors.Is(err, playback.ErrEOF), test.ShouldBeTrue)

	sample, err := reader.NextIMUSample()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sample.AccTimestampUsec, test.ShouldEqual, 10)
	test.That(t, sample.Acc.Z, test.ShouldAlmostEqual, -9.81, 1e-5)

	block, err := reader.NextDataBlock("GPS")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(block.Payload), test.ShouldEqual, "fix")

	cal, err := reader.Calibration()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cal.DepthCamera.Fx, test.ShouldAlmostEqual, 20)

	buf := make([]byte, 12)
	_, err = reader.Tag("K4A_DEVICE_SERIAL_NUMBER", buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(buf), test.ShouldEqual, "000123456789")

	buf = make([]byte, 3)
	_, err = reader.TrackCodecPrivate(playback.TrackNameDepth, buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, buf, test.ShouldResemble, []byte{1, 2, 3})
}

func TestSourcePayloadCopies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.dcr")
	writeTestRecording(t, path)

	src, err := OpenSource(path)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, src.Close(), test.ShouldBeNil)
	}()

	// Mutating a handed-out payload must not alter later reads.
	block, err := src.BlockAt("GPS", 0)
	test.That(t, err, test.ShouldBeNil)
	block.Payload[0] = 'X'
	again, err := src.BlockAt("GPS", 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(again.Payload), test.ShouldEqual, "fix")

	_, err = src.BlockAt("GPS", 99)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = src.BlockAt("NOPE", 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = src.Timestamps("NOPE")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWriterValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.dcr")
	w, err := NewWriter(path, testConfig())
	test.That(t, err, test.ShouldBeNil)

	track := playback.TrackInfo{Name: "A", Type: playback.TrackTypeCustom, CodecID: "S_CUSTOM"}
	test.That(t, w.AddTrack(track), test.ShouldBeNil)
	test.That(t, w.AddTrack(track), test.ShouldNotBeNil)

	// Blocks require a declared track and non-decreasing timestamps.
	test.That(t, w.WriteBlock("B", 0, nil), test.ShouldNotBeNil)
	test.That(t, w.WriteBlock("A", 100, []byte{1}), test.ShouldBeNil)
	test.That(t, w.WriteBlock("A", 100, []byte{2}), test.ShouldBeNil)
	test.That(t, w.WriteBlock("A", 99, []byte{3}), test.ShouldNotBeNil)

	test.That(t, w.Close(), test.ShouldBeNil)
	test.That(t, w.Close(), test.ShouldNotBeNil)
}

func TestOpenMalformed(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenSource(filepath.Join(dir, "missing.dcr"))
	test.That(t, err, test.ShouldNotBeNil)

	bad := filepath.Join(dir, "bad.dcr")
	test.That(t, os.WriteFile(bad, []byte("MKVFILE0junk"), 0o600), test.ShouldBeNil)
	_, err = OpenSource(bad)
	test.That(t, err, test.ShouldNotBeNil)

	truncated := filepath.Join(dir, "trunc.dcr")
	test.That(t, os.WriteFile(truncated, fileMagic[:], 0o600), test.ShouldBeNil)
	_, err = OpenSource(truncated)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestOpenReaderEmptyRecording(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.dcr")
	w, err := NewWriter(path, testConfig())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w.Close(), test.ShouldBeNil)

	_, err = OpenReader(path, golog.NewTestLogger(t))
	test.That(t, errors.Is(err, playback.ErrEmptyRecording), test.ShouldBeTrue)
}
