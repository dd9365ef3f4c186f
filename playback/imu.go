package playback

import (
	"encoding/binary"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// IMUSample is one inertial reading: accelerometer (m/s²) and gyroscope
// (rad/s) vectors with independent device timestamps, plus the sensor
// temperature in degrees Celsius.
type IMUSample struct {
	Temperature float32

	Acc              r3.Vector
	AccTimestampUsec uint64

	Gyro              r3.Vector
	GyroTimestampUsec uint64
}

// imuSampleSize is the encoded size of one IMU block payload.
const imuSampleSize = 8 + 8 + 4 + 12 + 12

// MarshalIMUSample encodes a sample into the IMU track's block payload
// layout: little-endian accelerometer timestamp, gyroscope timestamp,
// temperature, then the two float32 vectors.
func MarshalIMUSample(s IMUSample) []byte {
	buf := make([]byte, imuSampleSize)
	binary.LittleEndian.PutUint64(buf[0:], s.AccTimestampUsec)
	binary.LittleEndian.PutUint64(buf[8:], s.GyroTimestampUsec)
	binary.LittleEndian.PutUint32(buf[16:], math.Float32bits(s.Temperature))
	putVector(buf[20:], s.Acc)
	putVector(buf[32:], s.Gyro)
	return buf
}

// UnmarshalIMUSample decodes an IMU track block payload.
func UnmarshalIMUSample(buf []byte) (IMUSample, error) {
	if len(buf) != imuSampleSize {
		return IMUSample{}, errors.Errorf("IMU block payload must be %d bytes, got %d", imuSampleSize, len(buf))
	}
	return IMUSample{
		AccTimestampUsec:  binary.LittleEndian.Uint64(buf[0:]),
		GyroTimestampUsec: binary.LittleEndian.Uint64(buf[8:]),
		Temperature:       math.Float32frombits(binary.LittleEndian.Uint32(buf[16:])),
		Acc:               getVector(buf[20:]),
		Gyro:              getVector(buf[32:]),
	}, nil
}

func putVector(buf []byte, v r3.Vector) {
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(float32(v.X)))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(v.Y)))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(v.Z)))
}

func getVector(buf []byte) r3.Vector {
	return r3.Vector{
		X: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[0:]))),
		Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4:]))),
		Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[8:]))),
	}
}
