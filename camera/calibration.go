package camera

import (
	"encoding/json"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Calibration holds the joint calibration of the depth and color cameras and
// the transform between them. It is immutable once constructed and safe to
// share between goroutines.
type Calibration struct {
	DepthCamera  Intrinsics `json:"depth_camera"`
	ColorCamera  Intrinsics `json:"color_camera"`
	DepthToColor Extrinsics `json:"depth_to_color"`
}

// CheckValid checks all nested calibration parameters.
func (c *Calibration) CheckValid() error {
	if c == nil {
		return errors.New("calibration is nil")
	}
	if err := c.DepthCamera.CheckValid(); err != nil {
		return errors.Wrap(err, "depth camera")
	}
	if err := c.ColorCamera.CheckValid(); err != nil {
		return errors.Wrap(err, "color camera")
	}
	if err := c.DepthToColor.CheckValid(); err != nil {
		return errors.Wrap(err, "depth to color extrinsics")
	}
	return nil
}

// ParseCalibration decodes a raw calibration blob (JSON, as stored in the
// recording's calibration attachment).
func ParseCalibration(raw []byte) (*Calibration, error) {
	cal := &Calibration{}
	if err := json.Unmarshal(raw, cal); err != nil {
		return nil, errors.Wrap(err, "error parsing calibration JSON")
	}
	if err := cal.CheckValid(); err != nil {
		return nil, err
	}
	return cal, nil
}

// Marshal encodes the calibration to the attachment blob format.
func (c *Calibration) Marshal() ([]byte, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "error encoding calibration JSON")
	}
	return raw, nil
}

// DepthPointToColor transforms a 3D point from the depth camera's frame to
// the color camera's frame.
func (c *Calibration) DepthPointToColor(pt r3.Vector) r3.Vector {
	return c.DepthToColor.Transform(pt)
}
