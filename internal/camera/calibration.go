package camera

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Calibration describes a depth + color sensor pair.
type Calibration struct {
	Depth        Intrinsics `json:"depth"`
	Color        Intrinsics `json:"color"`
	DepthToColor Extrinsics `json:"extrinsics"`
}

func (c *Calibration) CheckValid() error {
	if c == nil {
		return errors.Wrap(ErrNoIntrinsics, "calibration does not exist")
	}
	if err := c.Depth.CheckValid(); err != nil {
		return errors.Wrap(err, "depth")
	}
	if err := c.Color.CheckValid(); err != nil {
		return errors.Wrap(err, "color")
	}
	return errors.Wrap(c.DepthToColor.CheckValid(), "extrinsics")
}

// NewCalibrationFromJSONFile reads a calibration file and validates it.
func NewCalibrationFromJSONFile(jsonPath string) (cal *Calibration, err error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer func() {
		err = multierr.Combine(err, jsonFile.Close())
	}()

	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	cal = &Calibration{}
	if err := json.Unmarshal(byteValue, cal); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	if err := cal.CheckValid(); err != nil {
		return nil, err
	}
	return cal, nil
}
