package camera

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// ErrNoIntrinsics is returned when a stream does not carry usable intrinsic parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

type DistortionModel string

const (
	DistortionNone         DistortionModel = "none"
	DistortionBrownConrady DistortionModel = "brown_conrady"
)

// Intrinsics holds the pinhole parameters of one stream at its configured resolution.
// Coeffs are k1, k2, p1, p2, k3 and are only read when Model is brown_conrady.
type Intrinsics struct {
	Width  int             `json:"width_px"`
	Height int             `json:"height_px"`
	Fx     float64         `json:"fx"`
	Fy     float64         `json:"fy"`
	Ppx    float64         `json:"ppx"`
	Ppy    float64         `json:"ppy"`
	Model  DistortionModel `json:"model,omitempty"`
	Coeffs [5]float64      `json:"coeffs"`
}

// CheckValid checks that the intrinsics can be used to project and deproject pixels.
func (in *Intrinsics) CheckValid() error {
	if in == nil {
		return errors.Wrap(ErrNoIntrinsics, "intrinsics do not exist")
	}
	if in.Width <= 0 || in.Height <= 0 {
		return errors.Wrap(ErrNoIntrinsics, fmt.Sprintf("invalid size (%d, %d)", in.Width, in.Height))
	}
	if in.Fx <= 0 {
		return errors.Wrap(ErrNoIntrinsics, fmt.Sprintf("invalid focal length fx = %v", in.Fx))
	}
	if in.Fy <= 0 {
		return errors.Wrap(ErrNoIntrinsics, fmt.Sprintf("invalid focal length fy = %v", in.Fy))
	}
	if in.Ppx < 0 || in.Ppy < 0 {
		return errors.Wrap(ErrNoIntrinsics, fmt.Sprintf("invalid principal point (%v, %v)", in.Ppx, in.Ppy))
	}
	switch in.Model {
	case "", DistortionNone, DistortionBrownConrady:
	default:
		return errors.Errorf("unknown distortion model %q", in.Model)
	}
	return nil
}

func (in Intrinsics) HasDistortion() bool {
	if in.Model != DistortionBrownConrady {
		return false
	}
	for _, c := range in.Coeffs {
		if c != 0 {
			return true
		}
	}
	return false
}

// Deproject returns the camera frame point seen at pixel (x, y) at distance z (meters).
// Distortion, if any, is inverted iteratively.
func (in Intrinsics) Deproject(x, y, z float64) (float64, float64, float64) {
	nx := (x - in.Ppx) / in.Fx
	ny := (y - in.Ppy) / in.Fy
	if in.HasDistortion() {
		nx, ny = undistort(in.Coeffs, nx, ny)
	}
	return nx * z, ny * z, z
}

// Project returns the sub-pixel position of a camera frame point. ok is false for
// points at or behind the image plane.
func (in Intrinsics) Project(x, y, z float64) (px, py float64, ok bool) {
	if z <= 0 {
		return -1, -1, false
	}
	nx := x / z
	ny := y / z
	if in.HasDistortion() {
		nx, ny = distort(in.Coeffs, nx, ny)
	}
	return nx*in.Fx + in.Ppx, ny*in.Fy + in.Ppy, true
}

// Scaled returns the intrinsics of the same sensor resampled by factor s,
// e.g. 0.5 after a decimation of magnitude 2.
func (in Intrinsics) Scaled(s float64) Intrinsics {
	out := in
	out.Width = int(math.Floor(float64(in.Width) * s))
	out.Height = int(math.Floor(float64(in.Height) * s))
	out.Fx = in.Fx * s
	out.Fy = in.Fy * s
	out.Ppx = (in.Ppx+0.5)*s - 0.5
	out.Ppy = (in.Ppy+0.5)*s - 0.5
	return out
}

// Horizontal and vertical field of view in degrees
func (in Intrinsics) FOV() (float64, float64) {
	h := 2 * math.Atan2(float64(in.Width)/2, in.Fx) * 180 / math.Pi
	v := 2 * math.Atan2(float64(in.Height)/2, in.Fy) * 180 / math.Pi
	return h, v
}

// NewIntrinsicsFromFOV builds an undistorted, centered pinhole model for the given
// resolution and horizontal field of view (degrees), square pixels.
func NewIntrinsicsFromFOV(width, height int, hfov float64) Intrinsics {
	f := float64(width) / 2 / math.Tan(hfov*math.Pi/360)
	return Intrinsics{
		Width:  width,
		Height: height,
		Fx:     f,
		Fy:     f,
		Ppx:    float64(width-1) / 2,
		Ppy:    float64(height-1) / 2,
		Model:  DistortionNone,
	}
}
