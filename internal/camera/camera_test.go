package camera

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntrinsicsCheckValid(t *testing.T) {
	var nilIntr *Intrinsics
	assert.ErrorIs(t, nilIntr.CheckValid(), ErrNoIntrinsics)

	in := Intrinsics{Width: 4, Height: 1, Fx: 1, Fy: 1}
	require.NoError(t, in.CheckValid())

	in.Fx = 0
	assert.ErrorIs(t, in.CheckValid(), ErrNoIntrinsics)

	in.Fx = 1
	in.Model = "fisheye"
	assert.Error(t, in.CheckValid())
}

func TestDeprojectProjectRoundTrip(t *testing.T) {
	in := Intrinsics{
		Width: 640, Height: 480, Fx: 615, Fy: 615, Ppx: 320, Ppy: 240,
		Model:  DistortionBrownConrady,
		Coeffs: [5]float64{0.1, -0.05, 0.001, 0.002, 0.01},
	}
	for _, px := range [][2]float64{{0, 0}, {320, 240}, {100.5, 400.25}, {639, 479}} {
		x, y, z := in.Deproject(px[0], px[1], 1.5)
		u, v, ok := in.Project(x, y, z)
		require.True(t, ok)
		assert.InDelta(t, px[0], u, 1e-3)
		assert.InDelta(t, px[1], v, 1e-3)
	}
}

func TestProjectBehindCamera(t *testing.T) {
	in := NewIntrinsicsFromFOV(640, 480, 69)
	_, _, ok := in.Project(0, 0, 0)
	assert.False(t, ok)
	_, _, ok = in.Project(0, 0, -1)
	assert.False(t, ok)
}

func TestScaledHalvesResolution(t *testing.T) {
	in := Intrinsics{Width: 641, Height: 480, Fx: 600, Fy: 600, Ppx: 319.5, Ppy: 239.5}
	half := in.Scaled(0.5)
	assert.Equal(t, 320, half.Width)
	assert.Equal(t, 240, half.Height)
	assert.InDelta(t, 300, half.Fx, 1e-9)
	assert.InDelta(t, 159.5, half.Ppx, 1e-9)
}

func TestFOV(t *testing.T) {
	in := NewIntrinsicsFromFOV(640, 480, 90)
	h, _ := in.FOV()
	assert.InDelta(t, 90, h, 1e-9)
	assert.InDelta(t, 320, in.Fx, 1e-9)
}

func TestExtrinsicsInverse(t *testing.T) {
	c, s := math.Cos(0.3), math.Sin(0.3)
	e := Extrinsics{
		Rotation:    [9]float64{c, -s, 0, s, c, 0, 0, 0, 1},
		Translation: [3]float64{0.015, -0.002, 0.001},
	}
	require.NoError(t, e.CheckValid())

	inv := e.Inverse()
	p := r3.Vector{X: 0.2, Y: -0.4, Z: 1.7}
	back := inv.Transform(e.Transform(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)
	assert.InDelta(t, p.Z, back.Z, 1e-9)
}

func TestExtrinsicsRejectsScaledRotation(t *testing.T) {
	e := Extrinsics{Rotation: [9]float64{2, 0, 0, 0, 1, 0, 0, 0, 1}}
	assert.Error(t, e.CheckValid())

	mirror := Extrinsics{Rotation: [9]float64{-1, 0, 0, 0, 1, 0, 0, 0, 1}}
	assert.Error(t, mirror.CheckValid())
}

func TestNewCalibrationFromJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	content := `{
  "depth": {"width_px": 640, "height_px": 480, "fx": 390, "fy": 390, "ppx": 320, "ppy": 240},
  "color": {"width_px": 640, "height_px": 480, "fx": 615, "fy": 615, "ppx": 321, "ppy": 242,
            "model": "brown_conrady", "coeffs": [0.1, 0, 0, 0, 0]},
  "extrinsics": {"rotation": [1,0,0,0,1,0,0,0,1], "translation": [0.015, 0, 0]}
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cal, err := NewCalibrationFromJSONFile(path)
	require.NoError(t, err)
	assert.Equal(t, 390.0, cal.Depth.Fx)
	assert.Equal(t, DistortionBrownConrady, cal.Color.Model)
	assert.Equal(t, 0.015, cal.DepthToColor.Translation[0])

	_, err = NewCalibrationFromJSONFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
