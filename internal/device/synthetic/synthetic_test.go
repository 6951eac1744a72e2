package synthetic

import (
	"context"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/rgbd_mapper/internal/device"
)

func startedDevice(t *testing.T, opts Options, cfg device.StreamConfig) *Device {
	t.Helper()
	d := NewDevice(opts)
	ctx := context.Background()
	require.NoError(t, d.Connect(ctx))
	require.NoError(t, d.Configure(cfg, cfg))
	require.NoError(t, d.Start(ctx))
	return d
}

func unpaced() Options {
	opts := NewDefaultOptions()
	opts.Paced = false
	return opts
}

func TestConnectIsExclusive(t *testing.T) {
	d := NewDevice(unpaced())
	require.NoError(t, d.Connect(context.Background()))
	assert.ErrorIs(t, d.Connect(context.Background()), device.ErrBusy)
	require.NoError(t, d.Stop())
	assert.NoError(t, d.Connect(context.Background()))
}

func TestConfigureRejectsUnsupportedModes(t *testing.T) {
	d := NewDevice(unpaced())
	assert.ErrorIs(t, d.Configure(device.StreamConfig{Width: 640, Height: 480, FPS: 30}, device.StreamConfig{Width: 640, Height: 480, FPS: 30}), device.ErrNotConnected)

	require.NoError(t, d.Connect(context.Background()))
	bad := device.StreamConfig{Width: 1280, Height: 720, FPS: 60}
	assert.ErrorIs(t, d.Configure(bad, bad), device.ErrUnsupportedMode)
	odd := device.StreamConfig{Width: 100, Height: 100, FPS: 30}
	assert.ErrorIs(t, d.Configure(odd, odd), device.ErrUnsupportedMode)
}

func TestFramesMatchConfiguration(t *testing.T) {
	cfg := device.StreamConfig{Width: 424, Height: 240, FPS: 30}
	d := startedDevice(t, unpaced(), cfg)

	frame, err := d.WaitForFrames(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, frame.IsComplete())
	assert.Equal(t, uint64(1), frame.Seq)
	assert.Equal(t, 424, frame.Depth.Width)
	assert.Equal(t, 240, frame.Color.Height)

	ratio := float64(frame.Depth.Valid()) / float64(len(frame.Depth.Data))
	assert.Greater(t, ratio, 0.9)

	min, max, ok := frame.Depth.MinMax()
	require.True(t, ok)
	assert.Greater(t, int(min), 500)
	assert.Less(t, int(max), 6500)

	scale, err := d.DepthScale()
	require.NoError(t, err)
	assert.Equal(t, 0.001, scale)

	cal, err := d.Calibration()
	require.NoError(t, err)
	assert.NoError(t, cal.CheckValid())
}

func TestSameSeedSameFrames(t *testing.T) {
	cfg := device.StreamConfig{Width: 424, Height: 240, FPS: 30}
	a := startedDevice(t, unpaced(), cfg)
	b := startedDevice(t, unpaced(), cfg)
	fa, err := a.WaitForFrames(context.Background(), time.Second)
	require.NoError(t, err)
	fb, err := b.WaitForFrames(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, fa.Depth.Data, fb.Depth.Data)
}

func TestDropColorEvery(t *testing.T) {
	opts := unpaced()
	opts.DropColorEvery = 2
	d := startedDevice(t, opts, device.StreamConfig{Width: 424, Height: 240, FPS: 30})

	first, err := d.WaitForFrames(context.Background(), time.Second)
	require.NoError(t, err)
	assert.NotNil(t, first.Color)
	second, err := d.WaitForFrames(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Nil(t, second.Color)
	assert.NotNil(t, second.Depth)
}

func TestWaitBeforeStart(t *testing.T) {
	d := NewDevice(unpaced())
	_, err := d.WaitForFrames(context.Background(), time.Second)
	assert.ErrorIs(t, err, device.ErrNotStarted)
}

func TestPacedTimeout(t *testing.T) {
	opts := NewDefaultOptions()
	d := startedDevice(t, opts, device.StreamConfig{Width: 424, Height: 240, FPS: 6})

	_, err := d.WaitForFrames(context.Background(), time.Second)
	require.NoError(t, err)
	_, err = d.WaitForFrames(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, device.ErrTimeout)
}

func TestSceneTrace(t *testing.T) {
	s := NewDefaultScene()
	tt, hit := s.Trace(r3.Vector{}, s.SphereCenter)
	assert.Equal(t, surfaceSphere, hit)
	assert.InDelta(t, 1-s.SphereRadius/s.SphereCenter.Norm(), tt, 1e-9)

	_, hit = s.Trace(r3.Vector{}, s.SphereCenter.Mul(-1))
	assert.Equal(t, surfaceNone, hit)
}
