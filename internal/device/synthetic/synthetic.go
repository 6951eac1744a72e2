package synthetic

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ecopia-map/rgbd_mapper/internal/camera"
	"github.com/ecopia-map/rgbd_mapper/internal/data"
	"github.com/ecopia-map/rgbd_mapper/internal/device"
)

const (
	depthScale = 0.001
	depthHFOV  = 87.0
	colorHFOV  = 69.0
	// color sensor offset from the depth origin along x, meters
	baseline = 0.015
)

type mode struct {
	width  int
	height int
}

var supportedModes = []mode{
	{424, 240}, {480, 270}, {640, 360}, {640, 480}, {848, 480}, {1280, 720},
}

var supportedRates = []int{6, 15, 30, 60}

type Options struct {
	Seed           int64
	DropColorEvery int     // every N-th frameset carries no color, 0 never
	Paced          bool    // deliver frames at the configured rate instead of immediately
	NoiseStdDev    float64 // depth noise in meters at 1 m, grows with the square of the distance
	DropoutRate    float64 // fraction of depth pixels without reading
	Scene          *Scene
}

func NewDefaultOptions() Options {
	return Options{
		Seed:        1,
		Paced:       true,
		NoiseStdDev: 0.002,
		DropoutRate: 0.02,
	}
}

// Device renders a static scene through a depth and a color pinhole camera.
type Device struct {
	opts  Options
	scene *Scene

	mu        sync.Mutex
	connected bool
	started   bool
	depthCfg  device.StreamConfig
	colorCfg  device.StreamConfig
	cal       *camera.Calibration
	rng       *rand.Rand
	seq       uint64
	epoch     time.Time
	nextFrame time.Time
}

func NewDevice(opts Options) *Device {
	scene := opts.Scene
	if scene == nil {
		scene = NewDefaultScene()
	}
	return &Device{
		opts:  opts,
		scene: scene,
	}
}

func (d *Device) Info() device.Info {
	return device.Info{
		Name:     "Synthetic RGB-D",
		Serial:   "SYN-0001",
		Firmware: "1.0.0",
		USBType:  "3.2",
	}
}

func (d *Device) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connected {
		return device.ErrBusy
	}
	d.connected = true
	d.rng = rand.New(rand.NewSource(d.opts.Seed))
	d.seq = 0
	return nil
}

func (d *Device) Configure(depth, color device.StreamConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return device.ErrNotConnected
	}
	for _, c := range []device.StreamConfig{depth, color} {
		if !isSupported(c) {
			return errors.Wrapf(device.ErrUnsupportedMode, "%s", c)
		}
	}
	if depth.FPS != color.FPS {
		return errors.Wrapf(device.ErrUnsupportedMode, "depth %s and color %s rates differ", depth, color)
	}
	d.depthCfg, d.colorCfg = depth, color
	d.cal = &camera.Calibration{
		Depth:        camera.NewIntrinsicsFromFOV(depth.Width, depth.Height, depthHFOV),
		Color:        camera.NewIntrinsicsFromFOV(color.Width, color.Height, colorHFOV),
		DepthToColor: camera.NewTranslation(-baseline, 0, 0),
	}
	return nil
}

func (d *Device) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return device.ErrNotConnected
	}
	if d.cal == nil {
		return errors.New("streams are not configured")
	}
	d.started = true
	d.epoch = time.Now()
	d.nextFrame = d.epoch
	glog.V(1).Infof("synthetic device started depth %s color %s", d.depthCfg, d.colorCfg)
	return nil
}

func (d *Device) WaitForFrames(ctx context.Context, timeout time.Duration) (*data.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return nil, device.ErrNotStarted
	}

	if d.opts.Paced {
		if err := d.waitNextFrame(ctx, timeout); err != nil {
			return nil, err
		}
	}

	d.seq++
	frame := &data.Frame{
		Seq:       d.seq,
		Timestamp: d.epoch.Add(time.Duration(d.seq) * d.period()),
		Depth:     d.renderDepth(),
	}
	if d.opts.DropColorEvery <= 0 || d.seq%uint64(d.opts.DropColorEvery) != 0 {
		frame.Color = d.renderColor()
	}
	return frame, nil
}

func (d *Device) DepthScale() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return 0, device.ErrNotConnected
	}
	return depthScale, nil
}

func (d *Device) Calibration() (*camera.Calibration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return nil, device.ErrNotConnected
	}
	if d.cal == nil {
		return nil, errors.New("streams are not configured")
	}
	cal := *d.cal
	return &cal, nil
}

// Stop halts the streams and releases the device.
func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return device.ErrNotConnected
	}
	d.started = false
	d.connected = false
	d.cal = nil
	return nil
}

func (d *Device) period() time.Duration {
	return time.Second / time.Duration(d.depthCfg.FPS)
}

func (d *Device) waitNextFrame(ctx context.Context, timeout time.Duration) error {
	wait := time.Until(d.nextFrame)
	if wait > timeout {
		if err := sleepCtx(ctx, timeout); err != nil {
			return err
		}
		return device.ErrTimeout
	}
	if err := sleepCtx(ctx, wait); err != nil {
		return err
	}
	d.nextFrame = d.nextFrame.Add(d.period())
	if now := time.Now(); d.nextFrame.Before(now) {
		// the consumer fell behind, drop the frames it missed
		d.nextFrame = now.Add(d.period())
	}
	return nil
}

func (d *Device) renderDepth() *data.DepthMap {
	intr := d.cal.Depth
	out := data.NewDepthMap(intr.Width, intr.Height)
	origin := r3.Vector{}
	for v := 0; v < intr.Height; v++ {
		for u := 0; u < intr.Width; u++ {
			if d.rng.Float64() < d.opts.DropoutRate {
				continue
			}
			x, y, _ := intr.Deproject(float64(u), float64(v), 1)
			t, hit := d.scene.Trace(origin, r3.Vector{X: x, Y: y, Z: 1})
			if hit == surfaceNone {
				continue
			}
			z := t + d.rng.NormFloat64()*d.opts.NoiseStdDev*t*t
			raw := math.Round(z / depthScale)
			if raw <= 0 || raw > math.MaxUint16 {
				continue
			}
			out.Set(u, v, uint16(raw))
		}
	}
	return out
}

func (d *Device) renderColor() *data.ColorImage {
	intr := d.cal.Color
	toDepth := d.cal.DepthToColor.Inverse()
	origin := toDepth.Transform(r3.Vector{})
	out := data.NewColorImage(intr.Width, intr.Height)
	for v := 0; v < intr.Height; v++ {
		for u := 0; u < intr.Width; u++ {
			x, y, z := intr.Deproject(float64(u), float64(v), 1)
			dir := toDepth.Transform(r3.Vector{X: x, Y: y, Z: z}).Sub(origin)
			t, hit := d.scene.Trace(origin, dir)
			if hit == surfaceNone {
				continue
			}
			out.Set(u, v, d.scene.Shade(origin.Add(dir.Mul(t)), hit))
		}
	}
	return out
}

func isSupported(c device.StreamConfig) bool {
	modeOk := false
	for _, m := range supportedModes {
		if m.width == c.Width && m.height == c.Height {
			modeOk = true
			break
		}
	}
	if !modeOk {
		return false
	}
	if c.Width >= 1280 && c.FPS > 30 {
		return false
	}
	for _, r := range supportedRates {
		if r == c.FPS {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
