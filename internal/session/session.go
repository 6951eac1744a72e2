package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/stat"

	"github.com/ecopia-map/rgbd_mapper/internal/align"
	"github.com/ecopia-map/rgbd_mapper/internal/camera"
	"github.com/ecopia-map/rgbd_mapper/internal/converters"
	"github.com/ecopia-map/rgbd_mapper/internal/data"
	"github.com/ecopia-map/rgbd_mapper/internal/device"
	"github.com/ecopia-map/rgbd_mapper/internal/filter"
	"github.com/ecopia-map/rgbd_mapper/internal/io"
	"github.com/ecopia-map/rgbd_mapper/internal/mapper"
	"github.com/ecopia-map/rgbd_mapper/pkg/algorithm_manager"
	"github.com/ecopia-map/rgbd_mapper/tools"
)

var (
	// ErrSkipCycle marks a cycle abandoned because of a timeout or a partial
	// frameset. Nothing was changed, the caller moves on to the next cycle.
	ErrSkipCycle = errors.New("capture cycle skipped")
	ErrNoCapture = errors.New("no frame has been captured yet")
	ErrClosed    = errors.New("session is closed")
)

// Capture is the result of one successful cycle: the color image and the
// filtered depth aligned to it.
type Capture struct {
	Seq        uint64
	Timestamp  time.Time
	Color      *data.ColorImage
	Depth      *data.DepthMap
	Intrinsics camera.Intrinsics // color intrinsics, valid for Depth
	DepthScale float64
}

// Fraction of pixels carrying a depth reading
func (c *Capture) ValidRatio() float64 {
	if c == nil || c.Depth == nil || len(c.Depth.Data) == 0 {
		return 0
	}
	return float64(c.Depth.Valid()) / float64(len(c.Depth.Data))
}

// Frame rate measured while warming up
type Stats struct {
	Frames    int
	MeanFPS   float64
	StdDevFPS float64
}

// Session owns a connected device and the processing state of one capture run.
// Next and Close are serialized; SaveLast and ToggleFilters may be called from
// other goroutines.
type Session struct {
	id          string
	dev         device.Device
	opts        *mapper.Options
	depthCfg    device.StreamConfig
	colorCfg    device.StreamConfig
	depthScale  float64
	calibration camera.Calibration
	warmup      Stats

	aligner      *align.Aligner
	rawChain     *filter.Chain
	alignedChain *filter.Chain
	projector    converters.PointProjector
	exporter     io.Exporter

	cycleMu sync.Mutex
	closed  bool

	lastMu sync.Mutex
	last   *Capture

	filtersEnabled atomic.Bool
}

// Open connects and starts the device and lets it settle. Any failure is fatal
// for the session: the device is stopped and the error names the requested streams.
func Open(ctx context.Context, dev device.Device, opts *mapper.Options, manager algorithm_manager.AlgorithmManager) (*Session, error) {
	if msg, ok := opts.Validate(); !ok {
		return nil, errors.New(msg)
	}
	s := &Session{
		id:           uuid.NewString(),
		dev:          dev,
		opts:         opts.Copy(),
		depthCfg:     device.StreamConfig{Width: opts.Width, Height: opts.Height, FPS: opts.FPS},
		colorCfg:     device.StreamConfig{Width: opts.Width, Height: opts.Height, FPS: opts.FPS},
		rawChain:     manager.GetRawFilterChain(),
		alignedChain: manager.GetAlignedFilterChain(),
		projector:    manager.GetPointProjectorAlgorithm(),
		exporter:     manager.GetExporter(),
	}
	s.filtersEnabled.Store(opts.FiltersEnabled)

	info := dev.Info()
	if err := dev.Connect(ctx); err != nil {
		return nil, errors.Wrapf(err, "cannot connect to %s", info.Name)
	}
	if err := s.start(ctx); err != nil {
		err = errors.Wrapf(err, "cannot start depth %s color %s", s.depthCfg, s.colorCfg)
		return nil, multierr.Append(err, dev.Stop())
	}

	glog.Infof("session %s opened on %s (%s), depth %s color %s, depth scale %v, warm-up %.1f fps",
		s.id, info.Name, info.Serial, s.depthCfg, s.colorCfg, s.depthScale, s.warmup.MeanFPS)
	return s, nil
}

func (s *Session) start(ctx context.Context) error {
	if err := s.dev.Configure(s.depthCfg, s.colorCfg); err != nil {
		return err
	}
	if err := s.dev.Start(ctx); err != nil {
		return err
	}

	scale, err := s.dev.DepthScale()
	if err != nil {
		return errors.Wrap(err, "cannot read depth scale")
	}
	s.depthScale = scale

	cal, err := s.loadCalibration()
	if err != nil {
		return err
	}
	s.calibration = *cal

	s.aligner, err = align.NewAligner(s.calibration, s.depthScale)
	if err != nil {
		return err
	}
	return s.warmUp(ctx)
}

// Device calibration, or the one of the calibration file when given
func (s *Session) loadCalibration() (*camera.Calibration, error) {
	var (
		cal *camera.Calibration
		err error
	)
	if s.opts.CalibrationFile != "" {
		cal, err = camera.NewCalibrationFromJSONFile(s.opts.CalibrationFile)
	} else {
		cal, err = s.dev.Calibration()
	}
	if err != nil {
		return nil, errors.Wrap(err, "cannot read calibration")
	}
	if cal.Depth.Width != s.depthCfg.Width || cal.Depth.Height != s.depthCfg.Height {
		return nil, errors.Errorf("depth calibration is for %dx%d", cal.Depth.Width, cal.Depth.Height)
	}
	if cal.Color.Width != s.colorCfg.Width || cal.Color.Height != s.colorCfg.Height {
		return nil, errors.Errorf("color calibration is for %dx%d", cal.Color.Width, cal.Color.Height)
	}
	return cal, nil
}

// Drops the first frames while auto exposure settles, measuring the delivered rate.
func (s *Session) warmUp(ctx context.Context) error {
	var (
		rates []float64
		prev  time.Time
	)
	for i := 0; i < s.opts.WarmupFrames; i++ {
		frame, err := s.dev.WaitForFrames(ctx, s.opts.FrameTimeout)
		if err != nil {
			return errors.Wrapf(err, "no frames during warm-up after %d frames", i)
		}
		if !prev.IsZero() {
			if dt := frame.Timestamp.Sub(prev).Seconds(); dt > 0 {
				rates = append(rates, 1/dt)
			}
		}
		prev = frame.Timestamp
	}
	s.warmup.Frames = s.opts.WarmupFrames
	if len(rates) > 0 {
		s.warmup.MeanFPS, s.warmup.StdDevFPS = stat.MeanStdDev(rates, nil)
	}
	return nil
}

// Next runs one capture cycle: wait for a frameset, filter the raw depth, align
// it to the color grid and filter it again, according to the align policy.
// Incomplete framesets and timeouts return ErrSkipCycle without touching the
// filter state or the last capture. Next mutates the filter state, it must be
// driven from a single loop.
func (s *Session) Next(ctx context.Context) (*Capture, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	frame, err := s.dev.WaitForFrames(ctx, s.opts.FrameTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		glog.V(2).Infof("skipping cycle: %v", err)
		return nil, errors.Wrap(ErrSkipCycle, err.Error())
	}
	if !frame.IsComplete() {
		glog.V(2).Infof("skipping frameset %d without depth or color", frame.Seq)
		return nil, errors.Wrapf(ErrSkipCycle, "frameset %d is incomplete", frame.Seq)
	}
	if frame.Depth.Width != s.calibration.Depth.Width || frame.Depth.Height != s.calibration.Depth.Height {
		return nil, errors.Wrapf(ErrSkipCycle, "frameset %d has depth %dx%d", frame.Seq, frame.Depth.Width, frame.Depth.Height)
	}
	if frame.Color.Width != s.calibration.Color.Width || frame.Color.Height != s.calibration.Color.Height {
		return nil, errors.Wrapf(ErrSkipCycle, "frameset %d has color %dx%d", frame.Seq, frame.Color.Width, frame.Color.Height)
	}

	s.syncFilterState()

	depth := s.rawChain.Apply(frame.Depth)
	depthIntr := s.calibration.Depth
	if scale := s.rawChain.Scale(); !tools.IsFloatEqual(scale, 1) {
		depthIntr = depthIntr.Scaled(scale)
		depthIntr.Width, depthIntr.Height = depth.Width, depth.Height
	}

	aligned, err := s.aligner.AlignFrame(frame, depth, depthIntr)
	if err != nil {
		return nil, errors.Wrap(ErrSkipCycle, err.Error())
	}
	aligned.Depth = s.alignedChain.Apply(aligned.Depth)

	capture := &Capture{
		Seq:        aligned.Seq,
		Timestamp:  aligned.Timestamp,
		Color:      aligned.Color,
		Depth:      aligned.Depth,
		Intrinsics: s.aligner.Intrinsics(),
		DepthScale: s.depthScale,
	}
	s.lastMu.Lock()
	s.last = capture
	s.lastMu.Unlock()
	return capture, nil
}

// Applies a pending toggle. Re-enabled chains start from a clean history.
func (s *Session) syncFilterState() {
	enabled := s.filtersEnabled.Load()
	for _, chain := range []*filter.Chain{s.rawChain, s.alignedChain} {
		if chain.Enabled() == enabled {
			continue
		}
		chain.SetEnabled(enabled)
		if enabled {
			chain.Reset()
		}
	}
}

// ToggleFilters switches the filters on or off from the next cycle on and
// returns the new state.
func (s *Session) ToggleFilters() bool {
	for {
		old := s.filtersEnabled.Load()
		if s.filtersEnabled.CompareAndSwap(old, !old) {
			glog.Infof("depth filters enabled: %v", !old)
			return !old
		}
	}
}

func (s *Session) FiltersEnabled() bool {
	return s.filtersEnabled.Load()
}

// ResetFilters drops the history of both filter passes. It waits for a running cycle.
func (s *Session) ResetFilters() {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	s.rawChain.Reset()
	s.alignedChain.Reset()
}

func (s *Session) LastCapture() *Capture {
	s.lastMu.Lock()
	defer s.lastMu.Unlock()
	return s.last
}

// NewExportUnit projects the capture into camera space and pairs every pixel with its color.
func (s *Session) NewExportUnit(c *Capture, destination string) (*io.ExportUnit, error) {
	if c == nil {
		return nil, ErrNoCapture
	}
	points, err := s.projector.Project(c.Depth, c.Intrinsics, c.DepthScale)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot project frame %d", c.Seq)
	}
	return &io.ExportUnit{
		Points:      points,
		Colors:      c.Color.Colors(),
		Destination: destination,
	}, nil
}

// Save writes the point cloud of c. An empty path lets the exporter name the file.
func (s *Session) Save(c *Capture, path string) (string, error) {
	unit, err := s.NewExportUnit(c, path)
	if err != nil {
		return "", err
	}
	return s.exporter.Export(unit)
}

// SaveLast writes the point cloud of the most recent successful cycle.
func (s *Session) SaveLast(path string) (string, error) {
	return s.Save(s.LastCapture(), path)
}

func (s *Session) Exporter() io.Exporter {
	return s.exporter
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) DeviceInfo() device.Info {
	return s.dev.Info()
}

func (s *Session) Streams() (depth, color device.StreamConfig) {
	return s.depthCfg, s.colorCfg
}

func (s *Session) Calibration() camera.Calibration {
	return s.calibration
}

func (s *Session) DepthScale() float64 {
	return s.depthScale
}

func (s *Session) WarmupStats() Stats {
	return s.warmup
}

// Close stops the device. It waits for a running cycle and can be called more than once.
func (s *Session) Close() error {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.dev.Stop(); err != nil {
		return errors.Wrap(err, "cannot stop device")
	}
	glog.Infof("session %s closed", s.id)
	return nil
}
