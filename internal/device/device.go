package device

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/ecopia-map/rgbd_mapper/internal/camera"
	"github.com/ecopia-map/rgbd_mapper/internal/data"
)

var (
	ErrNotConnected    = errors.New("device is not connected")
	ErrNotStarted      = errors.New("device streams are not started")
	ErrBusy            = errors.New("device is already claimed by another session")
	ErrTimeout         = errors.New("timed out waiting for frames")
	ErrUnsupportedMode = errors.New("stream mode not supported")
)

// StreamConfig describes one stream request.
type StreamConfig struct {
	Width  int
	Height int
	FPS    int
}

func (c StreamConfig) String() string {
	return fmt.Sprintf("%dx%d@%d", c.Width, c.Height, c.FPS)
}

type Info struct {
	Name     string
	Serial   string
	Firmware string
	USBType  string
}

// IsUSB2 reports a USB 2.x link, too slow for full resolution streams.
func (i Info) IsUSB2() bool {
	return len(i.USBType) > 0 && i.USBType[0] == '2'
}

// Device is the boundary to an RGB-D camera. A device is owned by one session:
// Connect fails with ErrBusy while another owner holds it, Stop releases it.
type Device interface {
	Info() Info
	Connect(ctx context.Context) error
	Configure(depth, color StreamConfig) error
	Start(ctx context.Context) error
	// Blocks until the next frameset. Returns ErrTimeout when none arrives in time.
	// Depth or Color of the returned frame may be nil.
	WaitForFrames(ctx context.Context, timeout time.Duration) (*data.Frame, error)
	// Meters per depth unit
	DepthScale() (float64, error)
	Calibration() (*camera.Calibration, error)
	Stop() error
}
