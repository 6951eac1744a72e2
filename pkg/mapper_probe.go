package pkg

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/ecopia-map/rgbd_mapper/internal/camera"
	"github.com/ecopia-map/rgbd_mapper/internal/device"
	"github.com/ecopia-map/rgbd_mapper/internal/mapper"
	"github.com/ecopia-map/rgbd_mapper/tools"
)

// Lowest bandwidth configuration, usable on USB 2 links
var (
	ProbeDepthConfig = device.StreamConfig{Width: 480, Height: 270, FPS: 15}
	ProbeColorConfig = device.StreamConfig{Width: 424, Height: 240, FPS: 15}
)

type MapperProbe struct {
	device device.Device
}

func NewMapperProbe(dev device.Device) mapper.IMapper {
	return &MapperProbe{
		device: dev,
	}
}

// Prints what the device reports and checks that it can stream at all
func (mapperProbe *MapperProbe) RunMapper(ctx context.Context, opts *mapper.Options) (err error) {
	dev := mapperProbe.device
	info := dev.Info()
	tools.LogOutput(tools.TagCamera, fmt.Sprintf("device %q serial %s firmware %s usb %s", info.Name, info.Serial, info.Firmware, info.USBType))
	if info.IsUSB2() {
		tools.LogOutput(tools.TagCamera, "WARNING: USB 2 link, use a USB 3 port or lower resolution and frame rate")
	}

	if err := dev.Connect(ctx); err != nil {
		return errors.Wrapf(err, "cannot connect to %s", info.Name)
	}
	defer func() {
		err = multierr.Append(err, dev.Stop())
	}()

	if err := dev.Configure(ProbeDepthConfig, ProbeColorConfig); err != nil {
		return errors.Wrapf(err, "cannot configure depth %s color %s", ProbeDepthConfig, ProbeColorConfig)
	}
	if err := dev.Start(ctx); err != nil {
		return errors.Wrapf(err, "cannot start depth %s color %s", ProbeDepthConfig, ProbeColorConfig)
	}

	scale, err := dev.DepthScale()
	if err != nil {
		return errors.Wrap(err, "cannot read depth scale")
	}
	tools.LogOutput(tools.TagCamera, "depth scale", scale, "m/unit")

	cal, err := dev.Calibration()
	if err != nil {
		return errors.Wrap(err, "cannot read calibration")
	}
	printCalibration("device", cal)
	if opts.CalibrationFile != "" {
		fileCal, err := camera.NewCalibrationFromJSONFile(opts.CalibrationFile)
		if err != nil {
			return err
		}
		printCalibration(opts.CalibrationFile, fileCal)
	}

	frame, err := dev.WaitForFrames(ctx, opts.FrameTimeout)
	if err != nil {
		return errors.Wrap(err, "no frames received")
	}
	if frame.Depth != nil {
		lo, hi, _ := frame.Depth.MinMax()
		tools.LogOutput(tools.TagCamera, fmt.Sprintf("depth frame %d: %d/%d valid pixels, range %.3f-%.3f m",
			frame.Seq, frame.Depth.Valid(), len(frame.Depth.Data), float64(lo)*scale, float64(hi)*scale))
	}
	if frame.Color == nil {
		tools.LogOutput(tools.TagCamera, "WARNING: frameset without color")
	}
	glog.Infof("probe of %s completed", info.Serial)
	return nil
}

func printCalibration(source string, cal *camera.Calibration) {
	dh, dv := cal.Depth.FOV()
	ch, cv := cal.Color.FOV()
	tools.LogOutput(tools.TagCamera, fmt.Sprintf("%s calibration, depth fov %.1fx%.1f deg, color fov %.1fx%.1f deg", source, dh, dv, ch, cv))
	tools.LogOutput(tools.TagCamera, tools.FmtJSONString(cal))
}
