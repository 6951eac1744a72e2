/*
 * This file is part of the RGB-D Mapper distribution (https://github.com/ecopia-map/rgbd_mapper).
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/ecopia-map/rgbd_mapper/internal/device/synthetic"
	"github.com/ecopia-map/rgbd_mapper/internal/filter"
	"github.com/ecopia-map/rgbd_mapper/internal/mapper"
	"github.com/ecopia-map/rgbd_mapper/pkg"
	"github.com/ecopia-map/rgbd_mapper/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/rgbd_mapper/tools"
)

const VERSION = "0.3.0"

const logo = `
            _         _
 _ __ __ _ | |__   __| |  _ __ ___   __ _ _ __  _ __   ___ _ __
| '__/ _  || '_ \ / _  | | '_   _ \ / _  | '_ \| '_ \ / _ \ '__|
| | | (_| || |_) | (_| | | | | | | | (_| | |_) | |_) |  __/ |
|_|  \__, ||_.__/ \__,_| |_| |_| |_|\__,_| .__/| .__/ \___|_|
     |___/  RGB-D capture to point clouds |_|   |_|
            Copyright YYYY - ecopia-map
`

func main() {
	defer glog.Flush()

	flagsGlobal := tools.ParseFlagsGlobal()
	glog.V(1).Infoln(tools.FmtJSONString(flagsGlobal))

	if *flagsGlobal.Version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 || *flagsGlobal.Help {
		showHelp()
		if len(args) == 0 && !*flagsGlobal.Help {
			glog.Exit("Please specify a subcommand [capture|probe|verify].")
		}
		return
	}
	cmd, args := args[0], args[1:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case tools.CommandCapture:
		mainCommandCapture(ctx, args)
	case tools.CommandProbe:
		mainCommandProbe(ctx, args)
	case tools.CommandVerify:
		mainCommandVerify(ctx, args)
	default:
		glog.Exitf("Unrecognized command [%q]. Command must be one of [capture|probe|verify]", cmd)
	}
}

func mainCommandCapture(ctx context.Context, args []string) {
	flags := tools.ParseFlagsForCommandCapture(args)

	if *flags.Help {
		showHelp()
		return
	}

	// set logging and timestamp logging
	if *flags.Silent {
		tools.DisableLogger()
	} else if *flags.Headless {
		printLogo()
	}
	if !*flags.LogTimestamp {
		tools.DisableLoggerTimestamp()
	}

	filterFlags := flags.FilterFlags

	opts := mapper.Options{
		Width:           *flags.Width,
		Height:          *flags.Height,
		FPS:             *flags.FPS,
		FiltersEnabled:  *filterFlags.Filters,
		OutputDir:       *flags.Output,
		Format:          mapper.ParseExportFormat(*flags.Format),
		AlignPolicy:     mapper.ParseAlignPolicy(*filterFlags.AlignPolicy),
		FrameTimeout:    *flags.Timeout,
		WarmupFrames:    *flags.Warmup,
		Headless:        *flags.Headless,
		CalibrationFile: *flags.Calibration,
		Command:         tools.CommandCapture,
		FilterOptions: &mapper.FilterOptions{
			DecimationMagnitude: *filterFlags.Decimation,
			SpatialMagnitude:    *filterFlags.SpatialMagnitude,
			SpatialAlpha:        *filterFlags.SpatialAlpha,
			SpatialDelta:        *filterFlags.SpatialDelta,
			TemporalAlpha:       *filterFlags.TemporalAlpha,
			TemporalDelta:       *filterFlags.TemporalDelta,
			TemporalMaxAge:      *filterFlags.TemporalMaxAge,
			HoleMode:            filter.ParseHoleFillMode(*filterFlags.HoleMode),
			HoleConservative:    *filterFlags.HoleConservative,
			HoleMaxGap:          *filterFlags.HoleMaxGap,
		},
		DeviceOptions: newDeviceOptions(flags.DeviceFlags),
	}

	if msg, res := validateOptionsForCommandCapture(&opts); !res {
		glog.Exit("Error parsing input parameters: " + msg)
	}

	dev := synthetic.NewDevice(syntheticOptions(opts.DeviceOptions))
	err := pkg.NewMapperCapture(dev, std_algorithm_manager.NewAlgorithmManager(&opts), os.Stdin).RunMapper(ctx, &opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Capture failed. Try a lower resolution or frame rate, or connect the camera to a USB 3 port.")
		glog.Fatal("Error while capturing: ", err)
	}
	tools.LogOutput(tools.TagSystem, "Capture completed")
}

// Validates the capture options, checking also that the calibration file exists
func validateOptionsForCommandCapture(opts *mapper.Options) (string, bool) {
	if msg, ok := opts.Validate(); !ok {
		return msg, false
	}
	if opts.CalibrationFile != "" {
		if _, err := os.Stat(opts.CalibrationFile); os.IsNotExist(err) {
			return "Calibration file not found", false
		}
	}
	if info, err := os.Stat(opts.OutputDir); err == nil && !info.IsDir() {
		return "Output path is not a folder", false
	}
	return "", true
}

func mainCommandProbe(ctx context.Context, args []string) {
	flags := tools.ParseFlagsForCommandProbe(args)

	if *flags.Help {
		showHelp()
		return
	}
	printLogo()

	opts := mapper.NewDefaultOptions()
	opts.Command = tools.CommandProbe
	opts.FrameTimeout = *flags.Timeout
	opts.CalibrationFile = *flags.Calibration
	opts.DeviceOptions = newDeviceOptions(flags.DeviceFlags)

	if opts.CalibrationFile != "" {
		if _, err := os.Stat(opts.CalibrationFile); os.IsNotExist(err) {
			glog.Exit("Error parsing input parameters: Calibration file not found")
		}
	}

	dev := synthetic.NewDevice(syntheticOptions(opts.DeviceOptions))
	if err := pkg.NewMapperProbe(dev).RunMapper(ctx, opts); err != nil {
		glog.Fatal("Error while probing: ", err)
	}
	tools.LogOutput(tools.TagSystem, "Probe completed")
}

func mainCommandVerify(ctx context.Context, args []string) {
	flags := tools.ParseFlagsForCommandVerify(args)

	if *flags.Help {
		showHelp()
		return
	}
	if *flags.Silent {
		tools.DisableLogger()
	}
	tools.DisableLoggerTimestamp()

	opts := mapper.NewDefaultOptions()
	opts.Command = tools.CommandVerify
	opts.VerifyOptions = &mapper.VerifyOptions{
		Input:            *flags.Input,
		FolderProcessing: *flags.FolderProcessing,
		Recursive:        *flags.Recursive,
	}

	if msg, res := validateOptionsForCommandVerify(opts.VerifyOptions); !res {
		glog.Exit("Error parsing input parameters: " + msg)
	}

	defer timeTrack(time.Now(), "verify")
	if err := pkg.NewMapperVerify(tools.NewStandardFileFinder()).RunMapper(ctx, opts); err != nil {
		glog.Fatal("Error while verifying: ", err)
	}
}

func validateOptionsForCommandVerify(opts *mapper.VerifyOptions) (string, bool) {
	info, err := os.Stat(opts.Input)
	if os.IsNotExist(err) {
		return "Input file/folder not found", false
	}
	if err == nil && opts.FolderProcessing && !info.IsDir() {
		return "Input must be a folder when folder processing is enabled", false
	}
	return "", true
}

func newDeviceOptions(flags tools.DeviceFlags) *mapper.DeviceOptions {
	return &mapper.DeviceOptions{
		Seed:           int64(*flags.Seed),
		DropColorEvery: *flags.DropColorEvery,
		Paced:          true,
	}
}

func syntheticOptions(opts *mapper.DeviceOptions) synthetic.Options {
	devOpts := synthetic.NewDefaultOptions()
	devOpts.Seed = opts.Seed
	devOpts.DropColorEvery = opts.DropColorEvery
	devOpts.Paced = opts.Paced
	return devOpts
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(tools.TagSystem, fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("rgbd_mapper streams depth and color from an RGB-D camera, filters and aligns the depth to the color image and saves colored point clouds")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Usage: rgbd_mapper [global flags] capture|probe|verify [command flags]")
	fmt.Println("  capture  streams, previews and saves point clouds")
	fmt.Println("  probe    prints the device info and calibration and grabs one frameset")
	fmt.Println("  verify   checks saved PLY files")
	fmt.Println("")
	fmt.Println("Global flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
