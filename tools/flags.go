package tools

import (
	"flag"
	"time"

	"github.com/golang/glog"
)

const (
	CommandCapture = "capture"
	CommandProbe   = "probe"
	CommandVerify  = "verify"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type StreamFlags struct {
	Width  *int `json:"width"`
	Height *int `json:"height"`
	FPS    *int `json:"fps"`
}

type FilterFlags struct {
	Filters          *bool    `json:"filters"`
	AlignPolicy      *string  `json:"align_policy"`
	Decimation       *int     `json:"decimation"`
	SpatialMagnitude *int     `json:"spatial_magnitude"`
	SpatialAlpha     *float64 `json:"spatial_alpha"`
	SpatialDelta     *float64 `json:"spatial_delta"`
	TemporalAlpha    *float64 `json:"temporal_alpha"`
	TemporalDelta    *float64 `json:"temporal_delta"`
	TemporalMaxAge   *int     `json:"temporal_max_age"`
	HoleMode         *string  `json:"hole_mode"`
	HoleConservative *bool    `json:"hole_conservative"`
	HoleMaxGap       *int     `json:"hole_max_gap"`
}

type DeviceFlags struct {
	Seed           *int `json:"seed"`
	DropColorEvery *int `json:"drop_color_every"`
}

type FlagsForCommandCapture struct {
	StreamFlags
	FilterFlags
	DeviceFlags
	Output       *string        `json:"output"`
	Format       *string        `json:"format"`
	Headless     *bool          `json:"headless"`
	Timeout      *time.Duration `json:"timeout"`
	Warmup       *int           `json:"warmup"`
	Calibration  *string        `json:"calibration"`
	Silent       *bool          `json:"silent"`
	LogTimestamp *bool          `json:"timestamp"`
	Help         *bool          `json:"help"`
}

type FlagsForCommandProbe struct {
	DeviceFlags
	Calibration *string        `json:"calibration"`
	Timeout     *time.Duration `json:"timeout"`
	Help        *bool          `json:"help"`
}

type FlagsForCommandVerify struct {
	Input            *string `json:"input"`
	FolderProcessing *bool   `json:"folder"`
	Recursive        *bool   `json:"recursive"`
	Silent           *bool   `json:"silent"`
	Help             *bool   `json:"help"`
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "", false, "Displays the version of rgbd_mapper.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func ParseFlagsForCommandCapture(args []string) FlagsForCommandCapture {
	glog.V(1).Infoln("capture args", FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-capture", flag.ExitOnError)

	width := defineIntFlagCommand(flagCommand, "width", "w", 640, "Width in pixels of the depth and color streams.")
	height := defineIntFlagCommand(flagCommand, "height", "H", 480, "Height in pixels of the depth and color streams.")
	fps := defineIntFlagCommand(flagCommand, "fps", "f", 30, "Frame rate of the depth and color streams.")
	filters := defineBoolFlagCommand(flagCommand, "filters", "", true, "Starts with the depth filters enabled. They can be toggled at runtime.")
	output := defineStringFlagCommand(flagCommand, "output", "o", "exports", "Folder where point clouds are saved. It is created if missing.")
	format := defineStringFlagCommand(flagCommand, "format", "", "ply", "Point cloud file format, one of 'ply', 'ply-binary', 'pcd'.")
	headless := defineBoolFlagCommand(flagCommand, "headless", "", false, "Reads commands from stdin instead of showing the console preview.")
	alignPolicy := defineStringFlagCommand(flagCommand, "align-policy", "", "double", "Where the filters run: 'double' before and after alignment, 'post' only on the aligned depth, 'pre' only on the raw depth.")
	decimation := defineIntFlagCommand(flagCommand, "decimation", "", 1, "Downsampling factor applied to the raw depth before the other filters, 1 keeps full resolution.")
	spatialMagnitude := defineIntFlagCommand(flagCommand, "spatial-magnitude", "", 2, "Iterations of the edge preserving spatial filter, 0 disables it.")
	spatialAlpha := defineFloat64FlagCommand(flagCommand, "spatial-alpha", "", 0.5, "Spatial smoothing weight of the current sample, between 0.25 and 1.")
	spatialDelta := defineFloat64FlagCommand(flagCommand, "spatial-delta", "", 20, "Depth step in depth units treated as an edge by the spatial filter.")
	temporalAlpha := defineFloat64FlagCommand(flagCommand, "temporal-alpha", "", 0.4, "Temporal smoothing weight of the current sample, between 0 and 1.")
	temporalDelta := defineFloat64FlagCommand(flagCommand, "temporal-delta", "", 20, "Depth change in depth units treated as motion by the temporal filter.")
	temporalMaxAge := defineIntFlagCommand(flagCommand, "temporal-max-age", "", 4, "Frames a lost depth reading is held by the temporal filter.")
	holeMode := defineStringFlagCommand(flagCommand, "hole-mode", "", "nearest", "Neighbour used to fill holes, one of 'nearest', 'left', 'top'.")
	holeConservative := defineBoolFlagCommand(flagCommand, "hole-conservative", "", true, "Fills only holes not larger than hole-max-gap pixels.")
	holeMaxGap := defineIntFlagCommand(flagCommand, "hole-max-gap", "", 2, "Largest hole in pixels filled in conservative mode.")
	timeout := defineDurationFlagCommand(flagCommand, "timeout", "", 2*time.Second, "Max wait for one frameset, at least two frame periods.")
	warmup := defineIntFlagCommand(flagCommand, "warmup", "", 30, "Frames discarded after start while auto exposure settles.")
	calibration := defineStringFlagCommand(flagCommand, "calibration", "c", "", "JSON calibration file overriding the one reported by the device.")
	seed := defineIntFlagCommand(flagCommand, "seed", "", 1, "Seed of the synthetic device noise.")
	dropColorEvery := defineIntFlagCommand(flagCommand, "drop-color-every", "", 0, "Synthetic device delivers a frameset without color every N frames, 0 never.")
	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")
	logTimestamp := defineBoolFlagCommand(flagCommand, "timestamp", "t", false, "Adds timestamp to log messages.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")

	_ = flagCommand.Parse(args)

	return FlagsForCommandCapture{
		StreamFlags: StreamFlags{
			Width:  width,
			Height: height,
			FPS:    fps,
		},
		FilterFlags: FilterFlags{
			Filters:          filters,
			AlignPolicy:      alignPolicy,
			Decimation:       decimation,
			SpatialMagnitude: spatialMagnitude,
			SpatialAlpha:     spatialAlpha,
			SpatialDelta:     spatialDelta,
			TemporalAlpha:    temporalAlpha,
			TemporalDelta:    temporalDelta,
			TemporalMaxAge:   temporalMaxAge,
			HoleMode:         holeMode,
			HoleConservative: holeConservative,
			HoleMaxGap:       holeMaxGap,
		},
		DeviceFlags: DeviceFlags{
			Seed:           seed,
			DropColorEvery: dropColorEvery,
		},
		Output:       output,
		Format:       format,
		Headless:     headless,
		Timeout:      timeout,
		Warmup:       warmup,
		Calibration:  calibration,
		Silent:       silent,
		LogTimestamp: logTimestamp,
		Help:         help,
	}
}

func ParseFlagsForCommandProbe(args []string) FlagsForCommandProbe {
	glog.V(1).Infoln("probe args", FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-probe", flag.ExitOnError)

	calibration := defineStringFlagCommand(flagCommand, "calibration", "c", "", "JSON calibration file to validate and print next to the device one.")
	timeout := defineDurationFlagCommand(flagCommand, "timeout", "", 2*time.Second, "Max wait for the test frameset.")
	seed := defineIntFlagCommand(flagCommand, "seed", "", 1, "Seed of the synthetic device noise.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")

	dropColorEvery := 0

	_ = flagCommand.Parse(args)

	return FlagsForCommandProbe{
		DeviceFlags: DeviceFlags{
			Seed:           seed,
			DropColorEvery: &dropColorEvery,
		},
		Calibration: calibration,
		Timeout:     timeout,
		Help:        help,
	}
}

func ParseFlagsForCommandVerify(args []string) FlagsForCommandVerify {
	glog.V(1).Infoln("verify args", FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-verify", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input ply file/folder.")
	folderProcessing := defineBoolFlagCommand(flagCommand, "folder", "", false, "Verifies all ply files of the input folder. Input must be a folder if specified")
	recursive := defineBoolFlagCommand(flagCommand, "recursive", "r", false, "Enables recursive lookup for all .ply files inside the subfolders")
	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")

	_ = flagCommand.Parse(args)

	return FlagsForCommandVerify{
		Input:            input,
		FolderProcessing: folderProcessing,
		Recursive:        recursive,
		Silent:           silent,
		Help:             help,
	}
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineDurationFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue time.Duration, usage string) *time.Duration {
	var output time.Duration
	flagCommand.DurationVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.DurationVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
