package mapper

import (
	"fmt"
	"strings"
	"time"

	"github.com/ecopia-map/rgbd_mapper/internal/filter"
)

type AlignPolicy string
type ExportFormat string

const (
	// Filter the raw depth, align it, then filter the aligned depth again.
	AlignPolicyDouble AlignPolicy = "DOUBLE"
	// Align the raw depth and filter only on the color grid.
	AlignPolicyPost AlignPolicy = "POST"
	// Filter the raw depth and align it, no second pass.
	AlignPolicyPre AlignPolicy = "PRE"
)

const (
	ExportFormatPly       ExportFormat = "PLY"
	ExportFormatPlyBinary ExportFormat = "PLY-BINARY"
	ExportFormatPcd       ExportFormat = "PCD"
)

const (
	DefaultWidth        = 640
	DefaultHeight       = 480
	DefaultFPS          = 30
	DefaultOutputDir    = "exports"
	DefaultFrameTimeout = 2000 * time.Millisecond
	DefaultWarmupFrames = 30
)

func (e AlignPolicy) String() string {
	return strings.ToLower(string(e))
}

func ParseAlignPolicy(value string) AlignPolicy {
	switch strings.Trim(strings.ToUpper(value), " ") {
	case "DOUBLE":
		return AlignPolicyDouble
	case "POST":
		return AlignPolicyPost
	case "PRE":
		return AlignPolicyPre
	}
	return ""
}

// FiltersBeforeAlign reports whether the raw depth goes through the filter chain.
func (e AlignPolicy) FiltersBeforeAlign() bool {
	return e == AlignPolicyDouble || e == AlignPolicyPre
}

// FiltersAfterAlign reports whether the aligned depth goes through the filter chain.
func (e AlignPolicy) FiltersAfterAlign() bool {
	return e == AlignPolicyDouble || e == AlignPolicyPost
}

func (e ExportFormat) String() string {
	return strings.ToLower(string(e))
}

// File extension including the dot
func (e ExportFormat) Extension() string {
	if e == ExportFormatPcd {
		return ".pcd"
	}
	return ".ply"
}

func ParseExportFormat(value string) ExportFormat {
	switch strings.Trim(strings.ToUpper(value), " ") {
	case "PLY", "PLY-ASCII":
		return ExportFormatPly
	case "PLY-BINARY":
		return ExportFormatPlyBinary
	case "PCD":
		return ExportFormatPcd
	}
	return ""
}

// Contains the options needed to run a capture session
type Options struct {
	Width           int           // Width of both streams in pixels
	Height          int           // Height of both streams in pixels
	FPS             int           // Frame rate of both streams
	FiltersEnabled  bool          // Initial state of the depth filters
	OutputDir       string        // Folder where clouds are saved
	Format          ExportFormat  // File format of saved clouds
	AlignPolicy     AlignPolicy   // Where the filter chain runs relative to alignment
	FrameTimeout    time.Duration // Max wait for one frameset
	WarmupFrames    int           // Frames discarded after start to settle auto exposure
	Headless        bool          // Read commands from stdin instead of the console UI
	CalibrationFile string        // Optional JSON calibration overriding the device one

	Command       string
	FilterOptions *FilterOptions
	DeviceOptions *DeviceOptions
	VerifyOptions *VerifyOptions
}

// Parameters of the depth filter chain
type FilterOptions struct {
	DecimationMagnitude int                 // 1 keeps full resolution
	SpatialMagnitude    int                 // Iterations of the spatial filter, 0 disables it
	SpatialAlpha        float64             // Spatial smoothing weight of the current sample
	SpatialDelta        float64             // Depth step, in depth units, treated as an edge
	TemporalAlpha       float64             // Temporal smoothing weight of the current sample
	TemporalDelta       float64             // Depth change, in depth units, treated as motion
	TemporalMaxAge      int                 // Frames a lost reading is held
	HoleMode            filter.HoleFillMode // Neighbour used to fill holes
	HoleConservative    bool                // Fill only small isolated holes
	HoleMaxGap          int                 // Largest hole, in pixels, filled in conservative mode
}

// Parameters of the synthetic device
type DeviceOptions struct {
	Seed           int64 // Seed of the depth noise
	DropColorEvery int   // Deliver a frameset without color every N frames, 0 never
	Paced          bool  // Deliver frames at the configured rate
}

func NewDefaultFilterOptions() *FilterOptions {
	return &FilterOptions{
		DecimationMagnitude: 1,
		SpatialMagnitude:    filter.DefaultSpatialMagnitude,
		SpatialAlpha:        filter.DefaultSpatialAlpha,
		SpatialDelta:        filter.DefaultSpatialDelta,
		TemporalAlpha:       filter.DefaultTemporalAlpha,
		TemporalDelta:       filter.DefaultTemporalDelta,
		TemporalMaxAge:      filter.DefaultTemporalMaxAge,
		HoleMode:            filter.NearestOfTwo,
		HoleConservative:    true,
		HoleMaxGap:          filter.DefaultHoleMaxGap,
	}
}

func NewDefaultOptions() *Options {
	return &Options{
		Width:          DefaultWidth,
		Height:         DefaultHeight,
		FPS:            DefaultFPS,
		FiltersEnabled: true,
		OutputDir:      DefaultOutputDir,
		Format:         ExportFormatPly,
		AlignPolicy:    AlignPolicyDouble,
		FrameTimeout:   DefaultFrameTimeout,
		WarmupFrames:   DefaultWarmupFrames,
		FilterOptions:  NewDefaultFilterOptions(),
		DeviceOptions:  &DeviceOptions{Seed: 1, Paced: true},
	}
}

// Duration of one frame at the configured rate
func (opt *Options) FramePeriod() time.Duration {
	if opt.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(opt.FPS)
}

// Validates the options, returning a message describing the first problem found
func (opt *Options) Validate() (string, bool) {
	if opt.Width <= 0 || opt.Height <= 0 {
		return fmt.Sprintf("invalid resolution %dx%d", opt.Width, opt.Height), false
	}
	if opt.FPS <= 0 {
		return fmt.Sprintf("invalid frame rate %d", opt.FPS), false
	}
	if opt.FrameTimeout < 2*opt.FramePeriod() {
		return fmt.Sprintf("timeout %s is shorter than two frame periods at %d fps", opt.FrameTimeout, opt.FPS), false
	}
	if opt.OutputDir == "" {
		return "output folder cannot be empty", false
	}
	if opt.Format == "" {
		return "format should be one of ply, ply-binary, pcd", false
	}
	if opt.AlignPolicy == "" {
		return "align-policy should be one of double, post, pre", false
	}
	if opt.WarmupFrames < 0 {
		return "warmup cannot be negative", false
	}
	if f := opt.FilterOptions; f != nil {
		if f.DecimationMagnitude < filter.DecimationMinMagnitude || f.DecimationMagnitude > filter.DecimationMaxMagnitude {
			return fmt.Sprintf("decimation should be between %d and %d", filter.DecimationMinMagnitude, filter.DecimationMaxMagnitude), false
		}
		if f.SpatialMagnitude < 0 || f.SpatialMagnitude > filter.SpatialMaxMagnitude {
			return fmt.Sprintf("spatial-magnitude should be between 0 and %d", filter.SpatialMaxMagnitude), false
		}
		if f.SpatialAlpha < filter.SpatialMinAlpha || f.SpatialAlpha > filter.SpatialMaxAlpha {
			return fmt.Sprintf("spatial-alpha should be between %.2f and %.2f", filter.SpatialMinAlpha, filter.SpatialMaxAlpha), false
		}
		if f.SpatialDelta < filter.SpatialMinDelta || f.SpatialDelta > filter.SpatialMaxDelta {
			return fmt.Sprintf("spatial-delta should be between %.0f and %.0f", filter.SpatialMinDelta, filter.SpatialMaxDelta), false
		}
		if f.TemporalAlpha < 0 || f.TemporalAlpha > 1 {
			return "temporal-alpha should be between 0 and 1", false
		}
		if f.TemporalMaxAge < 0 || f.TemporalMaxAge > filter.TemporalMaxAgeLimit {
			return fmt.Sprintf("temporal-max-age should be between 0 and %d", filter.TemporalMaxAgeLimit), false
		}
		if f.HoleMode == "" {
			return "hole-mode should be one of left, top, nearest", false
		}
		if f.DecimationMagnitude > 1 && opt.AlignPolicy == AlignPolicyPost {
			return "decimation needs the raw filter pass, use align-policy double or pre", false
		}
	}
	return "", true
}

func (opt *Options) Copy() *Options {
	newOpt := *opt

	if opt.FilterOptions != nil {
		filterOpt := *opt.FilterOptions
		newOpt.FilterOptions = &filterOpt
	}

	if opt.DeviceOptions != nil {
		deviceOpt := *opt.DeviceOptions
		newOpt.DeviceOptions = &deviceOpt
	}

	if opt.VerifyOptions != nil {
		verifyOpt := *opt.VerifyOptions
		newOpt.VerifyOptions = &verifyOpt
	}

	return &newOpt
}

// Contains the options of the verify command
type VerifyOptions struct {
	Input            string // PLY file or folder
	FolderProcessing bool   // Verify every PLY file in the Input folder
	Recursive        bool   // Also look into subfolders
}
