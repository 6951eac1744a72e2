package std_algorithm_manager

import (
	"time"

	"github.com/ecopia-map/rgbd_mapper/internal/converters"
	"github.com/ecopia-map/rgbd_mapper/internal/converters/pinhole_projector"
	"github.com/ecopia-map/rgbd_mapper/internal/filter"
	"github.com/ecopia-map/rgbd_mapper/internal/io"
	"github.com/ecopia-map/rgbd_mapper/internal/mapper"
	"github.com/ecopia-map/rgbd_mapper/pkg/algorithm_manager"
)

type StandardAlgorithmManager struct {
	options      *mapper.Options
	rawChain     *filter.Chain
	alignedChain *filter.Chain
	projector    converters.PointProjector
	exporter     io.Exporter
}

func NewAlgorithmManager(opts *mapper.Options) algorithm_manager.AlgorithmManager {
	filterOpts := opts.FilterOptions
	if filterOpts == nil {
		filterOpts = mapper.NewDefaultFilterOptions()
	}

	rawChain := filter.NewChain()
	if opts.AlignPolicy.FiltersBeforeAlign() {
		rawChain = filter.NewChain(append([]filter.Filter{filter.NewDecimation(filterOpts.DecimationMagnitude)}, evaluateFilters(filterOpts)...)...)
	}
	alignedChain := filter.NewChain()
	if opts.AlignPolicy.FiltersAfterAlign() {
		alignedChain = filter.NewChain(evaluateFilters(filterOpts)...)
	}
	rawChain.SetEnabled(opts.FiltersEnabled)
	alignedChain.SetEnabled(opts.FiltersEnabled)

	return &StandardAlgorithmManager{
		options:      opts,
		rawChain:     rawChain,
		alignedChain: alignedChain,
		projector:    pinhole_projector.NewPinholeProjector(),
		exporter:     io.NewStandardExporter(opts.OutputDir, opts.Format, time.Now),
	}
}

func (m *StandardAlgorithmManager) GetRawFilterChain() *filter.Chain {
	return m.rawChain
}

func (m *StandardAlgorithmManager) GetAlignedFilterChain() *filter.Chain {
	return m.alignedChain
}

func (m *StandardAlgorithmManager) GetPointProjectorAlgorithm() converters.PointProjector {
	return m.projector
}

func (m *StandardAlgorithmManager) GetExporter() io.Exporter {
	return m.exporter
}

// spatial -> temporal -> hole filling, with a fresh state for every call
func evaluateFilters(opts *mapper.FilterOptions) []filter.Filter {
	return []filter.Filter{
		filter.NewSpatial(opts.SpatialMagnitude, opts.SpatialAlpha, opts.SpatialDelta),
		filter.NewTemporal(opts.TemporalAlpha, opts.TemporalDelta, opts.TemporalMaxAge),
		filter.NewHoleFilling(opts.HoleMode, opts.HoleConservative, opts.HoleMaxGap),
	}
}
