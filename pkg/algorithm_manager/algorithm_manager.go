package algorithm_manager

import (
	"github.com/ecopia-map/rgbd_mapper/internal/converters"
	"github.com/ecopia-map/rgbd_mapper/internal/filter"
	"github.com/ecopia-map/rgbd_mapper/internal/io"
)

// AlgorithmManager hands out the processing stages of a capture session. The
// chains are created once per manager and carry state, so a manager serves one session.
type AlgorithmManager interface {
	// Filters applied to the raw depth before alignment
	GetRawFilterChain() *filter.Chain
	// Filters applied to the depth once it lies on the color grid
	GetAlignedFilterChain() *filter.Chain
	GetPointProjectorAlgorithm() converters.PointProjector
	GetExporter() io.Exporter
}
