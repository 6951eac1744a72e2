package filter

import "github.com/ecopia-map/rgbd_mapper/internal/data"

// Filter transforms one depth map into another. Implementations may keep
// state across calls (see Temporal) which Reset discards. Process never
// modifies its input.
type Filter interface {
	Name() string
	Process(in *data.DepthMap) *data.DepthMap
	Reset()
}

// Resampler is implemented by filters that change the resolution of the map.
type Resampler interface {
	// Factor applied to width and height, 1 when the filter keeps the resolution
	Scale() float64
}
