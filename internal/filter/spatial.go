package filter

import (
	"math"

	"github.com/ecopia-map/rgbd_mapper/internal/data"
)

const (
	SpatialMaxMagnitude = 5
	SpatialMinAlpha     = 0.25
	SpatialMaxAlpha     = 1.0
	SpatialMinDelta     = 1.0
	SpatialMaxDelta     = 50.0

	DefaultSpatialMagnitude = 2
	DefaultSpatialAlpha     = 0.5
	DefaultSpatialDelta     = 20.0
)

// Spatial is an edge preserving recursive smoother. Neighbours further apart
// than delta depth units are treated as an edge and not blended.
type Spatial struct {
	magnitude int
	alpha     float32
	delta     float32
	buf       []float32
}

// Magnitude 0 disables the filter. Alpha and delta are clamped to their valid range.
func NewSpatial(magnitude int, alpha, delta float64) *Spatial {
	return &Spatial{
		magnitude: clampInt(magnitude, 0, SpatialMaxMagnitude),
		alpha:     float32(clampFloat(alpha, SpatialMinAlpha, SpatialMaxAlpha)),
		delta:     float32(clampFloat(delta, SpatialMinDelta, SpatialMaxDelta)),
	}
}

func (f *Spatial) Name() string {
	return "spatial"
}

func (f *Spatial) Reset() {}

func (f *Spatial) Process(in *data.DepthMap) *data.DepthMap {
	if f.magnitude == 0 || len(in.Data) == 0 {
		return in
	}
	w, h := in.Width, in.Height
	if cap(f.buf) < len(in.Data) {
		f.buf = make([]float32, len(in.Data))
	}
	f.buf = f.buf[:len(in.Data)]
	for i, v := range in.Data {
		f.buf[i] = float32(v)
	}

	for it := 0; it < f.magnitude; it++ {
		for y := 0; y < h; y++ {
			f.smooth(y*w, 1, w)
		}
		for x := 0; x < w; x++ {
			f.smooth(x, w, h)
		}
	}

	out := data.NewDepthMap(w, h)
	for i, v := range f.buf {
		out.Data[i] = toDepth(v)
	}
	return out
}

// smooth runs the recursive filter forward then backward over n samples.
func (f *Spatial) smooth(start, stride, n int) {
	if n < 2 {
		return
	}
	prev := f.buf[start]
	for i := 1; i < n; i++ {
		prev = f.blend(start+i*stride, prev)
	}
	prev = f.buf[start+(n-1)*stride]
	for i := n - 2; i >= 0; i-- {
		prev = f.blend(start+i*stride, prev)
	}
}

func (f *Spatial) blend(idx int, prev float32) float32 {
	cur := f.buf[idx]
	if cur > 0 && prev > 0 && absFloat32(cur-prev) < f.delta {
		cur = f.alpha*cur + (1-f.alpha)*prev
		f.buf[idx] = cur
	}
	return cur
}

func toDepth(v float32) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v + 0.5)
}

func absFloat32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
