package filter

import (
	"math"

	"github.com/ecopia-map/rgbd_mapper/internal/data"
)

const (
	DefaultTemporalAlpha = 0.4
	DefaultTemporalDelta = 20.0

	// frames a pixel keeps its last valid value after the reading disappears
	DefaultTemporalMaxAge = 4
	TemporalMaxAgeLimit   = math.MaxUint8
)

// Temporal blends each pixel with its own history and bridges short dropouts.
// The history is sized on the first frame and cleared when the resolution changes.
type Temporal struct {
	alpha  float32
	delta  float32
	maxAge uint8

	width  int
	height int
	last   []float32
	age    []uint8
}

func NewTemporal(alpha, delta float64, maxAge int) *Temporal {
	return &Temporal{
		alpha:  float32(clampFloat(alpha, 0, 1)),
		delta:  float32(math.Max(0, delta)),
		maxAge: uint8(clampInt(maxAge, 0, TemporalMaxAgeLimit)),
	}
}

func (f *Temporal) Name() string {
	return "temporal"
}

func (f *Temporal) Reset() {
	f.width, f.height = 0, 0
	f.last = nil
	f.age = nil
}

// Whether the filter carries history from previous frames
func (f *Temporal) HasHistory() bool {
	return f.last != nil
}

func (f *Temporal) Process(in *data.DepthMap) *data.DepthMap {
	if f.last == nil || f.width != in.Width || f.height != in.Height {
		f.width, f.height = in.Width, in.Height
		f.last = make([]float32, len(in.Data))
		f.age = make([]uint8, len(in.Data))
	}

	out := data.NewDepthMap(in.Width, in.Height)
	for i, raw := range in.Data {
		cur := float32(raw)
		prev := f.last[i]
		if raw != 0 {
			if prev > 0 && absFloat32(cur-prev) < f.delta {
				cur = f.alpha*cur + (1-f.alpha)*prev
			}
			f.last[i] = cur
			f.age[i] = 0
			out.Data[i] = toDepth(cur)
			continue
		}
		if prev > 0 && f.age[i] < f.maxAge {
			f.age[i]++
			out.Data[i] = toDepth(prev)
			continue
		}
		f.last[i] = 0
	}
	return out
}
