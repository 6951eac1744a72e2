package filter

import (
	"sort"

	"github.com/ecopia-map/rgbd_mapper/internal/data"
)

const (
	DecimationMinMagnitude = 1
	DecimationMaxMagnitude = 8

	// kernels up to this size use the median, larger ones the mean
	decimationMedianLimit = 3
)

// Decimation downsamples the map by an integer factor, ignoring invalid samples.
type Decimation struct {
	magnitude int
	block     []uint16
}

func NewDecimation(magnitude int) *Decimation {
	if magnitude < DecimationMinMagnitude {
		magnitude = DecimationMinMagnitude
	}
	if magnitude > DecimationMaxMagnitude {
		magnitude = DecimationMaxMagnitude
	}
	return &Decimation{
		magnitude: magnitude,
		block:     make([]uint16, 0, magnitude*magnitude),
	}
}

func (f *Decimation) Name() string {
	return "decimation"
}

func (f *Decimation) Scale() float64 {
	return 1 / float64(f.magnitude)
}

func (f *Decimation) Reset() {}

func (f *Decimation) Process(in *data.DepthMap) *data.DepthMap {
	m := f.magnitude
	if m == 1 {
		return in
	}
	out := data.NewDepthMap(in.Width/m, in.Height/m)
	for oy := 0; oy < out.Height; oy++ {
		for ox := 0; ox < out.Width; ox++ {
			f.block = f.block[:0]
			for y := oy * m; y < (oy+1)*m; y++ {
				row := in.Data[y*in.Width : (y+1)*in.Width]
				for x := ox * m; x < (ox+1)*m; x++ {
					if row[x] != 0 {
						f.block = append(f.block, row[x])
					}
				}
			}
			out.Set(ox, oy, f.reduce())
		}
	}
	return out
}

func (f *Decimation) reduce() uint16 {
	n := len(f.block)
	if n == 0 {
		return 0
	}
	if f.magnitude <= decimationMedianLimit {
		sort.Slice(f.block, func(i, j int) bool { return f.block[i] < f.block[j] })
		return f.block[n/2]
	}
	sum := 0
	for _, v := range f.block {
		sum += int(v)
	}
	return uint16((sum + n/2) / n)
}
