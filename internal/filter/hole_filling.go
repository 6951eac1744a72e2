package filter

import (
	"strings"

	"github.com/ecopia-map/rgbd_mapper/internal/data"
)

type HoleFillMode string

const (
	// copy the nearest valid pixel on the left
	FillFromLeft HoleFillMode = "LEFT"
	// copy the nearest valid pixel above
	FillFromTop HoleFillMode = "TOP"
	// the smaller (closer) of the left and top neighbours
	NearestOfTwo HoleFillMode = "NEAREST"
)

const DefaultHoleMaxGap = 2

func (m HoleFillMode) String() string {
	return strings.ToLower(string(m))
}

func ParseHoleFillMode(value string) HoleFillMode {
	switch strings.Trim(strings.ToUpper(value), " ") {
	case "LEFT":
		return FillFromLeft
	case "TOP":
		return FillFromTop
	case "NEAREST":
		return NearestOfTwo
	}
	return ""
}

// HoleFilling replaces invalid pixels with a neighbour value. The scan is row
// major and reads already filled neighbours. In conservative mode only pixels
// whose hole spans at most maxGap pixels both horizontally and vertically are filled.
type HoleFilling struct {
	mode         HoleFillMode
	conservative bool
	maxGap       int
	fillable     []bool
}

func NewHoleFilling(mode HoleFillMode, conservative bool, maxGap int) *HoleFilling {
	if mode == "" {
		mode = NearestOfTwo
	}
	if maxGap < 1 {
		maxGap = 1
	}
	return &HoleFilling{
		mode:         mode,
		conservative: conservative,
		maxGap:       maxGap,
	}
}

func (f *HoleFilling) Name() string {
	return "hole-filling(" + f.mode.String() + ")"
}

func (f *HoleFilling) Reset() {}

func (f *HoleFilling) Process(in *data.DepthMap) *data.DepthMap {
	out := in.Clone()
	if f.conservative {
		f.markSmallGaps(in)
	}
	w := out.Width
	for y := 0; y < out.Height; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if out.Data[i] != 0 || (f.conservative && !f.fillable[i]) {
				continue
			}
			var left, top uint16
			if x > 0 {
				left = out.Data[i-1]
			}
			if y > 0 {
				top = out.Data[i-w]
			}
			out.Data[i] = f.pick(left, top)
		}
	}
	return out
}

func (f *HoleFilling) pick(left, top uint16) uint16 {
	switch f.mode {
	case FillFromLeft:
		return left
	case FillFromTop:
		return top
	}
	if left == 0 {
		return top
	}
	if top == 0 || left < top {
		return left
	}
	return top
}

// markSmallGaps flags the invalid pixels whose horizontal and vertical zero runs
// are both within maxGap.
func (f *HoleFilling) markSmallGaps(in *data.DepthMap) {
	n := len(in.Data)
	if cap(f.fillable) < n {
		f.fillable = make([]bool, n)
	}
	f.fillable = f.fillable[:n]
	for i := range f.fillable {
		f.fillable[i] = false
	}

	w, h := in.Width, in.Height
	for y := 0; y < h; y++ {
		f.scanRuns(in.Data, y*w, 1, w, func(idx int) { f.fillable[idx] = true })
	}
	for x := 0; x < w; x++ {
		f.scanRuns(in.Data, x, w, h, nil)
	}
}

// scanRuns visits the zero runs of a line. With a mark callback it flags short
// runs; without one it clears the flag of every pixel in a long run.
func (f *HoleFilling) scanRuns(values []uint16, start, stride, n int, mark func(int)) {
	for i := 0; i < n; {
		if values[start+i*stride] != 0 {
			i++
			continue
		}
		j := i
		for j < n && values[start+j*stride] == 0 {
			j++
		}
		short := j-i <= f.maxGap
		for k := i; k < j; k++ {
			idx := start + k*stride
			if mark != nil {
				if short {
					mark(idx)
				}
			} else if !short {
				f.fillable[idx] = false
			}
		}
		i = j
	}
}
