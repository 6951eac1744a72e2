package data

import "time"

// Frame is what the device hands out for one capture cycle. Depth or Color
// is nil when the device delivered an incomplete frameset.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Depth     *DepthMap
	Color     *ColorImage
}

func (f *Frame) IsComplete() bool {
	return f != nil && f.Depth != nil && f.Color != nil
}

// AlignedFrame holds depth expressed on the color grid: both share width and height.
type AlignedFrame struct {
	Seq       uint64
	Timestamp time.Time
	Depth     *DepthMap
	Color     *ColorImage
}
