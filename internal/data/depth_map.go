package data

// DepthMap is a row-major matrix of raw depth units. Zero means no reading.
type DepthMap struct {
	Width  int
	Height int
	Data   []uint16
}

func NewDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		Width:  width,
		Height: height,
		Data:   make([]uint16, width*height),
	}
}

// Builds a DepthMap over an existing buffer. Returns nil if the buffer size does not match.
func NewDepthMapFromData(width, height int, values []uint16) *DepthMap {
	if width < 0 || height < 0 || len(values) != width*height {
		return nil
	}
	return &DepthMap{Width: width, Height: height, Data: values}
}

func (d *DepthMap) At(x, y int) uint16 {
	return d.Data[y*d.Width+x]
}

func (d *DepthMap) Set(x, y int, value uint16) {
	d.Data[y*d.Width+x] = value
}

func (d *DepthMap) Clone() *DepthMap {
	values := make([]uint16, len(d.Data))
	copy(values, d.Data)
	return &DepthMap{Width: d.Width, Height: d.Height, Data: values}
}

// Number of pixels holding a reading
func (d *DepthMap) Valid() int {
	n := 0
	for _, v := range d.Data {
		if v != 0 {
			n++
		}
	}
	return n
}

// Minimum and maximum valid depth. ok is false when the map holds no reading.
func (d *DepthMap) MinMax() (min, max uint16, ok bool) {
	for _, v := range d.Data {
		if v == 0 {
			continue
		}
		if !ok {
			min, max, ok = v, v, true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return
}
