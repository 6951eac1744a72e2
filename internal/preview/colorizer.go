package preview

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ecopia-map/rgbd_mapper/internal/data"
)

const (
	DefaultAlpha = 0.03
	MinAlpha     = 0.005
	MaxAlpha     = 0.2
	AlphaStep    = 0.005
)

type Colormap int

const (
	Jet Colormap = iota
	Autumn
	Bone
	Ocean
	DeepGreen
	colormapCount
)

type stop struct {
	col colorful.Color
	pos float64
}

var colormapStops = map[Colormap][]stop{
	Jet: {
		{colorful.Color{R: 0, G: 0, B: 0.5}, 0},
		{colorful.Color{R: 0, G: 0, B: 1}, 0.125},
		{colorful.Color{R: 0, G: 1, B: 1}, 0.375},
		{colorful.Color{R: 1, G: 1, B: 0}, 0.625},
		{colorful.Color{R: 1, G: 0, B: 0}, 0.875},
		{colorful.Color{R: 0.5, G: 0, B: 0}, 1},
	},
	Autumn: {
		{colorful.Color{R: 1, G: 0, B: 0}, 0},
		{colorful.Color{R: 1, G: 1, B: 0}, 1},
	},
	Bone: {
		{colorful.Color{R: 0, G: 0, B: 0}, 0},
		{colorful.Color{R: 0.32, G: 0.32, B: 0.45}, 0.375},
		{colorful.Color{R: 0.65, G: 0.78, B: 0.78}, 0.75},
		{colorful.Color{R: 1, G: 1, B: 1}, 1},
	},
	Ocean: {
		{colorful.Color{R: 0, G: 0.5, B: 0}, 0},
		{colorful.Color{R: 0, G: 0, B: 0.33}, 0.33},
		{colorful.Color{R: 0, G: 0.5, B: 0.67}, 0.67},
		{colorful.Color{R: 1, G: 1, B: 1}, 1},
	},
	DeepGreen: {
		{colorful.Color{R: 0, G: 0, B: 0}, 0},
		{colorful.Color{R: 0, G: 0.3, B: 0.1}, 0.4},
		{colorful.Color{R: 0.3, G: 0.8, B: 0.3}, 0.8},
		{colorful.Color{R: 0.9, G: 1, B: 0.8}, 1},
	},
}

var colormapNames = map[Colormap]string{
	Jet:       "jet",
	Autumn:    "autumn",
	Bone:      "bone",
	Ocean:     "ocean",
	DeepGreen: "deepgreen",
}

var lookupTables = buildLookupTables()

func (c Colormap) String() string {
	return colormapNames[c]
}

// Next cycles through the available colormaps.
func (c Colormap) Next() Colormap {
	return (c + 1) % colormapCount
}

// Color of an 8 bit intensity
func (c Colormap) Color(v uint8) color.RGBA {
	return lookupTables[c%colormapCount][v]
}

func buildLookupTables() [colormapCount][256]color.RGBA {
	var luts [colormapCount][256]color.RGBA
	for m := Colormap(0); m < colormapCount; m++ {
		for i := 0; i < 256; i++ {
			r, g, b := interpolate(colormapStops[m], float64(i)/255).Clamped().RGB255()
			luts[m][i] = color.RGBA{R: r, G: g, B: b, A: 255}
		}
	}
	return luts
}

func interpolate(stops []stop, t float64) colorful.Color {
	for i := 0; i < len(stops)-1; i++ {
		a, b := stops[i], stops[i+1]
		if t >= a.pos && t <= b.pos {
			return a.col.BlendRgb(b.col, (t-a.pos)/(b.pos-a.pos))
		}
	}
	return stops[len(stops)-1].col
}

// Colorizer maps raw depth to false colors: depth*Alpha saturates at 255.
type Colorizer struct {
	Alpha float64
	Map   Colormap
}

func NewColorizer() *Colorizer {
	return &Colorizer{
		Alpha: DefaultAlpha,
		Map:   Jet,
	}
}

// Widen shows a deeper range with less contrast.
func (c *Colorizer) Widen() {
	c.Alpha = math.Max(MinAlpha, c.Alpha-AlphaStep)
}

// Narrow shows a shallower range with more contrast.
func (c *Colorizer) Narrow() {
	c.Alpha = math.Min(MaxAlpha, c.Alpha+AlphaStep)
}

// Depth at which the colormap saturates, for millimeter depth units
func (c *Colorizer) RangeMeters() float64 {
	return 255 / (c.Alpha * 1000)
}

func (c *Colorizer) Intensity(d uint16) uint8 {
	v := math.Round(float64(d) * c.Alpha)
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func (c *Colorizer) Colorize(depth *data.DepthMap) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, depth.Width, depth.Height))
	for i, d := range depth.Data {
		col := c.Map.Color(c.Intensity(d))
		o := i * 4
		out.Pix[o] = col.R
		out.Pix[o+1] = col.G
		out.Pix[o+2] = col.B
		out.Pix[o+3] = col.A
	}
	return out
}
