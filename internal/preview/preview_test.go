package preview

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecopia-map/rgbd_mapper/internal/data"
)

func TestIntensitySaturates(t *testing.T) {
	c := NewColorizer()
	assert.Equal(t, uint8(0), c.Intensity(0))
	assert.Equal(t, uint8(30), c.Intensity(1000))
	assert.Equal(t, uint8(255), c.Intensity(9000))
	assert.InDelta(t, 8.5, c.RangeMeters(), 1e-9)
}

func TestRangeAdjustmentIsBounded(t *testing.T) {
	c := NewColorizer()
	c.Widen()
	assert.InDelta(t, 0.025, c.Alpha, 1e-12)
	for i := 0; i < 20; i++ {
		c.Widen()
	}
	assert.Equal(t, MinAlpha, c.Alpha)
	for i := 0; i < 100; i++ {
		c.Narrow()
	}
	assert.Equal(t, MaxAlpha, c.Alpha)
}

func TestColormapEnds(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0, G: 0, B: 128, A: 255}, Jet.Color(0))
	assert.Equal(t, color.RGBA{R: 128, G: 0, B: 0, A: 255}, Jet.Color(255))
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 0, A: 255}, Autumn.Color(0))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, Bone.Color(255))
}

func TestColormapCycle(t *testing.T) {
	seen := map[string]bool{}
	m := Jet
	for i := 0; i < 5; i++ {
		seen[m.String()] = true
		m = m.Next()
	}
	assert.Equal(t, Jet, m)
	assert.Len(t, seen, 5)
}

func TestColorizeKeepsSize(t *testing.T) {
	depth := data.NewDepthMapFromData(3, 2, []uint16{0, 1000, 2000, 3000, 4000, 9000})
	img := NewColorizer().Colorize(depth)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, Jet.Color(255), img.RGBAAt(2, 1))
}

func TestRenderCellCount(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	out := Render(img, 10, 4)
	assert.Equal(t, 4, len(strings.Split(out, "\n")))
	assert.Equal(t, 40, strings.Count(out, halfBlock))
	assert.Empty(t, Render(img, 0, 4))
}

func TestSideBySide(t *testing.T) {
	left := image.NewRGBA(image.Rect(0, 0, 4, 3))
	right := image.NewRGBA(image.Rect(0, 0, 2, 5))
	right.Set(1, 4, color.RGBA{R: 9, A: 255})
	out := SideBySide(left, right)
	assert.Equal(t, image.Rect(0, 0, 6, 5), out.Bounds())
	assert.Equal(t, uint8(9), out.RGBAAt(5, 4).R)
}
