package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepthMapFromDataRejectsWrongSize(t *testing.T) {
	assert.Nil(t, NewDepthMapFromData(2, 2, []uint16{1, 2, 3}))
	d := NewDepthMapFromData(2, 2, []uint16{1, 0, 3, 4})
	require.NotNil(t, d)
	assert.Equal(t, uint16(3), d.At(0, 1))
	assert.Equal(t, 3, d.Valid())
}

func TestDepthMapCloneIsIndependent(t *testing.T) {
	d := NewDepthMapFromData(2, 1, []uint16{7, 8})
	c := d.Clone()
	c.Set(0, 0, 1)
	assert.Equal(t, uint16(7), d.At(0, 0))
	assert.Equal(t, d.Width, c.Width)
	assert.Equal(t, d.Height, c.Height)
}

func TestDepthMapMinMax(t *testing.T) {
	d := NewDepthMapFromData(4, 1, []uint16{0, 500, 200, 0})
	min, max, ok := d.MinMax()
	require.True(t, ok)
	assert.Equal(t, uint16(200), min)
	assert.Equal(t, uint16(500), max)

	_, _, ok = NewDepthMap(3, 3).MinMax()
	assert.False(t, ok)
}

func TestColorImageScanOrder(t *testing.T) {
	c := NewColorImage(2, 2)
	c.Set(1, 1, RGB{R: 1, G: 2, B: 3})
	colors := c.Colors()
	require.Len(t, colors, 4)
	assert.Equal(t, RGB{R: 1, G: 2, B: 3}, colors[3])
	assert.Equal(t, uint8(255), c.ToRGBA().RGBAAt(1, 1).A)
}

func TestFrameCompleteness(t *testing.T) {
	var f *Frame
	assert.False(t, f.IsComplete())
	f = &Frame{Depth: NewDepthMap(1, 1)}
	assert.False(t, f.IsComplete())
	f.Color = NewColorImage(1, 1)
	assert.True(t, f.IsComplete())
}
