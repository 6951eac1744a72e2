package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsAreValid(t *testing.T) {
	opts := NewDefaultOptions()
	msg, ok := opts.Validate()
	require.True(t, ok, msg)
	assert.Equal(t, 640, opts.Width)
	assert.Equal(t, 2*time.Second, opts.FrameTimeout)
	assert.Equal(t, AlignPolicyDouble, opts.AlignPolicy)
	assert.Equal(t, 1, opts.FilterOptions.DecimationMagnitude)
}

func TestValidateTimeoutAgainstFrameRate(t *testing.T) {
	opts := NewDefaultOptions()
	opts.FPS = 6
	opts.FrameTimeout = 300 * time.Millisecond
	_, ok := opts.Validate()
	assert.False(t, ok)

	opts.FrameTimeout = 334 * time.Millisecond
	_, ok = opts.Validate()
	assert.True(t, ok)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(o *Options){
		"resolution": func(o *Options) { o.Width = 0 },
		"fps":        func(o *Options) { o.FPS = 0 },
		"format":     func(o *Options) { o.Format = ParseExportFormat("obj") },
		"policy":     func(o *Options) { o.AlignPolicy = ParseAlignPolicy("twice") },
		"decimation": func(o *Options) { o.FilterOptions.DecimationMagnitude = 9 },
		"alpha":      func(o *Options) { o.FilterOptions.SpatialAlpha = 0.1 },
		"post+decimation": func(o *Options) {
			o.AlignPolicy = AlignPolicyPost
			o.FilterOptions.DecimationMagnitude = 2
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			opts := NewDefaultOptions()
			mutate(opts)
			msg, ok := opts.Validate()
			assert.False(t, ok)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestParsers(t *testing.T) {
	assert.Equal(t, AlignPolicyPost, ParseAlignPolicy(" post "))
	assert.Equal(t, ExportFormatPlyBinary, ParseExportFormat("ply-binary"))
	assert.Equal(t, ExportFormatPly, ParseExportFormat("PLY-ASCII"))
	assert.Equal(t, ".pcd", ExportFormatPcd.Extension())
	assert.Equal(t, "double", AlignPolicyDouble.String())

	assert.True(t, AlignPolicyDouble.FiltersBeforeAlign())
	assert.True(t, AlignPolicyDouble.FiltersAfterAlign())
	assert.False(t, AlignPolicyPost.FiltersBeforeAlign())
	assert.False(t, AlignPolicyPre.FiltersAfterAlign())
}

func TestCopyIsDeep(t *testing.T) {
	opts := NewDefaultOptions()
	c := opts.Copy()
	c.FilterOptions.SpatialMagnitude = 5
	c.DeviceOptions.Seed = 42
	assert.Equal(t, 2, opts.FilterOptions.SpatialMagnitude)
	assert.Equal(t, int64(1), opts.DeviceOptions.Seed)
}
