package pinhole_projector

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/rgbd_mapper/internal/camera"
	"github.com/ecopia-map/rgbd_mapper/internal/data"
)

func TestProjectLine(t *testing.T) {
	depth := data.NewDepthMapFromData(4, 1, []uint16{0, 500, 500, 0})
	intr := camera.Intrinsics{Width: 4, Height: 1, Fx: 1, Fy: 1, Ppx: 0, Ppy: 0}

	vertices, err := NewPinholeProjector().Project(depth, intr, 0.001)
	require.NoError(t, err)

	want := []data.Vertex{
		{},
		{X: 0.5, Y: 0, Z: 0.5},
		{X: 1.0, Y: 0, Z: 0.5},
		{},
	}
	if diff := cmp.Diff(want, vertices); diff != "" {
		t.Errorf("projection mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectOneVertexPerPixel(t *testing.T) {
	intr := camera.NewIntrinsicsFromFOV(16, 9, 87)
	depth := data.NewDepthMap(16, 9)
	depth.Set(3, 4, 1200)

	vertices, err := NewPinholeProjector().Project(depth, intr, 0.001)
	require.NoError(t, err)
	require.Len(t, vertices, 16*9)

	valid := 0
	for _, v := range vertices {
		if v.IsValid() {
			valid++
		}
	}
	assert.Equal(t, 1, valid)

	v := vertices[4*16+3]
	assert.InDelta(t, 1.2, v.Z, 1e-6)
	assert.InDelta(t, (3-intr.Ppx)*1.2/intr.Fx, v.X, 1e-6)
	assert.InDelta(t, (4-intr.Ppy)*1.2/intr.Fy, v.Y, 1e-6)
}

func TestProjectRejectsBadInput(t *testing.T) {
	p := NewPinholeProjector()
	intr := camera.Intrinsics{Width: 2, Height: 1, Fx: 1, Fy: 1}

	_, err := p.Project(nil, intr, 0.001)
	assert.Error(t, err)

	_, err = p.Project(data.NewDepthMap(3, 1), intr, 0.001)
	assert.Error(t, err)

	intr.Fx = 0
	_, err = p.Project(data.NewDepthMap(2, 1), intr, 0.001)
	assert.ErrorIs(t, err, camera.ErrNoIntrinsics)
}
