package pinhole_projector

import (
	"github.com/pkg/errors"

	"github.com/ecopia-map/rgbd_mapper/internal/camera"
	"github.com/ecopia-map/rgbd_mapper/internal/converters"
	"github.com/ecopia-map/rgbd_mapper/internal/data"
)

// PinholeProjector back-projects pixels with the plain pinhole model, ignoring
// lens distortion. Pixels without depth become (0,0,0).
type PinholeProjector struct{}

func NewPinholeProjector() converters.PointProjector {
	return &PinholeProjector{}
}

func (p *PinholeProjector) Project(depth *data.DepthMap, intr camera.Intrinsics, depthScale float64) ([]data.Vertex, error) {
	if depth == nil {
		return nil, errors.New("nil depth map")
	}
	if intr.Fx <= 0 || intr.Fy <= 0 {
		return nil, errors.Wrapf(camera.ErrNoIntrinsics, "invalid focal length (%v, %v)", intr.Fx, intr.Fy)
	}
	if depth.Width != intr.Width || depth.Height != intr.Height {
		return nil, errors.Errorf("depth map dimension and intrinsics don't match Depth(%d,%d) != Intrinsics(%d,%d)",
			depth.Width, depth.Height, intr.Width, intr.Height)
	}

	vertices := make([]data.Vertex, len(depth.Data))
	for v := 0; v < depth.Height; v++ {
		for u := 0; u < depth.Width; u++ {
			i := v*depth.Width + u
			d := depth.Data[i]
			if d == 0 {
				continue
			}
			z := float64(d) * depthScale
			vertices[i] = data.Vertex{
				X: float32((float64(u) - intr.Ppx) * z / intr.Fx),
				Y: float32((float64(v) - intr.Ppy) * z / intr.Fy),
				Z: float32(z),
			}
		}
	}
	return vertices, nil
}
