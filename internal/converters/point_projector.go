package converters

import (
	"github.com/ecopia-map/rgbd_mapper/internal/camera"
	"github.com/ecopia-map/rgbd_mapper/internal/data"
)

// PointProjector turns a depth map into one vertex per pixel, in scan order.
type PointProjector interface {
	Project(depth *data.DepthMap, intr camera.Intrinsics, depthScale float64) ([]data.Vertex, error)
}
