package io

import "github.com/ecopia-map/rgbd_mapper/internal/data"

// Contains the data needed to write one point cloud file. Points and Colors are
// per pixel and parallel; Destination may be empty to let the exporter pick a
// timestamped name in its output folder.
type ExportUnit struct {
	Points      []data.Vertex
	Colors      []data.RGB
	Destination string
}

// Outcome of an ExportUnit processed by a consumer
type ExportResult struct {
	Path   string
	Points int
	Err    error
}
