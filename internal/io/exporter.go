package io

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/ecopia-map/rgbd_mapper/internal/data"
)

type Exporter interface {
	// Writes the valid points of the unit and returns the path of the written file
	Export(unit *ExportUnit) (string, error)
	Consume(workchan chan *ExportUnit, resultchan chan ExportResult, waitGroup *sync.WaitGroup)
}

// SelectValid keeps the points with positive depth together with their colors,
// preserving scan order.
func SelectValid(points []data.Vertex, colors []data.RGB) ([]data.Point, error) {
	if len(points) != len(colors) {
		return nil, errors.Errorf("got %d points and %d colors", len(points), len(colors))
	}
	valid := 0
	for _, p := range points {
		if p.IsValid() {
			valid++
		}
	}
	selected := make([]data.Point, 0, valid)
	for i, p := range points {
		if p.IsValid() {
			selected = append(selected, data.NewPoint(p, colors[i]))
		}
	}
	return selected, nil
}
