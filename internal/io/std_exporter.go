package io

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ecopia-map/rgbd_mapper/internal/data"
	"github.com/ecopia-map/rgbd_mapper/internal/mapper"
	"github.com/ecopia-map/rgbd_mapper/internal/ply"
	"github.com/ecopia-map/rgbd_mapper/tools"
)

const (
	CloudFilePrefix = "cloud_"
	cloudTimeLayout = "20060102_150405"
)

type StandardExporter struct {
	outputDir string
	format    mapper.ExportFormat
	clock     func() time.Time
}

// A nil clock uses time.Now.
func NewStandardExporter(outputDir string, format mapper.ExportFormat, clock func() time.Time) *StandardExporter {
	if clock == nil {
		clock = time.Now
	}
	if format == "" {
		format = mapper.ExportFormatPly
	}
	return &StandardExporter{
		outputDir: outputDir,
		format:    format,
		clock:     clock,
	}
}

// Continually consumes ExportUnits submitted to a work channel, reporting the outcome of each one
// on the result channel, until the work channel is closed
func (e *StandardExporter) Consume(workchan chan *ExportUnit, resultchan chan ExportResult, waitGroup *sync.WaitGroup) {
	defer waitGroup.Done()
	for work := range workchan {
		path, err := e.Export(work)
		resultchan <- ExportResult{
			Path:   path,
			Points: countValid(work.Points),
			Err:    err,
		}
	}
}

// Export writes the valid points of the unit. Failures are logged and returned,
// a partially written file is removed.
func (e *StandardExporter) Export(unit *ExportUnit) (string, error) {
	points, err := SelectValid(unit.Points, unit.Colors)
	if err != nil {
		glog.Errorf("cannot export cloud: %v", err)
		return "", err
	}

	dir := e.outputDir
	if unit.Destination != "" {
		dir = filepath.Dir(unit.Destination)
	}
	if err := tools.CreateDirectoryIfDoesNotExist(dir); err != nil {
		err = errors.Wrapf(err, "cannot create output folder %s", dir)
		glog.Errorf("cannot export cloud: %v", err)
		return "", err
	}

	filePath := unit.Destination
	if filePath == "" {
		if filePath, err = e.reserveFileName(); err != nil {
			glog.Errorf("cannot export cloud: %v", err)
			return "", err
		}
	}

	if err := e.write(filePath, points); err != nil {
		_ = os.Remove(filePath)
		err = errors.Wrapf(err, "cannot write %s", filePath)
		glog.Errorf("cannot export cloud: %v", err)
		return "", err
	}

	glog.Infof("exported %d points to %s (%s)", len(points), filePath, e.format)
	return filePath, nil
}

func (e *StandardExporter) write(filePath string, points []data.Point) error {
	switch e.format {
	case mapper.ExportFormatPcd:
		return writePcdFile(filePath, points)
	case mapper.ExportFormatPlyBinary:
		return ply.WriteBinaryFile(filePath, toPlyVertices(points))
	default:
		return ply.WriteASCIIFile(filePath, toPlyVertices(points))
	}
}

// Creates an empty timestamped file in the output folder and returns its path.
// Saves within the same second get a numeric suffix.
func (e *StandardExporter) reserveFileName() (string, error) {
	base := CloudFilePrefix + e.clock().Format(cloudTimeLayout)
	ext := e.format.Extension()
	candidate := filepath.Join(e.outputDir, base+ext)
	for i := 1; ; i++ {
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return candidate, f.Close()
		}
		if !os.IsExist(err) {
			return "", errors.Wrapf(err, "cannot create %s", candidate)
		}
		candidate = filepath.Join(e.outputDir, base+"_"+strconv.Itoa(i)+ext)
	}
}

func toPlyVertices(points []data.Point) []ply.Vertex {
	verts := make([]ply.Vertex, len(points))
	for i, p := range points {
		verts[i] = ply.Vertex{
			X: p.X,
			Y: p.Y,
			Z: p.Z,
			R: p.R,
			G: p.G,
			B: p.B,
		}
	}
	return verts
}

func countValid(points []data.Vertex) int {
	n := 0
	for _, p := range points {
		if p.IsValid() {
			n++
		}
	}
	return n
}
