package io

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/rgbd_mapper/internal/camera"
	"github.com/ecopia-map/rgbd_mapper/internal/converters/pinhole_projector"
	"github.com/ecopia-map/rgbd_mapper/internal/data"
	"github.com/ecopia-map/rgbd_mapper/internal/mapper"
	"github.com/ecopia-map/rgbd_mapper/internal/ply"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
}

func lineUnit(t *testing.T) *ExportUnit {
	depth := data.NewDepthMapFromData(4, 1, []uint16{0, 500, 500, 0})
	intr := camera.Intrinsics{Width: 4, Height: 1, Fx: 1, Fy: 1}
	points, err := pinhole_projector.NewPinholeProjector().Project(depth, intr, 0.001)
	require.NoError(t, err)
	colors := []data.RGB{{R: 1}, {R: 10, G: 20, B: 30}, {R: 40, G: 50, B: 60}, {B: 1}}
	return &ExportUnit{Points: points, Colors: colors}
}

func TestSelectValidKeepsOrder(t *testing.T) {
	points := []data.Vertex{{Z: 1}, {}, {X: 2, Z: 3}, {Z: -1}}
	colors := []data.RGB{{R: 1}, {R: 2}, {R: 3}, {R: 4}}
	selected, err := SelectValid(points, colors)
	require.NoError(t, err)
	assert.Equal(t, []data.Point{{Z: 1, R: 1}, {X: 2, Z: 3, R: 3}}, selected)

	_, err = SelectValid(points, colors[:2])
	assert.Error(t, err)
}

func TestExportLineScenario(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	e := NewStandardExporter(dir, mapper.ExportFormatPly, fixedClock)

	path, err := e.Export(lineUnit(t))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cloud_20240309_140507.ply"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "element vertex 2\n")
	body := strings.SplitN(text, "end_header\n", 2)[1]
	assert.Equal(t, "0.5000 0.0000 0.5000 10 20 30\n1.0000 0.0000 0.5000 40 50 60\n", body)
}

func TestExportNamesDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	e := NewStandardExporter(dir, mapper.ExportFormatPly, fixedClock)
	first, err := e.Export(lineUnit(t))
	require.NoError(t, err)
	second, err := e.Export(lineUnit(t))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, filepath.Join(dir, "cloud_20240309_140507_1.ply"), second)
}

func TestConcurrentExportsGetDistinctNames(t *testing.T) {
	dir := t.TempDir()
	e := NewStandardExporter(dir, mapper.ExportFormatPly, fixedClock)

	const n = 8
	units := make([]*ExportUnit, n)
	for i := range units {
		units[i] = lineUnit(t)
	}
	paths := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = e.Export(units[i])
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[paths[i]], "duplicate %s", paths[i])
		seen[paths[i]] = true
	}
	files, err := filepath.Glob(filepath.Join(dir, "cloud_*.ply"))
	require.NoError(t, err)
	assert.Len(t, files, n)
}

func TestExportExplicitDestination(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "a", "b", "scan.ply")
	path, err := NewStandardExporter("unused", mapper.ExportFormatPly, fixedClock).Export(&ExportUnit{
		Points:      lineUnit(t).Points,
		Colors:      lineUnit(t).Colors,
		Destination: dest,
	})
	require.NoError(t, err)
	assert.Equal(t, dest, path)

	file, err := ply.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, file.VertexCount, file.DataRows)
	for _, v := range file.Vertices {
		assert.Greater(t, v.Z, float32(0))
	}
}

func TestExportFailureIsReported(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	e := NewStandardExporter(filepath.Join(blocker, "exports"), mapper.ExportFormatPly, fixedClock)
	path, err := e.Export(lineUnit(t))
	assert.Error(t, err)
	assert.Empty(t, path)
}

func TestExportPcd(t *testing.T) {
	e := NewStandardExporter(t.TempDir(), mapper.ExportFormatPcd, fixedClock)
	path, err := e.Export(lineUnit(t))
	require.NoError(t, err)
	assert.Equal(t, ".pcd", filepath.Ext(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "POINTS 2\n")
	assert.Contains(t, text, "DATA ascii\n0.500000 0.000000 0.500000 660510\n")
}

func TestConsumeReportsResults(t *testing.T) {
	e := NewStandardExporter(t.TempDir(), mapper.ExportFormatPly, fixedClock)
	work := make(chan *ExportUnit, 2)
	results := make(chan ExportResult, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go e.Consume(work, results, &wg)

	work <- lineUnit(t)
	work <- &ExportUnit{Points: []data.Vertex{{Z: 1}}}
	close(work)
	wg.Wait()
	close(results)

	var got []ExportResult
	for r := range results {
		got = append(got, r)
	}
	require.Len(t, got, 2)
	assert.NoError(t, got[0].Err)
	assert.Equal(t, 2, got[0].Points)
	assert.Error(t, got[1].Err)
}
