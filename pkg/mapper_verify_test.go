package pkg

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/rgbd_mapper/internal/mapper"
	"github.com/ecopia-map/rgbd_mapper/internal/ply"
	"github.com/ecopia-map/rgbd_mapper/tools"
)

const validCloud = `ply
format ascii 1.0
element vertex 2
property float x
property float y
property float z
property uchar red
property uchar green
property uchar blue
end_header
-0.5000 0.2500 1.0000 10 20 30
0.5000 -0.2500 2.0000 40 50 60
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func verifyOptions(input string, folder, recursive bool) *mapper.Options {
	opts := mapper.NewDefaultOptions()
	opts.VerifyOptions = &mapper.VerifyOptions{Input: input, FolderProcessing: folder, Recursive: recursive}
	return opts
}

func TestVerifyPlyFileReport(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cloud.ply", validCloud)
	report, err := VerifyPlyFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Vertices)
	assert.Equal(t, r3.Vector{X: -0.5, Y: -0.25, Z: 1}, report.Min)
	assert.Equal(t, r3.Vector{X: 0.5, Y: 0.25, Z: 2}, report.Max)
	assert.Equal(t, "1.5000", report.MeanDepth.StringFixed(4))
}

func TestVerifyPlyFileRejectsDamage(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"count":  strings.Replace(validCloud, "element vertex 2", "element vertex 3", 1),
		"depth":  strings.Replace(validCloud, "2.0000 40", "0.0000 40", 1),
		"layout": strings.Replace(validCloud, "property uchar blue\n", "", 1),
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := VerifyPlyFile(writeFile(t, dir, name+".ply", content))
			assert.Error(t, err)
		})
	}
}

func TestVerifyExportedBinaryCloud(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary.ply")
	require.NoError(t, ply.WriteBinaryFile(path, []ply.Vertex{{X: 1, Y: 2, Z: 3, R: 4, G: 5, B: 6}}))
	report, err := VerifyPlyFile(path)
	require.NoError(t, err)
	assert.Equal(t, ply.FormatBinaryLE, report.Format)
	assert.Equal(t, 1, report.Vertices)
}

func TestRunVerifyFolder(t *testing.T) {
	tools.DisableLogger()
	defer tools.EnableLogger()

	dir := t.TempDir()
	writeFile(t, dir, "a.ply", validCloud)
	writeFile(t, dir, "nested/b.ply", strings.Replace(validCloud, "1.0000 10", "-1.0000 10", 1))
	writeFile(t, dir, "notes.txt", "not a cloud")

	verify := NewMapperVerify(tools.NewStandardFileFinder())
	require.NoError(t, verify.RunMapper(context.Background(), verifyOptions(dir, true, false)))

	err := verify.RunMapper(context.Background(), verifyOptions(dir, true, true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.Contains(t, err.Error(), "b.ply")
}

func TestRunVerifyEmptyFolder(t *testing.T) {
	tools.DisableLogger()
	defer tools.EnableLogger()

	err := NewMapperVerify(tools.NewStandardFileFinder()).RunMapper(context.Background(), verifyOptions(t.TempDir(), true, false))
	assert.Error(t, err)
}
