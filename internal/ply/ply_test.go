package ply

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoPointFile = `ply
format ascii 1.0
element vertex 2
property float x
property float y
property float z
property uchar red
property uchar green
property uchar blue
end_header
0.5000 0.0000 0.5000 10 20 30
1.0000 0.0000 0.5000 40 50 60
`

func TestWriteASCIIExactOutput(t *testing.T) {
	var buf bytes.Buffer
	err := WriteASCII(&buf, []Vertex{
		{X: 0.5, Y: 0, Z: 0.5, R: 10, G: 20, B: 30},
		{X: 1, Y: 0, Z: 0.5, R: 40, G: 50, B: 60},
	})
	require.NoError(t, err)
	if diff := cmp.Diff(twoPointFile, buf.String()); diff != "" {
		t.Errorf("ascii ply mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteASCIIFormatsFourDecimals(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteASCII(&buf, []Vertex{{X: -0.123456, Y: 2.00004, Z: 1.5, R: 255}}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "-0.1235 2.0000 1.5000 255 0 0", lines[len(lines)-1])
}

func TestWriteASCIIEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteASCII(&buf, nil))
	assert.Contains(t, buf.String(), "element vertex 0\n")
	assert.True(t, strings.HasSuffix(buf.String(), "end_header\n"))
}

func TestReadASCIIFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloud.ply")
	verts := []Vertex{{X: 0.25, Y: -0.5, Z: 1.125, R: 1, G: 2, B: 3}}
	require.NoError(t, WriteASCIIFile(path, verts))

	file, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatASCII, file.Format)
	assert.Equal(t, 1, file.VertexCount)
	assert.Equal(t, 1, file.DataRows)
	assert.Equal(t, verts, file.Vertices)
}

func TestReadDetectsCountMismatch(t *testing.T) {
	damaged := strings.Replace(twoPointFile, "element vertex 2", "element vertex 3", 1)
	file, err := Read(strings.NewReader(damaged))
	require.NoError(t, err)
	assert.Equal(t, 3, file.VertexCount)
	assert.Equal(t, 2, file.DataRows)
}

func TestReadRejectsForeignLayouts(t *testing.T) {
	_, err := Read(strings.NewReader("solid cube\n"))
	assert.Error(t, err)

	noColor := strings.Replace(twoPointFile, "property uchar blue\n", "", 1)
	_, err = Read(strings.NewReader(noColor))
	assert.Error(t, err)

	faces := strings.Replace(twoPointFile, "end_header", "element face 0\nend_header", 1)
	_, err = Read(strings.NewReader(faces))
	assert.Error(t, err)
}

func TestReadBinaryLittleEndian(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(HeaderText(FormatBinaryLE, 1))
	for _, f := range []float32{0.5, -1, 2} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, math.Float32bits(f)))
	}
	buf.Write([]byte{7, 8, 9})

	file, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, file.Vertices, 1)
	assert.Equal(t, Vertex{X: 0.5, Y: -1, Z: 2, R: 7, G: 8, B: 9}, file.Vertices[0])

	truncated := bytes.NewBufferString(HeaderText(FormatBinaryLE, 1))
	truncated.Write([]byte{1, 2, 3})
	_, err = Read(truncated)
	assert.Error(t, err)
}

func TestCheckWrittenDetectsShortFile(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(HeaderText(FormatBinaryLE, 2))
	for _, f := range []float32{0.5, -1, 2} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, math.Float32bits(f)))
	}
	buf.Write([]byte{7, 8, 9})
	path := filepath.Join(t.TempDir(), "short.ply")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	assert.Error(t, checkWritten(path, 2))
	assert.Error(t, checkWritten(filepath.Join(t.TempDir(), "missing.ply"), 1))

	full := filepath.Join(t.TempDir(), "full.ply")
	require.NoError(t, WriteASCIIFile(full, []Vertex{{X: 1, Z: 1}, {Y: 1, Z: 2}}))
	assert.NoError(t, checkWritten(full, 2))
	assert.Error(t, checkWritten(full, 3))
}
