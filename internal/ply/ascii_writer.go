package ply

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// WriteASCII writes verts as an ascii PLY. Coordinates carry four decimals,
// colors are plain integers.
func WriteASCII(w io.Writer, verts []Vertex) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(HeaderText(FormatASCII, len(verts))); err != nil {
		return err
	}
	line := make([]byte, 0, 64)
	for _, v := range verts {
		line = line[:0]
		line = strconv.AppendFloat(line, float64(v.X), 'f', 4, 64)
		line = append(line, ' ')
		line = strconv.AppendFloat(line, float64(v.Y), 'f', 4, 64)
		line = append(line, ' ')
		line = strconv.AppendFloat(line, float64(v.Z), 'f', 4, 64)
		line = append(line, ' ')
		line = strconv.AppendUint(line, uint64(v.R), 10)
		line = append(line, ' ')
		line = strconv.AppendUint(line, uint64(v.G), 10)
		line = append(line, ' ')
		line = strconv.AppendUint(line, uint64(v.B), 10)
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteASCIIFile creates (or truncates) filePath and writes verts to it.
func WriteASCIIFile(filePath string, verts []Vertex) (err error) {
	//nolint:gosec
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrap(err, "cannot create ply file")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return errors.Wrapf(WriteASCII(f, verts), "cannot write ply file %s", filePath)
}
