package ply

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// vertex record size in binary files: three float32 and three uint8
const binaryVertexSize = 15

type Header struct {
	Format      string
	VertexCount int
	Properties  []Property
}

// File is a parsed vertex-only PLY. DataRows counts the records actually
// present after the header, which differs from VertexCount in a damaged file.
type File struct {
	Header
	Vertices []Vertex
	DataRows int
}

// HasStandardLayout reports whether the properties are x y z red green blue.
func (h *Header) HasStandardLayout() bool {
	if len(h.Properties) != len(VertexProperties) {
		return false
	}
	for i, p := range h.Properties {
		if p != VertexProperties[i] {
			return false
		}
	}
	return true
}

func ReadFile(filePath string) (file *File, err error) {
	//nolint:gosec
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open ply file")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return Read(f)
}

func Read(r io.Reader) (*File, error) {
	br := bufio.NewReader(r)
	header, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	if !header.HasStandardLayout() {
		return nil, errors.Errorf("unsupported vertex properties %v", header.Properties)
	}

	file := &File{Header: *header}
	switch header.Format {
	case FormatASCII:
		err = readASCIIBody(br, file)
	case FormatBinaryLE:
		err = readBinaryBody(br, file)
	default:
		err = errors.Errorf("unsupported ply format %q", header.Format)
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func readHeader(br *bufio.Reader) (*Header, error) {
	magic, err := br.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, errors.New("not a ply file")
	}
	header := &Header{}
	inVertex := false
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "truncated ply header")
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "end_header":
			return header, nil
		case "comment", "obj_info":
		case "format":
			if len(fields) != 3 {
				return nil, errors.Errorf("bad format line %q", strings.TrimSpace(line))
			}
			header.Format = fields[1]
		case "element":
			if len(fields) != 3 {
				return nil, errors.Errorf("bad element line %q", strings.TrimSpace(line))
			}
			inVertex = fields[1] == "vertex"
			if !inVertex {
				return nil, errors.Errorf("unsupported element %q", fields[1])
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, errors.Errorf("bad vertex count %q", fields[2])
			}
			header.VertexCount = n
		case "property":
			if !inVertex || len(fields) != 3 {
				return nil, errors.Errorf("bad property line %q", strings.TrimSpace(line))
			}
			header.Properties = append(header.Properties, Property{Type: fields[1], Name: fields[2]})
		default:
			return nil, errors.Errorf("unknown header keyword %q", fields[0])
		}
	}
}

func readASCIIBody(br *bufio.Reader, file *File) error {
	scanner := bufio.NewScanner(br)
	row := 0
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		row++
		if len(fields) != len(VertexProperties) {
			return errors.Errorf("row %d: want %d values, got %d", row, len(VertexProperties), len(fields))
		}
		var v Vertex
		coords := [3]*float32{&v.X, &v.Y, &v.Z}
		for i, c := range coords {
			f, err := strconv.ParseFloat(fields[i], 32)
			if err != nil {
				return errors.Wrapf(err, "row %d", row)
			}
			*c = float32(f)
		}
		colors := [3]*uint8{&v.R, &v.G, &v.B}
		for i, c := range colors {
			u, err := strconv.ParseUint(fields[3+i], 10, 8)
			if err != nil {
				return errors.Wrapf(err, "row %d", row)
			}
			*c = uint8(u)
		}
		file.Vertices = append(file.Vertices, v)
	}
	file.DataRows = row
	return scanner.Err()
}

func readBinaryBody(br *bufio.Reader, file *File) error {
	record := make([]byte, binaryVertexSize)
	for {
		_, err := io.ReadFull(br, record)
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "record %d is truncated", file.DataRows+1)
		}
		file.DataRows++
		file.Vertices = append(file.Vertices, Vertex{
			X: math.Float32frombits(binary.LittleEndian.Uint32(record[0:4])),
			Y: math.Float32frombits(binary.LittleEndian.Uint32(record[4:8])),
			Z: math.Float32frombits(binary.LittleEndian.Uint32(record[8:12])),
			R: record[12],
			G: record[13],
			B: record[14],
		})
	}
	return nil
}
