package ply

import (
	"strconv"
	"strings"
)

const (
	FormatASCII    = "ascii"
	FormatBinaryLE = "binary_little_endian"
)

// Vertex is one record of the vertex element: position and 8 bit color.
type Vertex struct {
	X float32
	Y float32
	Z float32
	R uint8
	G uint8
	B uint8
}

type Property struct {
	Type string
	Name string
}

// VertexProperties is the property layout of every file this package writes.
var VertexProperties = []Property{
	{Type: "float", Name: "x"},
	{Type: "float", Name: "y"},
	{Type: "float", Name: "z"},
	{Type: "uchar", Name: "red"},
	{Type: "uchar", Name: "green"},
	{Type: "uchar", Name: "blue"},
}

func headerLines(format string, count int) []string {
	lines := []string{
		"ply",
		"format " + format + " 1.0",
		"element vertex " + strconv.Itoa(count),
	}
	for _, p := range VertexProperties {
		lines = append(lines, "property "+p.Type+" "+p.Name)
	}
	return append(lines, "end_header")
}

// HeaderText returns the header text, terminated by a newline.
func HeaderText(format string, count int) string {
	return strings.Join(headerLines(format, count), "\n") + "\n"
}
