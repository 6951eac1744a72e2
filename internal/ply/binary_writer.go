package ply

import (
	"os"
	"unsafe"

	plyfile "github.com/cobaltgray/go-plyfile"
	"github.com/pkg/errors"
)

var binaryVertexProps = []plyfile.PlyProperty{
	{Name: "x", External_type: plyfile.PLY_FLOAT, Internal_type: plyfile.PLY_FLOAT, Offset: int(unsafe.Offsetof(Vertex{}.X))},
	{Name: "y", External_type: plyfile.PLY_FLOAT, Internal_type: plyfile.PLY_FLOAT, Offset: int(unsafe.Offsetof(Vertex{}.Y))},
	{Name: "z", External_type: plyfile.PLY_FLOAT, Internal_type: plyfile.PLY_FLOAT, Offset: int(unsafe.Offsetof(Vertex{}.Z))},
	{Name: "red", External_type: plyfile.PLY_UCHAR, Internal_type: plyfile.PLY_UCHAR, Offset: int(unsafe.Offsetof(Vertex{}.R))},
	{Name: "green", External_type: plyfile.PLY_UCHAR, Internal_type: plyfile.PLY_UCHAR, Offset: int(unsafe.Offsetof(Vertex{}.G))},
	{Name: "blue", External_type: plyfile.PLY_UCHAR, Internal_type: plyfile.PLY_UCHAR, Offset: int(unsafe.Offsetof(Vertex{}.B))},
}

// WriteBinaryFile writes verts as a binary little endian PLY with the same
// properties as the ascii writer.
func WriteBinaryFile(filePath string, verts []Vertex) error {
	// the C writer does not report open failures, check the path first
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrap(err, "cannot create ply file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "cannot create ply file")
	}

	elemNames := []string{"vertex"}
	var version float32
	plyFile := plyfile.PlyOpenForWriting(filePath, len(elemNames), elemNames, plyfile.PLY_BINARY_LE, &version)

	plyfile.PlyElementCount(plyFile, "vertex", len(verts))
	for _, prop := range binaryVertexProps {
		plyfile.PlyDescribeProperty(plyFile, "vertex", prop)
	}
	plyfile.PlyHeaderComplete(plyFile)

	plyfile.PlyPutElementSetup(plyFile, "vertex")
	for _, v := range verts {
		plyfile.PlyPutElement(plyFile, v)
	}
	plyfile.PlyClose(plyFile)

	return checkWritten(filePath, len(verts))
}

// Reads back a file produced by the C writer, which reports no write errors.
func checkWritten(filePath string, count int) error {
	file, err := ReadFile(filePath)
	if err != nil {
		return errors.Wrap(err, "ply file is unreadable after writing")
	}
	if file.VertexCount != count || file.DataRows != count {
		return errors.Errorf("ply file holds %d of %d vertices", file.DataRows, count)
	}
	return nil
}
