package data

// Contains data of a Point Cloud Point, namely X,Y,Z coords in meters
// (camera frame) and R,G,B color components
type Point struct {
	X float32
	Y float32
	Z float32
	R uint8
	G uint8
	B uint8
}

// Builds a new Point from the given vertex and color
func NewPoint(v Vertex, c RGB) Point {
	return Point{
		X: v.X,
		Y: v.Y,
		Z: v.Z,
		R: c.R,
		G: c.G,
		B: c.B,
	}
}

// Vertex is a single projected pixel. A vertex projected from an invalid
// depth sample is (0,0,0).
type Vertex struct {
	X float32
	Y float32
	Z float32
}

func (v Vertex) IsValid() bool {
	return v.Z > 0
}

type RGB struct {
	R uint8
	G uint8
	B uint8
}
