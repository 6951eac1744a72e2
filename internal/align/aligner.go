package align

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/ecopia-map/rgbd_mapper/internal/camera"
	"github.com/ecopia-map/rgbd_mapper/internal/data"
)

// ErrIncompleteFrame is returned when a frameset lacks depth or color. Callers
// skip the cycle.
var ErrIncompleteFrame = errors.New("frameset is missing depth or color")

// Aligner reprojects depth maps onto the color sensor grid.
type Aligner struct {
	calibration camera.Calibration
	depthScale  float64
}

func NewAligner(calibration camera.Calibration, depthScale float64) (*Aligner, error) {
	if err := calibration.CheckValid(); err != nil {
		return nil, errors.Wrap(err, "invalid calibration")
	}
	if depthScale <= 0 {
		return nil, errors.Errorf("invalid depth scale %v", depthScale)
	}
	return &Aligner{
		calibration: calibration,
		depthScale:  depthScale,
	}, nil
}

// Color intrinsics, which describe every aligned map.
func (a *Aligner) Intrinsics() camera.Intrinsics {
	return a.calibration.Color
}

// Align returns a map with the size of the color stream. depthIntr describes the
// input map, which can differ from the calibrated depth intrinsics after decimation.
// Every valid source pixel is spread over the color pixels its footprint covers;
// when several sources land on one pixel the nearest one wins. Values are kept in
// raw depth units.
func (a *Aligner) Align(depth *data.DepthMap, depthIntr camera.Intrinsics) (*data.DepthMap, error) {
	if depth == nil {
		return nil, errors.New("nil depth map")
	}
	if err := depthIntr.CheckValid(); err != nil {
		return nil, errors.Wrap(err, "invalid depth intrinsics")
	}
	if depth.Width != depthIntr.Width || depth.Height != depthIntr.Height {
		return nil, errors.Errorf("depth map dimension and intrinsics don't match Depth(%d,%d) != Intrinsics(%d,%d)",
			depth.Width, depth.Height, depthIntr.Width, depthIntr.Height)
	}

	color := a.calibration.Color
	out := data.NewDepthMap(color.Width, color.Height)
	for v := 0; v < depth.Height; v++ {
		for u := 0; u < depth.Width; u++ {
			d := depth.At(u, v)
			if d == 0 {
				continue
			}
			z := float64(d) * a.depthScale
			x0, y0, ok0 := a.toColor(depthIntr, float64(u)-0.5, float64(v)-0.5, z)
			x1, y1, ok1 := a.toColor(depthIntr, float64(u)+0.5, float64(v)+0.5, z)
			if !ok0 || !ok1 {
				continue
			}
			cx0, cx1 := coveredRange(x0, x1)
			cy0, cy1 := coveredRange(y0, y1)
			if cx1 < 0 || cy1 < 0 || cx0 >= out.Width || cy0 >= out.Height {
				continue
			}
			cx0, cx1 = max(cx0, 0), min(cx1, out.Width-1)
			cy0, cy1 = max(cy0, 0), min(cy1, out.Height-1)
			for y := cy0; y <= cy1; y++ {
				row := out.Data[y*out.Width : (y+1)*out.Width]
				for x := cx0; x <= cx1; x++ {
					if row[x] == 0 || d < row[x] {
						row[x] = d
					}
				}
			}
		}
	}
	return out, nil
}

// AlignFrame aligns the depth of a complete frameset. The color image must match
// the color intrinsics.
func (a *Aligner) AlignFrame(frame *data.Frame, depth *data.DepthMap, depthIntr camera.Intrinsics) (*data.AlignedFrame, error) {
	if !frame.IsComplete() || depth == nil {
		return nil, ErrIncompleteFrame
	}
	color := a.calibration.Color
	if frame.Color.Width != color.Width || frame.Color.Height != color.Height {
		return nil, errors.Errorf("color image dimension and intrinsics don't match Image(%d,%d) != Intrinsics(%d,%d)",
			frame.Color.Width, frame.Color.Height, color.Width, color.Height)
	}
	aligned, err := a.Align(depth, depthIntr)
	if err != nil {
		return nil, err
	}
	return &data.AlignedFrame{
		Seq:       frame.Seq,
		Timestamp: frame.Timestamp,
		Depth:     aligned,
		Color:     frame.Color,
	}, nil
}

func (a *Aligner) toColor(depthIntr camera.Intrinsics, px, py, z float64) (float64, float64, bool) {
	x, y, z := depthIntr.Deproject(px, py, z)
	p := a.calibration.DepthToColor.Transform(r3.Vector{X: x, Y: y, Z: z})
	return a.calibration.Color.Project(p.X, p.Y, p.Z)
}

// coveredRange returns the pixel centers inside [lo, hi). A footprint smaller
// than one pixel maps to the pixel nearest to its middle.
func coveredRange(lo, hi float64) (int, int) {
	if lo > hi {
		lo, hi = hi, lo
	}
	first := int(math.Ceil(lo))
	last := int(math.Ceil(hi)) - 1
	if last < first {
		c := int(math.Round((lo + hi) / 2))
		return c, c
	}
	return first, last
}
