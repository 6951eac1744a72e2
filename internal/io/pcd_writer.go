package io

import (
	"bufio"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/ecopia-map/rgbd_mapper/internal/data"
)

const pcdDecimals = 6

// packs a color the way PCD readers expect the rgb field
func colorToPCDInt(p data.Point) int {
	return int(p.R)<<16 | int(p.G)<<8 | int(p.B)
}

func formatCoordinate(v float32) string {
	return decimal.NewFromFloat32(v).StringFixed(pcdDecimals)
}

// writePcdFile writes an unorganized ascii PCD v.7 with packed colors.
func writePcdFile(filePath string, points []data.Point) (err error) {
	//nolint:gosec
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrap(err, "cannot create pcd file")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	out := bufio.NewWriter(f)
	_, err = fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS x y z rgb\n"+
		"SIZE 4 4 4 4\n"+
		"TYPE F F F I\n"+
		"COUNT 1 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT 1\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n"+
		"DATA ascii\n", len(points), len(points))
	if err != nil {
		return err
	}
	for _, p := range points {
		_, err = fmt.Fprintf(out, "%s %s %s %d\n",
			formatCoordinate(p.X), formatCoordinate(p.Y), formatCoordinate(p.Z), colorToPCDInt(p))
		if err != nil {
			return err
		}
	}
	return out.Flush()
}
