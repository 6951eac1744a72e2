package pkg

import (
	"context"
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/ecopia-map/rgbd_mapper/internal/mapper"
	"github.com/ecopia-map/rgbd_mapper/internal/ply"
	"github.com/ecopia-map/rgbd_mapper/tools"
)

// Summary of a point cloud file that passed verification
type PlyReport struct {
	Path      string
	Format    string
	Vertices  int
	Min       r3.Vector
	Max       r3.Vector
	MeanDepth decimal.Decimal
}

type MapperVerify struct {
	fileFinder tools.FileFinder
}

func NewMapperVerify(fileFinder tools.FileFinder) mapper.IMapper {
	return &MapperVerify{
		fileFinder: fileFinder,
	}
}

// Checks every point cloud selected by the verify options and reports the ones that fail
func (mapperVerify *MapperVerify) RunMapper(ctx context.Context, opts *mapper.Options) error {
	if opts.VerifyOptions == nil {
		return errors.New("missing verify options")
	}
	plyFiles, err := mapperVerify.fileFinder.GetPlyFilesToVerify(opts.VerifyOptions)
	if err != nil {
		return err
	}
	if len(plyFiles) == 0 {
		return errors.Errorf("no ply files found in %s", opts.VerifyOptions.Input)
	}
	glog.Infoln("ply_file list", plyFiles)

	var errs error
	failed := 0
	for i, filePath := range plyFiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		tools.LogOutput(tools.TagVerify, fmt.Sprintf("%d/%d", i+1, len(plyFiles)), tools.GetFilenameWithoutExtension(filePath))
		report, err := VerifyPlyFile(filePath)
		if err != nil {
			failed++
			errs = multierr.Append(errs, errors.Wrap(err, filePath))
			tools.LogOutput(tools.TagVerify, "> FAILED:", err)
			continue
		}
		tools.LogOutput(tools.TagVerify, fmt.Sprintf("> ok, %d vertices (%s), mean depth %s m", report.Vertices, report.Format, report.MeanDepth.StringFixed(4)))
		tools.LogOutput(tools.TagVerify, fmt.Sprintf("> bbox min (%.4f, %.4f, %.4f) max (%.4f, %.4f, %.4f)",
			report.Min.X, report.Min.Y, report.Min.Z, report.Max.X, report.Max.Y, report.Max.Z))
	}

	if errs != nil {
		return errors.Wrapf(errs, "%d of %d files failed verification", failed, len(plyFiles))
	}
	return nil
}

// VerifyPlyFile checks that the file is a complete colored vertex cloud with every point in front of the camera.
func VerifyPlyFile(filePath string) (*PlyReport, error) {
	file, err := ply.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if !file.HasStandardLayout() {
		return nil, errors.Errorf("unexpected vertex properties %v", file.Properties)
	}
	if file.DataRows != file.VertexCount {
		return nil, errors.Errorf("header declares %d vertices, found %d", file.VertexCount, file.DataRows)
	}

	report := &PlyReport{
		Path:     filePath,
		Format:   file.Format,
		Vertices: file.VertexCount,
	}
	if len(file.Vertices) == 0 {
		return report, nil
	}

	sum := decimal.Zero
	for i, v := range file.Vertices {
		if !(v.Z > 0) {
			return nil, errors.Errorf("vertex %d has depth %v", i, v.Z)
		}
		p := r3.Vector{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
		if i == 0 {
			report.Min, report.Max = p, p
		}
		report.Min = r3.Vector{X: min(report.Min.X, p.X), Y: min(report.Min.Y, p.Y), Z: min(report.Min.Z, p.Z)}
		report.Max = r3.Vector{X: max(report.Max.X, p.X), Y: max(report.Max.Y, p.Y), Z: max(report.Max.Z, p.Z)}
		sum = sum.Add(decimal.NewFromFloat32(v.Z))
	}
	report.MeanDepth = sum.Div(decimal.NewFromInt(int64(len(file.Vertices))))
	return report, nil
}
