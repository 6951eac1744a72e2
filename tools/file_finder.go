package tools

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/ecopia-map/rgbd_mapper/internal/mapper"
)

type FileFinder interface {
	GetPlyFilesToVerify(opts *mapper.VerifyOptions) ([]string, error)
}

type StandardFileFinder struct{}

func NewStandardFileFinder() FileFinder {
	return &StandardFileFinder{}
}

func (f *StandardFileFinder) GetPlyFilesToVerify(opts *mapper.VerifyOptions) ([]string, error) {
	// If folder processing is not enabled then the ply file is given by -input flag, otherwise look for ply files
	// in -input folder eventually excluding nested folders if Recursive flag is disabled
	if !opts.FolderProcessing {
		return []string{opts.Input}, nil
	}

	return f.getPlyFilesFromInputFolder(opts)
}

func (f *StandardFileFinder) getPlyFilesFromInputFolder(opts *mapper.VerifyOptions) ([]string, error) {
	var plyFiles = make([]string, 0)

	baseInfo, err := os.Stat(opts.Input)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read input folder")
	}
	err = filepath.Walk(
		opts.Input,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() && !opts.Recursive && !os.SameFile(info, baseInfo) {
				return filepath.SkipDir
			}
			if !info.IsDir() && strings.ToLower(filepath.Ext(info.Name())) == ".ply" {
				plyFiles = append(plyFiles, path)
			}
			return nil
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "cannot walk input folder")
	}

	sort.Strings(plyFiles)
	return plyFiles, nil
}
