package process

import (
	"path/filepath"

	"github.com/arthur-debert/envelope/pkg/engine"
	"github.com/arthur-debert/envelope/pkg/errors"
	"github.com/arthur-debert/envelope/pkg/logging"
	"github.com/arthur-debert/envelope/pkg/paths"
	"github.com/arthur-debert/envelope/pkg/router"
)

// Dir processes every file under the source directory, mirroring the
// directory layout under the destination. With recursion off only the
// top-level files are processed.
func (r *Runner) Dir(cfg engine.Config, op router.DirOperation) error {
	logger := logging.GetLogger("process")
	logger.Debug().
		Str("source", op.Source).
		Str("destination", op.Destination).
		Bool("recursive", op.Recursive).
		Msg("Walking source directory")

	return r.walk(cfg, op, op.Source, op.Destination)
}

func (r *Runner) walk(cfg engine.Config, op router.DirOperation, srcDir, dstDir string) error {
	entries, err := r.FS.ReadDir(srcDir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot read directory %s", srcDir)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(srcDir, entry.Name())

		if entry.IsDir() {
			if !op.Recursive {
				continue
			}
			subDst := filepath.Join(dstDir, entry.Name())
			if err := r.FS.MkdirAll(subDst, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrDirCreate, "cannot create directory %s", subDst)
			}
			if err := r.walk(cfg, op, srcPath, subDst); err != nil {
				return err
			}
			continue
		}

		fileOp := op.Operation
		fileOp.Source = srcPath
		fileOp.Destination = paths.OutputFilename(srcPath, dstDir, op.Suffix)
		if err := r.SingleFile(cfg, fileOp); err != nil {
			return err
		}
	}
	return nil
}
