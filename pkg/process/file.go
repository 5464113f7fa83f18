package process

import (
	"os"

	"github.com/arthur-debert/envelope/pkg/engine"
	"github.com/arthur-debert/envelope/pkg/errors"
	"github.com/arthur-debert/envelope/pkg/logging"
	"github.com/arthur-debert/envelope/pkg/paths"
	"github.com/arthur-debert/envelope/pkg/router"
)

// SingleFile runs one file-to-file operation. A destination left behind
// by a failed operation is removed so a partial message never looks
// like a complete one.
func (r *Runner) SingleFile(cfg engine.Config, op router.Operation) error {
	logger := logging.GetLogger("process")

	// The router already rejects this; kept because the directory walk
	// also funnels through here with computed destinations.
	same, err := paths.SameLocation(op.Source, op.Destination)
	if err != nil {
		return err
	}
	if same {
		return errors.New(errors.ErrInvalidInput, "Destination and source cannot be the same")
	}

	existedBefore := true
	if _, err := r.FS.Stat(op.Destination); err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", op.Destination)
		}
		existedBefore = false
	}

	if err := r.SingleOperation(cfg, op); err != nil {
		if !existedBefore {
			if removeErr := r.FS.Remove(op.Destination); removeErr != nil && !os.IsNotExist(removeErr) {
				logger.Warn().Err(removeErr).
					Str("destination", op.Destination).
					Msg("Failed to remove partial output file")
			}
		}
		return err
	}
	return nil
}
