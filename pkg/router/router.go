// Package router turns one CLI invocation into zero or more single-item
// encrypt/decrypt operations. It classifies the source, runs every
// applicable safety validator, and only then fans out to the dispatch
// targets — a rejection is terminal and produces no side effects.
package router

import (
	"os"

	"github.com/arthur-debert/envelope/pkg/classify"
	"github.com/arthur-debert/envelope/pkg/engine"
	"github.com/arthur-debert/envelope/pkg/errors"
	"github.com/arthur-debert/envelope/pkg/logging"
	"github.com/arthur-debert/envelope/pkg/paths"
	"github.com/arthur-debert/envelope/pkg/validate"
)

// ProcessRequest validates and dispatches one request. Validation for
// the whole batch completes before the first dispatch, so a late
// rejection can never leave a multi-source batch partially processed.
func ProcessRequest(cfg engine.Config, req Request, d Dispatcher) error {
	logger := logging.GetLogger("router")

	if err := validate.Destination(req.Destination); err != nil {
		return err
	}
	if err := validate.StdinStdout(req.Source, req.Destination); err != nil {
		return err
	}
	// Placement is checked against the raw destination here so a
	// metadata file nested inside a destination directory is caught even
	// when every per-file effective destination is a plain file, then
	// re-checked per effective destination for same-file collisions.
	if err := validate.MetadataPlacement(req.Metadata, req.Source, req.Destination); err != nil {
		return err
	}

	source, err := classify.Classify(req.Source)
	if err != nil {
		return err
	}
	logger.Debug().
		Str("source", req.Source).
		Str("class", string(source.Class)).
		Str("destination", req.Destination).
		Msg("Source classified")

	suffix := paths.DefaultSuffix(string(cfg.Mode))
	if req.Suffix != nil {
		suffix = *req.Suffix
	}

	switch source.Class {
	case classify.Stdin:
		return d.SingleOperation(cfg, req.operation(paths.Stream, req.Destination))

	case classify.SingleFile:
		destination, err := effectiveDestination(req.Source, req.Destination, suffix)
		if err != nil {
			return err
		}
		if err := validate.MetadataPlacement(req.Metadata, req.Source, destination); err != nil {
			return err
		}
		return d.SingleFile(cfg, req.operation(req.Source, destination))

	case classify.Directory:
		if err := validate.SourceDestinationShape([]string{req.Source}, req.Destination); err != nil {
			return err
		}
		return d.Dir(cfg, DirOperation{
			Operation: req.operation(req.Source, req.Destination),
			Recursive: req.Recursive,
			Suffix:    suffix,
		})

	case classify.Multi:
		return processMulti(cfg, req, d, source.Matches, suffix)

	default:
		return errors.Newf(errors.ErrInternal, "unhandled source class: %s", source.Class)
	}
}

// processMulti validates the full matched set, then dispatches each
// match exactly once. Matched directories are walked only when the
// recursive flag is set; otherwise they are silently excluded from the
// batch.
func processMulti(cfg engine.Config, req Request, d Dispatcher, matches []string, suffix string) error {
	if err := validate.SourceDestinationShape(matches, req.Destination); err != nil {
		return err
	}

	var fileOps []Operation
	var dirOps []DirOperation
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", match)
		}

		if info.IsDir() {
			if !req.Recursive {
				continue
			}
			if err := validate.MetadataPlacement(req.Metadata, match, req.Destination); err != nil {
				return err
			}
			dirOps = append(dirOps, DirOperation{
				Operation: req.operation(match, req.Destination),
				Recursive: true,
				Suffix:    suffix,
			})
			continue
		}

		destination, err := effectiveDestination(match, req.Destination, suffix)
		if err != nil {
			return err
		}
		if err := validate.MetadataPlacement(req.Metadata, match, destination); err != nil {
			return err
		}
		fileOps = append(fileOps, req.operation(match, destination))
	}

	for _, op := range fileOps {
		if err := d.SingleFile(cfg, op); err != nil {
			return err
		}
	}
	for _, op := range dirOps {
		if err := d.Dir(cfg, op); err != nil {
			return err
		}
	}
	return nil
}

// effectiveDestination maps a source file into a destination directory
// by appending the source's base name plus the suffix; a non-directory
// destination is used as given.
func effectiveDestination(source, destination, suffix string) (string, error) {
	info, err := os.Stat(destination)
	if err != nil {
		if os.IsNotExist(err) {
			return destination, nil
		}
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", destination)
	}
	if info.IsDir() {
		return paths.OutputFilename(source, destination, suffix), nil
	}
	return destination, nil
}

func (r Request) operation(source, destination string) Operation {
	return Operation{
		Source:       source,
		Destination:  destination,
		Interactive:  r.Interactive,
		NoOverwrite:  r.NoOverwrite,
		DecodeInput:  r.DecodeInput,
		EncodeOutput: r.EncodeOutput,
		Metadata:     r.Metadata,
	}
}
