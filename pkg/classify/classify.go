// Package classify turns a user-supplied source specifier into one of a
// small closed set of shapes: stdin, a single file, a directory, or a
// glob fan-out. The router validates and dispatches per shape.
package classify

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/envelope/pkg/errors"
	"github.com/arthur-debert/envelope/pkg/logging"
	"github.com/arthur-debert/envelope/pkg/paths"
)

// Class identifies the shape of a source specifier
type Class string

const (
	// Stdin means the source is the stdin marker
	Stdin Class = "stdin"
	// SingleFile means the source is one existing regular file
	SingleFile Class = "single-file"
	// Directory means the source is one existing directory
	Directory Class = "directory"
	// Multi means the source expanded via glob into zero or more entries
	Multi Class = "multi"
)

// Source is a classified source specifier. For Multi, Matches carries
// the ordered glob expansion including matched directories; the router
// decides whether matched directories are walked or skipped based on
// the recursive flag.
type Source struct {
	Class   Class
	Matches []string
}

// Classify determines the shape of the given source specifier.
// A specifier that is not the stdin marker, not an existing file or
// directory, and matches nothing as a glob pattern is a bad user
// argument.
func Classify(source string) (Source, error) {
	logger := logging.GetLogger("classify")

	if paths.IsStream(source) {
		return Source{Class: Stdin}, nil
	}

	if info, err := os.Stat(source); err == nil {
		if info.IsDir() {
			return Source{Class: Directory}, nil
		}
		if info.Mode().IsRegular() {
			return Source{Class: SingleFile}, nil
		}
	} else if !os.IsNotExist(err) {
		return Source{}, errors.Wrapf(err, errors.ErrFileAccess, "cannot stat source %s", source)
	}

	matches, err := filepath.Glob(source)
	if err != nil {
		return Source{}, errors.Wrap(err, errors.ErrInvalidInput,
			"Invalid source. Must be a valid pathname pattern or stdin (-)")
	}
	if len(matches) == 0 {
		return Source{}, errors.New(errors.ErrInvalidInput,
			"Invalid source. Must be a valid pathname pattern or stdin (-)")
	}

	logger.Debug().Str("source", source).Int("matches", len(matches)).Msg("Glob expansion complete")
	return Source{Class: Multi, Matches: matches}, nil
}
