// Package validate holds the pure safety predicates run against every
// request before any dispatch. Each predicate either returns nil or a
// bad-user-argument error with a single-line, human-readable reason.
// All applicable predicates run before any I/O on the destination; a
// rejection leaves no side effects behind.
package validate

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/envelope/pkg/errors"
	"github.com/arthur-debert/envelope/pkg/metadata"
	"github.com/arthur-debert/envelope/pkg/paths"
)

func isDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", path)
	}
	return info.IsDir(), nil
}

// Destination rejects a file destination whose immediate parent
// directory does not exist. The stdout marker and existing directories
// always pass.
func Destination(destination string) error {
	if paths.IsStream(destination) {
		return nil
	}

	destIsDir, err := isDir(destination)
	if err != nil {
		return err
	}
	if destIsDir {
		return nil
	}

	abs, err := filepath.Abs(destination)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot resolve %s", destination)
	}
	parentIsDir, err := isDir(filepath.Dir(abs))
	if err != nil {
		return err
	}
	if !parentIsDir {
		return errors.New(errors.ErrInvalidInput,
			"If destination is a file, the immediate parent directory must already exist.")
	}
	return nil
}

// StdinStdout rejects a directory destination when the source is stdin,
// and rejects a source and destination that resolve to the same real
// filesystem location. Piping the tool to itself (both markers) is
// always permitted.
func StdinStdout(source, destination string) error {
	if paths.IsStream(source) && paths.IsStream(destination) {
		return nil
	}

	if paths.IsStream(source) {
		destIsDir, err := isDir(destination)
		if err != nil {
			return err
		}
		if destIsDir {
			return errors.New(errors.ErrInvalidInput,
				"Destination may not be a directory when source is stdin")
		}
		return nil
	}

	if paths.IsStream(destination) {
		return nil
	}

	same, err := paths.SameLocation(source, destination)
	if err != nil {
		return err
	}
	if same {
		return errors.New(errors.ErrInvalidInput, "Destination and source cannot be the same")
	}
	return nil
}

// SourceDestinationShape rejects multi-source or directory-source
// requests whose destination is not an existing directory.
func SourceDestinationShape(sources []string, destination string) error {
	destIsDir, err := isDir(destination)
	if err != nil {
		return err
	}
	if destIsDir {
		return nil
	}

	if len(sources) > 1 {
		return errors.New(errors.ErrInvalidInput,
			"If operating on multiple sources, destination must be an existing directory")
	}
	for _, source := range sources {
		sourceIsDir, err := isDir(source)
		if err != nil {
			return err
		}
		if sourceIsDir {
			return errors.New(errors.ErrInvalidInput,
				"If operating on a source directory, destination must be an existing directory")
		}
	}
	return nil
}

// MetadataPlacement rejects metadata targets that would collide with
// the primary streams: stdout for both outputs, a directory target, the
// same real location as source or destination, or a file inside a
// source/destination directory. A suppressed target never rejects.
func MetadataPlacement(target metadata.Target, source, destination string) error {
	if target.Suppressed {
		return nil
	}

	if paths.IsStream(target.OutputFile) {
		if paths.IsStream(destination) {
			return errors.New(errors.ErrInvalidInput,
				"Metadata output cannot be stdout when output is stdout")
		}
		return nil
	}

	metaIsDir, err := isDir(target.OutputFile)
	if err != nil {
		return err
	}
	if metaIsDir {
		return errors.New(errors.ErrInvalidInput, "Metadata output cannot be a directory")
	}

	for _, check := range []struct {
		name string
		path string
	}{
		{"input", source},
		{"output", destination},
	} {
		if paths.IsStream(check.path) {
			continue
		}

		same, err := paths.SameLocation(target.OutputFile, check.path)
		if err != nil {
			return err
		}
		if same {
			return errors.New(errors.ErrInvalidInput,
				"Metadata output file cannot be the input or output")
		}

		pathIsDir, err := isDir(check.path)
		if err != nil {
			return err
		}
		if pathIsDir {
			inside, err := paths.Contains(check.path, target.OutputFile)
			if err != nil {
				return err
			}
			if inside {
				return errors.Newf(errors.ErrInvalidInput,
					"Metadata output file cannot be in the %s directory", check.name)
			}
		}
	}
	return nil
}
