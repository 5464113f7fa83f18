package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/envelope/pkg/errors"
)

// Stream is the marker users pass to mean stdin (as a source) or
// stdout (as a destination).
const Stream = "-"

// IsStream returns true if the specifier is the stdin/stdout marker.
func IsStream(specifier string) bool {
	return specifier == Stream
}

// ResolveReal returns the canonical, symlink-followed real path of the
// given path. Unlike filepath.EvalSymlinks, it also handles paths that
// do not exist yet: the longest existing ancestor is resolved and the
// remaining components are appended verbatim.
func ResolveReal(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot resolve %s", path)
	}
	return resolveReal(abs)
}

func resolveReal(abs string) (string, error) {
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot resolve %s", abs)
	}

	parent := filepath.Dir(abs)
	if parent == abs {
		return abs, nil
	}
	resolvedParent, err := resolveReal(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(abs)), nil
}

// SameLocation reports whether two path specifiers denote the same
// underlying filesystem location once all symlinks are followed. An
// unresolved path and a symlink pointing at it are detected as
// identical.
func SameLocation(a, b string) (bool, error) {
	realA, err := ResolveReal(a)
	if err != nil {
		return false, err
	}
	realB, err := ResolveReal(b)
	if err != nil {
		return false, err
	}
	return realA == realB, nil
}

// Contains reports whether child lies inside the directory parent,
// comparing resolved real paths. The parent itself does not contain
// itself.
func Contains(parent, child string) (bool, error) {
	realParent, err := ResolveReal(parent)
	if err != nil {
		return false, err
	}
	realChild, err := ResolveReal(child)
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(realParent, realChild)
	if err != nil {
		return false, nil
	}
	return rel != "." && !strings.HasPrefix(rel, ".."), nil
}

// DefaultSuffix returns the output filename suffix used when the user
// did not supply one: ".encrypted" when encrypting, ".decrypted" when
// decrypting.
func DefaultSuffix(mode string) string {
	if mode == "decrypt" {
		return ".decrypted"
	}
	return ".encrypted"
}

// OutputFilename computes the effective destination for a source file
// routed into a destination directory: the directory joined with the
// source's base filename plus the suffix.
func OutputFilename(source, destDir, suffix string) string {
	return filepath.Join(destDir, filepath.Base(source)+suffix)
}
