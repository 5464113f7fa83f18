package filesystem

import (
	"io"
	"io/fs"
	"os"

	"github.com/arthur-debert/envelope/pkg/types"
	"github.com/spf13/afero"
)

// aferoFS implements types.FS using afero
type aferoFS struct {
	fs afero.Fs
}

// NewAferoFS creates a new afero filesystem implementation
func NewAferoFS(fs afero.Fs) types.FS {
	return &aferoFS{fs: fs}
}

// NewMemory creates an in-memory filesystem for tests
func NewMemory() types.FS {
	return &aferoFS{fs: afero.NewMemMapFs()}
}

func (a *aferoFS) Stat(name string) (fs.FileInfo, error) {
	return a.fs.Stat(name)
}

func (a *aferoFS) Lstat(name string) (fs.FileInfo, error) {
	// Afero's Lstat is only available on the OsFs.
	// For MemMapFs, Stat is sufficient for most tests.
	return a.fs.Stat(name)
}

func (a *aferoFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := afero.ReadDir(a.fs, name)
	if err != nil {
		return nil, err
	}
	dirEntries := make([]fs.DirEntry, len(entries))
	for i, entry := range entries {
		dirEntries[i] = fs.FileInfoToDirEntry(entry)
	}
	return dirEntries, nil
}

func (a *aferoFS) Open(name string) (io.ReadCloser, error) {
	return a.fs.Open(name)
}

func (a *aferoFS) Create(name string) (io.WriteCloser, error) {
	return a.fs.Create(name)
}

func (a *aferoFS) OpenAppend(name string) (io.WriteCloser, error) {
	return a.fs.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

func (a *aferoFS) MkdirAll(path string, perm fs.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

func (a *aferoFS) Remove(name string) error {
	return a.fs.Remove(name)
}
