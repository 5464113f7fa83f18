package types

import (
	"io"
	"io/fs"
)

// FS is the filesystem interface required for envelope operations
type FS interface {
	// Metadata queries
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)

	// Stream operations
	Open(name string) (io.ReadCloser, error)
	Create(name string) (io.WriteCloser, error)
	OpenAppend(name string) (io.WriteCloser, error)

	// Mutations
	MkdirAll(path string, perm fs.FileMode) error
	Remove(name string) error
}
