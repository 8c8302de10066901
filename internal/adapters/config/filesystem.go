package config

import (
	"io/fs"
	"os"
)

// FileSystem opens the tree below a workspace root for discovery.
type FileSystem interface {
	Open(root string) fs.FS
}

// OSFS implements FileSystem on the host filesystem.
type OSFS struct{}

// NewOSFS creates a new OSFS instance.
func NewOSFS() *OSFS {
	return &OSFS{}
}

// Open returns the host directory tree at root.
func (o *OSFS) Open(root string) fs.FS {
	return os.DirFS(root)
}

// StaticFS serves the same tree for every root. Tests use it with fstest.MapFS.
type StaticFS struct {
	FS fs.FS
}

// NewStaticFS creates a StaticFS over fsys.
func NewStaticFS(fsys fs.FS) *StaticFS {
	return &StaticFS{FS: fsys}
}

// Open returns the wrapped tree.
func (s *StaticFS) Open(string) fs.FS {
	return s.FS
}
