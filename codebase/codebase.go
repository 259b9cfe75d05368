// Package codebase owns the source buffers loaded during an assembly run.
package codebase

import "fmt"

// FileSystem is the filesystem adapter the core assembler is given. Path
// interpretation is entirely the implementor's responsibility; the core
// treats paths opaquely.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// BufId is an opaque handle to a loaded source buffer.
type BufId int

// Buffer holds the raw bytes of a loaded file plus the path it was loaded
// from (used for diagnostics, not for re-reading).
type Buffer struct {
	Path string
	Data []byte
}

// BufRange is a half-open byte range within a single buffer.
type BufRange struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the range.
func (r BufRange) Len() int { return r.End - r.Start }

// Merge returns the smallest range covering both r and other.
func (r BufRange) Merge(other BufRange) BufRange {
	m := r
	if other.Start < m.Start {
		m.Start = other.Start
	}
	if other.End > m.End {
		m.End = other.End
	}
	return m
}

// Slice returns the bytes of buf selected by r.
func (r BufRange) Slice(data []byte) []byte { return data[r.Start:r.End] }

// Codebase owns every buffer loaded during a run, addressed by BufId.
// Buffers live until assembly ends; nothing is ever unloaded, since spans
// keep byte ranges into them for the lifetime of the program.
type Codebase struct {
	fs      FileSystem
	buffers []*Buffer
}

// New creates a Codebase backed by fs. A nil fs uses the real filesystem.
func New(fs FileSystem) *Codebase {
	if fs == nil {
		fs = OSFileSystem{}
	}
	return &Codebase{fs: fs}
}

// Open loads path (if not already loaded under that exact path) and returns
// its BufId. Distinct calls with the same path currently always reload;
// callers (the assembler) are responsible for any include-cycle tracking —
// the codebase itself never refuses a re-open.
func (c *Codebase) Open(path string) (BufId, error) {
	data, err := c.fs.ReadFile(path)
	if err != nil {
		return -1, fmt.Errorf("reading %s: %w", path, err)
	}
	c.buffers = append(c.buffers, &Buffer{Path: path, Data: data})
	return BufId(len(c.buffers) - 1), nil
}

// Buffer returns the buffer for id. id must have been returned by Open.
func (c *Codebase) Buffer(id BufId) *Buffer {
	return c.buffers[id]
}

// OSFileSystem is the default FileSystem, backed by the real disk.
type OSFileSystem struct{}

func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return osReadFile(path)
}
