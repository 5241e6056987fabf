// Copyright 2026 The go-jp2 authors
// SPDX-License-Identifier: MIT

package jp2meta

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BasicIO is the random-access byte stream the container walker and rewriter
// operate on. Implementations are not safe for concurrent use; each Image
// owns its adapter exclusively.
//
// Read returns io.EOF at end of stream; short reads are not errors, the
// caller checks the count. Seek to a negative position fails without moving.
type BasicIO interface {
	io.Reader
	io.Writer
	io.Seeker

	Open() error
	Close() error
	IsOpen() bool

	// Tell returns the current position, Size the total stream length.
	Tell() int64
	Size() int64

	// EOF reports whether a read has hit end of stream since the last seek.
	EOF() bool
	// Err returns the sticky I/O error, if any.
	Err() error

	// Path identifies the backing store for diagnostics.
	Path() string

	// Transfer atomically replaces this stream's backing store with the full
	// contents of src. Either the new bytes are fully in place afterwards or
	// the original content is untouched.
	Transfer(src BasicIO) error
}

// MemIO is an in-memory BasicIO backed by a byte slice.
type MemIO struct {
	data []byte
	pos  int64
	open bool
	eof  bool
	err  error
}

// NewMemIO returns a MemIO owning data. The caller must not modify data
// afterwards.
func NewMemIO(data []byte) *MemIO {
	return &MemIO{data: data}
}

func (m *MemIO) Open() error {
	m.pos = 0
	m.eof = false
	m.err = nil
	m.open = true
	return nil
}

func (m *MemIO) Close() error {
	m.open = false
	return nil
}

func (m *MemIO) IsOpen() bool { return m.open }

func (m *MemIO) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		m.eof = true
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	if n < len(p) {
		m.eof = true
	}
	return n, nil
}

func (m *MemIO) Write(p []byte) (int, error) {
	if end := m.pos + int64(len(p)); end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	n := copy(m.data[m.pos:], p)
	m.pos += int64(n)
	return n, nil
}

func (m *MemIO) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = m.pos + offset
	case io.SeekEnd:
		pos = int64(len(m.data)) + offset
	default:
		return m.pos, fmt.Errorf("invalid whence %d", whence)
	}
	if pos < 0 {
		return m.pos, fmt.Errorf("negative seek position %d", pos)
	}
	m.pos = pos
	m.eof = false
	return pos, nil
}

func (m *MemIO) Tell() int64 { return m.pos }

func (m *MemIO) Size() int64 { return int64(len(m.data)) }

func (m *MemIO) EOF() bool { return m.eof }

func (m *MemIO) Err() error { return m.err }

func (m *MemIO) Path() string { return "(memory)" }

func (m *MemIO) Transfer(src BasicIO) error {
	b, err := readAllOf(src)
	if err != nil {
		return err
	}
	m.data = b
	m.pos = 0
	m.eof = false
	m.err = nil
	return nil
}

// Bytes returns the current backing slice. The slice is owned by the MemIO
// and only valid until the next Write or Transfer.
func (m *MemIO) Bytes() []byte { return m.data }

// FileIO is a file-backed BasicIO. Transfer stages into a temporary file in
// the same directory and renames it into place after sync, so a concurrent
// reader sees either the old or the new complete content.
type FileIO struct {
	path string
	f    *os.File
	eof  bool
	err  error
}

func NewFileIO(path string) *FileIO {
	return &FileIO{path: path}
}

func (f *FileIO) Open() error {
	if f.f != nil {
		return nil
	}
	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return err
	}
	f.f = file
	f.eof = false
	f.err = nil
	return nil
}

func (f *FileIO) Close() error {
	if f.f == nil {
		return nil
	}
	err := f.f.Close()
	f.f = nil
	return err
}

func (f *FileIO) IsOpen() bool { return f.f != nil }

func (f *FileIO) Read(p []byte) (int, error) {
	if f.f == nil {
		return 0, os.ErrClosed
	}
	n, err := f.f.Read(p)
	if err == io.EOF {
		f.eof = true
	} else if err != nil {
		f.err = err
	}
	return n, err
}

func (f *FileIO) Write(p []byte) (int, error) {
	if f.f == nil {
		return 0, os.ErrClosed
	}
	n, err := f.f.Write(p)
	if err != nil {
		f.err = err
	}
	return n, err
}

func (f *FileIO) Seek(offset int64, whence int) (int64, error) {
	if f.f == nil {
		return 0, os.ErrClosed
	}
	pos, err := f.f.Seek(offset, whence)
	if err != nil {
		return pos, err
	}
	f.eof = false
	return pos, nil
}

func (f *FileIO) Tell() int64 {
	if f.f == nil {
		return 0
	}
	pos, _ := f.f.Seek(0, io.SeekCurrent)
	return pos
}

func (f *FileIO) Size() int64 {
	if f.f == nil {
		fi, err := os.Stat(f.path)
		if err != nil {
			return 0
		}
		return fi.Size()
	}
	fi, err := f.f.Stat()
	if err != nil {
		f.err = err
		return 0
	}
	return fi.Size()
}

func (f *FileIO) EOF() bool { return f.eof }

func (f *FileIO) Err() error { return f.err }

func (f *FileIO) Path() string { return f.path }

func (f *FileIO) Transfer(src BasicIO) error {
	b, err := readAllOf(src)
	if err != nil {
		return err
	}

	wasOpen := f.IsOpen()
	if wasOpen {
		if err := f.Close(); err != nil {
			return err
		}
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".jp2meta-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	remove := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		remove()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		remove()
		return err
	}
	if err := tmp.Close(); err != nil {
		remove()
		return err
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		remove()
		return err
	}

	if wasOpen {
		return f.Open()
	}
	return nil
}

func readAllOf(src BasicIO) ([]byte, error) {
	wasOpen := src.IsOpen()
	if !wasOpen {
		if err := src.Open(); err != nil {
			return nil, err
		}
		defer src.Close()
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(src)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return b, nil
}
