package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked indicates another process holds the lock on an output file.
var ErrLocked = errors.New("output locked by another process")

// AtomicFile writes to a temporary file beside the destination and renames it
// into place on Commit, so readers never observe a partial file.
type AtomicFile struct {
	dst    string
	mode   os.FileMode
	tmp    *os.File
	hasher hash.Hash
	w      io.Writer
	size   int64
	done   bool
}

// CreateAtomic opens a temporary file in dst's directory with mode 0o644.
func CreateAtomic(dst string) (*AtomicFile, error) {
	return CreateAtomicMode(dst, 0o644)
}

// CreateAtomicMode opens a temporary file in dst's directory; mode is applied
// on Commit.
func CreateAtomicMode(dst string, mode os.FileMode) (*AtomicFile, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	hasher := sha256.New()
	return &AtomicFile{
		dst:    dst,
		mode:   mode,
		tmp:    tmp,
		hasher: hasher,
		w:      io.MultiWriter(tmp, hasher),
	}, nil
}

// Write implements io.Writer.
func (f *AtomicFile) Write(p []byte) (int, error) {
	if f.done {
		return 0, os.ErrClosed
	}
	n, err := f.w.Write(p)
	f.size += int64(n)
	return n, err
}

// WriteString writes s.
func (f *AtomicFile) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

// Size returns the number of bytes written so far.
func (f *AtomicFile) Size() int64 { return f.size }

// Sum returns the hex SHA-256 of the bytes written so far.
func (f *AtomicFile) Sum() string {
	return hex.EncodeToString(f.hasher.Sum(nil))
}

// Path returns the destination path.
func (f *AtomicFile) Path() string { return f.dst }

// Commit flushes the temporary file and renames it over the destination.
func (f *AtomicFile) Commit() error {
	if f.done {
		return os.ErrClosed
	}
	f.done = true
	name := f.tmp.Name()
	if err := f.tmp.Sync(); err != nil {
		_ = f.tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(name, f.mode); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(name, f.dst); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (f *AtomicFile) Abort() {
	if f.done {
		return
	}
	f.done = true
	_ = f.tmp.Close()
	_ = os.Remove(f.tmp.Name())
}

// LockPath returns the lock file guarding path.
func LockPath(path string) string {
	return path + ".lock"
}

// TryLock takes an exclusive, non-blocking flock on path's lock file. It
// returns ErrLocked when another holder exists. The caller must Unlock.
func TryLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(LockPath(path))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", lock.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}
	return lock, nil
}
