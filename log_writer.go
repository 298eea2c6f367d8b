package r

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// logWriter implements logiface.Writer[*logEvent]. It renders each event
// through the owning Log's format template and appends a trailing
// newline, rotating the destination file when it exceeds maxSize,
// keeping up to maxFiles numbered backups — spec.md §4.4's default
// policy (2 MiB, 5 backups).
type logWriter struct {
	mu       sync.Mutex
	kind     int // destKindNone, destKindStdout, destKindStderr, destKindFile
	path     string
	file     *os.File
	size     int64
	maxSize  int64
	maxFiles int
	log      *Log
}

const (
	destKindNone = iota
	destKindStdout
	destKindStderr
	destKindFile
)

func newLogWriter(dest string, maxSize int64, maxFiles int) (*logWriter, error) {
	w := &logWriter{maxSize: maxSize, maxFiles: maxFiles}
	switch dest {
	case "", "none":
		w.kind = destKindNone
	case "stdout":
		w.kind = destKindStdout
	case "stderr":
		w.kind = destKindStderr
	default:
		w.kind = destKindFile
		w.path = dest
		f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		if info, err := f.Stat(); err == nil {
			w.size = info.Size()
		}
		w.file = f
	}
	return w, nil
}

// Write implements logiface.Writer[*logEvent].
func (w *logWriter) Write(e *logEvent) error {
	w.mu.Lock()
	log := w.log
	w.mu.Unlock()
	if log == nil {
		return nil
	}
	line := log.render(e) + "\n"
	return w.append([]byte(line))
}

func (w *logWriter) append(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var dst io.Writer
	switch w.kind {
	case destKindNone:
		return nil
	case destKindStdout:
		dst = os.Stdout
	case destKindStderr:
		dst = os.Stderr
	case destKindFile:
		if w.file == nil {
			return NewError(ErrBadState, "log file closed")
		}
		if w.maxSize > 0 && w.size+int64(len(b)) > w.maxSize {
			if err := w.rotateLocked(); err != nil {
				return err
			}
		}
		dst = w.file
	}

	n, err := dst.Write(b)
	if w.kind == destKindFile {
		w.size += int64(n)
	}
	return err
}

// rotateLocked renames file.ext -> file-1.ext, file-1.ext -> file-2.ext,
// ... discarding anything beyond maxFiles, then reopens a fresh path.
// Caller must hold w.mu.
func (w *logWriter) rotateLocked() error {
	if w.file != nil {
		_ = w.file.Close()
	}
	ext := filepath.Ext(w.path)
	base := strings.TrimSuffix(w.path, ext)
	backup := func(i int) string { return fmt.Sprintf("%s-%d%s", base, i, ext) }
	_ = os.Remove(backup(w.maxFiles))
	for i := w.maxFiles - 1; i >= 1; i-- {
		_ = os.Rename(backup(i), backup(i+1))
	}
	_ = os.Rename(w.path, backup(1))

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.size = 0
	return nil
}

func (w *logWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
