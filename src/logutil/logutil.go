package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
)

const (
	defaultLogFile = "screen_pin_debug.log"
	maxSizeBytes   = 10 * 1024 * 1024 // 10 MB
	maxArchives    = 3
)

// Setup enables file logging to screen_pin_debug.log in the working
// directory. When disabled, logs are discarded.
func Setup(enableFileLogging bool) {
	if err := SetupPath(defaultLogFile, enableFileLogging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
	}
}

// SetupPath is Setup with an explicit log file. Rotation is size based:
// once the file passes 10MB it is shifted to .1, .2, .3 (oldest discarded).
func SetupPath(path string, enableFileLogging bool) error {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if !enableFileLogging {
		log.SetOutput(io.Discard)
		return nil
	}
	w, err := newRotatingWriter(path, maxSizeBytes)
	if err != nil {
		return err
	}
	log.SetOutput(w)
	return nil
}

type rotatingWriter struct {
	path  string
	limit int64
	f     *os.File
}

func newRotatingWriter(path string, limit int64) (*rotatingWriter, error) {
	rotateIfNeeded(path, limit)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	return &rotatingWriter{path: path, limit: limit, f: f}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	// naive rotation check per write
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > w.limit {
		_ = w.f.Close()
		rotate(w.path)
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func rotateIfNeeded(path string, limit int64) {
	if st, err := os.Stat(path); err == nil && st.Size() > limit {
		rotate(path)
	}
}

func rotate(path string) {
	_ = os.Remove(archiveName(path, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(path, i), archiveName(path, i+1))
	}
	_ = os.Rename(path, archiveName(path, 1))
}

func archiveName(path string, n int) string { return fmt.Sprintf("%s.%d", path, n) }
