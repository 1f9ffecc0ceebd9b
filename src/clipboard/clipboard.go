package clipboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

var (
	writeMu  sync.Mutex
	initOnce sync.Once
	initErr  error
)

// Init prepares the system clipboard. It is safe to call more than once.
func Init() error {
	initOnce.Do(func() { initErr = clipboard.Init() })
	return initErr
}

// WriteImage places PNG-encoded bytes on the clipboard.
func WriteImage(png []byte) error {
	if len(png) == 0 {
		return fmt.Errorf("clipboard: empty image")
	}
	return write(clipboard.FmtImage, png)
}

// Write places text on the clipboard.
func Write(text string) error {
	return write(clipboard.FmtText, []byte(text))
}

// write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func write(f clipboard.Format, b []byte) error {
	if err := Init(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(f, b)
	return nil
}
