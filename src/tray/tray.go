package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

const defaultTooltip = "Screen Pin"

// Handlers receive tray menu clicks. They run on the tray goroutine.
type Handlers struct {
	CaptureRegion     func()
	CaptureFullScreen func()
	Quit              func()
}

var (
	mu      sync.Mutex
	ready   bool
	tooltip = defaultTooltip
	about   *systray.MenuItem
	extra   string
)

// Run starts the tray and blocks until Quit. It must be called from the
// main goroutine on Windows.
func Run(h Handlers) {
	systray.Run(func() { onReady(h) }, onExit)
}

// Stop removes the tray icon and makes Run return.
func Stop() { systray.Quit() }

func onReady(h Handlers) {
	systray.SetIcon(Icon())
	systray.SetTitle(defaultTooltip)

	mRegion := systray.AddMenuItem("Capture region", "Drag to select a region")
	mFull := systray.AddMenuItem("Capture full screen", "Capture every monitor")
	systray.AddSeparator()
	mAbout := systray.AddMenuItem("About", "")
	mAbout.Disable()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	mu.Lock()
	ready = true
	about = mAbout
	systray.SetTooltip(tooltip)
	if extra != "" {
		mAbout.SetTitle(extra)
	}
	mu.Unlock()

	go func() {
		for {
			select {
			case <-mRegion.ClickedCh:
				call(h.CaptureRegion)
			case <-mFull.ClickedCh:
				call(h.CaptureFullScreen)
			case <-mQuit.ClickedCh:
				call(h.Quit)
				systray.Quit()
				return
			}
		}
	}()
}

func onExit() {
	mu.Lock()
	ready = false
	about = nil
	mu.Unlock()
}

func call(f func()) {
	if f != nil {
		f()
	}
}

// UpdateTooltip sets the tray tooltip; an empty string restores the default.
// Safe to call before the tray is running.
func UpdateTooltip(text string) {
	if text == "" {
		text = defaultTooltip
	}
	mu.Lock()
	defer mu.Unlock()
	tooltip = text
	if ready {
		systray.SetTooltip(text)
	}
}

// SetAboutExtra shows a line of status text in the About entry.
func SetAboutExtra(text string) {
	mu.Lock()
	defer mu.Unlock()
	extra = text
	if about != nil {
		about.SetTitle(text)
	}
}
