package runtimeinit

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"screen-pin/src/coords"
	"screen-pin/src/desktop"
	"screen-pin/src/dpi"
	"screen-pin/src/logutil"
	"screen-pin/src/screenshot"
	"screen-pin/src/session"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBootstrapWiresCapture(t *testing.T) {
	t.Setenv("COPY_TO_CLIPBOARD", "false")
	t.Setenv("MIN_SELECTION_PX", "7")
	screen := desktop.VirtualScreenInfo{Width: 200, Height: 100}
	mem := screenshot.NewMemoryBackend(coords.Point{}, 200, 100, color.NRGBA{B: 255, A: 255})
	loggingEnabled := false
	rec := &logutil.Recorder{}

	rt, err := Bootstrap(Options{
		LoadOptions:  LoadOptionsFor(writeEnv(t, "ENABLE_FILE_LOGGING=true\n")),
		SetupLogging: func(b bool) { loggingEnabled = b },
		Log:          rec,
		Desktop:      &desktop.Static{Screen: screen},
		Backend:      mem,
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("ENABLE_FILE_LOGGING") })

	if !loggingEnabled {
		t.Error("SetupLogging not called with file logging enabled")
	}
	if rt.Config.MinSelectionPx != 7 {
		t.Errorf("MinSelectionPx = %d", rt.Config.MinSelectionPx)
	}
	res := rt.Capture.CaptureFullScreen(context.Background(), nil)
	if !res.Success || res.Image.Width() != 200 {
		t.Fatalf("capture through runtime failed: %+v", res)
	}
	if !rec.Contains(logutil.LevelInfo, "backend=memory") {
		t.Errorf("missing startup log: %v", rec.Entries())
	}
	if got := rt.DPIAt(0, 0); !got.Valid() {
		t.Errorf("DPIAt returned invalid %v", got)
	}
	if targets, ok := rt.Target().(session.MultiTarget); !ok || len(targets) != 0 {
		t.Errorf("clipboard disabled but target = %#v", rt.Target())
	}
}

func TestBootstrapHonoursBackendOverride(t *testing.T) {
	rt, err := Bootstrap(Options{
		LoadOptions: LoadOptionsFor(writeEnv(t, "")),
		Log:         logutil.Discard(),
		Desktop:     &desktop.Static{Screen: desktop.VirtualScreenInfo{Width: 1, Height: 1}},
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if rt.Backend.Name() != screenshot.DefaultBackend() {
		t.Errorf("backend = %s, want platform default %s", rt.Backend.Name(), screenshot.DefaultBackend())
	}

	rt, err = Bootstrap(Options{
		LoadOptions: LoadOptionsFor(writeEnv(t, ""), "screenshot"),
		Log:         logutil.Discard(),
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if rt.Backend.Name() != screenshot.BackendScreenshot {
		t.Errorf("backend = %s", rt.Backend.Name())
	}
	if rt.Resolver.ResolveAtPoint(5, 5) == (dpi.Info{}) {
		t.Error("resolver returned zero DPI")
	}
}
