package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"screen-pin/src/capture"
	"screen-pin/src/coords"
	"screen-pin/src/desktop"
	"screen-pin/src/runtimeinit"
	"screen-pin/src/screenshot"
)

func newTestCLI(t *testing.T) (*cli, *bytes.Buffer, *screenshot.MemoryBackend) {
	t.Helper()
	screen := desktop.VirtualScreenInfo{Left: -100, Top: 0, Width: 400, Height: 300}
	mem := screenshot.NewMemoryBackend(coords.Point{X: screen.Left, Y: screen.Top}, screen.Width, screen.Height, color.NRGBA{R: 255, A: 255})
	var stdout, stderr bytes.Buffer
	c := &cli{
		stdout: &stdout,
		stderr: &stderr,
		bootstrap: func(o runtimeinit.Options) (*runtimeinit.Runtime, error) {
			o.Backend = mem
			o.Desktop = &desktop.Static{Screen: screen, Cursor: coords.Point{X: 10, Y: 10}}
			return runtimeinit.Bootstrap(o)
		},
	}
	return c, &stdout, mem
}

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Normalizes long single dash flags",
			in:   []string{"screen-pin", "capture", "-full", "-json"},
			out:  []string{"screen-pin", "capture", "--full", "--json"},
		},
		{
			name: "Normalizes equals form",
			in:   []string{"screen-pin", "capture", "-region=1,2,3,4", "-backend=gdi"},
			out:  []string{"screen-pin", "capture", "--region=1,2,3,4", "--backend=gdi"},
		},
		{
			name: "Leaves other flags unchanged",
			in:   []string{"screen-pin", "capture", "--full", "-o", "x.png", "-v"},
			out:  []string{"screen-pin", "capture", "--full", "-o", "x.png", "-v"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeLegacyArgs(tt.in)
			if len(got) != len(tt.out) {
				t.Fatalf("Expected len=%d, got %d", len(tt.out), len(got))
			}
			for i := range got {
				if got[i] != tt.out[i] {
					t.Fatalf("Expected arg[%d]=%q, got %q", i, tt.out[i], got[i])
				}
			}
		})
	}
}

func TestParseRegion(t *testing.T) {
	r, err := parseRegion("10, 20,30,40")
	if err != nil {
		t.Fatal(err)
	}
	if r != (coords.Rect{X: 10, Y: 20, Width: 30, Height: 40}) {
		t.Fatalf("got %v", r)
	}
	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "1,2,3,4,5"} {
		if _, err := parseRegion(bad); err == nil {
			t.Errorf("parseRegion(%q) succeeded", bad)
		}
	}
}

func TestCaptureRegionJSON(t *testing.T) {
	c, stdout, mem := newTestCLI(t)
	if err := c.runWithArgs([]string{"screen-pin", "capture", "--region", "100,50,64,32", "--json"}); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	var r CaptureReport
	if err := json.Unmarshal(stdout.Bytes(), &r); err != nil {
		t.Fatalf("Failed to parse JSON: %v\n%s", err, stdout.String())
	}
	if r.Width != 64 || r.Height != 32 {
		t.Errorf("size = %dx%d", r.Width, r.Height)
	}
	if r.ScreenRegion.X != 0 || r.ScreenRegion.Y != 50 {
		t.Errorf("screen region = %+v", r.ScreenRegion)
	}
	if r.Backend != "memory" {
		t.Errorf("backend = %q", r.Backend)
	}
	if r.DPI != [2]float64{96, 96} {
		t.Errorf("dpi = %v", r.DPI)
	}
	if mem.OpenHandles() != 0 {
		t.Errorf("open handles = %d", mem.OpenHandles())
	}
}

func TestCaptureFullWritesPNG(t *testing.T) {
	c, stdout, _ := newTestCLI(t)
	out := filepath.Join(t.TempDir(), "shot.png")
	if err := c.runWithArgs([]string{"screen-pin", "capture", "--full", "--out", out}); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatal("output is not a PNG")
	}
	if !strings.Contains(stdout.String(), "captured 400x300") {
		t.Errorf("summary = %q", stdout.String())
	}
}

func TestCapturePNGToStdout(t *testing.T) {
	c, stdout, _ := newTestCLI(t)
	if err := c.runWithArgs([]string{"screen-pin", "capture", "--region", "0,0,8,8", "-o", "-"}); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if !bytes.HasPrefix(stdout.Bytes(), []byte("\x89PNG")) {
		t.Fatal("stdout is not a PNG")
	}
}

func TestCaptureInvalidRegion(t *testing.T) {
	c, _, mem := newTestCLI(t)
	err := c.runWithArgs([]string{"screen-pin", "capture", "--region", "0,0,0,10"})
	if !errors.Is(err, capture.ErrInvalidRegion) {
		t.Fatalf("err = %v, want ErrInvalidRegion", err)
	}
	if mem.Captures() != 0 {
		t.Fatal("backend called for invalid region")
	}
}

func TestCaptureRequiresMode(t *testing.T) {
	c, _, _ := newTestCLI(t)
	if err := c.runWithArgs([]string{"screen-pin", "capture"}); err == nil {
		t.Fatal("expected error without --full or --region")
	}
	if err := c.runWithArgs([]string{"screen-pin", "capture", "--full", "--region", "0,0,1,1"}); err == nil {
		t.Fatal("expected error with both --full and --region")
	}
}

func TestDPICommand(t *testing.T) {
	c, stdout, _ := newTestCLI(t)
	if err := c.runWithArgs([]string{"screen-pin", "dpi", "--x", "5", "--y", "6", "--json"}); err != nil {
		t.Fatalf("dpi failed: %v", err)
	}
	var r DPIReport
	if err := json.Unmarshal(stdout.Bytes(), &r); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if r.X != 5 || r.Y != 6 || r.DPIX <= 0 || r.Source == "" {
		t.Errorf("report = %+v", r)
	}

	stdout.Reset()
	if err := c.runWithArgs([]string{"screen-pin", "dpi"}); err != nil {
		t.Fatalf("dpi at cursor failed: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "10,10:") {
		t.Errorf("cursor output = %q", stdout.String())
	}
}

func TestVerboseWritesDiagnostics(t *testing.T) {
	c, _, _ := newTestCLI(t)
	var stderr bytes.Buffer
	c.stderr = &stderr
	if err := c.runWithArgs([]string{"screen-pin", "capture", "--region", "390,290,50,50", "-v"}); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if !strings.Contains(stderr.String(), "adjusted") {
		t.Errorf("expected clamp diagnostic in verbose output, got %q", stderr.String())
	}
}
