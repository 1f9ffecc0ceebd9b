package capture

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"testing"

	"screen-pin/src/coords"
	"screen-pin/src/desktop"
	"screen-pin/src/logutil"
	"screen-pin/src/screenshot"
)

var fill = color.NRGBA{R: 10, G: 20, B: 30, A: 255}

func newFixture(screen desktop.VirtualScreenInfo) (*Service, *screenshot.MemoryBackend, *logutil.Recorder) {
	mem := screenshot.NewMemoryBackend(coords.Point{X: screen.Left, Y: screen.Top}, screen.Width, screen.Height, fill)
	rec := &logutil.Recorder{}
	svc := NewService(mem, &desktop.Static{Screen: screen}, rec)
	return svc, mem, rec
}

var fullHD = desktop.VirtualScreenInfo{Width: 1920, Height: 1080}

func TestCaptureRegionSuccess(t *testing.T) {
	svc, mem, rec := newFixture(fullHD)
	var stages []Stage
	res := svc.CaptureRegion(context.Background(), coords.Rect{X: 100, Y: 100, Width: 200, Height: 150}, func(s Stage) {
		stages = append(stages, s)
	})
	if !res.Success {
		t.Fatalf("capture failed: %v", res.Err())
	}
	if res.Image.Width() != 200 || res.Image.Height() != 150 {
		t.Fatalf("image size = %dx%d, want 200x150", res.Image.Width(), res.Image.Height())
	}
	if got := res.Image.NRGBAAt(0, 0); got != fill {
		t.Fatalf("pixel = %v, want %v", got, fill)
	}
	if x, y := res.Image.DPI(); x != 96 || y != 96 {
		t.Fatalf("dpi = %v,%v, want 96", x, y)
	}
	want := []Stage{StagePreparing, StageCopying, StageConverting, StageDone}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("stages = %v, want %v", stages, want)
		}
	}
	if mem.OpenHandles() != 0 {
		t.Fatalf("open handles = %d after success", mem.OpenHandles())
	}
	if rec.Count(logutil.LevelError) != 0 {
		t.Fatalf("unexpected error logs: %v", rec.Entries())
	}
	if res.Err() != nil {
		t.Fatalf("Err() = %v on success", res.Err())
	}
}

func TestCaptureRegionOutsideDesktopClampsToOnePixel(t *testing.T) {
	svc, _, rec := newFixture(fullHD)
	res := svc.CaptureRegion(context.Background(), coords.Rect{X: 5000, Y: 5000, Width: 50, Height: 50}, nil)
	if !res.Success {
		t.Fatalf("capture failed: %v", res.Err())
	}
	if res.Image.Width() != 1 || res.Image.Height() != 1 {
		t.Fatalf("image size = %dx%d, want 1x1", res.Image.Width(), res.Image.Height())
	}
	if want := (coords.Rect{X: 1919, Y: 1079, Width: 1, Height: 1}); res.Region != want {
		t.Fatalf("region = %v, want %v", res.Region, want)
	}
	if !rec.Contains(logutil.LevelInfo, "adjusted") {
		t.Fatalf("expected a clamp log, got %v", rec.Entries())
	}
}

func TestCaptureRegionPartialOverlapIsClamped(t *testing.T) {
	svc, _, _ := newFixture(fullHD)
	res := svc.CaptureRegion(context.Background(), coords.Rect{X: 1900, Y: -10, Width: 100, Height: 50}, nil)
	if !res.Success {
		t.Fatalf("capture failed: %v", res.Err())
	}
	if want := (coords.Rect{X: 1900, Y: 0, Width: 20, Height: 40}); res.Region != want {
		t.Fatalf("region = %v, want %v", res.Region, want)
	}
	if res.Image.Width() != 20 || res.Image.Height() != 40 {
		t.Fatalf("image size = %dx%d, want 20x40", res.Image.Width(), res.Image.Height())
	}
	if got := res.Image.NRGBAAt(19, 0); got != fill {
		t.Fatalf("edge pixel = %v, want desktop fill %v", got, fill)
	}
}

func TestCaptureRegionOverhangingEdgesIsIntersected(t *testing.T) {
	tests := []struct {
		name       string
		screen     desktop.VirtualScreenInfo
		in         coords.Rect
		want       coords.Rect
		screenWant coords.Rect
	}{
		{
			name:       "bottom-right overhang",
			screen:     desktop.VirtualScreenInfo{Width: 400, Height: 300},
			in:         coords.Rect{X: 390, Y: 290, Width: 50, Height: 50},
			want:       coords.Rect{X: 390, Y: 290, Width: 10, Height: 10},
			screenWant: coords.Rect{X: 390, Y: 290, Width: 10, Height: 10},
		},
		{
			name:       "left overhang with negative desktop origin",
			screen:     desktop.VirtualScreenInfo{Left: -1920, Top: -200, Width: 3840, Height: 1280},
			in:         coords.Rect{X: -30, Y: 100, Width: 60, Height: 20},
			want:       coords.Rect{X: 0, Y: 100, Width: 30, Height: 20},
			screenWant: coords.Rect{X: -1920, Y: -100, Width: 30, Height: 20},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mem, rec := newFixture(tt.screen)
			res := svc.CaptureRegion(context.Background(), tt.in, nil)
			if !res.Success {
				t.Fatalf("capture failed: %v", res.Err())
			}
			if res.Region != tt.want || res.ScreenRegion != tt.screenWant {
				t.Fatalf("region = %v screen = %v, want %v / %v", res.Region, res.ScreenRegion, tt.want, tt.screenWant)
			}
			if res.Image.Width() != tt.want.Width || res.Image.Height() != tt.want.Height {
				t.Fatalf("image size = %dx%d, want %dx%d", res.Image.Width(), res.Image.Height(), tt.want.Width, tt.want.Height)
			}
			if !rec.Contains(logutil.LevelInfo, "adjusted") {
				t.Fatalf("expected a clamp log, got %v", rec.Entries())
			}
			if mem.OpenHandles() != 0 {
				t.Fatalf("open handles = %d", mem.OpenHandles())
			}
		})
	}
}

func TestCaptureRegionInsideDesktopIsNotAdjusted(t *testing.T) {
	svc, _, rec := newFixture(fullHD)
	res := svc.CaptureRegion(context.Background(), coords.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}, nil)
	if !res.Success {
		t.Fatalf("capture failed: %v", res.Err())
	}
	if rec.Contains(logutil.LevelInfo, "adjusted") {
		t.Fatalf("unexpected clamp log: %v", rec.Entries())
	}
}

// leakyBackend returns a live buffer together with an error.
type leakyBackend struct {
	*screenshot.MemoryBackend
}

func (b leakyBackend) CaptureToBuffer(ctx context.Context, region coords.Rect) (*screenshot.RawBuffer, error) {
	buf, err := b.MemoryBackend.CaptureToBuffer(ctx, region)
	if err != nil {
		return nil, err
	}
	return buf, errors.New("partial copy")
}

func TestCaptureErrorWithBufferReleasesIt(t *testing.T) {
	mem := screenshot.NewMemoryBackend(coords.Point{}, fullHD.Width, fullHD.Height, fill)
	svc := NewService(leakyBackend{mem}, &desktop.Static{Screen: fullHD}, nil)
	res := svc.CaptureRegion(context.Background(), coords.Rect{Width: 10, Height: 10}, nil)
	if res.Success || res.Failure != FailureCapture {
		t.Fatalf("got %+v, want capture failure", res)
	}
	if mem.OpenHandles() != 0 {
		t.Fatalf("open handles = %d after failed capture", mem.OpenHandles())
	}
}

func TestCaptureRegionNonPositiveSize(t *testing.T) {
	for _, r := range []coords.Rect{
		{X: 0, Y: 0, Width: 0, Height: 10},
		{X: 0, Y: 0, Width: 10, Height: -1},
	} {
		svc, mem, _ := newFixture(fullHD)
		res := svc.CaptureRegion(context.Background(), r, nil)
		if res.Success || res.Failure != FailureInvalidRegion {
			t.Fatalf("%v: got %+v, want invalid-region failure", r, res)
		}
		if !errors.Is(res.Err(), ErrInvalidRegion) {
			t.Fatalf("%v: Err() = %v", r, res.Err())
		}
		if mem.Captures() != 0 {
			t.Fatalf("%v: backend was called for an invalid region", r)
		}
	}
}

func TestCaptureRegionNegativeOrigin(t *testing.T) {
	screen := desktop.VirtualScreenInfo{Left: -1920, Top: -200, Width: 3840, Height: 1280}
	svc, _, _ := newFixture(screen)
	res := svc.CaptureRegion(context.Background(), coords.Rect{X: 10, Y: 20, Width: 30, Height: 40}, nil)
	if !res.Success {
		t.Fatalf("capture failed: %v", res.Err())
	}
	if want := (coords.Rect{X: -1910, Y: -180, Width: 30, Height: 40}); res.ScreenRegion != want {
		t.Fatalf("screen region = %v, want %v", res.ScreenRegion, want)
	}
}

func TestCaptureCancelledBetweenSteps(t *testing.T) {
	svc, mem, rec := newFixture(fullHD)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mem.AfterCapture = cancel

	res := svc.CaptureRegion(ctx, coords.Rect{X: 0, Y: 0, Width: 64, Height: 64}, nil)
	if !res.Cancelled() {
		t.Fatalf("got %+v, want cancellation", res)
	}
	if !errors.Is(res.Err(), ErrCancelled) {
		t.Fatalf("Err() = %v", res.Err())
	}
	if res.Image != nil {
		t.Fatal("cancelled result carries an image")
	}
	if mem.OpenHandles() != 0 {
		t.Fatalf("open handles = %d after cancellation", mem.OpenHandles())
	}
	if rec.Count(logutil.LevelError) != 0 {
		t.Fatalf("cancellation logged as error: %v", rec.Entries())
	}
	if !rec.Contains(logutil.LevelInfo, "cancelled") {
		t.Fatalf("expected info-level cancellation log, got %v", rec.Entries())
	}
}

func TestCaptureCancelledBeforeStart(t *testing.T) {
	svc, mem, _ := newFixture(fullHD)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := svc.CaptureRegion(ctx, coords.Rect{Width: 10, Height: 10}, nil)
	if !res.Cancelled() {
		t.Fatalf("got %+v, want cancellation", res)
	}
	if mem.Captures() != 0 {
		t.Fatal("backend called after cancellation")
	}
}

func TestCaptureFailureKinds(t *testing.T) {
	boom := errors.New("boom")

	svc, mem, rec := newFixture(fullHD)
	mem.CaptureErr = boom
	res := svc.CaptureRegion(context.Background(), coords.Rect{Width: 10, Height: 10}, nil)
	if res.Failure != FailureCapture || !errors.Is(res.Err(), ErrCaptureFailed) || !errors.Is(res.Err(), boom) {
		t.Fatalf("capture error: got %+v / %v", res, res.Err())
	}
	if mem.OpenHandles() != 0 {
		t.Fatalf("open handles = %d after capture failure", mem.OpenHandles())
	}
	if rec.Count(logutil.LevelError) == 0 {
		t.Fatal("capture failure not logged at error level")
	}

	svc, mem, _ = newFixture(fullHD)
	mem.ConvertErr = boom
	res = svc.CaptureRegion(context.Background(), coords.Rect{Width: 10, Height: 10}, nil)
	if res.Failure != FailureConvert || !errors.Is(res.Err(), ErrConvertFailed) {
		t.Fatalf("convert error: got %+v / %v", res, res.Err())
	}
	if mem.OpenHandles() != 0 {
		t.Fatalf("open handles = %d after convert failure", mem.OpenHandles())
	}

	mem = screenshot.NewMemoryBackend(coords.Point{}, 10, 10, fill)
	svc = NewService(mem, &desktop.Static{Err: desktop.ErrNoDisplays}, nil)
	res = svc.CaptureRegion(context.Background(), coords.Rect{Width: 10, Height: 10}, nil)
	if res.Failure != FailureCapture || !errors.Is(res.Err(), desktop.ErrNoDisplays) {
		t.Fatalf("desktop error: got %+v / %v", res, res.Err())
	}
}

func TestCaptureFullScreen(t *testing.T) {
	svc, _, _ := newFixture(desktop.VirtualScreenInfo{Left: -100, Top: 0, Width: 300, Height: 200})
	res := svc.CaptureFullScreen(context.Background(), nil)
	if !res.Success {
		t.Fatalf("capture failed: %v", res.Err())
	}
	if res.Image.Width() != 300 || res.Image.Height() != 200 {
		t.Fatalf("image size = %dx%d", res.Image.Width(), res.Image.Height())
	}
}

func TestConcurrentCapturesAreIndependent(t *testing.T) {
	svc, mem, _ := newFixture(fullHD)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if i%2 == 1 {
				cancel()
			}
			res := svc.CaptureRegion(ctx, coords.Rect{X: i * 10, Y: i * 10, Width: 20 + i, Height: 20}, nil)
			switch {
			case i%2 == 1 && !res.Cancelled():
				errs <- errors.New("cancelled request did not report cancellation")
			case i%2 == 0 && (!res.Success || res.Image.Width() != 20+i):
				errs <- res.Err()
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if mem.OpenHandles() != 0 {
		t.Fatalf("open handles = %d", mem.OpenHandles())
	}
}

type panicBackend struct{ *screenshot.MemoryBackend }

func (panicBackend) ConvertToImage(context.Context, *screenshot.RawBuffer) (*screenshot.Image, error) {
	panic("converter exploded")
}

func TestConvertPanicReleasesBuffer(t *testing.T) {
	mem := screenshot.NewMemoryBackend(coords.Point{}, 50, 50, fill)
	svc := NewService(panicBackend{mem}, &desktop.Static{Screen: desktop.VirtualScreenInfo{Width: 50, Height: 50}}, nil)
	res := svc.CaptureRegion(context.Background(), coords.Rect{Width: 5, Height: 5}, nil)
	if res.Failure != FailureConvert {
		t.Fatalf("got %+v, want convert failure", res)
	}
	if mem.OpenHandles() != 0 {
		t.Fatalf("open handles = %d", mem.OpenHandles())
	}
}
