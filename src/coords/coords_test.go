package coords

import (
	"math/rand"
	"testing"

	"screen-pin/src/dpi"
)

var testDPIs = []dpi.Info{
	dpi.Default(),
	dpi.NewInfo(120, 120),
	dpi.NewInfo(144, 144),
	dpi.NewInfo(168, 168),
	dpi.NewInfo(192, 192),
	dpi.NewInfo(288, 288),
	dpi.NewInfo(96, 144),
	dpi.NewInfo(72, 72),
	dpi.NewInfo(97.3, 133.7),
}

func TestPixelDipRoundTrip(t *testing.T) {
	for _, d := range testDPIs {
		for px := -3000; px <= 3000; px += 37 {
			py := -px / 2
			dip := ScreenPixelToDip(px, py, d)
			got := DipToScreenPixel(dip.X, dip.Y, d)
			if absInt(got.X-px) > 1 || absInt(got.Y-py) > 1 {
				t.Fatalf("dpi %v: (%d,%d) -> %+v -> %+v", d, px, py, dip, got)
			}
		}
	}
}

func TestScaleRectangleIdempotence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	scales := []float64{0.5, 1, 1.25, 1.5, 1.75, 2, 3}
	for i := 0; i < 500; i++ {
		r := Rect{X: rng.Intn(4000) - 2000, Y: rng.Intn(4000) - 2000, Width: rng.Intn(3000), Height: rng.Intn(3000)}
		for _, s := range scales {
			back := ScaleRectangle(ScaleRectangle(r, s, s), 1/s, 1/s)
			if absInt(back.X-r.X) > 1 || absInt(back.Y-r.Y) > 1 ||
				absInt(back.Width-r.Width) > 1 || absInt(back.Height-r.Height) > 1 {
				t.Fatalf("scale %g: %v -> %v", s, r, back)
			}
		}
	}
}

func TestScaleRectangleScalesComponentsIndependently(t *testing.T) {
	// Corner subtraction would give round(1.5*1.5+1.5*1)-round(1.5*1.5)=4-2=2.
	got := ScaleRectangle(Rect{X: 1, Y: 1, Width: 1, Height: 1}, 1.5, 1.5)
	want := Rect{X: 2, Y: 2, Width: 2, Height: 2}
	if got != want {
		t.Errorf("ScaleRectangle = %v, want %v", got, want)
	}
	got = ScaleRectangle(Rect{X: 3, Y: 0, Width: 3, Height: 10}, 1.5, 0.25)
	want = Rect{X: 5, Y: 0, Width: 5, Height: 3}
	if got != want {
		t.Errorf("ScaleRectangle = %v, want %v", got, want)
	}
}

func TestScaleRectangleSubPixelCollapses(t *testing.T) {
	got := ScaleRectangle(Rect{X: 10, Y: 10, Width: 1, Height: 3}, 0.4, 0.4)
	want := Rect{X: 4, Y: 4, Width: 0, Height: 1}
	if got != want {
		t.Fatalf("ScaleRectangle = %v, want %v", got, want)
	}
	if IsValidRegion(got, Rect{Width: 100, Height: 100}) {
		t.Fatalf("zero-width region %v reported valid", got)
	}
}

func TestClampContainment(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	bounds := []Rect{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: -1280, Y: -200, Width: 3200, Height: 1280},
		{X: 5, Y: 5, Width: 1, Height: 1},
	}
	for _, b := range bounds {
		for i := 0; i < 2000; i++ {
			r := Rect{
				X:      rng.Intn(12000) - 6000,
				Y:      rng.Intn(12000) - 6000,
				Width:  rng.Intn(8000) - 100,
				Height: rng.Intn(8000) - 100,
			}
			c := ClampRectangle(r, b)
			if !IsValidRegion(c, b) {
				t.Fatalf("ClampRectangle(%v, %v) = %v is not valid", r, b, c)
			}
		}
	}
}

func TestClampRectangle(t *testing.T) {
	b := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	tests := []struct {
		name string
		in   Rect
		want Rect
	}{
		{"inside unchanged", Rect{X: 100, Y: 100, Width: 200, Height: 150}, Rect{X: 100, Y: 100, Width: 200, Height: 150}},
		{"past right edge", Rect{X: 1800, Y: 10, Width: 300, Height: 50}, Rect{X: 1800, Y: 10, Width: 120, Height: 50}},
		{"before origin", Rect{X: -20, Y: -30, Width: 100, Height: 100}, Rect{X: 0, Y: 0, Width: 80, Height: 70}},
		{"larger than bounds", Rect{X: -10, Y: -10, Width: 5000, Height: 5000}, b},
		{"entirely right-below", Rect{X: 5000, Y: 4000, Width: 200, Height: 150}, Rect{X: 1919, Y: 1079, Width: 1, Height: 1}},
		{"entirely left-above", Rect{X: -900, Y: -900, Width: 200, Height: 150}, Rect{X: 0, Y: 0, Width: 1, Height: 1}},
		{"entirely left", Rect{X: -900, Y: 500, Width: 200, Height: 150}, Rect{X: 0, Y: 500, Width: 1, Height: 1}},
		{"zero size inside", Rect{X: 10, Y: 10, Width: 0, Height: 0}, Rect{X: 10, Y: 10, Width: 1, Height: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampRectangle(tt.in, b)
			if got != tt.want {
				t.Errorf("ClampRectangle(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsValidRegionBoundary(t *testing.T) {
	b := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	tests := []struct {
		name string
		r    Rect
		want bool
	}{
		{"zero rect", Rect{}, false},
		{"equal to bounds", b, true},
		{"one pixel too wide", Rect{X: 0, Y: 0, Width: 1921, Height: 1080}, false},
		{"one pixel too tall", Rect{X: 0, Y: 0, Width: 1920, Height: 1081}, false},
		{"negative width", Rect{X: 10, Y: 10, Width: -5, Height: 10}, false},
		{"outside", Rect{X: 1920, Y: 0, Width: 10, Height: 10}, false},
		{"partially outside", Rect{X: 1910, Y: 0, Width: 20, Height: 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidRegion(tt.r, b); got != tt.want {
				t.Errorf("IsValidRegion(%v) = %v, want %v", tt.r, got, tt.want)
			}
		})
	}
}

func TestDipRectToScreenPixelScenarios(t *testing.T) {
	sel := RectFFromPoints(PointF{X: 100, Y: 100}, PointF{X: 300, Y: 250})

	if got, want := DipRectToScreenPixel(sel, dpi.Default()), (Rect{X: 100, Y: 100, Width: 200, Height: 150}); got != want {
		t.Errorf("100%%: got %v, want %v", got, want)
	}
	if got, want := DipRectToScreenPixel(sel, dpi.NewInfo(144, 144)), (Rect{X: 150, Y: 150, Width: 300, Height: 225}); got != want {
		t.Errorf("150%%: got %v, want %v", got, want)
	}
}

func TestRectFromPointsNormalizes(t *testing.T) {
	got := RectFromPoints(Point{X: 300, Y: 250}, Point{X: 100, Y: 100})
	want := Rect{X: 100, Y: 100, Width: 200, Height: 150}
	if got != want {
		t.Errorf("RectFromPoints = %v, want %v", got, want)
	}
}

func TestRoundingIsHalfAwayFromZero(t *testing.T) {
	d := dpi.Default()
	if p := DipToScreenPixel(2.5, -2.5, d); p.X != 3 || p.Y != -3 {
		t.Errorf("DipToScreenPixel(2.5,-2.5) = %+v, want (3,-3)", p)
	}
}
