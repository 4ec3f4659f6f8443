package geometry

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestResolve_LandscapeVideoPortraitRatio(t *testing.T) {
	g := Resolve(VideoBox{Width: 1920, Height: 1080}, Ratio9x16)

	if g.Overlay.Width != 607.5 || g.Overlay.Height != 1080 {
		t.Fatalf("Overlay = %+v, want {607.5 1080}", g.Overlay)
	}
	if g.Bounds.Left != 0 || g.Bounds.Right != 1312.5 {
		t.Fatalf("Bounds = %+v, want {0 1312.5}", g.Bounds)
	}
	if !almostEqual(g.WidthPercent, 31.640625) {
		t.Fatalf("WidthPercent = %v, want 31.640625", g.WidthPercent)
	}
	if !g.Renderable() {
		t.Fatal("Renderable() = false, want true")
	}
}

func TestResolve_CapsWidthAtVideoWidth(t *testing.T) {
	tests := []struct {
		name  string
		video VideoBox
		ratio AspectRatio
	}{
		{"landscape ratio on landscape video", VideoBox{Width: 1280, Height: 720}, Ratio16x9},
		{"square ratio on portrait video", VideoBox{Width: 360, Height: 640}, Ratio1x1},
		{"landscape ratio on narrow video", VideoBox{Width: 400, Height: 700}, Ratio16x9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Resolve(tt.video, tt.ratio)
			if g.Overlay.Width != tt.video.Width {
				t.Errorf("Overlay.Width = %v, want %v", g.Overlay.Width, tt.video.Width)
			}
			if g.Bounds.Right != 0 {
				t.Errorf("Bounds.Right = %v, want 0", g.Bounds.Right)
			}
			if g.WidthPercent != 100 {
				t.Errorf("WidthPercent = %v, want 100", g.WidthPercent)
			}
		})
	}
}

func TestResolve_OverlayNeverExceedsVideo(t *testing.T) {
	widths := []float64{1, 99.5, 320, 640, 1080, 1920, 3840}
	heights := []float64{1, 180, 480, 720, 1080, 1920, 2160}

	for _, ratio := range SupportedRatios() {
		for _, w := range widths {
			for _, h := range heights {
				video := VideoBox{Width: w, Height: h}
				g := Resolve(video, ratio)
				if g.Overlay.Width > video.Width {
					t.Errorf("Resolve(%v, %s).Overlay.Width = %v > %v", video, ratio, g.Overlay.Width, video.Width)
				}
				if g.Overlay.Height != video.Height {
					t.Errorf("Resolve(%v, %s).Overlay.Height = %v, want %v", video, ratio, g.Overlay.Height, video.Height)
				}
				if g.Bounds.Right < 0 {
					t.Errorf("Resolve(%v, %s).Bounds.Right = %v, want >= 0", video, ratio, g.Bounds.Right)
				}
			}
		}
	}
}

func TestResolve_Idempotent(t *testing.T) {
	video := VideoBox{Width: 1366, Height: 768}
	first := Resolve(video, Ratio4x5)
	second := Resolve(video, Ratio4x5)
	if first != second {
		t.Fatalf("Resolve() not idempotent: %+v != %+v", first, second)
	}
}

func TestResolve_Degenerate(t *testing.T) {
	tests := []struct {
		name  string
		video VideoBox
		ratio AspectRatio
	}{
		{"zero width", VideoBox{Width: 0, Height: 1080}, Ratio9x16},
		{"zero height", VideoBox{Width: 1920, Height: 0}, Ratio9x16},
		{"negative", VideoBox{Width: -10, Height: -10}, Ratio1x1},
		{"NaN", VideoBox{Width: math.NaN(), Height: 720}, Ratio1x1},
		{"zero ratio", VideoBox{Width: 1920, Height: 1080}, AspectRatio{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Resolve(tt.video, tt.ratio)
			if g.Renderable() {
				t.Fatalf("Renderable() = true, want false for %+v", tt.video)
			}
			if g.Overlay != (OverlayBox{}) {
				t.Errorf("Overlay = %+v, want zero", g.Overlay)
			}
			if g.Bounds != (DragBounds{}) {
				t.Errorf("Bounds = %+v, want zero", g.Bounds)
			}
			if g.WidthPercent != 0 {
				t.Errorf("WidthPercent = %v, want 0", g.WidthPercent)
			}
		})
	}
}

func TestGeometry_CenteredX(t *testing.T) {
	g := Resolve(VideoBox{Width: 1920, Height: 1080}, Ratio9x16)
	if got := g.CenteredX(); got != 656.25 {
		t.Fatalf("CenteredX() = %v, want 656.25", got)
	}
}

func TestDragBounds_Clamp(t *testing.T) {
	b := DragBounds{Left: 0, Right: 1312.5}
	tests := []struct {
		in   float64
		want float64
	}{
		{-10000, 0},
		{10000, 1312.5},
		{500, 500},
		{0, 0},
		{1312.5, 1312.5},
		{math.NaN(), 0},
		{math.Inf(1), 1312.5},
		{math.Inf(-1), 0},
	}

	for _, tt := range tests {
		if got := b.Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDragBounds_Span(t *testing.T) {
	if got := (DragBounds{Left: 0, Right: 0}).Span(); got != 0 {
		t.Errorf("Span() = %v, want 0", got)
	}
	if got := (DragBounds{Left: 10, Right: 5}).Span(); got != 0 {
		t.Errorf("inverted Span() = %v, want 0", got)
	}
	if got := (DragBounds{Left: 0, Right: 42}).Span(); got != 42 {
		t.Errorf("Span() = %v, want 42", got)
	}
}

func TestParseRatio(t *testing.T) {
	for _, r := range SupportedRatios() {
		got, err := ParseRatio(r.String())
		if err != nil {
			t.Fatalf("ParseRatio(%q) error = %v", r.String(), err)
		}
		if got != r {
			t.Errorf("ParseRatio(%q) = %v, want %v", r.String(), got, r)
		}
	}

	if got, err := ParseRatio(" 16:9 "); err != nil || got != Ratio16x9 {
		t.Errorf("ParseRatio with spaces = %v, %v", got, err)
	}

	for _, bad := range []string{"", "2:1", "16x9", "9:16:1", "abc"} {
		if _, err := ParseRatio(bad); !errors.Is(err, ErrUnknownRatio) {
			t.Errorf("ParseRatio(%q) error = %v, want ErrUnknownRatio", bad, err)
		}
	}
}

func TestAspectRatio_String(t *testing.T) {
	if got := Ratio9x16.String(); got != "9:16" {
		t.Errorf("String() = %q, want 9:16", got)
	}
	if got := (AspectRatio{Width: 2.39, Height: 1}).String(); got != "2.39:1" {
		t.Errorf("String() = %q, want 2.39:1", got)
	}
}
