package preview

import (
	"math"
	"testing"
)

const tolerance = 1e-9

func TestClip_Scenarios(t *testing.T) {
	tests := []struct {
		name         string
		percentage   float64
		widthPercent float64
		wantLeft     float64
		wantRight    float64
	}{
		{"before max right", 50, 31.64, 50, 18.36},
		{"beyond max right", 80, 31.64, 48.36, 0},
		{"at max right", 75, 25, 50, 0},
		{"at left edge", 0, 31.64, 0, 68.36},
		{"full width at 0", 0, 100, 0, 0},
		{"full width at 50", 50, 100, 0, 0},
		{"full width at 100", 100, 100, 0, 0},
		{"zero width", 40, 0, 40, 60},
		{"over-wide overlay", 30, 120, 0, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clip(tt.percentage, tt.widthPercent)
			if math.Abs(got.Left-tt.wantLeft) > tolerance {
				t.Errorf("Clip(%v, %v).Left = %v, want %v", tt.percentage, tt.widthPercent, got.Left, tt.wantLeft)
			}
			if math.Abs(got.Right-tt.wantRight) > tolerance {
				t.Errorf("Clip(%v, %v).Right = %v, want %v", tt.percentage, tt.widthPercent, got.Right, tt.wantRight)
			}
		})
	}
}

func TestClip_BoundedForAllInputs(t *testing.T) {
	for p := 0.0; p <= 100; p += 0.5 {
		for w := 0.0; w <= 100; w += 0.5 {
			c := Clip(p, w)
			if c.Left < 0 || c.Right < 0 {
				t.Fatalf("Clip(%v, %v) = %+v, want non-negative", p, w, c)
			}
			if c.Left+c.Right > 100+tolerance {
				t.Fatalf("Clip(%v, %v) = %+v, sum exceeds 100", p, w, c)
			}
		}
	}
}

func TestClip_VisibleMatchesOverlayWidthInsideBounds(t *testing.T) {
	w := 31.640625
	for p := 0.0; p < 100-w; p += 1 {
		c := Clip(p, w)
		if math.Abs(c.Visible()-w) > tolerance {
			t.Errorf("Clip(%v, %v).Visible() = %v, want %v", p, w, c.Visible(), w)
		}
	}
}

func TestClip_NonFiniteInputs(t *testing.T) {
	c := Clip(math.NaN(), math.Inf(1))
	if math.IsNaN(c.Left) || math.IsNaN(c.Right) {
		t.Fatalf("Clip(NaN, Inf) = %+v, want finite", c)
	}
}

func TestClipInsets_CSS(t *testing.T) {
	c := ClipInsets{Left: 50, Right: 18.5}
	if got := c.CSS(); got != "inset(0 18.5% 0 50%)" {
		t.Fatalf("CSS() = %q", got)
	}
	if got := (ClipInsets{}).CSS(); got != "inset(0 0% 0 0%)" {
		t.Fatalf("zero CSS() = %q", got)
	}
}
