// Package geometry resolves the crop overlay box and its legal horizontal
// drag range from the rendered video size and a target aspect ratio.
//
// Everything here is a pure function of its inputs. Callers own the
// resulting values and decide when to recompute them.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnknownRatio is returned by ParseRatio for labels outside SupportedRatios.
var ErrUnknownRatio = errors.New("unknown aspect ratio")

// VideoBox is the rendered size of the primary video element.
type VideoBox struct {
	Width  float64
	Height float64
}

// Valid reports whether both dimensions are positive and finite.
func (b VideoBox) Valid() bool {
	return isPositive(b.Width) && isPositive(b.Height)
}

// AspectRatio is a width:height pair, e.g. 9:16.
type AspectRatio struct {
	Width  float64
	Height float64
}

func (r AspectRatio) String() string {
	return formatTerm(r.Width) + ":" + formatTerm(r.Height)
}

func (r AspectRatio) valid() bool {
	return isPositive(r.Width) && isPositive(r.Height)
}

var (
	Ratio9x16 = AspectRatio{Width: 9, Height: 16}
	Ratio4x5  = AspectRatio{Width: 4, Height: 5}
	Ratio1x1  = AspectRatio{Width: 1, Height: 1}
	Ratio16x9 = AspectRatio{Width: 16, Height: 9}
)

// DefaultRatio is the ratio selected when a session starts.
var DefaultRatio = Ratio9x16

var supportedRatios = []AspectRatio{Ratio9x16, Ratio4x5, Ratio1x1, Ratio16x9}

// SupportedRatios returns the selectable ratios in menu order.
func SupportedRatios() []AspectRatio {
	out := make([]AspectRatio, len(supportedRatios))
	copy(out, supportedRatios)
	return out
}

// ParseRatio maps a label such as "9:16" onto one of the supported ratios.
func ParseRatio(label string) (AspectRatio, error) {
	label = strings.TrimSpace(label)
	for _, r := range supportedRatios {
		if r.String() == label {
			return r, nil
		}
	}
	return AspectRatio{}, fmt.Errorf("%w: %q", ErrUnknownRatio, label)
}

// OverlayBox is the size of the draggable crop window.
type OverlayBox struct {
	Width  float64
	Height float64
}

// DragBounds is the legal range for the overlay's left edge, in pixels.
type DragBounds struct {
	Left  float64
	Right float64
}

// Span is the width of the legal drag range. Never negative.
func (b DragBounds) Span() float64 {
	if b.Right <= b.Left {
		return 0
	}
	return b.Right - b.Left
}

// Clamp pulls x into [Left, Right]. NaN maps to Left.
func (b DragBounds) Clamp(x float64) float64 {
	if math.IsNaN(x) || x < b.Left || b.Right < b.Left {
		return b.Left
	}
	if x > b.Right {
		return b.Right
	}
	return x
}

// Geometry is the result of resolving a video box against a ratio.
type Geometry struct {
	Video   VideoBox
	Ratio   AspectRatio
	Overlay OverlayBox
	Bounds  DragBounds

	// WidthPercent is the overlay width as a percentage of the video width.
	WidthPercent float64
}

// Renderable is false for the degenerate geometry produced before the
// video has known dimensions. The overlay must not be drawn in that state.
func (g Geometry) Renderable() bool {
	return g.Overlay.Width > 0 && g.Overlay.Height > 0
}

// CenteredX is the left-edge offset that centers the overlay.
func (g Geometry) CenteredX() float64 {
	return (g.Video.Width - g.Overlay.Width) / 2
}

// Resolve computes the overlay box, drag bounds and width-percent for a
// video box and target ratio. The overlay keeps the full video height and
// its width is capped at the video width, so a portrait ratio on a narrow
// video never overflows horizontally.
func Resolve(video VideoBox, ratio AspectRatio) Geometry {
	g := Geometry{Video: video, Ratio: ratio}
	if !video.Valid() || !ratio.valid() {
		return g
	}

	width := video.Height * ratio.Width / ratio.Height
	if width > video.Width {
		width = video.Width
	}

	g.Overlay = OverlayBox{Width: width, Height: video.Height}
	g.Bounds = DragBounds{Left: 0, Right: video.Width - width}
	g.WidthPercent = width / video.Width * 100
	return g
}

func isPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func formatTerm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
