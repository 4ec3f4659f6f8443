// Package preview derives the clip insets that restrict the preview video
// to the cropped slice selected by the overlay.
package preview

import (
	"fmt"
	"math"
	"strconv"
)

// ClipInsets are left and right margins, in percent of the preview width,
// hidden by the clip rectangle. Top and bottom are never clipped.
type ClipInsets struct {
	Left  float64
	Right float64
}

// Visible is the percentage of the preview width left showing.
func (c ClipInsets) Visible() float64 {
	return 100 - c.Left - c.Right
}

// CSS renders the insets as a clip-path value.
func (c ClipInsets) CSS() string {
	return fmt.Sprintf("inset(0 %s%% 0 %s%%)", formatPercent(c.Right), formatPercent(c.Left))
}

// Clip maps a crop percentage and the overlay width-percent to clip insets.
//
// Past the last position at which the window still fits (100 - widthPercent)
// the left inset is pulled back by widthPercent so the visible slice never
// grows beyond the overlay width. Both insets are floored at zero.
func Clip(percentage, widthPercent float64) ClipInsets {
	percentage = finite(percentage)
	widthPercent = finite(widthPercent)

	maxRightPosition := 100 - widthPercent

	left := percentage
	if percentage >= maxRightPosition {
		left = percentage - widthPercent
	}

	right := maxRightPosition - percentage
	if maxRightPosition < 0 {
		right = percentage
	}

	return ClipInsets{
		Left:  math.Max(0, left),
		Right: math.Max(0, right),
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
