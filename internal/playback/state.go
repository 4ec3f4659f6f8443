package playback

import (
	"errors"
	"fmt"
	"math"
)

var ErrUnsupportedRate = errors.New("unsupported playback rate")

// Rate is a playback speed multiplier.
type Rate float64

const (
	RateQuarter    Rate = 0.25
	RateHalf       Rate = 0.5
	RateNormal     Rate = 1
	RateOneAndHalf Rate = 1.5
	RateDouble     Rate = 2
)

const (
	DefaultRate   = RateNormal
	DefaultVolume = 0.5
)

var supportedRates = []Rate{RateQuarter, RateHalf, RateNormal, RateOneAndHalf, RateDouble}

// SupportedRates returns the selectable rates in ascending order.
func SupportedRates() []Rate {
	out := make([]Rate, len(supportedRates))
	copy(out, supportedRates)
	return out
}

// ParseRate accepts only one of the supported rates.
func ParseRate(v float64) (Rate, error) {
	for _, r := range supportedRates {
		if float64(r) == v {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %v", ErrUnsupportedRate, v)
}

// NearestRate snaps v onto the closest supported rate. Non-finite values
// map to DefaultRate.
func NearestRate(v float64) Rate {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultRate
	}
	best := supportedRates[0]
	for _, r := range supportedRates[1:] {
		if math.Abs(float64(r)-v) < math.Abs(float64(best)-v) {
			best = r
		}
	}
	return best
}

// ClampVolume pulls v into [0,1]. NaN maps to 0.
func ClampVolume(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// State is the playback state owned by the primary video.
type State struct {
	IsPlaying   bool
	Volume      float64
	Rate        Rate
	CurrentTime float64
}

// DefaultState is paused at the start with default volume and rate.
func DefaultState() State {
	return State{Volume: DefaultVolume, Rate: DefaultRate}
}

// Normalize clamps the state into its legal ranges.
func (s State) Normalize() State {
	s.Volume = ClampVolume(s.Volume)
	s.Rate = NearestRate(float64(s.Rate))
	if math.IsNaN(s.CurrentTime) || s.CurrentTime < 0 {
		s.CurrentTime = 0
	}
	return s
}

// FormatTime renders seconds as MM:SS for the playback readout.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// SeekTime maps a progress-bar fraction onto a time within duration.
func SeekTime(fraction, duration float64) float64 {
	if math.IsNaN(fraction) || math.IsNaN(duration) || duration <= 0 {
		return 0
	}
	fraction = math.Max(0, math.Min(1, fraction))
	return fraction * duration
}
