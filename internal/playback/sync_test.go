package playback

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeElement struct {
	seeks   []float64
	rates   []Rate
	volumes []float64
	plays   int
	pauses  int
	playErr error
}

func (f *fakeElement) Seek(seconds float64) { f.seeks = append(f.seeks, seconds) }
func (f *fakeElement) SetRate(r Rate)       { f.rates = append(f.rates, r) }
func (f *fakeElement) SetVolume(v float64)  { f.volumes = append(f.volumes, v) }
func (f *fakeElement) Pause()               { f.pauses++ }

func (f *fakeElement) Play() error {
	f.plays++
	return f.playErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSynchronizer_MirrorsWhenVisible(t *testing.T) {
	el := &fakeElement{}
	s := NewSynchronizer(el, discardLogger())
	s.SetActive(true)

	if !s.Mirror(State{IsPlaying: true, Volume: 0.8, Rate: RateDouble, CurrentTime: 12.5}) {
		t.Fatal("Mirror() = false, want true")
	}
	if len(el.seeks) != 1 || el.seeks[0] != 12.5 {
		t.Errorf("seeks = %v, want [12.5]", el.seeks)
	}
	if len(el.rates) != 1 || el.rates[0] != RateDouble {
		t.Errorf("rates = %v, want [2]", el.rates)
	}
	if len(el.volumes) != 1 || el.volumes[0] != 0.8 {
		t.Errorf("volumes = %v, want [0.8]", el.volumes)
	}
	if el.plays != 1 || el.pauses != 0 {
		t.Errorf("plays/pauses = %d/%d, want 1/0", el.plays, el.pauses)
	}

	s.Mirror(State{Volume: 0.8, Rate: RateDouble, CurrentTime: 13})
	if el.pauses != 1 {
		t.Errorf("pauses = %d, want 1", el.pauses)
	}
}

func TestSynchronizer_InactiveDoesNotWrite(t *testing.T) {
	el := &fakeElement{}
	s := NewSynchronizer(el, discardLogger())

	if s.Mirror(DefaultState()) {
		t.Fatal("Mirror() while inactive = true")
	}
	if s.Visible() {
		t.Fatal("Visible() while inactive = true")
	}
	if len(el.seeks) != 0 {
		t.Fatalf("seeks = %v, want none", el.seeks)
	}
}

func TestSynchronizer_SuspendedDoesNotWrite(t *testing.T) {
	el := &fakeElement{}
	s := NewSynchronizer(el, discardLogger())
	s.SetActive(true)
	s.Suspend()

	if s.Mirror(State{IsPlaying: true, Volume: 1, Rate: RateNormal, CurrentTime: 3}) {
		t.Fatal("Mirror() while suspended = true")
	}
	if s.Visible() {
		t.Fatal("Visible() while suspended = true")
	}

	s.Resume()
	if !s.Mirror(State{Volume: 1, Rate: RateNormal, CurrentTime: 3}) {
		t.Fatal("Mirror() after Resume = false")
	}
	if el.plays != 0 {
		t.Fatalf("plays = %d, want 0", el.plays)
	}
}

func TestSynchronizer_ResetHidesForOneCycle(t *testing.T) {
	el := &fakeElement{}
	s := NewSynchronizer(el, discardLogger())
	s.SetActive(true)
	s.ResetVisibility()

	if s.Visible() {
		t.Fatal("Visible() after reset = true")
	}
	if s.Mirror(DefaultState()) {
		t.Fatal("first Mirror() after reset = true")
	}
	if !s.Visible() {
		t.Fatal("Visible() after consumed reset = false")
	}
	if !s.Mirror(DefaultState()) {
		t.Fatal("second Mirror() after reset = false")
	}
	if len(el.seeks) != 1 {
		t.Fatalf("seeks = %v, want exactly one write", el.seeks)
	}
}

func TestSynchronizer_PlayFailureIsSwallowed(t *testing.T) {
	el := &fakeElement{playErr: errors.New("autoplay rejected")}
	s := NewSynchronizer(el, discardLogger())
	s.SetActive(true)

	for i := 0; i < 3; i++ {
		if !s.Mirror(State{IsPlaying: true, Volume: 0.5, Rate: RateNormal, CurrentTime: float64(i)}) {
			t.Fatalf("Mirror() #%d = false after play failure", i)
		}
	}
	if el.plays != 3 {
		t.Errorf("plays = %d, want 3", el.plays)
	}
	if s.PlayFailures() != 3 {
		t.Errorf("PlayFailures() = %d, want 3", s.PlayFailures())
	}
}

func TestSynchronizer_NilLogger(t *testing.T) {
	s := NewSynchronizer(&fakeElement{}, nil)
	s.PlayFailed(errors.New("boom"))
	if s.PlayFailures() != 1 {
		t.Fatalf("PlayFailures() = %d, want 1", s.PlayFailures())
	}
}

func TestSynchronizer_NormalizesBeforeWriting(t *testing.T) {
	el := &fakeElement{}
	s := NewSynchronizer(el, discardLogger())
	s.SetActive(true)

	s.Mirror(State{Volume: 4, Rate: 1.1, CurrentTime: -2})
	if el.volumes[0] != 1 {
		t.Errorf("volume = %v, want 1", el.volumes[0])
	}
	if el.rates[0] != RateNormal {
		t.Errorf("rate = %v, want 1", el.rates[0])
	}
	if el.seeks[0] != 0 {
		t.Errorf("seek = %v, want 0", el.seeks[0])
	}
}
