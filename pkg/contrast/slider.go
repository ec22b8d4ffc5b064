package contrast

import (
	"fmt"
	"math"
)

// Handle identifies one of the two slider handles.
type Handle int

const (
	HandleMin Handle = iota
	HandleMax
)

func (h Handle) String() string {
	if h == HandleMin {
		return "min"
	}
	return "max"
}

// Stacking order of the handles. The handle taking a gesture is raised above
// the other so that it keeps receiving pointer events on the shared track.
const (
	zLowered = 1
	zDefault = 2
	zRaised  = 3
)

// Slider is a dual-handle range control over [0, 255].
//
// Both handles sit on the same track, so a pointer press is ambiguous: it is
// resolved by [Slider.PointerDown], which hands the gesture to the handle
// nearer to the press point no matter which handle the press landed on.
//
// The zero value is not usable; create sliders with [NewSlider].
type Slider struct {
	min, max int
	active   Handle
	zMin     int
	zMax     int
	onChange func(min, max int)
}

// NewSlider creates a slider at the full range. onChange, if non-nil, is
// called after every value change with the ordered window.
func NewSlider(onChange func(min, max int)) *Slider {
	return &Slider{
		min:      MinValue,
		max:      MaxValue,
		active:   HandleMax,
		zMin:     zLowered,
		zMax:     zDefault,
		onChange: onChange,
	}
}

// Values returns the current window.
func (s *Slider) Values() (min, max int) {
	return s.min, s.max
}

// Active returns the handle that received the last gesture.
func (s *Slider) Active() Handle {
	return s.active
}

// ZIndex returns the stacking order of both handles.
func (s *Slider) ZIndex() (minZ, maxZ int) {
	return s.zMin, s.zMax
}

// PointerDown resolves a press at percent (0-100 along the track) that landed
// on target. The nearer handle becomes active and is raised; on equal
// distance the max handle wins. It returns the handle that takes the gesture.
func (s *Slider) PointerDown(percent float64, target Handle) Handle {
	toMin := math.Abs(percent - toPercent(s.min))
	toMax := math.Abs(percent - toPercent(s.max))

	chosen := HandleMax
	if toMin < toMax {
		chosen = HandleMin
	}
	s.activate(chosen)
	return chosen
}

// Input sets the value of handle h as a gesture on that handle would.
// If min would exceed max, the other handle is moved to match.
func (s *Slider) Input(h Handle, value int) {
	s.activate(h)
	if h == HandleMin {
		s.min = clampValue(value)
	} else {
		s.max = clampValue(value)
	}
	s.update()
}

// Sync loads a stored window into the slider without firing onChange.
func (s *Slider) Sync(min, max int) {
	s.min, s.max = clampValue(min), clampValue(max)
	if s.min > s.max {
		s.min = s.max
	}
}

// Fill returns the highlighted part of the track as left and width percentages.
func (s *Slider) Fill() (left, width float64) {
	lo, hi := toPercent(s.min), toPercent(s.max)
	return lo, hi - lo
}

// Readout returns the numeric display, e.g. "50 - 200".
func (s *Slider) Readout() string {
	return fmt.Sprintf("%d - %d", s.min, s.max)
}

func (s *Slider) activate(h Handle) {
	s.active = h
	if h == HandleMin {
		s.zMin, s.zMax = zRaised, zLowered
	} else {
		s.zMax, s.zMin = zRaised, zLowered
	}
}

func (s *Slider) update() {
	if s.min > s.max {
		if s.active == HandleMin {
			s.max = s.min
		} else {
			s.min = s.max
		}
		s.update()
		return
	}
	if s.onChange != nil {
		s.onChange(s.min, s.max)
	}
}

func toPercent(v int) float64 {
	return float64(v) * 100 / MaxValue
}
