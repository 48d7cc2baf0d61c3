package timeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FillMode decides whether values hold outside the active interval.
type FillMode int

const (
	FillNone FillMode = iota
	FillForwards
	FillBackwards
	FillBoth
)

func (f FillMode) String() string {
	switch f {
	case FillForwards:
		return "forwards"
	case FillBackwards:
		return "backwards"
	case FillBoth:
		return "both"
	default:
		return "none"
	}
}

func (f FillMode) forwards() bool  { return f == FillForwards || f == FillBoth }
func (f FillMode) backwards() bool { return f == FillBackwards || f == FillBoth }

// ParseFillMode converts CSS animation-fill-mode text.
func ParseFillMode(s string) (FillMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FillNone, nil
	case "forwards":
		return FillForwards, nil
	case "backwards":
		return FillBackwards, nil
	case "both":
		return FillBoth, nil
	}
	return FillNone, fmt.Errorf("%w: fill mode %q", ErrInvalidOption, s)
}

// Direction decides which way each iteration runs.
type Direction int

const (
	DirectionNormal Direction = iota
	DirectionReverse
	DirectionAlternate
	DirectionAlternateReverse
)

func (d Direction) String() string {
	switch d {
	case DirectionReverse:
		return "reverse"
	case DirectionAlternate:
		return "alternate"
	case DirectionAlternateReverse:
		return "alternate-reverse"
	default:
		return "normal"
	}
}

// reversed reports whether the given iteration runs backwards.
func (d Direction) reversed(iteration int) bool {
	odd := iteration%2 == 1
	switch d {
	case DirectionReverse:
		return true
	case DirectionAlternate:
		return odd
	case DirectionAlternateReverse:
		return !odd
	}
	return false
}

// ParseDirection converts CSS animation-direction text.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return DirectionNormal, nil
	case "reverse":
		return DirectionReverse, nil
	case "alternate":
		return DirectionAlternate, nil
	case "alternate-reverse":
		return DirectionAlternateReverse, nil
	}
	return DirectionNormal, fmt.Errorf("%w: direction %q", ErrInvalidOption, s)
}

// Infinite is the iteration count of an endless animation.
var Infinite = math.Inf(1)

// ParseIterationCount converts CSS animation-iteration-count text.
func ParseIterationCount(s string) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "infinite" {
		return Infinite, nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || n <= 0 {
		return 0, fmt.Errorf("%w: iteration count %q", ErrInvalidOption, s)
	}
	return n, nil
}

// FormatIterationCount renders an iteration count as CSS.
func FormatIterationCount(n float64) string {
	if math.IsInf(n, 1) {
		return "infinite"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Options is the playback state shared by the apply and export paths.
// Values are copied, never shared.
type Options struct {
	Easing         Easing
	IterationCount float64
	FillMode       FillMode
	Direction      Direction
	Delay          float64
	PlaySpeed      float64
}

// DefaultOptions returns linear, single iteration, normal playback.
func DefaultOptions() Options {
	return Options{
		Easing:         Linear,
		IterationCount: 1,
		FillMode:       FillNone,
		Direction:      DirectionNormal,
		Delay:          0,
		PlaySpeed:      1,
	}
}

// Validate checks ranges. PlaySpeed divides time so it must be positive.
func (o Options) Validate() error {
	switch {
	case math.IsNaN(o.PlaySpeed) || math.IsInf(o.PlaySpeed, 0) || o.PlaySpeed <= 0:
		return fmt.Errorf("%w: play speed %v", ErrInvalidOption, o.PlaySpeed)
	case math.IsNaN(o.Delay) || math.IsInf(o.Delay, 0) || o.Delay < 0:
		return fmt.Errorf("%w: delay %v", ErrInvalidOption, o.Delay)
	case math.IsNaN(o.IterationCount) || o.IterationCount <= 0:
		return fmt.Errorf("%w: iteration count %v", ErrInvalidOption, o.IterationCount)
	case o.FillMode < FillNone || o.FillMode > FillBoth:
		return fmt.Errorf("%w: fill mode %d", ErrInvalidOption, o.FillMode)
	case o.Direction < DirectionNormal || o.Direction > DirectionAlternateReverse:
		return fmt.Errorf("%w: direction %d", ErrInvalidOption, o.Direction)
	}
	return nil
}

// TotalDuration is the wall time an animation of the given duration takes,
// delay included. It is +Inf for endless animations.
func (o Options) TotalDuration(duration float64) float64 {
	if math.IsInf(o.IterationCount, 1) && duration > 0 {
		return Infinite
	}
	return (o.Delay + duration*o.IterationCount) / o.PlaySpeed
}

// Phase tells where a position falls relative to the active interval.
type Phase int

const (
	PhaseBefore Phase = iota
	PhaseActive
	PhaseAfter
)

func (p Phase) String() string {
	switch p {
	case PhaseBefore:
		return "before"
	case PhaseAfter:
		return "after"
	default:
		return "active"
	}
}

// Position is the result of mapping wall time onto a timeline.
type Position struct {
	// Time is the timeline time to sample, within [0, duration].
	Time float64
	// Iteration is the zero based iteration index.
	Iteration int
	Phase     Phase
	// Filled is false when the fill mode leaves the properties unset.
	Filled bool
}

// endTolerance absorbs rounding when raw time is derived from TotalDuration.
const endTolerance = 1e-12

// Locate maps raw wall time onto timeline time through play speed, delay,
// iteration count and direction.
func (o Options) Locate(raw, duration float64) Position {
	speed := o.PlaySpeed
	if speed <= 0 {
		speed = 1
	}
	count := o.IterationCount
	if count <= 0 || math.IsNaN(count) {
		count = 1
	}
	active := raw*speed - o.Delay

	if active < 0 {
		it := 0
		return Position{
			Time:      o.inCycle(0, it, duration),
			Iteration: it,
			Phase:     PhaseBefore,
			Filled:    o.FillMode.backwards(),
		}
	}

	if duration <= 0 {
		it := 0
		if !math.IsInf(count, 1) {
			it = int(math.Ceil(count)) - 1
		}
		return Position{Time: 0, Iteration: it, Phase: PhaseAfter, Filled: o.FillMode.forwards()}
	}

	end := duration * count
	atEnd := math.Abs(active-end) <= endTolerance*end
	if active >= end || atEnd {
		// final iteration, possibly partial
		it := int(math.Ceil(count)) - 1
		progress := count - math.Floor(count)
		if progress == 0 {
			progress = 1
		}
		p := Position{
			Time:      o.inCycle(progress*duration, it, duration),
			Iteration: it,
			Phase:     PhaseAfter,
			Filled:    o.FillMode.forwards(),
		}
		// the end itself belongs to the active interval
		if atEnd {
			p.Phase, p.Filled = PhaseActive, true
		}
		return p
	}

	it := int(math.Floor(active / duration))
	within := active - float64(it)*duration
	return Position{
		Time:      o.inCycle(within, it, duration),
		Iteration: it,
		Phase:     PhaseActive,
		Filled:    true,
	}
}

func (o Options) inCycle(within float64, iteration int, duration float64) float64 {
	if within < 0 {
		within = 0
	} else if within > duration {
		within = duration
	}
	if o.Direction.reversed(iteration) {
		return duration - within
	}
	return within
}
