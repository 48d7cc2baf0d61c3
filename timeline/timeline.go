// Package timeline keeps time-keyed frames and answers what every property
// is worth at a given time.
package timeline

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/matt-g-everett/keyframer/frame"
)

var (
	// ErrInvalidTime is returned for negative or non finite times.
	ErrInvalidTime = errors.New("invalid time")
	// ErrInvalidOption is returned for playback options out of range.
	ErrInvalidOption = errors.New("invalid playback option")
)

// Keyframe is one entry of a Timeline.
type Keyframe struct {
	Time  float64
	Frame *frame.Frame
}

// Timeline is an ordered set of keyframes. Times are unique and sorted.
type Timeline struct {
	times    []float64
	frames   map[float64]*frame.Frame
	duration float64
	fixed    bool
}

// New creates an empty Timeline.
func New() *Timeline {
	t := new(Timeline)
	t.frames = make(map[float64]*frame.Frame)
	return t
}

// NormalizeTime validates a time value.
func NormalizeTime(time float64) (float64, error) {
	if math.IsNaN(time) || math.IsInf(time, 0) || time < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTime, time)
	}
	if time == 0 {
		// folds -0 into 0
		return 0, nil
	}
	return time, nil
}

// NewFrame returns the frame bucket at time, creating it if needed.
func (t *Timeline) NewFrame(time float64) (*frame.Frame, error) {
	time, err := NormalizeTime(time)
	if err != nil {
		return nil, err
	}
	if f, ok := t.frames[time]; ok {
		return f, nil
	}

	f := frame.New()
	t.frames[time] = f
	i := sort.SearchFloat64s(t.times, time)
	t.times = append(t.times, 0)
	copy(t.times[i+1:], t.times[i:])
	t.times[i] = time
	return f, nil
}

// Set merges props into the frame at time. Later calls win.
func (t *Timeline) Set(time float64, props *frame.Frame) error {
	f, err := t.NewFrame(time)
	if err != nil {
		return err
	}
	f.Merge(props)
	return nil
}

// Frame returns the stored frame at exactly time.
func (t *Timeline) Frame(time float64) (*frame.Frame, bool) {
	f, ok := t.frames[time]
	return f, ok
}

// Times returns a copy of the sorted keyframe times.
func (t *Timeline) Times() []float64 {
	out := make([]float64, len(t.times))
	copy(out, t.times)
	return out
}

// Keyframes returns every keyframe in time order.
func (t *Timeline) Keyframes() []Keyframe {
	out := make([]Keyframe, 0, len(t.times))
	for _, time := range t.times {
		out = append(out, Keyframe{Time: time, Frame: t.frames[time]})
	}
	return out
}

// Names returns the union of property names, ordered by the first
// keyframe that holds each of them.
func (t *Timeline) Names() []string {
	var out []string
	seen := make(map[string]bool)
	for _, time := range t.times {
		for _, name := range t.frames[time].Names() {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// Len returns the number of keyframes.
func (t *Timeline) Len() int {
	return len(t.times)
}

// Duration returns the explicit duration if one was set, else the last
// keyframe time.
func (t *Timeline) Duration() float64 {
	if t.fixed {
		return t.duration
	}
	if len(t.times) == 0 {
		return 0
	}
	return t.times[len(t.times)-1]
}

// SetDuration overrides the natural duration.
func (t *Timeline) SetDuration(d float64) error {
	d, err := NormalizeTime(d)
	if err != nil {
		return err
	}
	t.duration = d
	t.fixed = true
	return nil
}

// ResetDuration drops a duration override.
func (t *Timeline) ResetDuration() {
	t.duration = 0
	t.fixed = false
}

// Clear removes every keyframe and the duration override.
func (t *Timeline) Clear() {
	t.times = nil
	t.frames = make(map[float64]*frame.Frame)
	t.ResetDuration()
}
