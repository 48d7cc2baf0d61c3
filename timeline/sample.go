package timeline

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/matt-g-everett/keyframer/frame"
)

// Sample computes the value of every property at time. Each property is
// blended between the nearest keyframes that hold it, with easing applied
// to the progress between them. A property that has not been reached yet
// holds its first value, one that is no longer set holds its last value.
//
// Times past the duration are clamped to it. A negative or non finite time
// returns ErrInvalidTime and a nil frame. Any other error accompanies a
// complete frame and lists properties that fell back to stepping.
func (t *Timeline) Sample(time float64, easing Easing) (*frame.Frame, error) {
	time, err := NormalizeTime(time)
	if err != nil {
		return nil, err
	}
	if d := t.Duration(); time > d {
		time = d
	}

	out := frame.New()
	if len(t.times) == 0 {
		return out, nil
	}

	exact, isKeyframe := t.frames[time]
	var errs error
	for _, name := range t.Names() {
		if isKeyframe {
			if v, ok := exact.Get(name); ok {
				out.Set(name, v)
				continue
			}
		}

		prevTime, prev, hasPrev := t.previous(name, time)
		nextTime, next, hasNext := t.next(name, time)
		switch {
		case hasPrev && hasNext && nextTime > prevTime:
			u := (time - prevTime) / (nextTime - prevTime)
			v, e := frame.Interpolate(prev, next, easing.Ease(u))
			if e != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, e))
			}
			out.Set(name, v)
		case hasPrev:
			out.Set(name, prev)
		case hasNext:
			out.Set(name, next)
		}
	}
	return out, errs
}

// previous finds the last keyframe at or before time that holds name.
func (t *Timeline) previous(name string, time float64) (float64, frame.Value, bool) {
	i := sort.Search(len(t.times), func(i int) bool { return t.times[i] > time }) - 1
	for ; i >= 0; i-- {
		if v, ok := t.frames[t.times[i]].Get(name); ok {
			return t.times[i], v, true
		}
	}
	return 0, frame.Value{}, false
}

// next finds the first keyframe at or after time that holds name.
func (t *Timeline) next(name string, time float64) (float64, frame.Value, bool) {
	for i := sort.SearchFloat64s(t.times, time); i < len(t.times); i++ {
		if v, ok := t.frames[t.times[i]].Get(name); ok {
			return t.times[i], v, true
		}
	}
	return 0, frame.Value{}, false
}
