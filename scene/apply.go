package scene

import (
	"go.uber.org/zap"

	"github.com/matt-g-everett/keyframer/frame"
	"github.com/matt-g-everett/keyframer/timeline"
)

// Sample returns the frame at timeline time t, before any play speed,
// delay, iteration or direction mapping.
func (i *Item) Sample(t float64) (*frame.Frame, error) {
	return i.tl.Sample(t, i.opts.Easing)
}

// sample never fails: degraded properties are logged and an invalid time
// yields an empty frame.
func (i *Item) sample(t float64, easing timeline.Easing) *frame.Frame {
	f, err := i.tl.Sample(t, easing)
	if f == nil {
		i.log.Debug("Unable to sample", zap.Float64("time", t), zap.Error(err))
		return frame.New()
	}
	if err != nil {
		i.log.Debug("Sampled with fallbacks", zap.Float64("time", t), zap.Error(err))
	}
	return f
}

// Locate maps raw time onto the timeline using the current options.
func (i *Item) Locate(raw float64) timeline.Position {
	return i.opts.Locate(raw, i.tl.Duration())
}

// ApplyAt computes the frame at raw time and, when it renders differently
// from the last applied frame, appends its CSS text to every bound target.
// Outside the active interval an unfilled position returns an empty frame
// and leaves targets alone. With no targets the frame is only computed.
func (i *Item) ApplyAt(raw float64) *frame.Frame {
	opts := i.opts
	pos := opts.Locate(raw, i.tl.Duration())
	if !pos.Filled {
		return frame.New()
	}

	f := i.sample(pos.Time, opts.Easing)
	if len(i.targets) == 0 {
		return f
	}

	cssText := f.CSSText()
	if cssText == i.lastCSS {
		return f
	}
	i.lastCSS = cssText
	for _, t := range i.targets {
		t.AppendStyle(cssText)
	}
	i.notify()
	return f
}
