package scene

import (
	"github.com/matt-g-everett/keyframer/timeline"
)

// State is a read-only snapshot of an Item for reactive wrappers.
type State struct {
	ID            string
	Selector      string
	Bound         bool
	Keyframes     int
	Duration      float64
	TotalDuration float64
	Options       timeline.Options
	// CSSText is the text last appended to the targets.
	CSSText string
}

// State returns the current snapshot.
func (i *Item) State() State {
	return State{
		ID:            i.id,
		Selector:      i.selector,
		Bound:         len(i.targets) > 0,
		Keyframes:     i.tl.Len(),
		Duration:      i.tl.Duration(),
		TotalDuration: i.TotalDuration(),
		Options:       i.opts,
		CSSText:       i.lastCSS,
	}
}

// Observe registers fn to run with a fresh snapshot after every state
// change. The returned function unregisters it.
func (i *Item) Observe(fn func(State)) (cancel func()) {
	id := i.nextObs
	i.nextObs++
	i.observers[id] = fn
	return func() { delete(i.observers, id) }
}

func (i *Item) notify() {
	if len(i.observers) == 0 {
		return
	}
	s := i.State()
	for _, fn := range i.observers {
		fn(s)
	}
}
