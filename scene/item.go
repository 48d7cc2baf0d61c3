// Package scene binds timelines to render targets. An Item either applies
// sampled frames to its targets or exports its timeline as CSS animation
// text; both paths resolve playback options the same way so their values
// agree.
package scene

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matt-g-everett/keyframer/frame"
	"github.com/matt-g-everett/keyframer/timeline"
)

var (
	// ErrMissingTarget is returned when binding finds nothing to bind.
	ErrMissingTarget = errors.New("missing target")
	// ErrUnboundExport is logged when an export has no correlation id.
	ErrUnboundExport = errors.New("no correlation id for export")
)

// Item is a timeline with playback options and the targets it drives.
type Item struct {
	log      *zap.Logger
	tl       *timeline.Timeline
	opts     timeline.Options
	unit     time.Duration
	ids      IDGenerator
	resolver Resolver
	registry StyleRegistry

	id               string
	selector         string
	explicitSelector bool
	targets          []Target
	lastCSS          string

	observers map[int]func(State)
	nextObs   int
}

// Option configures an Item at construction.
type Option func(*Item)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(i *Item) {
		if log != nil {
			i.log = log.Named("item")
		}
	}
}

// WithIDGenerator sets the correlation id source.
func WithIDGenerator(g IDGenerator) Option {
	return func(i *Item) { i.ids = g }
}

// WithResolver sets how selectors are turned into targets.
func WithResolver(r Resolver) Option {
	return func(i *Item) { i.resolver = r }
}

// WithRegistry sets where ExportText stores its text.
func WithRegistry(r StyleRegistry) Option {
	return func(i *Item) { i.registry = r }
}

// WithOptions sets the initial playback options. Invalid options are
// ignored and logged.
func WithOptions(o timeline.Options) Option {
	return func(i *Item) {
		if err := o.Validate(); err != nil {
			i.log.Warn("Ignoring playback options", zap.Error(err))
			return
		}
		i.opts = o
	}
}

// WithTimeUnit sets the length of one timeline unit, used when writing
// CSS seconds. Defaults to one second.
func WithTimeUnit(unit time.Duration) Option {
	return func(i *Item) {
		if unit > 0 {
			i.unit = unit
		}
	}
}

// WithID sets the initial correlation id.
func WithID(id string) Option {
	return func(i *Item) { i.id = id }
}

// WithSelector fixes the selector exported rules apply to, instead of the
// default attribute selector.
func WithSelector(selector string) Option {
	return func(i *Item) {
		if selector != "" {
			i.selector, i.explicitSelector = selector, true
		}
	}
}

// NewItem creates an unbound Item with an empty timeline.
func NewItem(options ...Option) *Item {
	i := new(Item)
	i.log = zap.NewNop()
	i.tl = timeline.New()
	i.opts = timeline.DefaultOptions()
	i.unit = time.Second
	i.ids = UUIDs{}
	i.observers = make(map[int]func(State))
	for _, o := range options {
		o(i)
	}
	if i.id != "" {
		i.SetID(i.id)
	}
	return i
}

// Set merges props into the keyframe at time.
func (i *Item) Set(time float64, props ...frame.Prop) error {
	return i.SetFrame(time, frame.New(props...))
}

// SetFrame merges a whole frame into the keyframe at time.
func (i *Item) SetFrame(time float64, f *frame.Frame) error {
	if err := i.tl.Set(time, f); err != nil {
		i.log.Debug("Rejected keyframe", zap.Float64("time", time), zap.Error(err))
		return err
	}
	i.notify()
	return nil
}

// NewFrame returns the keyframe bucket at time, creating it if needed.
func (i *Item) NewFrame(time float64) (*frame.Frame, error) {
	return i.tl.NewFrame(time)
}

// Frame returns the keyframe stored at exactly time.
func (i *Item) Frame(time float64) (*frame.Frame, bool) {
	return i.tl.Frame(time)
}

// Times returns the sorted keyframe times.
func (i *Item) Times() []float64 {
	return i.tl.Times()
}

// Clear drops every keyframe.
func (i *Item) Clear() {
	i.tl.Clear()
	i.lastCSS = ""
	i.notify()
}

// Duration returns the timeline duration.
func (i *Item) Duration() float64 {
	return i.tl.Duration()
}

// SetDuration overrides the timeline duration.
func (i *Item) SetDuration(d float64) error {
	if err := i.tl.SetDuration(d); err != nil {
		return err
	}
	i.notify()
	return nil
}

// TotalDuration is the wall time of the whole animation including delay
// and iterations.
func (i *Item) TotalDuration() float64 {
	return i.opts.TotalDuration(i.tl.Duration())
}

// TimeUnit returns the wall time length of one timeline unit.
func (i *Item) TimeUnit() time.Duration {
	return i.unit
}

// Options returns a copy of the playback options.
func (i *Item) Options() timeline.Options {
	return i.opts
}

// SetOptions replaces the playback options.
func (i *Item) SetOptions(o timeline.Options) error {
	if err := o.Validate(); err != nil {
		return err
	}
	i.opts = o
	i.notify()
	return nil
}

// ID returns the correlation id, empty until one is assigned.
func (i *Item) ID() string {
	return i.id
}

// Selector returns the CSS selector exported rules apply to.
func (i *Item) Selector() string {
	return i.selector
}

// SetID assigns the correlation id and tags bound targets with it.
func (i *Item) SetID(id string) {
	i.id = id
	sid := toID(id)
	if !i.explicitSelector {
		i.selector = fmt.Sprintf(`[%s="%s"]`, AttrSceneID, sid)
	}
	for _, t := range i.targets {
		t.SetAttribute(AttrSceneID, sid)
	}
	i.notify()
}

// ResetID forgets the correlation id so the next bind or export generates
// a fresh one.
func (i *Item) ResetID() {
	i.id = ""
	if !i.explicitSelector {
		i.selector = ""
	}
	i.notify()
}

// ensureID returns the sanitized correlation id, generating one if needed.
// It is empty when no usable id could be produced.
func (i *Item) ensureID() string {
	if i.id == "" {
		if i.ids == nil {
			return ""
		}
		id := i.ids.NewID()
		if toID(id) == "" {
			return ""
		}
		i.SetID(id)
	}
	return toID(i.id)
}

// Bound reports whether the item has targets.
func (i *Item) Bound() bool {
	return len(i.targets) > 0
}

// Targets returns the bound targets.
func (i *Item) Targets() []Target {
	out := make([]Target, len(i.targets))
	copy(out, i.targets)
	return out
}

// Bind attaches targets, replacing earlier ones. The item keeps its
// correlation id, generating one on first bind.
func (i *Item) Bind(targets ...Target) error {
	kept := make([]Target, 0, len(targets))
	for _, t := range targets {
		if t != nil {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		i.log.Debug("Nothing to bind", zap.String("id", i.id))
		return ErrMissingTarget
	}

	i.targets = kept
	i.lastCSS = ""
	// a freshly generated id has already been set on the targets
	had := i.id != ""
	if id := i.ensureID(); had && id != "" {
		for _, t := range i.targets {
			t.SetAttribute(AttrSceneID, id)
		}
	}
	i.log.Debug("Bound targets", zap.String("id", i.id), zap.Int("count", len(kept)))
	i.notify()
	return nil
}

// BindSelector resolves selector and binds the result. The selector is
// also used for exported rules.
func (i *Item) BindSelector(selector string) error {
	if i.resolver == nil {
		return fmt.Errorf("%w: no resolver for %q", ErrMissingTarget, selector)
	}
	targets, err := i.resolver.Resolve(selector)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrMissingTarget, selector, err)
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: %q matched nothing", ErrMissingTarget, selector)
	}

	prevSelector, prevExplicit := i.selector, i.explicitSelector
	i.selector, i.explicitSelector = selector, true
	if err := i.Bind(targets...); err != nil {
		i.selector, i.explicitSelector = prevSelector, prevExplicit
		return err
	}
	return nil
}

// SetCSS copies the current values of names from the first bound target
// that reports computed styles into the keyframe at time.
func (i *Item) SetCSS(time float64, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	for _, t := range i.targets {
		r, ok := t.(StyleReader)
		if !ok {
			continue
		}
		f := frame.New()
		for _, name := range names {
			if v, ok := r.ComputedStyle(name); ok {
				f.Set(name, frame.Parse(v))
			}
		}
		return i.SetFrame(time, f)
	}
	return fmt.Errorf("%w: no target reports computed styles", ErrMissingTarget)
}
