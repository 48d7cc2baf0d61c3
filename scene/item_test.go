package scene

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matt-g-everett/keyframer/frame"
	"github.com/matt-g-everett/keyframer/timeline"
)

type element struct {
	style    string
	appends  int
	tags     int
	attrs    map[string]string
	classes  []string
	computed map[string]string
}

func newElement() *element {
	return &element{attrs: make(map[string]string), computed: make(map[string]string)}
}

func (e *element) AppendStyle(cssText string)      { e.style += cssText; e.appends++ }
func (e *element) SetAttribute(name, value string) { e.attrs[name] = value; e.tags++ }
func (e *element) AddClass(name string)            { e.classes = append(e.classes, name) }
func (e *element) ComputedStyle(name string) (string, bool) {
	v, ok := e.computed[name]
	return v, ok
}

type registry struct {
	blocks  map[string]string
	upserts int
}

func (r *registry) Upsert(key, cssText string) error {
	if r.blocks == nil {
		r.blocks = make(map[string]string)
	}
	r.blocks[key] = cssText
	r.upserts++
	return nil
}

func newFade(options ...Option) *Item {
	base := []Option{WithTimeUnit(time.Millisecond), WithIDGenerator(&SequenceIDs{Prefix: "item"})}
	item := NewItem(append(base, options...)...)
	item.Set(0, frame.P("opacity", 0))
	item.Set(1000, frame.P("opacity", 1))
	return item
}

func TestSampleScenario(t *testing.T) {
	item := newFade()
	f, err := item.Sample(500)
	if err != nil {
		t.Fatalf("Sample error = %v", err)
	}
	if got := f.CSSText(); got != "opacity: 0.5;" {
		t.Errorf("Sample(500) = %q, want opacity: 0.5;", got)
	}
}

func TestToKeyframeText(t *testing.T) {
	item := newFade()
	want := "@keyframes __SCENE_KEYFRAMES_item1 { 0%{opacity: 0;} 100%{opacity: 1;} }"
	if got := item.ToKeyframeText(); got != want {
		t.Errorf("ToKeyframeText() =\n%s\nwant\n%s", got, want)
	}
	if item.ID() != "item1" {
		t.Errorf("export should assign an id, got %q", item.ID())
	}
}

func TestToKeyframeTextTruncated(t *testing.T) {
	item := newFade()
	got := item.ToKeyframeText(ExportDuration(500))
	want := "@keyframes __SCENE_KEYFRAMES_item1 { 0%{opacity: 0;} 200%{opacity: 1;} 100%{opacity: 1;} }"
	if got != want {
		t.Errorf("ToKeyframeText(500) =\n%s\nwant\n%s", got, want)
	}
	if !strings.HasSuffix(got, "100%{opacity: 1;} }") {
		t.Errorf("truncated export lost the natural end state: %s", got)
	}
}

func TestToAnimationRuleText(t *testing.T) {
	item := newFade()
	got := item.ToAnimationRuleText()
	want := `[data-scene-id="item1"].startAnimation { animation-name: __SCENE_KEYFRAMES_item1; ` +
		`animation-duration: 1s; animation-delay: 0s; animation-timing-function: linear; ` +
		`animation-fill-mode: none; animation-direction: normal; animation-iteration-count: 1; }` +
		"\n@keyframes __SCENE_KEYFRAMES_item1 { 0%{opacity: 0;} 100%{opacity: 1;} }"
	if got != want {
		t.Errorf("ToAnimationRuleText() =\n%s\nwant\n%s", got, want)
	}
}

func TestToAnimationRuleTextOptions(t *testing.T) {
	opts := timeline.DefaultOptions()
	opts.Delay = 500
	opts.PlaySpeed = 2
	opts.IterationCount = timeline.Infinite
	opts.Direction = timeline.DirectionAlternate
	opts.FillMode = timeline.FillBoth
	opts.Easing, _ = timeline.ParseEasing("ease-in-out")

	item := newFade(WithOptions(opts))
	got := item.ToAnimationRuleText()
	for _, want := range []string{
		"animation-duration: 0.5s;",
		"animation-delay: 0.25s;",
		"animation-timing-function: ease-in-out;",
		"animation-fill-mode: both;",
		"animation-direction: alternate;",
		"animation-iteration-count: infinite;",
		"0%{opacity: 0;} 100%{opacity: 1;}",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("rule text missing %q:\n%s", want, got)
		}
	}

	got = item.ToAnimationRuleText(ExportIterationCount(3), ExportDirection(timeline.DirectionNormal), ExportPlaySpeed(0.5))
	for _, want := range []string{
		"animation-iteration-count: 3;",
		"animation-direction: normal;",
		"animation-duration: 1s;",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("overridden rule text missing %q:\n%s", want, got)
		}
	}
}

func TestApplyAtMemoizes(t *testing.T) {
	item := newFade()
	if f := item.ApplyAt(500); f.CSSText() != "opacity: 0.5;" {
		t.Fatalf("unbound ApplyAt = %q", f.CSSText())
	}

	el := newElement()
	if err := item.Bind(el); err != nil {
		t.Fatalf("Bind error = %v", err)
	}
	item.ApplyAt(500)
	item.ApplyAt(500)
	if el.appends != 1 || el.style != "opacity: 0.5;" {
		t.Fatalf("after repeated ApplyAt: appends %d, style %q", el.appends, el.style)
	}
	item.ApplyAt(750)
	if el.appends != 2 || !strings.HasSuffix(el.style, "opacity: 0.75;") {
		t.Errorf("after new time: appends %d, style %q", el.appends, el.style)
	}
	if item.State().CSSText != "opacity: 0.75;" {
		t.Errorf("State().CSSText = %q", item.State().CSSText)
	}
}

func TestApplyAtFill(t *testing.T) {
	opts := timeline.DefaultOptions()
	opts.Delay = 100
	item := newFade(WithOptions(opts))

	if f := item.ApplyAt(50); f.Len() != 0 {
		t.Errorf("before delay without fill = %q, want unset", f.CSSText())
	}

	opts.FillMode = timeline.FillBoth
	item.SetOptions(opts)
	if f := item.ApplyAt(50); f.CSSText() != "opacity: 0;" {
		t.Errorf("before delay with fill = %q", f.CSSText())
	}
	if f := item.ApplyAt(5000); f.CSSText() != "opacity: 1;" {
		t.Errorf("after end with fill = %q", f.CSSText())
	}
}

func TestApplyAtEnd(t *testing.T) {
	item := newFade()
	e := newElement()
	if err := item.Bind(e); err != nil {
		t.Fatalf("Bind error = %v", err)
	}
	item.ApplyAt(990)
	if f := item.ApplyAt(1000); f.CSSText() != "opacity: 1;" {
		t.Errorf("ApplyAt(end) = %q, want opacity: 1;", f.CSSText())
	}
	if !strings.HasSuffix(e.style, "opacity: 1;") {
		t.Errorf("style should end with the final frame, got %q", e.style)
	}
	if f := item.ApplyAt(1001); f.Len() != 0 {
		t.Errorf("past the end without fill = %q, want unset", f.CSSText())
	}
}

func TestApplyAtAlternate(t *testing.T) {
	opts := timeline.DefaultOptions()
	opts.IterationCount = 2
	opts.Direction = timeline.DirectionAlternate
	item := newFade(WithOptions(opts))

	if f := item.ApplyAt(1250); f.CSSText() != "opacity: 0.75;" {
		t.Errorf("second cycle runs backwards, got %q", f.CSSText())
	}
}

func TestApplyExportParity(t *testing.T) {
	opts := timeline.DefaultOptions()
	opts.FillMode = timeline.FillBoth
	opts.Easing, _ = timeline.ParseEasing("ease-out-cubic")
	item := NewItem(WithOptions(opts), WithIDGenerator(&SequenceIDs{}))
	item.Set(0, frame.P("opacity", 0), frame.P("transform", "translate(0px, 0px)"))
	item.Set(250, frame.P("opacity", 0.8))
	item.Set(1000, frame.P("opacity", 1), frame.P("transform", "translate(100px, 40px)"))

	text := item.ToKeyframeText()
	for _, tm := range item.Times() {
		applied := item.ApplyAt(tm).CSSText()
		stop := formatNumber(tm*100/1000) + "%{" + applied + "}"
		if !strings.Contains(text, stop) {
			t.Errorf("keyframes missing stop %q:\n%s", stop, text)
		}
	}
}

func TestApplyExportParityBetweenKeyframes(t *testing.T) {
	opts := timeline.DefaultOptions()
	opts.FillMode = timeline.FillBoth
	opts.Easing, _ = timeline.ParseEasing("ease-in-expo")
	item := NewItem(WithOptions(opts), WithIDGenerator(&SequenceIDs{}))
	item.Set(0, frame.P("opacity", 0))
	item.Set(1000, frame.P("opacity", 1))

	text := item.ToAnimationRuleText()
	if !strings.Contains(text, "animation-timing-function: linear;") {
		t.Errorf("sampled easing should run linearly between stops:\n%s", text)
	}
	for _, tm := range []float64{100, 300, 700} {
		applied := item.ApplyAt(tm).CSSText()
		stop := formatNumber(tm*100/1000) + "%{" + applied + "}"
		if !strings.Contains(text, stop) {
			t.Errorf("keyframes missing stop %q:\n%s", stop, text)
		}
	}

	opts.Easing, _ = timeline.ParseEasing("ease-in-out")
	item.SetOptions(opts)
	if text := item.ToKeyframeText(); strings.Contains(text, "10%{") {
		t.Errorf("bezier easing should not add stops:\n%s", text)
	}
}

func TestBindMissingTarget(t *testing.T) {
	item := newFade()
	if err := item.Bind(); !errors.Is(err, ErrMissingTarget) {
		t.Errorf("Bind() error = %v", err)
	}
	if err := item.Bind(nil); !errors.Is(err, ErrMissingTarget) {
		t.Errorf("Bind(nil) error = %v", err)
	}
	if item.Bound() || item.ID() != "" {
		t.Errorf("failed bind changed state: bound %v id %q", item.Bound(), item.ID())
	}
	if err := item.BindSelector(".box"); !errors.Is(err, ErrMissingTarget) {
		t.Errorf("BindSelector without resolver error = %v", err)
	}
}

func TestBindKeepsID(t *testing.T) {
	item := newFade()
	a, b := newElement(), newElement()
	item.Bind(a)
	id := item.ID()
	if id == "" || a.attrs[AttrSceneID] != id {
		t.Fatalf("first bind id %q, attr %q", id, a.attrs[AttrSceneID])
	}
	item.Bind(b)
	if item.ID() != id || b.attrs[AttrSceneID] != id {
		t.Errorf("rebind changed id: %q -> %q (attr %q)", id, item.ID(), b.attrs[AttrSceneID])
	}
	if item.Selector() != `[data-scene-id="item1"]` {
		t.Errorf("Selector() = %q", item.Selector())
	}

	item.ResetID()
	item.Bind(a)
	if item.ID() != "item2" {
		t.Errorf("after reset id = %q, want item2", item.ID())
	}
}

func TestBindTagsOnce(t *testing.T) {
	item := newFade()
	e := newElement()
	if err := item.Bind(e); err != nil {
		t.Fatalf("Bind error = %v", err)
	}
	if e.tags != 1 || e.attrs[AttrSceneID] != "item1" {
		t.Errorf("first bind tagged %d times with %q", e.tags, e.attrs[AttrSceneID])
	}

	rebound := newElement()
	item.Bind(rebound)
	if rebound.tags != 1 || rebound.attrs[AttrSceneID] != "item1" {
		t.Errorf("rebind tagged %d times with %q", rebound.tags, rebound.attrs[AttrSceneID])
	}
}

func TestBindSelector(t *testing.T) {
	el := newElement()
	resolver := ResolverFunc(func(selector string) ([]Target, error) {
		if selector == ".box" {
			return []Target{el}, nil
		}
		return nil, nil
	})
	item := newFade(WithResolver(resolver))

	if err := item.BindSelector(".missing"); !errors.Is(err, ErrMissingTarget) {
		t.Errorf("unmatched selector error = %v", err)
	}
	if err := item.BindSelector(".box"); err != nil {
		t.Fatalf("BindSelector error = %v", err)
	}
	if item.Selector() != ".box" || el.attrs[AttrSceneID] != "item1" {
		t.Errorf("selector %q, attr %q", item.Selector(), el.attrs[AttrSceneID])
	}
	if !strings.HasPrefix(item.ToAnimationRuleText(), ".box.startAnimation {") {
		t.Errorf("rule does not use the bound selector")
	}
}

func TestExportTextIdempotent(t *testing.T) {
	reg := &registry{}
	item := newFade(WithRegistry(reg))

	first := item.ExportText()
	second := item.ExportText()
	if first == "" || first != second {
		t.Fatalf("exports differ:\n%s\n%s", first, second)
	}
	if len(reg.blocks) != 1 || reg.upserts != 2 {
		t.Errorf("registry has %d blocks after %d upserts", len(reg.blocks), reg.upserts)
	}
	if reg.blocks["__SCENE_STYLE_item1"] != first {
		t.Errorf("registry block = %q", reg.blocks["__SCENE_STYLE_item1"])
	}
}

func TestExportWithoutID(t *testing.T) {
	reg := &registry{}
	item := NewItem(WithIDGenerator(IDFunc(func() string { return "" })), WithRegistry(reg))
	item.Set(0, frame.P("opacity", 0))

	if got := item.ExportText(); got != "" {
		t.Errorf("ExportText() = %q, want empty", got)
	}
	if got := item.ToKeyframeText(); got != "" {
		t.Errorf("ToKeyframeText() = %q, want empty", got)
	}
	if reg.upserts != 0 {
		t.Errorf("registry touched %d times", reg.upserts)
	}
}

func TestSetCSS(t *testing.T) {
	item := newFade()
	el := newElement()
	el.computed["width"] = "120px"
	el.computed["opacity"] = "0.3"

	if err := item.SetCSS(0, "width"); !errors.Is(err, ErrMissingTarget) {
		t.Errorf("SetCSS unbound error = %v", err)
	}
	item.Bind(el)
	if err := item.SetCSS(2000, "width", "opacity", "height"); err != nil {
		t.Fatalf("SetCSS error = %v", err)
	}
	f, ok := item.Frame(2000)
	if !ok || f.CSSText() != "width: 120px; opacity: 0.3;" {
		t.Errorf("frame at 2000 = %q", f.CSSText())
	}
	if item.Duration() != 2000 {
		t.Errorf("Duration() = %v", item.Duration())
	}
}

func TestPlayCSS(t *testing.T) {
	reg := &registry{}
	item := newFade(WithRegistry(reg))
	el := newElement()
	item.Bind(el)

	item.PlayCSS(true)
	if len(el.classes) != 1 || el.classes[0] != ClassStartAnimation {
		t.Errorf("classes = %v", el.classes)
	}
	if reg.upserts != 1 {
		t.Errorf("PlayCSS(true) upserts = %d", reg.upserts)
	}
}

func TestObserve(t *testing.T) {
	item := newFade()
	var states []State
	cancel := item.Observe(func(s State) { states = append(states, s) })

	item.Set(2000, frame.P("opacity", 0))
	if len(states) != 1 || states[0].Duration != 2000 || states[0].Keyframes != 3 {
		t.Fatalf("observed %+v", states)
	}
	cancel()
	item.Set(3000, frame.P("opacity", 1))
	if len(states) != 1 {
		t.Errorf("observer ran after cancel")
	}
}

func TestSetOptionsRejectsZeroSpeed(t *testing.T) {
	item := newFade()
	opts := item.Options()
	opts.PlaySpeed = 0
	if err := item.SetOptions(opts); !errors.Is(err, timeline.ErrInvalidOption) {
		t.Errorf("SetOptions error = %v", err)
	}
	if item.Options().PlaySpeed != 1 {
		t.Errorf("invalid options were applied")
	}
}

func TestUniqueIDs(t *testing.T) {
	taken := map[string]bool{"id1": true, "id2": true}
	gen := UniqueIDs{Gen: &SequenceIDs{Prefix: "id"}, Taken: func(id string) bool { return taken[id] }}
	if got := gen.NewID(); got != "id3" {
		t.Errorf("NewID() = %q, want id3", got)
	}

	full := UniqueIDs{Gen: &SequenceIDs{}, Taken: func(string) bool { return true }, MaxAttempts: 3}
	if got := full.NewID(); got != "" {
		t.Errorf("exhausted NewID() = %q", got)
	}
}
