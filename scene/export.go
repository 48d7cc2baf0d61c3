package scene

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matt-g-everett/keyframer/timeline"
)

// Prefix starts every generated CSS identifier.
const Prefix = "__SCENE_"

// ExportOption layers a parent's settings over the item's own when
// producing CSS text.
type ExportOption func(*exportConfig)

type exportConfig struct {
	duration    float64
	hasDuration bool
	playSpeed   float64
	delay       float64
	easing      *timeline.Easing
	count       float64
	fillMode    *timeline.FillMode
	direction   *timeline.Direction
}

// ExportDuration sets the animation duration in parent time. Keyframe
// percentages are scaled to it.
func ExportDuration(d float64) ExportOption {
	return func(c *exportConfig) {
		if d >= 0 {
			c.duration, c.hasDuration = d, true
		}
	}
}

// ExportPlaySpeed sets the parent play speed.
func ExportPlaySpeed(s float64) ExportOption {
	return func(c *exportConfig) {
		if s > 0 {
			c.playSpeed = s
		}
	}
}

// ExportDelay adds a parent delay.
func ExportDelay(d float64) ExportOption {
	return func(c *exportConfig) {
		if d > 0 {
			c.delay = d
		}
	}
}

// ExportEasing overrides the timing function.
func ExportEasing(e timeline.Easing) ExportOption {
	return func(c *exportConfig) { c.easing = &e }
}

// ExportIterationCount overrides the iteration count.
func ExportIterationCount(n float64) ExportOption {
	return func(c *exportConfig) {
		if n > 0 {
			c.count = n
		}
	}
}

// ExportFillMode overrides the fill mode.
func ExportFillMode(f timeline.FillMode) ExportOption {
	return func(c *exportConfig) { c.fillMode = &f }
}

// ExportDirection overrides the direction.
func ExportDirection(d timeline.Direction) ExportOption {
	return func(c *exportConfig) { c.direction = &d }
}

// exportPlan is the resolved state of one export. It is computed once per
// call and shared by the rule and the keyframes.
type exportPlan struct {
	id        string
	selector  string
	natural   float64 // timeline duration
	itemSpeed float64
	duration  float64 // animation duration in parent time
	playSpeed float64
	delay     float64 // parent time, before play speed
	opts      timeline.Options
}

func (i *Item) resolveExport(options []ExportOption) (exportPlan, bool) {
	id := i.ensureID()
	if id == "" {
		i.log.Warn("Skipping export", zap.Error(ErrUnboundExport))
		return exportPlan{}, false
	}

	c := exportConfig{playSpeed: 1}
	for _, o := range options {
		o(&c)
	}

	p := exportPlan{
		id:        id,
		selector:  i.selector,
		natural:   i.tl.Duration(),
		itemSpeed: i.opts.PlaySpeed,
		playSpeed: c.playSpeed,
		opts:      i.opts,
	}
	p.duration = p.natural / p.itemSpeed
	if c.hasDuration {
		p.duration = c.duration
	}
	p.delay = c.delay + i.opts.Delay/p.itemSpeed

	zero := p.duration == 0
	if c.easing != nil && !zero {
		p.opts.Easing = *c.easing
	}
	if c.count > 0 && !zero {
		p.opts.IterationCount = c.count
	}
	if c.fillMode != nil {
		p.opts.FillMode = *c.fillMode
	}
	if c.direction != nil {
		p.opts.Direction = *c.direction
	}
	return p, true
}

// seconds converts timeline units to CSS seconds.
func (i *Item) seconds(v float64) string {
	return formatNumber(v * float64(i.unit) / float64(time.Second))
}

func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func keyframesName(id string) string {
	return Prefix + "KEYFRAMES_" + id
}

// ToKeyframeText renders the timeline as an @keyframes block named after
// the correlation id. When the export duration differs from the natural
// one a 100% stop with the natural end state is appended. Sampled easings
// add evenly spaced stops between keyframes. The result is empty when no
// correlation id can be produced.
func (i *Item) ToKeyframeText(options ...ExportOption) string {
	p, ok := i.resolveExport(options)
	if !ok {
		return ""
	}
	return i.keyframeText(p)
}

// sampledSteps is the number of linear segments a sampled easing is split
// into between two keyframes.
const sampledSteps = 10

func (i *Item) keyframeText(p exportPlan) string {
	var stops []string
	stop := func(t float64) {
		percent := t / p.itemSpeed * 100 / p.duration
		stops = append(stops, formatNumber(percent)+"%{"+i.sample(t, p.opts.Easing).CSSText()+"}")
	}
	if p.duration > 0 {
		times := i.tl.Times()
		for n, t := range times {
			if n > 0 && p.opts.Easing.Sampled() {
				prev := times[n-1]
				for k := 1; k < sampledSteps; k++ {
					stop(prev + (t-prev)*float64(k)/sampledSteps)
				}
			}
			stop(t)
		}
	}
	if p.duration <= 0 || p.duration != p.natural/p.itemSpeed {
		stops = append(stops, "100%{"+i.sample(p.natural, p.opts.Easing).CSSText()+"}")
	}
	return "@keyframes " + keyframesName(p.id) + " { " + strings.Join(stops, " ") + " }"
}

// ToAnimationRuleText renders the selector rule with the animation
// shorthand properties followed by the keyframes block.
func (i *Item) ToAnimationRuleText(options ...ExportOption) string {
	p, ok := i.resolveExport(options)
	if !ok {
		return ""
	}
	decls := []string{
		"animation-name: " + keyframesName(p.id) + ";",
		"animation-duration: " + i.seconds(p.duration/p.playSpeed) + "s;",
		"animation-delay: " + i.seconds(p.delay/p.playSpeed) + "s;",
		"animation-timing-function: " + timingFunction(p.opts.Easing) + ";",
		"animation-fill-mode: " + p.opts.FillMode.String() + ";",
		"animation-direction: " + p.opts.Direction.String() + ";",
		"animation-iteration-count: " + timeline.FormatIterationCount(p.opts.IterationCount) + ";",
	}
	return p.selector + "." + ClassStartAnimation + " { " + strings.Join(decls, " ") + " }\n" + i.keyframeText(p)
}

// timingFunction is linear for sampled easings, their stops already carry
// the curve.
func timingFunction(e timeline.Easing) string {
	if e.Sampled() {
		return timeline.Linear.Name()
	}
	return e.Name()
}

// StyleKey is the registry key ExportText stores the item's text under.
func (i *Item) StyleKey() string {
	if id := toID(i.id); id != "" {
		return Prefix + "STYLE_" + id
	}
	return ""
}

// ExportText renders the animation rule and stores it in the registry
// under the item's StyleKey, replacing an earlier export.
func (i *Item) ExportText(options ...ExportOption) string {
	text := i.ToAnimationRuleText(options...)
	if text == "" || i.registry == nil {
		return text
	}
	if err := i.registry.Upsert(i.StyleKey(), text); err != nil {
		i.log.Warn("Unable to store exported style", zap.String("key", i.StyleKey()), zap.Error(err))
	}
	return text
}

// PlayCSS optionally exports the item, then marks every target that
// carries classes so the exported rule starts.
func (i *Item) PlayCSS(export bool) {
	if export {
		i.ExportText()
	}
	for _, t := range i.targets {
		if c, ok := t.(ClassTarget); ok {
			c.AddClass(ClassStartAnimation)
		}
	}
}
