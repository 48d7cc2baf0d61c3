package timeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/ease"
	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Easing maps linear progress in [0, 1] to eased progress. Name is the CSS
// timing-function text used when the timeline is exported.
type Easing struct {
	name    string
	fn      func(float64) float64
	sampled bool
}

// Linear is the identity easing.
var Linear = Easing{name: "linear", fn: ease.Linear}

// Name returns the CSS timing-function text.
func (e Easing) Name() string {
	if e.name == "" {
		return Linear.name
	}
	return e.name
}

// Sampled reports whether CSS has no exact form of the curve. Exports of a
// sampled easing carry intermediate stops and run them linearly.
func (e Easing) Sampled() bool {
	return e.sampled
}

// Ease applies the curve. u is clamped to [0, 1] and the end points are
// kept exact.
func (e Easing) Ease(u float64) float64 {
	switch {
	case u <= 0:
		return 0
	case u >= 1:
		return 1
	}
	if e.fn == nil {
		return u
	}
	return e.fn(u)
}

func bezierEasing(name string, x1, y1, x2, y2 float64) Easing {
	b := newCubicBezier(x1, y1, x2, y2)
	return Easing{name: name, fn: b.ease}
}

// penner binds a curve from the ease package to the cubic-bezier that
// approximates it in CSS.
func penner(fn func(float64) float64, x1, y1, x2, y2 float64) Easing {
	return Easing{name: bezierName(x1, y1, x2, y2), fn: fn, sampled: true}
}

var easings = map[string]Easing{
	"linear":      Linear,
	"ease":        bezierEasing("ease", 0.25, 0.1, 0.25, 1),
	"ease-in":     bezierEasing("ease-in", 0.42, 0, 1, 1),
	"ease-out":    bezierEasing("ease-out", 0, 0, 0.58, 1),
	"ease-in-out": bezierEasing("ease-in-out", 0.42, 0, 0.58, 1),
	"step-start":  {name: "step-start", fn: stepStart},
	"step-end":    {name: "step-end", fn: stepEnd},

	"ease-in-sine":      penner(ease.InSine, 0.12, 0, 0.39, 0),
	"ease-out-sine":     penner(ease.OutSine, 0.61, 1, 0.88, 1),
	"ease-in-out-sine":  penner(ease.InOutSine, 0.37, 0, 0.63, 1),
	"ease-in-quad":      penner(ease.InQuad, 0.11, 0, 0.5, 0),
	"ease-out-quad":     penner(ease.OutQuad, 0.5, 1, 0.89, 1),
	"ease-in-out-quad":  penner(ease.InOutQuad, 0.45, 0, 0.55, 1),
	"ease-in-cubic":     penner(ease.InCubic, 0.32, 0, 0.67, 0),
	"ease-out-cubic":    penner(ease.OutCubic, 0.33, 1, 0.68, 1),
	"ease-in-out-cubic": penner(ease.InOutCubic, 0.65, 0, 0.35, 1),
	"ease-in-quart":     penner(ease.InQuart, 0.5, 0, 0.75, 0),
	"ease-out-quart":    penner(ease.OutQuart, 0.25, 1, 0.5, 1),
	"ease-in-out-quart": penner(ease.InOutQuart, 0.76, 0, 0.24, 1),
	"ease-in-quint":     penner(ease.InQuint, 0.64, 0, 0.78, 0),
	"ease-out-quint":    penner(ease.OutQuint, 0.22, 1, 0.36, 1),
	"ease-in-out-quint": penner(ease.InOutQuint, 0.83, 0, 0.17, 1),
	"ease-in-expo":      penner(ease.InExpo, 0.7, 0, 0.84, 0),
	"ease-out-expo":     penner(ease.OutExpo, 0.16, 1, 0.3, 1),
	"ease-in-out-expo":  penner(ease.InOutExpo, 0.87, 0, 0.13, 1),
	"ease-in-circ":      penner(ease.InCirc, 0.55, 0, 1, 0.45),
	"ease-out-circ":     penner(ease.OutCirc, 0, 0.55, 0.45, 1),
	"ease-in-out-circ":  penner(ease.InOutCirc, 0.85, 0, 0.15, 1),
	"ease-in-back":      penner(ease.InBack, 0.36, 0, 0.66, -0.56),
	"ease-out-back":     penner(ease.OutBack, 0.34, 1.56, 0.64, 1),
	"ease-in-out-back":  penner(ease.InOutBack, 0.68, -0.6, 0.32, 1.6),
}

func stepStart(u float64) float64 {
	if u > 0 {
		return 1
	}
	return 0
}

func stepEnd(u float64) float64 {
	if u >= 1 {
		return 1
	}
	return 0
}

// EasingNames returns the registered easing keywords.
func EasingNames() []string {
	out := make([]string, 0, len(easings))
	for name := range easings {
		out = append(out, name)
	}
	return out
}

// ParseEasing resolves a keyword or a cubic-bezier() expression.
func ParseEasing(name string) (Easing, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return Linear, nil
	}
	if e, ok := easings[name]; ok {
		return e, nil
	}
	if strings.HasPrefix(name, "cubic-bezier(") {
		return parseCubicBezier(name)
	}
	return Easing{}, fmt.Errorf("%w: unknown easing %q", ErrInvalidOption, name)
}

func parseCubicBezier(text string) (Easing, error) {
	l := css.NewLexer(parse.NewInputString(text))
	var args []float64
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			break
		}
		switch tt {
		case css.NumberToken:
			f, err := strconv.ParseFloat(string(data), 64)
			if err != nil {
				return Easing{}, fmt.Errorf("%w: %q: %v", ErrInvalidOption, text, err)
			}
			args = append(args, f)
		case css.FunctionToken, css.CommaToken, css.WhitespaceToken, css.RightParenthesisToken:
		default:
			return Easing{}, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidOption, data, text)
		}
	}
	if len(args) != 4 {
		return Easing{}, fmt.Errorf("%w: cubic-bezier needs 4 numbers, got %d", ErrInvalidOption, len(args))
	}
	if args[0] < 0 || args[0] > 1 || args[2] < 0 || args[2] > 1 {
		return Easing{}, fmt.Errorf("%w: cubic-bezier x values must be within [0, 1]", ErrInvalidOption)
	}
	return bezierEasing(bezierName(args[0], args[1], args[2], args[3]), args[0], args[1], args[2], args[3]), nil
}

func bezierName(x1, y1, x2, y2 float64) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return "cubic-bezier(" + f(x1) + ", " + f(y1) + ", " + f(x2) + ", " + f(y2) + ")"
}

// cubicBezier is a unit bezier from (0, 0) to (1, 1) with two control points,
// solved for x with Newton steps and bisection as a fallback.
type cubicBezier struct {
	ax, bx, cx float64
	ay, by, cy float64
}

func newCubicBezier(x1, y1, x2, y2 float64) *cubicBezier {
	b := new(cubicBezier)
	b.cx = 3 * x1
	b.bx = 3*(x2-x1) - b.cx
	b.ax = 1 - b.cx - b.bx
	b.cy = 3 * y1
	b.by = 3*(y2-y1) - b.cy
	b.ay = 1 - b.cy - b.by
	return b
}

func (b *cubicBezier) sampleX(t float64) float64 {
	return ((b.ax*t+b.bx)*t + b.cx) * t
}

func (b *cubicBezier) sampleY(t float64) float64 {
	return ((b.ay*t+b.by)*t + b.cy) * t
}

func (b *cubicBezier) sampleDX(t float64) float64 {
	return (3*b.ax*t+2*b.bx)*t + b.cx
}

func (b *cubicBezier) solveX(x float64) float64 {
	const epsilon = 1e-7

	t := x
	for i := 0; i < 8; i++ {
		dx := b.sampleX(t) - x
		if math.Abs(dx) < epsilon {
			return t
		}
		d := b.sampleDX(t)
		if math.Abs(d) < 1e-6 {
			break
		}
		t -= dx / d
	}

	lo, hi := 0.0, 1.0
	t = x
	for lo < hi {
		v := b.sampleX(t)
		if math.Abs(v-x) < epsilon {
			return t
		}
		if x > v {
			lo = t
		} else {
			hi = t
		}
		t = (hi-lo)/2 + lo
		if hi-lo < epsilon {
			break
		}
	}
	return t
}

func (b *cubicBezier) ease(x float64) float64 {
	return b.sampleY(b.solveX(x))
}
