package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Kind tells how a Value is interpolated and serialized.
type Kind int

const (
	// KindToken is a keyword or any other non numeric text. Stepped.
	KindToken Kind = iota
	// KindNumber is a number with an optional unit.
	KindNumber
	// KindList is a structured value: literal text with numeric slots.
	KindList
	// KindColor is an RGB colour with alpha.
	KindColor
	// KindOpaque wraps an arbitrary value that has no CSS form.
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	case KindColor:
		return "color"
	case KindOpaque:
		return "opaque"
	default:
		return "token"
	}
}

// slot is one piece of a structured value. Literal slots carry text,
// numeric slots carry a number and its unit.
type slot struct {
	lit     string
	num     float64
	unit    string
	numeric bool
}

// Value is a single property value held by a Frame.
type Value struct {
	kind  Kind
	num   float64
	unit  string
	slots []slot
	color colorful.Color
	alpha float64
	text  string
	raw   interface{}
}

// Number creates a unitless numeric value.
func Number(v float64) Value {
	return Value{kind: KindNumber, num: v}
}

// Dimension creates a numeric value tagged with a unit such as "px" or "%".
func Dimension(v float64, unit string) Value {
	return Value{kind: KindNumber, num: v, unit: strings.ToLower(unit)}
}

// Token creates a stepped, non numeric value.
func Token(s string) Value {
	return Value{kind: KindToken, text: s}
}

// Color creates an opaque colour value.
func Color(c colorful.Color) Value {
	return RGBA(c, 1)
}

// RGBA creates a colour value with alpha in [0, 1].
func RGBA(c colorful.Color, alpha float64) Value {
	return Value{kind: KindColor, color: c, alpha: clamp01(alpha)}
}

// Opaque wraps a value that is applied imperatively only. It is never
// written to CSS text.
func Opaque(v interface{}) Value {
	return Value{kind: KindOpaque, raw: v}
}

// From converts a plain Go value into a Value. Strings are parsed as CSS.
func From(v interface{}) Value {
	switch x := v.(type) {
	case Value:
		return x
	case string:
		return Parse(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case colorful.Color:
		return Color(x)
	default:
		return Opaque(v)
	}
}

// Kind returns the value kind.
func (v Value) Kind() Kind {
	return v.kind
}

// Float returns the numeric part and unit of a number value.
func (v Value) Float() (float64, string, bool) {
	if v.kind != KindNumber {
		return 0, "", false
	}
	return v.num, v.unit, true
}

// Components returns the numeric slots of a structured value.
func (v Value) Components() []float64 {
	out := make([]float64, 0, len(v.slots))
	for _, s := range v.slots {
		if s.numeric {
			out = append(out, s.num)
		}
	}
	return out
}

// RGBA returns the colour and alpha of a colour value.
func (v Value) RGBA() (colorful.Color, float64, bool) {
	if v.kind != KindColor {
		return colorful.Color{}, 0, false
	}
	return v.color, v.alpha, true
}

// Raw returns the wrapped value of an opaque value.
func (v Value) Raw() interface{} {
	return v.raw
}

// CSS returns the CSS text of the value. The second result is false for
// values that have no CSS form.
func (v Value) CSS() (string, bool) {
	switch v.kind {
	case KindNumber:
		return formatFloat(v.num) + v.unit, true
	case KindList:
		var sb strings.Builder
		for _, s := range v.slots {
			if s.numeric {
				sb.WriteString(formatFloat(s.num))
				sb.WriteString(s.unit)
			} else {
				sb.WriteString(s.lit)
			}
		}
		return sb.String(), true
	case KindColor:
		return formatColor(v.color, v.alpha), true
	case KindToken:
		return v.text, v.text != ""
	default:
		return "", false
	}
}

func (v Value) String() string {
	if s, ok := v.CSS(); ok {
		return s
	}
	return fmt.Sprintf("%v", v.raw)
}

// Equal reports whether two values render identically. Opaque values are
// compared by identity of their dynamic value where possible.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindOpaque {
		return fmt.Sprintf("%#v", v.raw) == fmt.Sprintf("%#v", o.raw)
	}
	a, _ := v.CSS()
	b, _ := o.CSS()
	return a == b
}

func formatFloat(f float64) string {
	if f == 0 {
		// avoid "-0"
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatColor(c colorful.Color, alpha float64) string {
	if alpha >= 1 && whole255(c.R) && whole255(c.G) && whole255(c.B) {
		return c.Clamped().Hex()
	}
	return fmt.Sprintf("rgba(%s, %s, %s, %s)",
		formatFloat(c.R*255), formatFloat(c.G*255), formatFloat(c.B*255), formatFloat(alpha))
}

func whole255(ch float64) bool {
	v := ch * 255
	return v >= 0 && v <= 255 && math.Abs(v-math.Round(v)) < 1e-9
}

func clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 1
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
