package frame

import (
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type token struct {
	tt   css.TokenType
	data string
}

// tokenize splits a CSS value into tokens. Comments are dropped, runs of
// whitespace are kept as single whitespace tokens and trimmed at both ends.
func tokenize(s string) []token {
	l := css.NewLexer(parse.NewInputString(s))
	var out []token
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			break
		}
		if tt == css.CommentToken {
			continue
		}
		if tt == css.WhitespaceToken {
			if len(out) == 0 || out[len(out)-1].tt == css.WhitespaceToken {
				continue
			}
			out = append(out, token{tt, " "})
			continue
		}
		out = append(out, token{tt, string(data)})
	}
	for len(out) > 0 && out[len(out)-1].tt == css.WhitespaceToken {
		out = out[:len(out)-1]
	}
	return out
}

func isNumeric(tt css.TokenType) bool {
	return tt == css.NumberToken || tt == css.DimensionToken || tt == css.PercentageToken
}

// numericToken returns the number and unit held by a numeric token.
func numericToken(t token) (float64, string, bool) {
	switch t.tt {
	case css.NumberToken:
		f, err := strconv.ParseFloat(t.data, 64)
		return f, "", err == nil
	case css.PercentageToken:
		f, err := strconv.ParseFloat(strings.TrimSuffix(t.data, "%"), 64)
		return f, "%", err == nil
	case css.DimensionToken:
		return parseDimension(t.data)
	}
	return 0, "", false
}

// parseDimension splits a dimension token into its number, exponent
// included, and its lower cased unit.
func parseDimension(s string) (float64, string, bool) {
	numEnd := parse.Number([]byte(s))
	if numEnd == 0 {
		return 0, "", false
	}
	f, err := strconv.ParseFloat(s[:numEnd], 64)
	if err != nil {
		return 0, "", false
	}
	return f, strings.ToLower(s[numEnd:]), true
}

// Parse converts CSS value text into a Value. It never fails: text that is
// not numeric, a colour or a structured numeric value becomes a token.
func Parse(s string) Value {
	toks := tokenize(strings.TrimSpace(s))
	if len(toks) == 0 {
		return Token("")
	}

	if len(toks) == 1 {
		t := toks[0]
		if isNumeric(t.tt) {
			if f, unit, ok := numericToken(t); ok {
				return Dimension(f, unit)
			}
		}
		if t.tt == css.HashToken {
			if c, err := colorful.Hex(t.data); err == nil {
				return Color(c)
			}
		}
	}

	if v, ok := parseColorFunction(toks); ok {
		return v
	}

	slots := make([]slot, 0, len(toks))
	numeric := false
	for _, t := range toks {
		if isNumeric(t.tt) {
			if f, unit, ok := numericToken(t); ok {
				slots = append(slots, slot{num: f, unit: unit, numeric: true})
				numeric = true
				continue
			}
		}
		if n := len(slots); n > 0 && !slots[n-1].numeric {
			slots[n-1].lit += t.data
			continue
		}
		slots = append(slots, slot{lit: t.data})
	}
	if !numeric {
		return Token(joinTokens(toks))
	}
	return Value{kind: KindList, slots: slots}
}

func joinTokens(toks []token) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteString(t.data)
	}
	return sb.String()
}

// parseColorFunction recognizes rgb()/rgba() with three channels and an
// optional alpha, comma or space separated.
func parseColorFunction(toks []token) (Value, bool) {
	fn := strings.ToLower(toks[0].data)
	if toks[0].tt != css.FunctionToken || (fn != "rgb(" && fn != "rgba(") {
		return Value{}, false
	}
	if toks[len(toks)-1].tt != css.RightParenthesisToken {
		return Value{}, false
	}

	var args []token
	for _, t := range toks[1 : len(toks)-1] {
		switch {
		case t.tt == css.WhitespaceToken, t.tt == css.CommaToken:
		case t.tt == css.DelimToken && t.data == "/":
		case t.tt == css.NumberToken, t.tt == css.PercentageToken:
			args = append(args, t)
		default:
			return Value{}, false
		}
	}
	if len(args) != 3 && len(args) != 4 {
		return Value{}, false
	}

	var ch [3]float64
	for i := 0; i < 3; i++ {
		f, unit, ok := numericToken(args[i])
		if !ok {
			return Value{}, false
		}
		if unit == "%" {
			ch[i] = f / 100
		} else {
			ch[i] = f / 255
		}
	}
	alpha := 1.0
	if len(args) == 4 {
		f, unit, ok := numericToken(args[3])
		if !ok {
			return Value{}, false
		}
		if unit == "%" {
			f /= 100
		}
		alpha = f
	}
	return RGBA(colorful.Color{R: ch[0], G: ch[1], B: ch[2]}, alpha), true
}
