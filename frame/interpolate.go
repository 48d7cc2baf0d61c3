package frame

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

var (
	// ErrUnitMismatch reports numbers with incompatible units. The value
	// steps at the half way point instead of blending.
	ErrUnitMismatch = errors.New("unit mismatch")
	// ErrShapeMismatch reports structured values whose skeletons or slot
	// counts differ. The value steps at the half way point.
	ErrShapeMismatch = errors.New("shape mismatch")
)

const mismatchStep = 0.5

func step(a, b Value, t, at float64) Value {
	if t >= at {
		return b
	}
	return a
}

func lerp(a, b, t float64) float64 {
	switch t {
	case 0:
		return a
	case 1:
		return b
	}
	return a + (b-a)*t
}

// compatibleUnit returns the unit two numbers blend in. A unitless zero
// takes the unit of the other side.
func compatibleUnit(an float64, au string, bn float64, bu string) (string, bool) {
	switch {
	case au == bu:
		return au, true
	case au == "" && an == 0:
		return bu, true
	case bu == "" && bn == 0:
		return au, true
	}
	return "", false
}

// Interpolate blends a towards b at progress t. Numbers, colours and
// structured values blend, tokens and opaque values step at t >= 1.
// Incompatible numeric values step at t >= 0.5 and report the reason.
func Interpolate(a, b Value, t float64) (Value, error) {
	if a.kind == KindToken || b.kind == KindToken || a.kind == KindOpaque || b.kind == KindOpaque {
		return step(a, b, t, 1), nil
	}
	if a.kind != b.kind {
		return step(a, b, t, mismatchStep), fmt.Errorf("%w: %s and %s", ErrShapeMismatch, a.kind, b.kind)
	}

	switch a.kind {
	case KindNumber:
		unit, ok := compatibleUnit(a.num, a.unit, b.num, b.unit)
		if !ok {
			return step(a, b, t, mismatchStep), fmt.Errorf("%w: %q and %q", ErrUnitMismatch, a.unit, b.unit)
		}
		return Dimension(lerp(a.num, b.num, t), unit), nil

	case KindColor:
		switch t {
		case 0:
			return a, nil
		case 1:
			return b, nil
		}
		return RGBA(a.color.BlendRgb(b.color, t), lerp(a.alpha, b.alpha, t)), nil

	case KindList:
		return interpolateList(a, b, t)
	}
	return step(a, b, t, 1), nil
}

func interpolateList(a, b Value, t float64) (Value, error) {
	if len(a.slots) != len(b.slots) {
		return step(a, b, t, mismatchStep), fmt.Errorf("%w: %d and %d parts", ErrShapeMismatch, len(a.slots), len(b.slots))
	}
	slots := make([]slot, len(a.slots))
	for i := range a.slots {
		sa, sb := a.slots[i], b.slots[i]
		if sa.numeric != sb.numeric || sa.lit != sb.lit {
			return step(a, b, t, mismatchStep), fmt.Errorf("%w: part %d differs", ErrShapeMismatch, i)
		}
		if !sa.numeric {
			slots[i] = sa
			continue
		}
		unit, ok := compatibleUnit(sa.num, sa.unit, sb.num, sb.unit)
		if !ok {
			return step(a, b, t, mismatchStep), fmt.Errorf("%w: %q and %q in part %d", ErrUnitMismatch, sa.unit, sb.unit, i)
		}
		slots[i] = slot{num: lerp(sa.num, sb.num, t), unit: unit, numeric: true}
	}
	return Value{kind: KindList, slots: slots}, nil
}

// InterpolateFrame blends two frames property by property. A property
// present on one side only keeps that value. The returned frame is always
// complete; the error lists properties that fell back to stepping.
func (f *Frame) InterpolateFrame(f2 *Frame, transitionPoint float64) (*Frame, error) {
	out := New()
	var err error
	for _, name := range f.Names() {
		a := f.values[name]
		b, ok := f2.Get(name)
		if !ok {
			out.Set(name, a)
			continue
		}
		v, e := Interpolate(a, b, transitionPoint)
		if e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", name, e))
		}
		out.Set(name, v)
	}
	for _, name := range f2.Names() {
		if !out.Has(name) {
			v, _ := f2.Get(name)
			out.Set(name, v)
		}
	}
	return out, err
}
