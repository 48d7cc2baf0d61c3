package timeline

import (
	"errors"
	"math"
	"testing"
)

func TestLocate(t *testing.T) {
	base := DefaultOptions()

	tests := []struct {
		name     string
		mutate   func(*Options)
		raw      float64
		time     float64
		phase    Phase
		filled   bool
		iterated int
	}{
		{"active", nil, 250, 250, PhaseActive, true, 0},
		{"before without fill", func(o *Options) { o.Delay = 100 }, 50, 0, PhaseBefore, false, 0},
		{"before with backwards fill", func(o *Options) { o.Delay = 100; o.FillMode = FillBackwards }, 50, 0, PhaseBefore, true, 0},
		{"delay shifts", func(o *Options) { o.Delay = 100 }, 350, 250, PhaseActive, true, 0},
		{"after without fill", nil, 1500, 1000, PhaseAfter, false, 0},
		{"end is inclusive", nil, 1000, 1000, PhaseActive, true, 0},
		{"end of partial iteration", func(o *Options) { o.IterationCount = 1.5 }, 1500, 500, PhaseActive, true, 1},
		{"end after speed and delay", func(o *Options) { o.Delay = 100; o.PlaySpeed = 3 }, 1100.0 / 3, 1000, PhaseActive, true, 0},
		{"after with forwards fill", func(o *Options) { o.FillMode = FillForwards }, 1500, 1000, PhaseAfter, true, 0},
		{"reverse", func(o *Options) { o.Direction = DirectionReverse }, 250, 750, PhaseActive, true, 0},
		{"second iteration", func(o *Options) { o.IterationCount = 3 }, 1250, 250, PhaseActive, true, 1},
		{"alternate odd cycle", func(o *Options) { o.IterationCount = 3; o.Direction = DirectionAlternate }, 1250, 750, PhaseActive, true, 1},
		{"alternate-reverse even cycle", func(o *Options) { o.IterationCount = 2; o.Direction = DirectionAlternateReverse }, 250, 750, PhaseActive, true, 0},
		{"play speed", func(o *Options) { o.PlaySpeed = 2 }, 250, 500, PhaseActive, true, 0},
		{"partial final iteration", func(o *Options) { o.IterationCount = 1.5; o.FillMode = FillBoth }, 5000, 500, PhaseAfter, true, 1},
		{"infinite", func(o *Options) { o.IterationCount = Infinite }, 10250, 250, PhaseActive, true, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base
			if tt.mutate != nil {
				tt.mutate(&o)
			}
			p := o.Locate(tt.raw, 1000)
			if p.Time != tt.time || p.Phase != tt.phase || p.Filled != tt.filled || p.Iteration != tt.iterated {
				t.Errorf("Locate(%v) = %+v, want time %v phase %s filled %v iteration %d",
					tt.raw, p, tt.time, tt.phase, tt.filled, tt.iterated)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	o := DefaultOptions()
	if err := o.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	o.PlaySpeed = 0
	if err := o.Validate(); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("zero play speed error = %v", err)
	}
	o = DefaultOptions()
	o.Delay = -1
	if err := o.Validate(); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("negative delay error = %v", err)
	}
}

func TestTotalDuration(t *testing.T) {
	o := DefaultOptions()
	o.Delay = 500
	o.IterationCount = 2
	o.PlaySpeed = 2
	if got := o.TotalDuration(1000); got != 1250 {
		t.Errorf("TotalDuration = %v, want 1250", got)
	}
	o.IterationCount = Infinite
	if got := o.TotalDuration(1000); !math.IsInf(got, 1) {
		t.Errorf("TotalDuration = %v, want +Inf", got)
	}
}

func TestParseOptionText(t *testing.T) {
	if f, err := ParseFillMode("Both"); err != nil || f != FillBoth {
		t.Errorf("ParseFillMode = %v, %v", f, err)
	}
	if _, err := ParseFillMode("sideways"); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("ParseFillMode error = %v", err)
	}
	if d, err := ParseDirection("alternate-reverse"); err != nil || d != DirectionAlternateReverse {
		t.Errorf("ParseDirection = %v, %v", d, err)
	}
	if n, err := ParseIterationCount("infinite"); err != nil || !math.IsInf(n, 1) {
		t.Errorf("ParseIterationCount = %v, %v", n, err)
	}
	if _, err := ParseIterationCount("0"); err == nil {
		t.Error("ParseIterationCount(0) should fail")
	}
	if got := FormatIterationCount(Infinite); got != "infinite" {
		t.Errorf("FormatIterationCount = %q", got)
	}
}

func TestEasing(t *testing.T) {
	for _, name := range EasingNames() {
		e, err := ParseEasing(name)
		if err != nil {
			t.Fatalf("ParseEasing(%q) error = %v", name, err)
		}
		if e.Ease(0) != 0 || e.Ease(1) != 1 {
			t.Errorf("%s end points = %v, %v", name, e.Ease(0), e.Ease(1))
		}
	}

	e, err := ParseEasing("cubic-bezier(0.42, 0, 0.58, 1)")
	if err != nil {
		t.Fatalf("ParseEasing error = %v", err)
	}
	if got := e.Ease(0.5); math.Abs(got-0.5) > 1e-6 {
		t.Errorf("symmetric curve at 0.5 = %v", got)
	}
	if e.Name() != "cubic-bezier(0.42, 0, 0.58, 1)" {
		t.Errorf("Name() = %q", e.Name())
	}

	quad, _ := ParseEasing("ease-in-quad")
	if got := quad.Ease(0.5); got != 0.25 {
		t.Errorf("ease-in-quad(0.5) = %v, want 0.25", got)
	}
	if _, err := ParseEasing("wobble"); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("unknown easing error = %v", err)
	}
	if _, err := ParseEasing("cubic-bezier(2, 0, 0.5, 1)"); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("out of range bezier error = %v", err)
	}
}
