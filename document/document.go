// Package document loads timeline documents written in YAML and turns them
// into scene items.
//
//	id: fade
//	timeUnit: 1ms
//	options:
//	  easing: ease-in-out
//	  iterationCount: infinite
//	keyframes:
//	  0:
//	    opacity: 0
//	  1000:
//	    opacity: 1
//
// Keyframe and property order is preserved.
package document

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"

	"github.com/matt-g-everett/keyframer/frame"
	"github.com/matt-g-everett/keyframer/scene"
	"github.com/matt-g-everett/keyframer/timeline"
)

// ErrInvalidDocument wraps every problem found while building an item.
var ErrInvalidDocument = errors.New("invalid document")

// Options mirrors the CSS animation properties. Empty fields keep defaults.
type Options struct {
	Easing         string      `yaml:"easing,omitempty"`
	IterationCount interface{} `yaml:"iterationCount,omitempty"`
	FillMode       string      `yaml:"fillMode,omitempty"`
	Direction      string      `yaml:"direction,omitempty"`
	Delay          float64     `yaml:"delay,omitempty"`
	PlaySpeed      *float64    `yaml:"playSpeed,omitempty"`
}

// Document is one animated item.
type Document struct {
	ID       string `yaml:"id,omitempty"`
	Selector string `yaml:"selector,omitempty"`
	// TimeUnit is a Go duration string giving the length of one timeline
	// unit, "1s" when empty.
	TimeUnit  string        `yaml:"timeUnit,omitempty"`
	Duration  *float64      `yaml:"duration,omitempty"`
	Options   Options       `yaml:"options,omitempty"`
	Keyframes yaml.MapSlice `yaml:"keyframes"`
}

// Parse decodes a document.
func Parse(data []byte) (*Document, error) {
	d := new(Document)
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return d, nil
}

// Load reads and decodes the document at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := new(Document)
	if err := yaml.NewDecoder(f).Decode(d); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, path, err)
	}
	return d, nil
}

// Unit returns the parsed time unit.
func (d *Document) Unit() (time.Duration, error) {
	if d.TimeUnit == "" {
		return time.Second, nil
	}
	unit, err := time.ParseDuration(d.TimeUnit)
	if err != nil || unit <= 0 {
		return 0, fmt.Errorf("%w: time unit %q", ErrInvalidDocument, d.TimeUnit)
	}
	return unit, nil
}

// PlaybackOptions converts the options block, reporting every bad field.
func (d *Document) PlaybackOptions() (timeline.Options, error) {
	o := timeline.DefaultOptions()
	var err error

	if d.Options.Easing != "" {
		e, er := timeline.ParseEasing(d.Options.Easing)
		err = multierr.Append(err, er)
		o.Easing = e
	}
	if d.Options.IterationCount != nil {
		n, er := timeline.ParseIterationCount(fmt.Sprint(d.Options.IterationCount))
		err = multierr.Append(err, er)
		if er == nil {
			o.IterationCount = n
		}
	}
	f, er := timeline.ParseFillMode(d.Options.FillMode)
	err = multierr.Append(err, er)
	o.FillMode = f

	dir, er := timeline.ParseDirection(d.Options.Direction)
	err = multierr.Append(err, er)
	o.Direction = dir

	o.Delay = d.Options.Delay
	if d.Options.PlaySpeed != nil {
		o.PlaySpeed = *d.Options.PlaySpeed
	}
	if err == nil {
		err = o.Validate()
	}
	return o, err
}

// Build creates an item from the document. Extra options are applied after
// the document's own, so callers can add a logger or a registry.
func (d *Document) Build(options ...scene.Option) (*scene.Item, error) {
	var err error

	unit, er := d.Unit()
	err = multierr.Append(err, er)
	opts, er := d.PlaybackOptions()
	err = multierr.Append(err, er)

	base := []scene.Option{scene.WithTimeUnit(unit), scene.WithOptions(opts), scene.WithSelector(d.Selector)}
	if d.ID != "" {
		base = append(base, scene.WithID(d.ID))
	}
	item := scene.NewItem(append(base, options...)...)

	for _, kf := range d.Keyframes {
		t, er := keyframeTime(kf.Key)
		if er != nil {
			err = multierr.Append(err, er)
			continue
		}
		f, er := keyframeFrame(t, kf.Value)
		if er != nil {
			err = multierr.Append(err, er)
			continue
		}
		err = multierr.Append(err, item.SetFrame(t, f))
	}
	if d.Duration != nil {
		err = multierr.Append(err, item.SetDuration(*d.Duration))
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return item, nil
}

func keyframeTime(key interface{}) (float64, error) {
	switch k := key.(type) {
	case int:
		return float64(k), nil
	case int64:
		return float64(k), nil
	case uint64:
		return float64(k), nil
	case float64:
		return k, nil
	case string:
		if t, err := strconv.ParseFloat(strings.TrimSpace(k), 64); err == nil {
			return t, nil
		}
	}
	return 0, fmt.Errorf("keyframe time %v is not a number", key)
}

func keyframeFrame(t float64, props interface{}) (*frame.Frame, error) {
	f := frame.New()
	switch p := props.(type) {
	case nil:
		return f, nil
	case yaml.MapSlice:
		for _, item := range p {
			if err := setProp(f, t, item.Key, item.Value); err != nil {
				return nil, err
			}
		}
		return f, nil
	}
	return nil, fmt.Errorf("keyframe %v: properties must be a mapping", t)
}

func setProp(f *frame.Frame, t float64, key, value interface{}) error {
	name := fmt.Sprint(key)
	switch v := value.(type) {
	case yaml.MapSlice, map[interface{}]interface{}, []interface{}, nil:
		return fmt.Errorf("keyframe %v: property %q needs a scalar value", t, name)
	case bool:
		f.Set(name, frame.Token(strconv.FormatBool(v)))
	default:
		f.Set(name, frame.From(v))
	}
	return nil
}
