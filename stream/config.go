package stream

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// ErrInvalidConfig is returned for configuration values out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the runtime configuration of the stream command.
type Config struct {
	Mqtt struct {
		URL      string `yaml:"url"`
		ClientID string `yaml:"clientId"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Topics   struct {
			Stream     string `yaml:"stream"`
			Attributes string `yaml:"attributes"`
			Control    string `yaml:"control"`
			Export     string `yaml:"export"`
		} `yaml:"topics"`
	} `yaml:"mqtt"`
	Playback struct {
		FrameRate float64 `yaml:"frameRate"`
		Loop      bool    `yaml:"loop"`
	} `yaml:"playback"`
	Http struct {
		Listen string `yaml:"listen"`
		Static string `yaml:"static"`
	} `yaml:"http"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration without a broker.
func DefaultConfig() Config {
	var c Config
	c.Mqtt.ClientID = "keyframer"
	c.Mqtt.Topics.Stream = "keyframer/stream"
	c.Mqtt.Topics.Attributes = "keyframer/attributes"
	c.Mqtt.Topics.Control = "keyframer/control"
	c.Mqtt.Topics.Export = "keyframer/export"
	c.Playback.FrameRate = 30
	c.Http.Listen = ":3000"
	c.Logging.Level = "normal"
	return c
}

// LoadConfig reads path over the defaults.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path == "" {
		return c, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&c); err != nil {
		return c, fmt.Errorf("unable to decode %s: %w", path, err)
	}
	return c, c.Validate()
}

// Validate checks ranges.
func (c Config) Validate() error {
	if c.Playback.FrameRate <= 0 || c.Playback.FrameRate > 1000 {
		return fmt.Errorf("%w: frame rate %v", ErrInvalidConfig, c.Playback.FrameRate)
	}
	switch c.Logging.Level {
	case "none", "normal", "debug":
	default:
		return fmt.Errorf("%w: logging level %q", ErrInvalidConfig, c.Logging.Level)
	}
	return nil
}

// FrameInterval is the time between two applied frames.
func (c Config) FrameInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.Playback.FrameRate)
}
