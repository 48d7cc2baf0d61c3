package stream

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/matt-g-everett/keyframer/frame"
	"github.com/matt-g-everett/keyframer/scene"
)

// Commands accepted on the control topic.
const (
	CommandRestart = "restart"
	CommandPause   = "pause"
	CommandResume  = "resume"
	CommandExport  = "export"
)

// ControlMessage is the payload expected on the control topic.
type ControlMessage struct {
	Type string `json:"type"`
}

// Client is the part of mqtt.Client a Streamer needs.
type Client interface {
	Publisher
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Streamer plays an item in wall time, applying a frame to its targets at
// the configured frame rate.
type Streamer struct {
	log    *zap.Logger
	config Config
	client Client
	item   *scene.Item
	now    func() time.Time

	mu       sync.Mutex
	start    time.Time
	paused   bool
	pausedAt time.Duration
	frames   int
}

// NewStreamer creates a Streamer for item. client may be nil when no broker
// is configured.
func NewStreamer(config Config, client Client, item *scene.Item, log *zap.Logger) *Streamer {
	if log == nil {
		log = zap.NewNop()
	}
	s := new(Streamer)
	s.log = log.Named("streamer")
	s.config = config
	s.client = client
	s.item = item
	s.now = time.Now
	s.start = s.now()
	return s
}

// Subscribe listens for control messages.
func (s *Streamer) Subscribe() error {
	if s.client == nil || s.config.Mqtt.Topics.Control == "" {
		return nil
	}
	token := s.client.Subscribe(s.config.Mqtt.Topics.Control, 0, s.handleControl)
	token.Wait()
	return token.Error()
}

func (s *Streamer) handleControl(_ mqtt.Client, msg mqtt.Message) {
	s.log.Debug("Received control message", zap.String("topic", msg.Topic()), zap.ByteString("payload", msg.Payload()))

	var m ControlMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		s.log.Warn("Ignoring malformed control message", zap.Error(err))
		return
	}
	switch m.Type {
	case CommandRestart:
		s.Restart()
	case CommandPause:
		s.Pause()
	case CommandResume:
		s.Resume()
	case CommandExport:
		s.Export()
	default:
		s.log.Warn("Unknown control command", zap.String("type", m.Type))
	}
}

// Restart plays from the beginning.
func (s *Streamer) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = s.now()
	s.pausedAt = 0
}

// Pause freezes playback time.
func (s *Streamer) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		s.pausedAt = s.now().Sub(s.start)
		s.paused = true
	}
}

// Resume continues from where Pause stopped.
func (s *Streamer) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		s.start = s.now().Add(-s.pausedAt)
		s.paused = false
	}
}

// Export renders the item's animation rule and publishes it, retained, on
// the export topic.
func (s *Streamer) Export() string {
	s.mu.Lock()
	text := s.item.ExportText()
	s.mu.Unlock()

	topic := s.config.Mqtt.Topics.Export
	if s.client != nil && topic != "" && text != "" {
		token := s.client.Publish(topic, 1, true, text)
		if token.WaitTimeout(publishTimeout) && token.Error() != nil {
			s.log.Warn("Unable to publish export", zap.Error(token.Error()))
		}
	}
	return text
}

// Elapsed returns playback time in timeline units.
func (s *Streamer) Elapsed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed()
}

func (s *Streamer) elapsed() float64 {
	d := s.pausedAt
	if !s.paused {
		d = s.now().Sub(s.start)
	}
	return float64(d) / float64(s.item.TimeUnit())
}

// Frames returns the number of steps taken.
func (s *Streamer) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Step applies the frame for the current playback time. done reports that
// a finite animation has ended and looping is off.
func (s *Streamer) Step() (f *frame.Frame, done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := s.elapsed()
	total := s.item.TotalDuration()
	if !math.IsInf(total, 1) && raw >= total {
		if s.config.Playback.Loop && total > 0 {
			raw = math.Mod(raw, total)
		} else {
			raw, done = total, true
		}
	}
	f = s.item.ApplyAt(raw)
	s.frames++
	return f, done
}

// Run steps at the frame rate until the animation ends or ctx is done.
func (s *Streamer) Run(ctx context.Context) error {
	s.Restart()
	ticker := time.NewTicker(s.config.FrameInterval())
	defer ticker.Stop()

	s.log.Info("Streaming", zap.String("id", s.item.ID()), zap.Duration("interval", s.config.FrameInterval()))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Stopped", zap.Int("frames", s.Frames()))
			return nil
		case <-ticker.C:
			if _, done := s.Step(); done {
				s.log.Info("Finished", zap.Int("frames", s.Frames()))
				return nil
			}
		}
	}
}
