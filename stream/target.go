package stream

import (
	"encoding/json"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Publisher is the part of mqtt.Client a Target needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Attribute is the payload published for attribute changes.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Target publishes applied styles to MQTT subscribers, one message per
// changed frame.
type Target struct {
	log       *zap.Logger
	client    Publisher
	styles    string
	attrs     string
	published int
}

// NewTarget creates a Target publishing to the stream and attribute topics
// of config.
func NewTarget(config Config, client Publisher, log *zap.Logger) *Target {
	if log == nil {
		log = zap.NewNop()
	}
	t := new(Target)
	t.log = log.Named("mqtt")
	t.client = client
	t.styles = config.Mqtt.Topics.Stream
	t.attrs = config.Mqtt.Topics.Attributes
	return t
}

// AppendStyle publishes cssText.
func (t *Target) AppendStyle(cssText string) {
	t.publish(t.styles, false, []byte(cssText))
}

// SetAttribute publishes a retained attribute message so late subscribers
// can correlate styles.
func (t *Target) SetAttribute(name, value string) {
	b, err := json.Marshal(Attribute{Name: name, Value: value})
	if err != nil {
		t.log.Warn("Unable to encode attribute", zap.Error(err))
		return
	}
	t.publish(t.attrs, true, b)
}

// Published returns the number of acknowledged messages.
func (t *Target) Published() int {
	return t.published
}

func (t *Target) publish(topic string, retained bool, payload []byte) {
	if topic == "" {
		return
	}
	token := t.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		t.log.Warn("Publish timed out", zap.String("topic", topic))
		return
	}
	if err := token.Error(); err != nil {
		t.log.Warn("Publish failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	t.published++
}
