package publish

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/san-kum/geostick/internal/config"
	"github.com/san-kum/geostick/internal/motion"
	"github.com/san-kum/geostick/internal/wire"
)

const publishTimeout = 5 * time.Second

// Publisher is the part of mqtt.Client used here.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes each fix as JSON under <topic>/<provider>.
type MQTT struct {
	client Publisher
	topic  string
	qos    byte
}

func NewMQTT(client Publisher, topic string, qos byte) *MQTT {
	return &MQTT{client: client, topic: topic, qos: qos}
}

// DialMQTT connects to the broker in cfg.
func DialMQTT(cfg config.MQTTConfig) (*MQTT, mqtt.Client, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "geostick-" + uuid.NewString()
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(publishTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	log.Info().Str("broker", cfg.Broker).Str("client_id", clientID).Msg("mqtt connected")

	topic := cfg.Topic
	if topic == "" {
		topic = config.DefaultMQTTTopic
	}
	return NewMQTT(client, topic, cfg.QoS), client, nil
}

func (m *MQTT) Push(ctx context.Context, s motion.GeoSample) error {
	payload, err := wire.EncodeFix(s)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.topic+"/"+s.Provider, m.qos, false, payload)

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("mqtt publish to %s timed out", m.topic)
	}
}
