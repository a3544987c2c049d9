// Package robot exposes the service robot's navigation, arm and gripper
// commands as agent tools. Commands are fire-and-forget MQTT publishes;
// the robot firmware is responsible for acting on them, which makes every
// tool idempotent and safe to retry.
package robot

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/rs/zerolog/log"
)

// CommandPublisher publishes one robot command payload to a topic. The
// MQTT client implements it; tests substitute a recorder.
type CommandPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// MQTTClient is a CommandPublisher backed by an autopaho connection
// manager, which reconnects in the background on broker loss.
type MQTTClient struct {
	cm     *autopaho.ConnectionManager
	broker string
}

// Dial connects to the broker at brokerURL (e.g. tcp://10.194.142.142:1883).
// If the initial connection does not come up within a short window the
// client is still returned; autopaho keeps retrying in the background.
func Dial(ctx context.Context, brokerURL, clientID string) (*MQTTClient, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("parse mqtt broker URL: %w", err)
	}

	cfg := autopaho.ClientConfig{
		ServerUrls: []*url.URL{u},
		KeepAlive:  30,
		OnConnectionUp: func(_ *autopaho.ConnectionManager, _ *paho.Connack) {
			log.Info().Str("broker", brokerURL).Msg("MQTT connected to broker")
		},
		OnConnectError: func(err error) {
			log.Warn().Err(err).Msg("MQTT connection error")
		},
		ClientConfig: paho.ClientConfig{
			ClientID: clientID,
		},
	}

	cm, err := autopaho.NewConnection(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := cm.AwaitConnection(connCtx); err != nil {
		log.Warn().Err(err).Msg("MQTT initial connection timed out, retrying in background")
	}

	return &MQTTClient{cm: cm, broker: brokerURL}, nil
}

// Publish sends one command with QoS 1.
func (c *MQTTClient) Publish(ctx context.Context, topic string, payload []byte) error {
	if _, err := c.cm.Publish(ctx, &paho.Publish{
		Topic:   topic,
		Payload: payload,
		QoS:     1,
	}); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", topic, err)
	}

	log.Debug().Str("topic", topic).Int("bytes", len(payload)).Msg("Robot command published")
	return nil
}

// Close disconnects from the broker.
func (c *MQTTClient) Close(ctx context.Context) error {
	return c.cm.Disconnect(ctx)
}
