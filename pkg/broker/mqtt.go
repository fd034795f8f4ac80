// Package broker publishes alert events to an MQTT broker for dispatch
// consoles and other subscribers outside the HTTP API.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"LifeLine/pkg/config"
	"LifeLine/pkg/errors"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher sends one payload to one topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close()
}

// MQTT 客户端封装
type MQTT struct {
	client mqtt.Client
	qos    byte
}

// Dial connects to cfg.Broker. The client reconnects on its own after the
// first successful connect.
func Dial(cfg config.MQTTConfig, timeout time.Duration) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(timeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, errors.Errorf("connect to mqtt broker %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "connect to mqtt broker %s", cfg.Broker)
	}
	return New(client), nil
}

// New wraps an already configured client. Messages are sent with QoS 1.
func New(client mqtt.Client) *MQTT {
	return &MQTT{client: client, qos: 1}
}

// Publish waits for the broker acknowledgement or ctx, whichever comes
// first.
func (m *MQTT) Publish(ctx context.Context, topic string, payload []byte) error {
	token := m.client.Publish(topic, m.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "publish to %s", topic)
	}
	if err := token.Error(); err != nil {
		return errors.Wrapf(err, "publish to %s", topic)
	}
	return nil
}

// Close 断开连接
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}

// PublishJSON marshals v and publishes it.
func PublishJSON(ctx context.Context, p Publisher, topic string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Publish(ctx, topic, b)
}

// HospitalTopic is the per-hospital subtopic of base.
func HospitalTopic(base string, hospitalID uint) string {
	return fmt.Sprintf("%s/hospital/%d", strings.TrimRight(base, "/"), hospitalID)
}
