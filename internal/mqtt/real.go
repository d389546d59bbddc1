package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"sensor_telemetry/internal/logger"
)

const (
	connectTimeout       = 10 * time.Second
	connectRetryInterval = 5 * time.Second
	subscribeTimeout     = 5 * time.Second
	disconnectQuiesceMs  = 1000
)

// Options configures a RealSubscriber.
type Options struct {
	Broker   string
	ClientID string
	OnStatus StatusFunc
	Log      *logger.Logger
}

type subscription struct {
	qos     byte
	handler MessageHandler
}

// RealSubscriber subscribes through an actual MQTT broker.
type RealSubscriber struct {
	client   paho.Client
	log      *logger.Logger
	onStatus StatusFunc

	mu     sync.Mutex
	subs   map[string]subscription
	closed bool
}

// NewRealSubscriber connects to the broker. When the broker is not reachable
// within the connect timeout the client keeps retrying in the background and
// the subscriber is returned anyway; subscriptions are applied once connected.
func NewRealSubscriber(opts Options) (*RealSubscriber, error) {
	if opts.Broker == "" {
		return nil, fmt.Errorf("mqtt: broker address is empty")
	}
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	s := &RealSubscriber{
		log:      log,
		onStatus: opts.OnStatus,
		subs:     make(map[string]subscription),
	}

	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(connectRetryInterval).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(s.onConnectionLost)

	s.client = paho.NewClient(clientOpts)
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		s.log.Warnw("mqtt_connect_pending", "broker", opts.Broker, "retry_every", connectRetryInterval)
		return s, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return s, nil
}

// Subscribe registers handler for topic and subscribes right away when connected.
func (s *RealSubscriber) Subscribe(topic string, qos byte, handler MessageHandler) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.subs[topic] = subscription{qos: qos, handler: handler}
	s.mu.Unlock()

	if !s.client.IsConnectionOpen() {
		return nil
	}
	return s.subscribe(s.client, topic, subscription{qos: qos, handler: handler})
}

func (s *RealSubscriber) subscribe(c paho.Client, topic string, sub subscription) error {
	token := c.Subscribe(topic, sub.qos, func(_ paho.Client, m paho.Message) {
		sub.handler(m.Topic(), m.Payload())
	})
	if !token.WaitTimeout(subscribeTimeout) {
		return fmt.Errorf("subscribe %q: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %q: %w", topic, err)
	}
	return nil
}

// onConnect restores every subscription; it runs on each (re)connect.
func (s *RealSubscriber) onConnect(c paho.Client) {
	s.log.Infow("mqtt_connected")
	s.reportStatus(true)

	s.mu.Lock()
	subs := make(map[string]subscription, len(s.subs))
	for topic, sub := range s.subs {
		subs[topic] = sub
	}
	s.mu.Unlock()

	for topic, sub := range subs {
		if err := s.subscribe(c, topic, sub); err != nil {
			s.log.Errorw("mqtt_resubscribe_failed", "topic", topic, "err", err)
			continue
		}
		s.log.Infow("mqtt_subscribed", "topic", topic, "qos", sub.qos)
	}
}

func (s *RealSubscriber) onConnectionLost(_ paho.Client, err error) {
	s.log.Warnw("mqtt_connection_lost", "err", err)
	s.reportStatus(false)
}

func (s *RealSubscriber) reportStatus(connected bool) {
	if s.onStatus != nil {
		s.onStatus(connected)
	}
}

// IsConnected reports whether the broker connection is up.
func (s *RealSubscriber) IsConnected() bool {
	return s.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (s *RealSubscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.client.Disconnect(disconnectQuiesceMs)
	s.reportStatus(false)
	return nil
}
