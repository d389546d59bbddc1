// Package mqtt subscribes to the IO-Link master's topics, with a fake for tests.
package mqtt

import "errors"

// DefaultQoS is used when a subscription does not ask for another level.
const DefaultQoS byte = 0

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("mqtt: subscriber closed")

// MessageHandler receives every message published on a subscribed topic.
// It runs on the client's goroutines and must be safe for concurrent use.
type MessageHandler func(topic string, payload []byte)

// Subscriber delivers broker messages to handlers.
type Subscriber interface {
	// Subscribe registers handler for topic. The subscription survives reconnects.
	Subscribe(topic string, qos byte, handler MessageHandler) error

	// IsConnected reports whether the broker connection is up.
	IsConnected() bool

	// Close disconnects from the broker.
	Close() error
}

// StatusFunc is told about every connection state change.
type StatusFunc func(connected bool)
