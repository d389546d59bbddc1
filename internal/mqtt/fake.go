package mqtt

import "sync"

// FakeSubscriber records subscriptions and lets tests push messages.
type FakeSubscriber struct {
	mu sync.Mutex

	// Handlers holds the handler registered per topic.
	Handlers map[string]MessageHandler

	// QoS holds the requested QoS per topic.
	QoS map[string]byte

	// SubscribeError, if set, will be returned by Subscribe.
	SubscribeError error

	// Connected controls the return value of IsConnected.
	Connected bool

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeSubscriber creates a connected FakeSubscriber.
func NewFakeSubscriber() *FakeSubscriber {
	return &FakeSubscriber{
		Handlers:  make(map[string]MessageHandler),
		QoS:       make(map[string]byte),
		Connected: true,
	}
}

// Subscribe records the handler.
func (f *FakeSubscriber) Subscribe(topic string, qos byte, handler MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	if f.Closed {
		return ErrClosed
	}
	f.Handlers[topic] = handler
	f.QoS[topic] = qos
	return nil
}

// Deliver calls the handler subscribed to topic. It reports false when nothing
// is subscribed.
func (f *FakeSubscriber) Deliver(topic string, payload []byte) bool {
	f.mu.Lock()
	h, ok := f.Handlers[topic]
	f.mu.Unlock()
	if !ok {
		return false
	}
	h(topic, payload)
	return true
}

// IsConnected reports whether the fake subscriber is "connected".
func (f *FakeSubscriber) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Close marks the subscriber as closed.
func (f *FakeSubscriber) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	f.Connected = false
	return nil
}
