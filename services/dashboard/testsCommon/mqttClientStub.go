package testsCommon

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// PublishedMessage is a message captured by MQTTClientStub
type PublishedMessage struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// MQTTClientStub -
type MQTTClientStub struct {
	mut               sync.Mutex
	PublishHandler    func(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	DisconnectHandler func(quiesce uint)
	Connected         bool
	published         []PublishedMessage
}

// Publish -
func (stub *MQTTClientStub) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	stub.mut.Lock()
	buff, _ := payload.([]byte)
	stub.published = append(stub.published, PublishedMessage{
		Topic:    topic,
		QoS:      qos,
		Retained: retained,
		Payload:  buff,
	})
	stub.mut.Unlock()

	if stub.PublishHandler != nil {
		return stub.PublishHandler(topic, qos, retained, payload)
	}

	return &TokenStub{}
}

// IsConnected -
func (stub *MQTTClientStub) IsConnected() bool {
	return stub.Connected
}

// Disconnect -
func (stub *MQTTClientStub) Disconnect(quiesce uint) {
	if stub.DisconnectHandler != nil {
		stub.DisconnectHandler(quiesce)
	}
}

// Published returns a copy of the captured messages
func (stub *MQTTClientStub) Published() []PublishedMessage {
	stub.mut.Lock()
	defer stub.mut.Unlock()

	out := make([]PublishedMessage, len(stub.published))
	copy(out, stub.published)

	return out
}

// TokenStub -
type TokenStub struct {
	Err     error
	Timeout bool
}

// Wait -
func (stub *TokenStub) Wait() bool {
	return !stub.Timeout
}

// WaitTimeout -
func (stub *TokenStub) WaitTimeout(_ time.Duration) bool {
	return !stub.Timeout
}

// Done -
func (stub *TokenStub) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !stub.Timeout {
		close(ch)
	}

	return ch
}

// Error -
func (stub *TokenStub) Error() error {
	return stub.Err
}
