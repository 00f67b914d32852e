package publisher

import mqtt "github.com/eclipse/paho.mqtt.golang"

// MQTTClient is the part of the paho client the publisher uses
type MQTTClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}
