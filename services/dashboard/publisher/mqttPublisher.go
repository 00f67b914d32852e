package publisher

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const (
	vitalsTopic        = "vitals"
	alertsTopic        = "alerts"
	disconnectQuiesce  = 250
	minPublishTimeout  = time.Millisecond
	defaultConnTimeout = 5 * time.Second
)

var log = logger.GetOrCreate("publisher")

// ErrPublishTimeout signals a publish not acknowledged in time
var ErrPublishTimeout = errors.New("mqtt publish timeout")

// ArgsPahoClient holds the broker connection settings
type ArgsPahoClient struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
}

// NewPahoClient connects to the broker and returns the client
func NewPahoClient(args ArgsPahoClient) (mqtt.Client, error) {
	if args.Broker == "" {
		return nil, errors.New("empty mqtt broker")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(args.Broker)
	opts.SetClientID(args.ClientID)
	if args.Username != "" {
		opts.SetUsername(args.Username)
	}
	if args.Password != "" {
		opts.SetPassword(args.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	timeout := args.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnTimeout
	}
	opts.SetConnectTimeout(timeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("timeout connecting to mqtt broker %s", args.Broker)
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker: %w", token.Error())
	}

	return client, nil
}

// ArgsMQTTPublisher defines the arguments needed to create an MQTT publisher
type ArgsMQTTPublisher struct {
	Client         MQTTClient
	TopicPrefix    string
	QoS            byte
	PublishTimeout time.Duration
}

type vitalsMessage struct {
	Tick   uint64                `json:"tick"`
	At     time.Time             `json:"at"`
	Vitals common.VitalsSnapshot `json:"vitals"`
}

type mqttPublisher struct {
	client         MQTTClient
	topicPrefix    string
	qos            byte
	publishTimeout time.Duration
	closeOnce      sync.Once
}

// NewMQTTPublisher creates a publisher that forwards every tick's vitals and new alerts to the broker
func NewMQTTPublisher(args ArgsMQTTPublisher) (*mqttPublisher, error) {
	if args.Client == nil {
		return nil, errors.New("nil mqtt client")
	}
	if args.QoS > 2 {
		return nil, fmt.Errorf("invalid mqtt QoS %d", args.QoS)
	}
	if args.PublishTimeout < minPublishTimeout {
		return nil, fmt.Errorf("invalid publish timeout %v", args.PublishTimeout)
	}

	return &mqttPublisher{
		client:         args.Client,
		topicPrefix:    strings.TrimSuffix(args.TopicPrefix, "/"),
		qos:            args.QoS,
		publishTimeout: args.PublishTimeout,
	}, nil
}

// PublishTick sends the vitals snapshot of the tick followed by each alert it raised
func (p *mqttPublisher) PublishTick(result common.TickResult) error {
	err := p.publishJSON(p.topic(vitalsTopic), vitalsMessage{
		Tick:   result.Tick,
		At:     result.At,
		Vitals: result.Vitals,
	})
	if err != nil {
		return err
	}

	for _, event := range result.NewAlerts {
		err = p.publishJSON(p.topic(alertsTopic), event)
		if err != nil {
			return err
		}
	}

	return nil
}

// HandleTick is the engine subscriber: publish failures are logged and dropped
func (p *mqttPublisher) HandleTick(result common.TickResult) {
	err := p.PublishTick(result)
	if err != nil {
		log.Warn("failed to publish tick", "tick", result.Tick, "error", err)
	}
}

func (p *mqttPublisher) topic(suffix string) string {
	if p.topicPrefix == "" {
		return suffix
	}

	return p.topicPrefix + "/" + suffix
}

func (p *mqttPublisher) publishJSON(topic string, payload interface{}) error {
	buff, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	token := p.client.Publish(topic, p.qos, false, buff)
	if !token.WaitTimeout(p.publishTimeout) {
		return fmt.Errorf("%w on topic %s", ErrPublishTimeout, topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	log.Trace("published", "topic", topic, "size", len(buff))

	return nil
}

// Close disconnects from the broker
func (p *mqttPublisher) Close() error {
	p.closeOnce.Do(func() {
		p.client.Disconnect(disconnectQuiesce)
	})

	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (p *mqttPublisher) IsInterfaceNil() bool {
	return p == nil
}
