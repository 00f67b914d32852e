package factory

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iulianpascalau/healthvital-monitoring/commonGo"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/alerts"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/api"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/config"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/devices"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/engine"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/metrics"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/notifier"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/publisher"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/simulator"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/storage"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const journalWriteTimeout = 2 * time.Second

var log = logger.GetOrCreate("factory")

type componentsHandler struct {
	engine          Engine
	journal         Journal
	devices         DeviceRegistry
	server          Server
	publishers      []Publisher
	unsubscribers   []func()
	tickInterval    time.Duration
	refreshInterval time.Duration

	mutCancel sync.Mutex
	cancel    func()
	jobsDone  []<-chan struct{}
	closed    bool
	running   atomic.Bool
}

// NewComponentsHandler creates every component of the dashboard and wires the tick subscribers. A zero seed
// seeds the simulation from the current time.
func NewComponentsHandler(cfg config.Config, seed int64) (*componentsHandler, error) {
	cfg.ApplyDefaults()
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log.Info("simulation seed", "seed", seed)

	collector := metrics.NewPrometheusCollector()
	sim, err := simulator.NewRandomWalkSimulator(rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewVitalsEngine(engine.ArgsVitalsEngine{
		Dataset:      cfg.Dataset(),
		Simulator:    sim,
		Evaluator:    alerts.NewThresholdEvaluator(),
		Metrics:      collector,
		DetailRandom: rand.New(rand.NewSource(seed + 1)),
	})
	if err != nil {
		return nil, err
	}

	deviceList := cfg.Devices
	if len(deviceList) == 0 {
		deviceList = devices.DefaultDevices(time.Now())
	}
	registry, err := devices.NewDeviceRegistry(devices.ArgsDeviceRegistry{
		Devices: deviceList,
		Metrics: collector,
	})
	if err != nil {
		return nil, err
	}

	journal, err := storage.NewSQLiteJournal(cfg.AlertJournal.DBPath, cfg.AlertJournal.RetentionSeconds)
	if err != nil {
		return nil, err
	}

	ch := &componentsHandler{
		engine:          eng,
		journal:         journal,
		devices:         registry,
		tickInterval:    time.Duration(cfg.TickIntervalInSeconds) * time.Second,
		refreshInterval: time.Duration(cfg.StatusRefreshIntervalInSeconds) * time.Second,
	}
	ch.unsubscribers = append(ch.unsubscribers, eng.Subscribe(ch.journalAlerts))

	err = ch.createPublishers(cfg)
	if err != nil {
		ch.closeComponents()
		return nil, err
	}

	server, err := api.NewServer(api.ArgsWebServer{
		ListenAddress:  cfg.ListenAddress,
		StaticDir:      cfg.StaticDir,
		Engine:         eng,
		Journal:        journal,
		Devices:        registry,
		Patient:        cfg.Patient,
		MetricsHandler: collector.Handler(),
		IsRunning:      ch.IsRunning,
		GeneralHandler: api.CORSMiddleware,
	})
	if err != nil {
		ch.closeComponents()
		return nil, err
	}
	ch.server = server

	return ch, nil
}

func (ch *componentsHandler) createPublishers(cfg config.Config) error {
	if cfg.MQTT.Enabled {
		timeout := time.Duration(cfg.MQTT.PublishTimeoutInSeconds) * time.Second
		client, err := publisher.NewPahoClient(publisher.ArgsPahoClient{
			Broker:         cfg.MQTT.Broker,
			ClientID:       cfg.MQTT.ClientID,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			ConnectTimeout: timeout,
		})
		if err != nil {
			return err
		}

		mqttPublisher, err := publisher.NewMQTTPublisher(publisher.ArgsMQTTPublisher{
			Client:         client,
			TopicPrefix:    cfg.MQTT.TopicPrefix,
			QoS:            cfg.MQTT.QoS,
			PublishTimeout: timeout,
		})
		if err != nil {
			client.Disconnect(0)
			return err
		}

		ch.addPublisher(mqttPublisher)
		log.Info("publishing ticks over mqtt", "broker", cfg.MQTT.Broker, "prefix", cfg.MQTT.TopicPrefix)
	}

	if cfg.Webhook.Enabled {
		webhook := notifier.NewWebhookNotifier(
			cfg.Webhook.Endpoint,
			cfg.Webhook.APIKey,
			cfg.Patient.MedicalID,
			time.Duration(cfg.Webhook.TimeoutInSeconds)*time.Second,
		)

		ch.unsubscribers = append(ch.unsubscribers, ch.engine.Subscribe(webhook.HandleTick))
		log.Info("posting alerts to webhook", "endpoint", cfg.Webhook.Endpoint)
	}

	return nil
}

func (ch *componentsHandler) addPublisher(p Publisher) {
	ch.publishers = append(ch.publishers, p)
	ch.unsubscribers = append(ch.unsubscribers, ch.engine.Subscribe(p.HandleTick))
}

func (ch *componentsHandler) journalAlerts(result common.TickResult) {
	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()

	err := ch.journal.SaveAlerts(ctx, result.Tick, result.NewAlerts)
	if err != nil {
		log.Warn("failed to journal alerts", "tick", result.Tick, "error", err)
	}
}

// GetEngine returns the engine component
func (ch *componentsHandler) GetEngine() Engine {
	return ch.engine
}

// GetJournal returns the alert journal component
func (ch *componentsHandler) GetJournal() Journal {
	return ch.journal
}

// GetDevices returns the device registry component
func (ch *componentsHandler) GetDevices() DeviceRegistry {
	return ch.devices
}

// GetServer returns the server component
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// IsRunning returns true between Start and Close
func (ch *componentsHandler) IsRunning() bool {
	return ch.running.Load()
}

// Start starts the server and the two periodic jobs: the vitals tick and the device status refresh. The jobs are
// not started if the server can not listen.
func (ch *componentsHandler) Start() error {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel != nil || ch.closed {
		return nil
	}

	err := ch.server.Start()
	if err != nil {
		return err
	}

	var ctx context.Context
	ctx, ch.cancel = context.WithCancel(context.Background())
	ch.jobsDone = []<-chan struct{}{
		commonGo.CronJobStarter(ctx, ch.engine.Process, ch.tickInterval, false),
		commonGo.CronJobStarter(ctx, ch.devices.Refresh, ch.refreshInterval, true),
	}
	ch.running.Store(true)

	log.Info("simulation started", "tick interval", ch.tickInterval, "status refresh interval", ch.refreshInterval)

	return nil
}

// Close stops both periodic jobs, waits for them to exit, then closes the inner components. Only the first call
// has an effect; a later Start does nothing.
func (ch *componentsHandler) Close() {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.closed {
		return
	}
	ch.closed = true
	ch.running.Store(false)

	if ch.cancel != nil {
		ch.cancel()
		for _, done := range ch.jobsDone {
			<-done
		}
		ch.cancel = nil
	}

	err := ch.server.Close()
	if err != nil {
		log.Warn("failed to close the server", "error", err)
	}
	ch.closeComponents()

	log.Info("simulation stopped", "ticks", ch.engine.Status().Tick)
}

func (ch *componentsHandler) closeComponents() {
	for _, unsubscribe := range ch.unsubscribers {
		unsubscribe()
	}
	ch.unsubscribers = nil

	for _, p := range ch.publishers {
		_ = p.Close()
	}

	err := ch.journal.Close()
	if err != nil {
		log.Warn("failed to close the alert journal", "error", err)
	}
}
