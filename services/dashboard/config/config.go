package config

import (
	"fmt"
	"os"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/vitals"
	"github.com/pelletier/go-toml/v2"
)

const (
	defaultListenAddress                  = "127.0.0.1:8080"
	defaultTickIntervalInSeconds          = 5
	defaultStatusRefreshIntervalInSeconds = 60
	defaultJournalPath                    = ":memory:"
	defaultJournalRetentionSeconds        = 86400
	defaultMQTTClientID                   = "healthvital-dashboard"
	defaultMQTTTopicPrefix                = "healthvital"
	defaultMQTTPublishTimeoutInSeconds    = 2
	defaultWebhookTimeoutInSeconds        = 5
)

// AlertJournalConfig defines where the session's alerts are kept
type AlertJournalConfig struct {
	DBPath           string `toml:"DBPath"`
	RetentionSeconds int    `toml:"RetentionSeconds"`
}

// MQTTConfig defines the broker the ticks are published to
type MQTTConfig struct {
	Enabled                 bool   `toml:"Enabled"`
	Broker                  string `toml:"Broker"`
	ClientID                string `toml:"ClientID"`
	Username                string `toml:"Username"`
	Password                string `toml:"Password"`
	TopicPrefix             string `toml:"TopicPrefix"`
	QoS                     uint8  `toml:"QoS"`
	PublishTimeoutInSeconds uint32 `toml:"PublishTimeoutInSeconds"`
}

// WebhookConfig defines the endpoint the raised alerts are posted to
type WebhookConfig struct {
	Enabled          bool   `toml:"Enabled"`
	Endpoint         string `toml:"Endpoint"`
	APIKey           string `toml:"APIKey"`
	TimeoutInSeconds uint32 `toml:"TimeoutInSeconds"`
}

// Config maps to the config.toml file for the dashboard service
type Config struct {
	ListenAddress                  string                `toml:"ListenAddress"`
	StaticDir                      string                `toml:"StaticDir"`
	TickIntervalInSeconds          uint32                `toml:"TickIntervalInSeconds"`
	StatusRefreshIntervalInSeconds uint32                `toml:"StatusRefreshIntervalInSeconds"`
	Seed                           int64                 `toml:"Seed"`
	Patient                        common.PatientProfile `toml:"Patient"`
	Vitals                         []vitals.SeriesConfig `toml:"Vitals"`
	Devices                        []common.DeviceStatus `toml:"Devices"`
	AlertJournal                   AlertJournalConfig    `toml:"AlertJournal"`
	MQTT                           MQTTConfig            `toml:"MQTT"`
	Webhook                        WebhookConfig         `toml:"Webhook"`
}

// DefaultPatient returns the profile of the monitored patient used when none is configured
func DefaultPatient() common.PatientProfile {
	return common.PatientProfile{
		Name:      "Sarah Johnson",
		Age:       34,
		MedicalID: "HV-2024-001",
		EmergencyContact: common.EmergencyContact{
			Name:         "John Johnson",
			Phone:        "(555) 123-4567",
			Relationship: "Spouse",
		},
		Medications: []string{"Lisinopril 10mg", "Metformin 500mg", "Vitamin D3"},
		Conditions:  []string{"Hypertension", "Type 2 Diabetes"},
	}
}

// LoadConfig parses a TOML file into the Config struct, fills in the defaults and validates the result
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	cfg.ApplyDefaults()
	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills in every unset value. Devices are left untouched: an empty list means the default devices.
func (cfg *Config) ApplyDefaults() {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = defaultListenAddress
	}
	if cfg.TickIntervalInSeconds == 0 {
		cfg.TickIntervalInSeconds = defaultTickIntervalInSeconds
	}
	if cfg.StatusRefreshIntervalInSeconds == 0 {
		cfg.StatusRefreshIntervalInSeconds = defaultStatusRefreshIntervalInSeconds
	}
	if cfg.Patient.Name == "" {
		cfg.Patient = DefaultPatient()
	}
	if cfg.AlertJournal.DBPath == "" {
		cfg.AlertJournal.DBPath = defaultJournalPath
	}
	if cfg.AlertJournal.RetentionSeconds == 0 {
		cfg.AlertJournal.RetentionSeconds = defaultJournalRetentionSeconds
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = defaultMQTTClientID
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = defaultMQTTTopicPrefix
	}
	if cfg.MQTT.PublishTimeoutInSeconds == 0 {
		cfg.MQTT.PublishTimeoutInSeconds = defaultMQTTPublishTimeoutInSeconds
	}
	if cfg.Webhook.TimeoutInSeconds == 0 {
		cfg.Webhook.TimeoutInSeconds = defaultWebhookTimeoutInSeconds
	}
}

// Validate checks the values that can not be defaulted
func (cfg *Config) Validate() error {
	if cfg.TickIntervalInSeconds == 0 {
		return fmt.Errorf("invalid TickIntervalInSeconds: must be positive")
	}
	if cfg.StatusRefreshIntervalInSeconds == 0 {
		return fmt.Errorf("invalid StatusRefreshIntervalInSeconds: must be positive")
	}
	if cfg.AlertJournal.RetentionSeconds < 0 {
		return fmt.Errorf("invalid AlertJournal.RetentionSeconds %d", cfg.AlertJournal.RetentionSeconds)
	}

	seen := make(map[common.VitalKind]struct{}, len(cfg.Vitals))
	for _, series := range cfg.Vitals {
		_, err := vitals.RuleFor(series.Kind)
		if err != nil {
			return fmt.Errorf("%w in the Vitals section", err)
		}
		if _, found := seen[series.Kind]; found {
			return fmt.Errorf("duplicate vital %q in the Vitals section", series.Kind)
		}
		seen[series.Kind] = struct{}{}
	}

	_, err := vitals.NewSet(cfg.Dataset())
	if err != nil {
		return fmt.Errorf("%w in the Vitals section", err)
	}

	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker == "" {
			return fmt.Errorf("empty MQTT.Broker while MQTT is enabled")
		}
		if cfg.MQTT.QoS > 2 {
			return fmt.Errorf("invalid MQTT.QoS %d", cfg.MQTT.QoS)
		}
	}
	if cfg.Webhook.Enabled && cfg.Webhook.Endpoint == "" {
		return fmt.Errorf("empty Webhook.Endpoint while the webhook is enabled")
	}

	return nil
}

// Dataset returns the initial vitals: the defaults overridden by the configured series
func (cfg *Config) Dataset() vitals.Dataset {
	return vitals.DefaultDataset().Merge(cfg.Vitals)
}
