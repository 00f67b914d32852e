package common

import "time"

// VitalKind identifies one simulated vital sign series
type VitalKind string

const (
	HeartRate              VitalKind = "heartRate"
	BloodPressureSystolic  VitalKind = "bloodPressureSystolic"
	BloodPressureDiastolic VitalKind = "bloodPressureDiastolic"
	Temperature            VitalKind = "temperature"
	OxygenSaturation       VitalKind = "oxygenSaturation"
)

// AllVitalKinds returns every known kind in tick order
func AllVitalKinds() []VitalKind {
	return []VitalKind{
		HeartRate,
		BloodPressureSystolic,
		BloodPressureDiastolic,
		Temperature,
		OxygenSaturation,
	}
}

// Severity is the classification of an alert
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Trend is the display hint attached to a vital series. It is seed metadata and is not recomputed by the ticks.
type Trend string

const (
	TrendStable           Trend = "stable"
	TrendNormal           Trend = "normal"
	TrendSlightlyElevated Trend = "slightly_elevated"
)

// Range is an inclusive [Low, High] interval
type Range struct {
	Low  float64 `json:"low" toml:"Low"`
	High float64 `json:"high" toml:"High"`
}

// Contains returns true if the value lies within the inclusive interval
func (r Range) Contains(value float64) bool {
	return value >= r.Low && value <= r.High
}

// AlertEvent is a single alert produced by the threshold rules. It is passed around by value and never modified
// after creation.
type AlertEvent struct {
	ID        string    `json:"id"`
	Rule      string    `json:"rule"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// VitalsSnapshot holds the current value of every vital at one instant
type VitalsSnapshot struct {
	HeartRate        float64 `json:"heartRate"`
	Systolic         float64 `json:"systolic"`
	Diastolic        float64 `json:"diastolic"`
	Temperature      float64 `json:"temperature"`
	OxygenSaturation float64 `json:"oxygenSaturation"`
}

// VitalView is the read-only representation of a vital series handed to the display layer
type VitalView struct {
	Kind        VitalKind `json:"kind"`
	Label       string    `json:"label"`
	Unit        string    `json:"unit"`
	Current     float64   `json:"current"`
	History     []float64 `json:"history"`
	NormalRange Range     `json:"normalRange"`
	ClampRange  Range     `json:"clampRange"`
	Trend       Trend     `json:"trend"`
}

// TickResult describes the state of the engine right after a completed tick
type TickResult struct {
	Tick          uint64         `json:"tick"`
	At            time.Time      `json:"at"`
	Vitals        VitalsSnapshot `json:"vitals"`
	NewAlerts     []AlertEvent   `json:"newAlerts"`
	RecentAlerts  []AlertEvent   `json:"recentAlerts"`
	TotalRecorded uint64         `json:"totalRecorded"`
}

// EngineStatus reports the progress of the simulation
type EngineStatus struct {
	Tick       uint64    `json:"tick"`
	LastTickAt time.Time `json:"lastTickAt"`
}

// EmergencyContact is the person to call for the monitored patient
type EmergencyContact struct {
	Name         string `json:"name" toml:"Name"`
	Phone        string `json:"phone" toml:"Phone"`
	Relationship string `json:"relationship" toml:"Relationship"`
}

// PatientProfile holds the static details of the monitored patient
type PatientProfile struct {
	Name             string           `json:"name" toml:"Name"`
	Age              int              `json:"age" toml:"Age"`
	MedicalID        string           `json:"medicalId" toml:"MedicalID"`
	EmergencyContact EmergencyContact `json:"emergencyContact" toml:"EmergencyContact"`
	Medications      []string         `json:"medications" toml:"Medications"`
	Conditions       []string         `json:"conditions" toml:"Conditions"`
}

// DeviceStatus is the last known state of a monitoring device
type DeviceStatus struct {
	Name           string    `json:"name" toml:"Name"`
	Type           string    `json:"type" toml:"Type"`
	Connected      bool      `json:"connected" toml:"Connected"`
	BatteryPercent int       `json:"batteryPercent" toml:"BatteryPercent"`
	LastSync       time.Time `json:"lastSync" toml:"-"`
}

// DevicesReport is the device list together with the time of the last status refresh
type DevicesReport struct {
	Devices     []DeviceStatus `json:"devices"`
	LastRefresh time.Time      `json:"lastRefresh"`
}

// JournalEntry is a journaled alert together with the tick that raised it
type JournalEntry struct {
	AlertEvent
	Tick uint64 `json:"tick"`
}
