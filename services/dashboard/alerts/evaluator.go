package alerts

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
)

const (
	RuleHighHeartRate        = "highHeartRate"
	RuleLowHeartRate         = "lowHeartRate"
	RuleHighBloodPressure    = "highBloodPressure"
	RuleFever                = "fever"
	RuleLowOxygenSaturation  = "lowOxygenSaturation"
	highHeartRateThreshold   = 100
	lowHeartRateThreshold    = 60
	highSystolicThreshold    = 140
	highDiastolicThreshold   = 90
	feverThreshold           = 100.4
	lowOxygenSaturationLimit = 95
)

// thresholdRule matches a snapshot and renders the alert message
type thresholdRule struct {
	name     string
	severity common.Severity
	matches  func(s common.VitalsSnapshot) bool
	message  func(s common.VitalsSnapshot) string
}

// The heart rate rules can not fire while the simulator clamps heart rate to [60, 100]. They are kept so that
// unclamped input would still be classified.
var thresholdRules = []thresholdRule{
	{
		name:     RuleHighHeartRate,
		severity: common.SeverityCritical,
		matches:  func(s common.VitalsSnapshot) bool { return s.HeartRate > highHeartRateThreshold },
		message: func(s common.VitalsSnapshot) string {
			return fmt.Sprintf("High heart rate detected: %s BPM", formatValue(s.HeartRate))
		},
	},
	{
		name:     RuleLowHeartRate,
		severity: common.SeverityWarning,
		matches:  func(s common.VitalsSnapshot) bool { return s.HeartRate < lowHeartRateThreshold },
		message: func(s common.VitalsSnapshot) string {
			return fmt.Sprintf("Low heart rate detected: %s BPM", formatValue(s.HeartRate))
		},
	},
	{
		name:     RuleHighBloodPressure,
		severity: common.SeverityCritical,
		matches: func(s common.VitalsSnapshot) bool {
			return s.Systolic > highSystolicThreshold || s.Diastolic > highDiastolicThreshold
		},
		message: func(s common.VitalsSnapshot) string {
			return fmt.Sprintf("High blood pressure: %s/%s mmHg", formatValue(s.Systolic), formatValue(s.Diastolic))
		},
	},
	{
		name:     RuleFever,
		severity: common.SeverityCritical,
		matches:  func(s common.VitalsSnapshot) bool { return s.Temperature > feverThreshold },
		message: func(s common.VitalsSnapshot) string {
			return fmt.Sprintf("Fever detected: %s°F", formatValue(s.Temperature))
		},
	},
	{
		name:     RuleLowOxygenSaturation,
		severity: common.SeverityCritical,
		matches:  func(s common.VitalsSnapshot) bool { return s.OxygenSaturation < lowOxygenSaturationLimit },
		message: func(s common.VitalsSnapshot) string {
			return fmt.Sprintf("Low oxygen saturation: %s%%", formatValue(s.OxygenSaturation))
		},
	},
}

// alertNamespace scopes the name-based alert identifiers
var alertNamespace = uuid.MustParse("6f1c2a9e-5b0d-4c4e-9a55-3d7f0e8b2c41")

type thresholdEvaluator struct{}

// NewThresholdEvaluator creates the evaluator of the fixed threshold rules
func NewThresholdEvaluator() *thresholdEvaluator {
	return &thresholdEvaluator{}
}

// Evaluate classifies the snapshot against every rule, in rule order. All matching rules produce an event. The
// snapshot is only read. The events carry no ID, the owner of the tick counter stamps it with EventID.
func (ev *thresholdEvaluator) Evaluate(snapshot common.VitalsSnapshot, at time.Time) []common.AlertEvent {
	events := make([]common.AlertEvent, 0)
	for _, rule := range thresholdRules {
		if !rule.matches(snapshot) {
			continue
		}

		events = append(events, common.AlertEvent{
			Rule:      rule.name,
			Severity:  rule.severity,
			Message:   rule.message(snapshot),
			Timestamp: at,
		})
	}

	return events
}

// IsInterfaceNil returns true if the value under the interface is nil
func (ev *thresholdEvaluator) IsInterfaceNil() bool {
	return ev == nil
}

// EventID returns the identifier of the alert raised by rule on the given tick. It is stable for the pair and
// unique across ticks, whatever the tick time.
func EventID(tick uint64, rule string) string {
	return uuid.NewSHA1(alertNamespace, []byte(rule+"#"+strconv.FormatUint(tick, 10))).String()
}

func formatValue(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
