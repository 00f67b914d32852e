package simulator

import "github.com/iulianpascalau/healthvital-monitoring/services/dashboard/vitals"

// Extrapolate pads the provided history to count points with a clamped random walk that starts from the last known
// value (or from current when the history is empty) and uses the rule's detail span. It returns the newest count
// points. The input slice is not modified.
func Extrapolate(rnd RandomSource, rule vitals.Rule, history []float64, current float64, count int) []float64 {
	if count <= 0 {
		return make([]float64, 0)
	}

	data := make([]float64, len(history), max(len(history), count))
	copy(data, history)

	for len(data) < count {
		last := current
		if len(data) > 0 {
			last = data[len(data)-1]
		}

		data = append(data, rule.Normalize(last+Perturbation(rnd, rule.DetailSpan)))
	}

	return data[len(data)-count:]
}
