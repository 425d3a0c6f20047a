package workflow

import "math"

const (
	MinTemperature     = 0.0
	MaxTemperature     = 2.0
	TemperatureStep    = 0.1
	DefaultTemperature = 0.3
)

// ClampTemperature snaps v to the nearest step inside
// [MinTemperature, MaxTemperature]. NaN maps to DefaultTemperature.
func ClampTemperature(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultTemperature
	}
	v = math.Max(MinTemperature, math.Min(MaxTemperature, v))
	// Round in tenths, then divide, so 0.3 stays 0.3 rather than 0.30000000000000004.
	return math.Round(v/TemperatureStep) / 10
}

// TemperatureLabel describes how adventurous a temperature is.
func TemperatureLabel(v float64) string {
	switch {
	case v == 0:
		return "Deterministic"
	case v < 0.5:
		return "Consistent"
	case v < 1.0:
		return "Balanced"
	case v < 1.5:
		return "Creative"
	default:
		return "Very Creative"
	}
}
