package vehicle

// Factors of the performance score formula.
const (
	rpmDivisor   = 100.0
	loadFactor   = 0.5
	tempBaseline = 90.0
	tempFactor   = 2.0
)

// DefaultStressThreshold is the score below which a complete vehicle is under
// severe stress. A score equal to the threshold is not stressed.
const DefaultStressThreshold = 40.0

// Alert is the classification derived from completeness and score.
type Alert string

const (
	AlertNone          Alert = ""
	AlertSensorFailure Alert = "sensor-failure"
	AlertSevereStress  Alert = "severe-stress"
)

// Label returns the operator-facing text for a.
func (a Alert) Label() string {
	switch a {
	case AlertSensorFailure:
		return "Sensor Failure Detected"
	case AlertSevereStress:
		return "Severe Engine Stress"
	default:
		return ""
	}
}

// Score computes the performance score from the three required readings.
func Score(rpm, engineLoad, coolantTemp float64) float64 {
	return 100.0 - (rpm/rpmDivisor + engineLoad*loadFactor + (coolantTemp-tempBaseline)*tempFactor)
}

// Classify maps completeness and score to an Alert. complete=false always
// yields AlertSensorFailure; otherwise scores strictly below threshold are
// AlertSevereStress.
func Classify(complete bool, score, threshold float64) Alert {
	if !complete {
		return AlertSensorFailure
	}
	if score < threshold {
		return AlertSevereStress
	}
	return AlertNone
}
