package smoke

import "github.com/itohio/smokealarm/pkg/config"

// Classifier maps a concentration to a Level using three ascending ppm
// thresholds.
type Classifier struct {
	low    float64
	medium float64
	high   float64
}

// NewClassifier creates a classifier. Thresholds that are not positive and
// strictly ascending are rejected.
func NewClassifier(t config.ThresholdConfig) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{low: t.Low, medium: t.Medium, high: t.High}, nil
}

// Classify returns the level for ppm. Each threshold belongs to the level
// above it.
func (c *Classifier) Classify(ppm float64) Level {
	switch {
	case ppm >= c.high:
		return FireAlert
	case ppm >= c.medium:
		return Warning
	case ppm >= c.low:
		return Detected
	default:
		return Clear
	}
}
