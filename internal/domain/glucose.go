package domain

import (
	"fmt"
	"time"
)

// MgdLPerMmolL converts between the two glucose units.
const MgdLPerMmolL = 18.0182

type GlucoseSample struct {
	StartDate      time.Time
	Quantity       float64 // mg/dL
	IsDisplayOnly  bool
	WasUserEntered bool
	Provenance     string
	SyncIdentifier string
}

func (g GlucoseSample) MmolL() float64 {
	return g.Quantity / MgdLPerMmolL
}

type PredictedGlucoseValue struct {
	StartDate time.Time `json:"startDate"`
	Quantity  float64   `json:"quantity"`
}

type GlucoseRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r GlucoseRange) Validate() error {
	if r.Min <= 0 || r.Max <= 0 {
		return fmt.Errorf("glucose range bounds must be positive")
	}
	if r.Min > r.Max {
		return fmt.Errorf("glucose range min %.0f exceeds max %.0f", r.Min, r.Max)
	}

	return nil
}

func (r GlucoseRange) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

func (r GlucoseRange) String() string {
	return fmt.Sprintf("%.0f-%.0f mg/dL", r.Min, r.Max)
}

// LatestGlucose returns the sample with the greatest start date.
func LatestGlucose(samples []GlucoseSample) (GlucoseSample, bool) {
	if len(samples) == 0 {
		return GlucoseSample{}, false
	}

	latest := samples[0]
	for _, sample := range samples[1:] {
		if sample.StartDate.After(latest.StartDate) {
			latest = sample
		}
	}

	return latest, true
}
