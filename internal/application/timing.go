package application

import "time"

// Timing holds the tuned intervals of the dosing loop.
type Timing struct {
	LoopInterval             time.Duration
	RecencyInterval          time.Duration
	ContinuationInterval     time.Duration
	MinTriggerInterval       time.Duration
	MaxCarbAbsorptionTime    time.Duration
	InsulinActivityDuration  time.Duration
	GlucoseDelta             time.Duration
	OverrideHistoryRetention time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		LoopInterval:             5 * time.Minute,
		RecencyInterval:          15 * time.Minute,
		ContinuationInterval:     11 * time.Minute,
		MinTriggerInterval:       4*time.Minute + 12*time.Second,
		MaxCarbAbsorptionTime:    10 * time.Hour,
		InsulinActivityDuration:  6*time.Hour + 10*time.Minute,
		GlucoseDelta:             5 * time.Minute,
		OverrideHistoryRetention: 48 * time.Hour,
	}
}

// withDefaults fills zero fields from DefaultTiming. LoopInterval is left as is
// so a zero value disables the periodic ticker.
func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.RecencyInterval <= 0 {
		t.RecencyInterval = d.RecencyInterval
	}
	if t.ContinuationInterval <= 0 {
		t.ContinuationInterval = d.ContinuationInterval
	}
	if t.MinTriggerInterval <= 0 {
		t.MinTriggerInterval = d.MinTriggerInterval
	}
	if t.MaxCarbAbsorptionTime <= 0 {
		t.MaxCarbAbsorptionTime = d.MaxCarbAbsorptionTime
	}
	if t.InsulinActivityDuration <= 0 {
		t.InsulinActivityDuration = d.InsulinActivityDuration
	}
	if t.GlucoseDelta <= 0 {
		t.GlucoseDelta = d.GlucoseDelta
	}
	if t.OverrideHistoryRetention <= 0 {
		t.OverrideHistoryRetention = d.OverrideHistoryRetention
	}

	return t
}
