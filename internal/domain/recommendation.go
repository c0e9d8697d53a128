package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// rateTolerance is far below the finest rate increment any pump supports.
const rateTolerance = 1e-6

type TempBasalRecommendation struct {
	UnitsPerHour float64       `json:"unitsPerHour"`
	Duration     time.Duration `json:"duration"`
}

func CancelTempBasal() TempBasalRecommendation {
	return TempBasalRecommendation{}
}

func (r TempBasalRecommendation) IsCancel() bool {
	return r.UnitsPerHour == 0 && r.Duration == 0
}

func (r TempBasalRecommendation) matchesRate(rate float64) bool {
	return math.Abs(rate-r.UnitsPerHour) < rateTolerance
}

// IfNecessary applies the continuation policy. A nil result means no command
// should be sent: the running temp basal already delivers this rate for longer
// than continuationInterval, or the recommendation equals the pump's own
// scheduled rate. When an override makes the neutral rate differ from what the
// pump schedules, neutralBasalRateMatchesPump is false and the temp is kept.
func (r TempBasalRecommendation) IfNecessary(
	at time.Time,
	neutralBasalRate float64,
	lastTempBasal *DoseEntry,
	continuationInterval time.Duration,
	neutralBasalRateMatchesPump bool,
) *TempBasalRecommendation {
	if lastTempBasal != nil && lastTempBasal.Type == DoseTypeTempBasal && lastTempBasal.EndDate.After(at) {
		if r.matchesRate(lastTempBasal.UnitsPerHour()) && lastTempBasal.EndDate.Sub(at) > continuationInterval {
			return nil
		}
		if r.matchesRate(neutralBasalRate) && neutralBasalRateMatchesPump {
			cancel := CancelTempBasal()
			return &cancel
		}
	} else if r.matchesRate(neutralBasalRate) && neutralBasalRateMatchesPump {
		return nil
	}

	result := r
	return &result
}

func (r TempBasalRecommendation) String() string {
	if r.IsCancel() {
		return "cancel temp basal"
	}

	return fmt.Sprintf("%.3g U/hr for %s", r.UnitsPerHour, r.Duration)
}

type AutomaticDoseRecommendation struct {
	BasalAdjustment *TempBasalRecommendation `json:"basalAdjustment,omitempty"`
	BolusUnits      *float64                 `json:"bolusUnits,omitempty"`
}

func (r AutomaticDoseRecommendation) HasDosingChange() bool {
	return r.BasalAdjustment != nil || (r.BolusUnits != nil && *r.BolusUnits > 0)
}

func (r AutomaticDoseRecommendation) Equal(other AutomaticDoseRecommendation) bool {
	if (r.BasalAdjustment == nil) != (other.BasalAdjustment == nil) {
		return false
	}
	if r.BasalAdjustment != nil && *r.BasalAdjustment != *other.BasalAdjustment {
		return false
	}
	if (r.BolusUnits == nil) != (other.BolusUnits == nil) {
		return false
	}

	return r.BolusUnits == nil || *r.BolusUnits == *other.BolusUnits
}

func (r AutomaticDoseRecommendation) String() string {
	parts := make([]string, 0, 2)
	if r.BasalAdjustment != nil {
		parts = append(parts, "basal: "+r.BasalAdjustment.String())
	}
	if r.BolusUnits != nil {
		parts = append(parts, fmt.Sprintf("bolus: %.3g U", *r.BolusUnits))
	}
	if len(parts) == 0 {
		return "no change"
	}

	return strings.Join(parts, ", ")
}

type ManualBolusRecommendation struct {
	Amount float64
	Notice string
}

type DoseRecommendation struct {
	Manual    *ManualBolusRecommendation
	Automatic *AutomaticDoseRecommendation
}

// RoundToIncrement rounds down to a supported increment, so the result never
// exceeds the requested amount.
func RoundToIncrement(value, increment float64) float64 {
	if increment <= 0 || value <= 0 {
		return math.Max(value, 0)
	}

	steps := math.Floor(value/increment + 1e-9)
	return math.Round(steps*increment*1e4) / 1e4
}
