package application

import (
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
)

// postProcess adapts an automatic recommendation to what the pump can deliver
// and drops temp basal commands the pump is already carrying out.
func postProcess(
	delivery ports.DeliveryDelegate,
	input domain.AlgorithmInput,
	raw domain.AutomaticDoseRecommendation,
	continuationInterval time.Duration,
	neutralBasalRateMatchesPump bool,
) domain.AutomaticDoseRecommendation {
	var out domain.AutomaticDoseRecommendation

	if raw.BolusUnits != nil {
		units := *raw.BolusUnits
		if units > 0 {
			units = delivery.RoundBolusVolume(units)
		}
		out.BolusUnits = &units
	}

	if raw.BasalAdjustment != nil {
		adjustment := *raw.BasalAdjustment
		adjustment.UnitsPerHour = delivery.RoundBasalRate(adjustment.UnitsPerHour)

		lastTempBasal := lastTempBasalAt(input.Doses, input.PredictionStart)
		if adjustment.IsCancel() && lastTempBasal == nil {
			return out
		}

		var neutral float64
		if scheduled, ok := domain.ClosestPrior(input.Basal, input.PredictionStart); ok {
			neutral = scheduled.Value
		}
		out.BasalAdjustment = adjustment.IfNecessary(
			input.PredictionStart,
			neutral,
			lastTempBasal,
			continuationInterval,
			neutralBasalRateMatchesPump,
		)
	}

	return out
}

func lastTempBasalAt(doses []domain.DoseEntry, at time.Time) *domain.DoseEntry {
	var last *domain.DoseEntry
	for i := range doses {
		if doses[i].Type == domain.DoseTypeTempBasal && doses[i].Straddles(at) {
			last = &doses[i]
		}
	}

	return last
}
