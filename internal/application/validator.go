package application

import (
	"time"

	"github.com/bnema/loopctl/internal/domain"
)

// validateWindow runs the safety checks in a fixed order and stops at the first
// failure. Relaxed validation, used for manual and forecast cycles, skips the
// recency checks.
func validateWindow(window DataWindow, recencyInterval time.Duration, relaxed bool) error {
	input := window.Input

	switch {
	case len(input.Target) == 0:
		return &domain.ConfigurationError{Setting: domain.SettingGlucoseTargetRange}
	case len(input.Basal) == 0:
		return &domain.ConfigurationError{Setting: domain.SettingBasalRateSchedule}
	case len(input.Sensitivity) == 0:
		return &domain.ConfigurationError{Setting: domain.SettingInsulinSensitivity}
	case len(input.CarbRatio) == 0:
		return &domain.ConfigurationError{Setting: domain.SettingCarbRatioSchedule}
	}

	latest, ok := input.LatestGlucose()
	if !ok {
		return &domain.MissingDataError{Data: domain.MissingGlucose}
	}
	if relaxed {
		return nil
	}

	if input.PredictionStart.Sub(latest.StartDate) > recencyInterval {
		return &domain.StaleDataError{Kind: domain.StaleGlucoseTooOld, Date: latest.StartDate}
	}
	if latest.StartDate.Sub(input.PredictionStart) > recencyInterval {
		return &domain.StaleDataError{Kind: domain.StaleInvalidFutureGlucose, Date: latest.StartDate}
	}
	if input.PredictionStart.Sub(window.LastPumpData) > recencyInterval {
		return &domain.StaleDataError{Kind: domain.StalePumpDataTooOld, Date: window.LastPumpData}
	}

	return nil
}
