package application

import (
	"testing"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func roundingDelegate(t *testing.T) *mocks.MockDeliveryDelegate {
	delivery := mocks.NewMockDeliveryDelegate(t)
	delivery.EXPECT().RoundBasalRate(mock.Anything).RunAndReturn(func(rate float64) float64 {
		return domain.RoundToIncrement(rate, 0.05)
	}).Maybe()
	delivery.EXPECT().RoundBolusVolume(mock.Anything).RunAndReturn(func(units float64) float64 {
		return domain.RoundToIncrement(units, 0.1)
	}).Maybe()
	return delivery
}

func postProcessInput(doses ...domain.DoseEntry) domain.AlgorithmInput {
	return domain.AlgorithmInput{
		PredictionStart: testNow,
		Doses:           doses,
		Basal:           []domain.TimeBoundedValue[float64]{{StartDate: testNow.Add(-time.Hour), EndDate: testNow.Add(time.Hour), Value: 0.8}},
	}
}

func TestPostProcessRoundsBolusAndBasal(t *testing.T) {
	t.Parallel()

	delivery := roundingDelegate(t)
	raw := domain.AutomaticDoseRecommendation{
		BasalAdjustment: &domain.TempBasalRecommendation{UnitsPerHour: 1.234, Duration: 30 * time.Minute},
		BolusUnits:      domain.Float64Ptr(0.47),
	}

	got := postProcess(delivery, postProcessInput(), raw, 11*time.Minute, true)

	require.NotNil(t, got.BasalAdjustment)
	assert.Equal(t, 1.2, got.BasalAdjustment.UnitsPerHour)
	require.NotNil(t, got.BolusUnits)
	assert.Equal(t, 0.4, *got.BolusUnits)
	assert.Equal(t, 1.234, raw.BasalAdjustment.UnitsPerHour, "raw recommendation is left intact")
}

func TestPostProcessKeepsZeroBolusUnrounded(t *testing.T) {
	t.Parallel()

	delivery := mocks.NewMockDeliveryDelegate(t)
	got := postProcess(delivery, postProcessInput(), domain.AutomaticDoseRecommendation{BolusUnits: domain.Float64Ptr(0)}, 11*time.Minute, true)

	require.NotNil(t, got.BolusUnits)
	assert.Equal(t, 0.0, *got.BolusUnits)
	assert.False(t, got.HasDosingChange())
}

func TestPostProcessDropsCancelWithoutRunningTemp(t *testing.T) {
	t.Parallel()

	delivery := roundingDelegate(t)
	cancel := domain.CancelTempBasal()

	got := postProcess(delivery, postProcessInput(), domain.AutomaticDoseRecommendation{BasalAdjustment: &cancel}, 11*time.Minute, true)
	assert.Nil(t, got.BasalAdjustment)

	running := domain.DoseEntry{
		Type:      domain.DoseTypeTempBasal,
		StartDate: testNow.Add(-5 * time.Minute),
		EndDate:   testNow.Add(25 * time.Minute),
		Value:     2,
		Unit:      domain.DoseUnitUnitsPerHour,
	}
	got = postProcess(delivery, postProcessInput(running), domain.AutomaticDoseRecommendation{BasalAdjustment: &cancel}, 11*time.Minute, true)
	require.NotNil(t, got.BasalAdjustment)
	assert.True(t, got.BasalAdjustment.IsCancel())
}

func TestPostProcessNeutralRateUnderOverrideIsIssued(t *testing.T) {
	t.Parallel()

	delivery := roundingDelegate(t)
	raw := domain.AutomaticDoseRecommendation{
		BasalAdjustment: &domain.TempBasalRecommendation{UnitsPerHour: 0.8, Duration: 30 * time.Minute},
	}

	assert.Nil(t, postProcess(delivery, postProcessInput(), raw, 11*time.Minute, true).BasalAdjustment)

	got := postProcess(delivery, postProcessInput(), raw, 11*time.Minute, false)
	require.NotNil(t, got.BasalAdjustment)
	assert.Equal(t, 0.8, got.BasalAdjustment.UnitsPerHour)
}

func TestPostProcessBolusRoundingIsMonotonic(t *testing.T) {
	t.Parallel()

	delivery := roundingDelegate(t)
	prev := 0.0
	for raw := 0.01; raw < 5; raw += 0.07 {
		got := postProcess(delivery, postProcessInput(), domain.AutomaticDoseRecommendation{BolusUnits: domain.Float64Ptr(raw)}, 11*time.Minute, true)
		require.NotNil(t, got.BolusUnits)
		assert.LessOrEqual(t, prev, *got.BolusUnits)
		prev = *got.BolusUnits
	}
}
