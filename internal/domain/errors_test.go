package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIssueFromError(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		err      error
		wantKind string
		wantIs   error
	}{
		{name: "configuration", err: &ConfigurationError{Setting: SettingMaximumBolus}, wantKind: IssueConfiguration, wantIs: ErrConfiguration},
		{name: "glucose too old", err: &StaleDataError{Kind: StaleGlucoseTooOld, Date: at}, wantKind: "glucoseTooOld", wantIs: ErrGlucoseTooOld},
		{name: "future glucose", err: &StaleDataError{Kind: StaleInvalidFutureGlucose, Date: at}, wantKind: "invalidFutureGlucose", wantIs: ErrInvalidFutureGlucose},
		{name: "pump data too old", err: &StaleDataError{Kind: StalePumpDataTooOld, Date: at}, wantKind: "pumpDataTooOld", wantIs: ErrPumpDataTooOld},
		{name: "missing glucose", err: &MissingDataError{Data: MissingGlucose}, wantKind: IssueMissingData, wantIs: ErrMissingData},
		{name: "pump suspended", err: fmt.Errorf("loop: %w", ErrPumpSuspended), wantKind: IssuePumpSuspended, wantIs: ErrPumpSuspended},
		{name: "algorithm", err: &AlgorithmError{Reason: "no viable dose"}, wantKind: IssueAlgorithm, wantIs: ErrAlgorithm},
		{name: "enactment", err: &EnactmentError{Err: errors.New("link lost")}, wantKind: IssueEnactment, wantIs: ErrEnactment},
		{name: "uncertain delivery", err: &EnactmentError{Err: errors.New("no ack"), Uncertain: true}, wantKind: IssueUncertainDelivery, wantIs: ErrUncertainDelivery},
		{name: "unknown", err: errors.New("boom"), wantKind: IssueUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			issue := IssueFromError(tt.err)
			assert.Equal(t, tt.wantKind, issue.Kind)
			assert.Equal(t, tt.err.Error(), issue.Message)
			if tt.wantIs != nil {
				assert.ErrorIs(t, tt.err, tt.wantIs)
			}
		})
	}
}

func TestEnactmentErrorUnwrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("radio timeout")
	err := fmt.Errorf("enact: %w", &EnactmentError{Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrEnactment)
	assert.NotErrorIs(t, err, ErrUncertainDelivery)
}
