package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrConfiguration        = errors.New("configuration error")
	ErrGlucoseTooOld        = errors.New("glucose data too old")
	ErrInvalidFutureGlucose = errors.New("glucose data in the future")
	ErrPumpDataTooOld       = errors.New("pump data too old")
	ErrMissingData          = errors.New("missing data")
	ErrPumpSuspended        = errors.New("pump suspended")
	ErrAlgorithm            = errors.New("algorithm error")
	ErrEnactment            = errors.New("enactment error")
	ErrUncertainDelivery    = errors.New("uncertain delivery")
)

// Setting names reported by ConfigurationError.
const (
	SettingBasalRateSchedule       = "basalRateSchedule"
	SettingCarbRatioSchedule       = "carbRatioSchedule"
	SettingInsulinSensitivity      = "insulinSensitivitySchedule"
	SettingGlucoseTargetRange      = "glucoseTargetRangeSchedule"
	SettingMaximumBolus            = "maximumBolus"
	SettingMaximumBasalRatePerHour = "maximumBasalRatePerHour"
	SettingDeliveryDelegate        = "deliveryDelegate"
)

type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: missing %s", e.Setting)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

type StaleDataKind string

const (
	StaleGlucoseTooOld        StaleDataKind = "glucoseTooOld"
	StaleInvalidFutureGlucose StaleDataKind = "invalidFutureGlucose"
	StalePumpDataTooOld       StaleDataKind = "pumpDataTooOld"
)

type StaleDataError struct {
	Kind StaleDataKind
	Date time.Time
}

func (e *StaleDataError) Error() string {
	switch e.Kind {
	case StaleInvalidFutureGlucose:
		return fmt.Sprintf("glucose sample dated in the future: %s", e.Date.Format(time.RFC3339))
	case StalePumpDataTooOld:
		return fmt.Sprintf("pump data too old: last reported %s", e.Date.Format(time.RFC3339))
	default:
		return fmt.Sprintf("glucose data too old: latest sample %s", e.Date.Format(time.RFC3339))
	}
}

func (e *StaleDataError) Unwrap() error {
	switch e.Kind {
	case StaleInvalidFutureGlucose:
		return ErrInvalidFutureGlucose
	case StalePumpDataTooOld:
		return ErrPumpDataTooOld
	default:
		return ErrGlucoseTooOld
	}
}

type MissingDataKind string

const (
	MissingGlucose     MissingDataKind = "glucose"
	MissingInsulin     MissingDataKind = "insulinEffect"
	MissingActiveCarbs MissingDataKind = "activeCarbs"
)

type MissingDataError struct {
	Data MissingDataKind
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("missing data: %s", e.Data)
}

func (e *MissingDataError) Unwrap() error {
	return ErrMissingData
}

type AlgorithmError struct {
	Reason string
}

func (e *AlgorithmError) Error() string {
	return fmt.Sprintf("algorithm error: %s", e.Reason)
}

func (e *AlgorithmError) Unwrap() error {
	return ErrAlgorithm
}

type EnactmentError struct {
	Err       error
	Uncertain bool
}

func (e *EnactmentError) Error() string {
	if e.Uncertain {
		return fmt.Sprintf("uncertain delivery: %v", e.Err)
	}

	return fmt.Sprintf("enact recommendation: %v", e.Err)
}

func (e *EnactmentError) Unwrap() []error {
	errs := []error{ErrEnactment}
	if e.Uncertain {
		errs = append(errs, ErrUncertainDelivery)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	return errs
}

// Issue kinds recorded on a decision.
const (
	IssueConfiguration     = "configurationError"
	IssueMissingData       = "missingDataError"
	IssuePumpSuspended     = "pumpSuspended"
	IssueAlgorithm         = "algorithmError"
	IssueEnactment         = "enactmentError"
	IssueUncertainDelivery = "uncertainDelivery"
	IssueUnknown           = "unknownError"
)

func IssueFromError(err error) DecisionIssue {
	issue := DecisionIssue{Kind: IssueUnknown, Message: err.Error()}

	var (
		configErr    *ConfigurationError
		staleErr     *StaleDataError
		missingErr   *MissingDataError
		algorithmErr *AlgorithmError
		enactErr     *EnactmentError
	)
	switch {
	case errors.As(err, &configErr):
		issue.Kind = IssueConfiguration
		issue.Details = map[string]string{"setting": configErr.Setting}
	case errors.As(err, &staleErr):
		issue.Kind = string(staleErr.Kind)
		issue.Details = map[string]string{"date": staleErr.Date.UTC().Format(time.RFC3339)}
	case errors.As(err, &missingErr):
		issue.Kind = IssueMissingData
		issue.Details = map[string]string{"data": string(missingErr.Data)}
	case errors.Is(err, ErrPumpSuspended):
		issue.Kind = IssuePumpSuspended
	case errors.As(err, &algorithmErr):
		issue.Kind = IssueAlgorithm
		issue.Details = map[string]string{"reason": algorithmErr.Reason}
	case errors.As(err, &enactErr):
		issue.Kind = IssueEnactment
		if enactErr.Uncertain {
			issue.Kind = IssueUncertainDelivery
		}
	}

	return issue
}
