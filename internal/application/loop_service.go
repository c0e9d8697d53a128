package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
)

var ErrLoopStopped = errors.New("loop service stopped")

// DisplayState is the most recent forecast shown to the user.
type DisplayState struct {
	Input     *domain.AlgorithmInput
	Output    *domain.AlgorithmOutput
	Error     string
	UpdatedAt time.Time
}

type LoopDeps struct {
	Glucose   ports.GlucoseStore
	Doses     ports.DoseStore
	Carbs     ports.CarbStore
	Schedules ports.ScheduleStore
	Overrides ports.OverrideRepository
	Settings  ports.SettingsRepository
	Algorithm ports.Algorithm
	Decisions ports.DecisionStore
	// Delivery may be nil until a pump is paired.
	Delivery  ports.DeliveryDelegate
	Recovery  ports.RecoveryMonitor
	Analytics ports.Analytics
	Clock     ports.Clock
	Logger    *slog.Logger
	Bus       *EventBus
}

type job struct {
	run  func(ctx context.Context) error
	ctx  context.Context
	done chan error
}

// LoopService owns the dosing loop. Cycles, cancellations and refreshes run one
// at a time on the goroutine started by Run.
type LoopService struct {
	assembler dataWindowAssembler
	settings  ports.SettingsRepository
	algorithm ports.Algorithm
	decisions ports.DecisionStore
	delivery  ports.DeliveryDelegate
	recovery  ports.RecoveryMonitor
	analytics ports.Analytics
	clock     ports.Clock
	logger    *slog.Logger
	bus       *EventBus
	timing    Timing

	jobs chan job
	stop chan struct{}

	// confined to the Run goroutine
	lastTrigger time.Time

	mu                sync.RWMutex
	display           DisplayState
	lastLoopCompleted time.Time
}

func NewLoopService(deps LoopDeps, timing Timing) *LoopService {
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Analytics == nil {
		deps.Analytics = ports.NopAnalytics{}
	}
	if deps.Bus == nil {
		deps.Bus = NewEventBus()
	}
	timing = timing.withDefaults()

	return &LoopService{
		assembler: dataWindowAssembler{
			glucose:   deps.Glucose,
			doses:     deps.Doses,
			carbs:     deps.Carbs,
			schedules: deps.Schedules,
			overrides: deps.Overrides,
			timing:    timing,
		},
		settings:  deps.Settings,
		algorithm: deps.Algorithm,
		decisions: deps.Decisions,
		delivery:  deps.Delivery,
		recovery:  deps.Recovery,
		analytics: deps.Analytics,
		clock:     deps.Clock,
		logger:    deps.Logger,
		bus:       deps.Bus,
		timing:    timing,
		jobs:      make(chan job),
		stop:      make(chan struct{}),
	}
}

func (s *LoopService) Events() *EventBus {
	return s.bus
}

func (s *LoopService) Timing() Timing {
	return s.timing
}

// Run executes submitted work until ctx is cancelled. It blocks, so call it in
// a goroutine. With a positive LoopInterval it also runs a cycle on every tick.
func (s *LoopService) Run(ctx context.Context) {
	defer close(s.stop)

	var tick <-chan time.Time
	if s.timing.LoopInterval > 0 {
		ticker := time.NewTicker(s.timing.LoopInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.jobs:
			j.done <- j.run(j.ctx)
		case <-tick:
			if _, err := s.loopCycle(ctx); err != nil {
				s.logger.Error("periodic loop cycle", "error", err)
			}
		}
	}
}

func (s *LoopService) submit(ctx context.Context, run func(ctx context.Context) error) error {
	j := job{run: run, ctx: ctx, done: make(chan error, 1)}

	select {
	case s.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stop:
		return ErrLoopStopped
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Loop runs one cycle now. The returned decision is nil when the cycle was
// skipped (open loop or pending pump recovery). Cycle failures are recorded on
// the decision, not returned.
func (s *LoopService) Loop(ctx context.Context) (*domain.StoredDosingDecision, error) {
	var decision *domain.StoredDosingDecision
	err := s.submit(ctx, func(ctx context.Context) error {
		var err error
		decision, err = s.loopCycle(ctx)
		return err
	})

	return decision, err
}

// OnGlucoseDataReceived refreshes the forecast and loops if the last trigger
// is old enough.
func (s *LoopService) OnGlucoseDataReceived(ctx context.Context) (*domain.StoredDosingDecision, error) {
	return s.triggered(ctx, ChangeGlucose)
}

// OnPumpHeartbeat is the pump's periodic wake-up.
func (s *LoopService) OnPumpHeartbeat(ctx context.Context) (*domain.StoredDosingDecision, error) {
	return s.triggered(ctx, ChangeInsulin)
}

func (s *LoopService) triggered(ctx context.Context, change ChangeKind) (*domain.StoredDosingDecision, error) {
	var decision *domain.StoredDosingDecision
	err := s.submit(ctx, func(ctx context.Context) error {
		if err := s.refresh(ctx, change); err != nil {
			s.logger.Warn("refresh before loop", "change", change, "error", err)
		}

		now := s.clock.Now()
		if !s.lastTrigger.IsZero() && now.Sub(s.lastTrigger) < s.timing.MinTriggerInterval {
			s.logger.Debug("loop trigger too soon", "since_last", now.Sub(s.lastTrigger))
			return nil
		}

		var err error
		decision, err = s.loopCycle(ctx)
		return err
	})

	return decision, err
}

// Refresh recomputes the forecast shown to the user without dosing.
func (s *LoopService) Refresh(ctx context.Context, change ChangeKind) error {
	return s.submit(ctx, func(ctx context.Context) error {
		return s.refresh(ctx, change)
	})
}

func (s *LoopService) refresh(ctx context.Context, change ChangeKind) error {
	now := s.clock.Now()
	state := DisplayState{UpdatedAt: now}
	defer func() {
		s.setDisplayState(state)
		s.bus.Publish(Event{Kind: EventLoopDataUpdated, Change: change, At: now})
	}()

	window, err := s.assembler.assemble(ctx, now, false)
	if err == nil {
		err = validateWindow(window, s.timing.RecencyInterval, true)
	}
	if err != nil {
		state.Error = err.Error()
		return err
	}

	input := window.Input
	input.RecommendationType = domain.RecommendationTypeManualBolus
	state.Input = &input

	output, err := s.algorithm.Run(ctx, input)
	if err != nil {
		state.Error = err.Error()
		return fmt.Errorf("run algorithm: %w", err)
	}
	state.Output = &output

	return nil
}

func (s *LoopService) DisplayState() DisplayState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.display
}

func (s *LoopService) LastLoopCompleted() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastLoopCompleted
}

func (s *LoopService) setDisplayState(state DisplayState) {
	s.mu.Lock()
	s.display = state
	s.mu.Unlock()
}

func (s *LoopService) setLastLoopCompleted(at time.Time) {
	s.mu.Lock()
	s.lastLoopCompleted = at
	s.mu.Unlock()
}

func (s *LoopService) loopCycle(ctx context.Context) (*domain.StoredDosingDecision, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if !settings.DosingEnabled {
		s.logger.Info("automatic dosing disabled, skipping loop cycle")
		return nil, nil
	}
	if s.recovery != nil {
		pending, err := s.recovery.PendingRecovery(ctx)
		if err != nil {
			s.logger.Warn("check pump recovery, skipping loop cycle", "error", err)
			return nil, nil
		}
		if pending {
			s.logger.Info("pump recovery pending, skipping loop cycle")
			return nil, nil
		}
	}

	started := s.clock.Now()
	s.lastTrigger = started
	s.logger.Info("loop cycle started", "at", started)

	decision := domain.NewDosingDecision(started, domain.DecisionReasonLoop)
	decisionSettings := domain.DecisionSettingsFrom(settings)
	decision.Settings = &decisionSettings

	cycleErr := s.runCycle(ctx, settings, decision)
	if cycleErr != nil {
		decision.AppendError(cycleErr)
		issue := domain.IssueFromError(cycleErr)
		s.logger.Error("loop cycle failed", "kind", issue.Kind, "error", cycleErr)
		s.analytics.LoopDidError(ctx, issue)
	} else {
		finished := s.clock.Now()
		s.setLastLoopCompleted(finished)
		s.analytics.LoopDidSucceed(ctx, finished.Sub(started))
	}

	if err := s.decisions.Store(context.WithoutCancel(ctx), decision.Snapshot()); err != nil {
		s.logger.Error("store dosing decision", "decision_id", decision.ID, "error", err)
		return decision, fmt.Errorf("store dosing decision: %w", err)
	}

	s.bus.Publish(Event{
		Kind:       EventLoopCycleCompleted,
		At:         decision.Date,
		DecisionID: decision.ID,
		Issues:     issueKinds(decision.Errors),
	})
	s.bus.Publish(Event{Kind: EventLoopDataUpdated, Change: ChangeForecast, At: decision.Date, DecisionID: decision.ID})

	return decision, nil
}

func (s *LoopService) runCycle(ctx context.Context, settings domain.LoopSettings, decision *domain.StoredDosingDecision) error {
	if s.delivery == nil {
		return &domain.ConfigurationError{Setting: domain.SettingDeliveryDelegate}
	}
	if err := s.delivery.EnsureCurrentPumpData(ctx); err != nil {
		s.logger.Warn("ensure current pump data", "error", err)
	}

	now := s.clock.Now()
	window, err := s.assembler.assemble(ctx, now, false)
	if err != nil {
		return err
	}
	recordWindow(decision, window)

	if err := validateWindow(window, s.timing.RecencyInterval, false); err != nil {
		return err
	}

	input := window.Input
	input.RecommendationType = settings.DosingStrategy.RecommendationType()
	input.RecommendationInsulinType = settings.InsulinType

	output, err := s.algorithm.Run(ctx, input)
	if err != nil {
		s.setDisplayState(DisplayState{Input: &input, Error: err.Error(), UpdatedAt: now})
		return fmt.Errorf("run algorithm: %w", err)
	}
	s.setDisplayState(DisplayState{Input: &input, Output: &output, UpdatedAt: now})
	decision.PredictedGlucose = output.PredictedGlucose
	decision.InsulinOnBoard = output.ActiveInsulin
	decision.CarbsOnBoard = output.ActiveCarbs

	result, err := output.RecommendationResult()
	if err != nil {
		return err
	}
	if result.Automatic == nil {
		return &domain.AlgorithmError{Reason: "no automatic dose recommendation"}
	}

	raw := *result.Automatic
	decision.AlgorithmRecommendation = &raw

	processed := postProcess(s.delivery, input, raw, s.timing.ContinuationInterval, window.ActiveOverride == nil)
	decision.AutomaticDoseRecommendation = &processed
	if !processed.Equal(raw) {
		s.logger.Info("recommendation adjusted for delivery",
			"algorithm", raw.String(),
			"enactable", processed.String())
	}

	suspended, err := s.delivery.IsSuspended(ctx)
	if err != nil {
		return fmt.Errorf("read pump suspension: %w", err)
	}
	if suspended {
		return domain.ErrPumpSuspended
	}

	if !processed.HasDosingChange() {
		s.logger.Debug("no dosing change needed")
		return nil
	}

	s.logger.Info("enacting", "recommendation", processed.String())
	if err := s.delivery.Enact(ctx, processed); err != nil {
		return asEnactmentError(err)
	}
	decision.Enacted = true

	return nil
}

// CancelActiveTempBasal cancels a running automatic temp basal. Manual temp
// basals and other delivery states are left alone and produce no decision.
func (s *LoopService) CancelActiveTempBasal(ctx context.Context, reason domain.CancelActiveTempBasalReason) (*domain.StoredDosingDecision, error) {
	var decision *domain.StoredDosingDecision
	err := s.submit(ctx, func(ctx context.Context) error {
		var err error
		decision, err = s.cancelActiveTempBasal(ctx, reason)
		return err
	})

	return decision, err
}

func (s *LoopService) cancelActiveTempBasal(ctx context.Context, reason domain.CancelActiveTempBasalReason) (*domain.StoredDosingDecision, error) {
	if s.delivery == nil {
		return nil, &domain.ConfigurationError{Setting: domain.SettingDeliveryDelegate}
	}

	state, err := s.delivery.BasalDeliveryState(ctx)
	if err != nil {
		return nil, fmt.Errorf("read basal delivery state: %w", err)
	}
	dose, ok := state.ActiveTempBasal()
	if !ok || !dose.IsAutomatic() {
		s.logger.Debug("no automatic temp basal to cancel", "reason", reason, "state", state.Kind)
		return nil, nil
	}

	decision := domain.NewDosingDecision(s.clock.Now(), string(reason))
	if settings, err := s.settings.Load(ctx); err == nil {
		decisionSettings := domain.DecisionSettingsFrom(settings)
		decision.Settings = &decisionSettings
	}

	cancel := domain.CancelTempBasal()
	recommendation := domain.AutomaticDoseRecommendation{BasalAdjustment: &cancel}
	decision.AutomaticDoseRecommendation = &recommendation

	s.logger.Info("cancelling automatic temp basal", "reason", reason, "rate", dose.UnitsPerHour())
	if err := s.delivery.Enact(ctx, recommendation); err != nil {
		enactErr := asEnactmentError(err)
		decision.AppendError(enactErr)
		s.logger.Error("cancel temp basal", "reason", reason, "error", enactErr)
	} else {
		decision.Enacted = true
		s.analytics.TempBasalCancelled(ctx, reason)
	}

	if err := s.decisions.Store(context.WithoutCancel(ctx), decision.Snapshot()); err != nil {
		return decision, fmt.Errorf("store dosing decision: %w", err)
	}
	s.bus.Publish(Event{
		Kind:       EventLoopDataUpdated,
		Change:     ChangeInsulin,
		At:         decision.Date,
		DecisionID: decision.ID,
		Issues:     issueKinds(decision.Errors),
	})

	return decision, nil
}

// ReportCGMReliability stops automatic basal adjustments while the sensor
// cannot be trusted.
func (s *LoopService) ReportCGMReliability(ctx context.Context, reliable bool) (*domain.StoredDosingDecision, error) {
	if reliable {
		return nil, nil
	}

	return s.CancelActiveTempBasal(ctx, domain.CancelReasonUnreliableCGMData)
}

func recordWindow(decision *domain.StoredDosingDecision, window DataWindow) {
	decision.ScheduleOverride = domain.DecisionOverrideFrom(window.ActiveOverride)
	decision.PreMealOverride = domain.DecisionOverrideFrom(window.PreMealOverride)

	history := window.Input.GlucoseHistory
	decision.HistoricalGlucose = make([]domain.DecisionGlucose, 0, len(history))
	for _, sample := range history {
		decision.HistoricalGlucose = append(decision.HistoricalGlucose, domain.DecisionGlucose{
			StartDate: sample.StartDate,
			Quantity:  sample.Quantity,
		})
	}
}

func asEnactmentError(err error) error {
	var enactErr *domain.EnactmentError
	if errors.As(err, &enactErr) {
		return err
	}

	return &domain.EnactmentError{Err: err}
}

func issueKinds(issues []domain.DecisionIssue) []string {
	if len(issues) == 0 {
		return nil
	}

	kinds := make([]string, 0, len(issues))
	for _, issue := range issues {
		kinds = append(kinds, issue.Kind)
	}

	return kinds
}

// HandleSettingsChange cancels the automatic temp basal when a settings change
// makes it unsafe to keep: dosing was switched off, or the maximum basal rate
// dropped below the running rate.
func (s *LoopService) HandleSettingsChange(ctx context.Context, old, next domain.LoopSettings) (*domain.StoredDosingDecision, error) {
	if old.DosingEnabled && !next.DosingEnabled {
		return s.CancelActiveTempBasal(ctx, domain.CancelReasonAutomaticDosingDisabled)
	}
	if !domain.MaxBasalLowered(old, next) {
		return nil, nil
	}

	var decision *domain.StoredDosingDecision
	err := s.submit(ctx, func(ctx context.Context) error {
		if s.delivery == nil {
			return nil
		}

		state, err := s.delivery.BasalDeliveryState(ctx)
		if err != nil {
			return fmt.Errorf("read basal delivery state: %w", err)
		}
		dose, ok := state.ActiveTempBasal()
		if !ok || dose.UnitsPerHour() <= *next.Limits.MaxBasalRate {
			return nil
		}

		decision, err = s.cancelActiveTempBasal(ctx, domain.CancelReasonMaximumBasalRateChanged)
		return err
	})

	return decision, err
}
