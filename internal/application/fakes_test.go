package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2026, 3, 1, 12, 2, 0, 0, time.UTC)

func mockAnyContext() interface{} {
	return mock.Anything
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type queryRange struct {
	start time.Time
	end   time.Time
}

type fakeGlucoseStore struct {
	mu      sync.Mutex
	samples []domain.GlucoseSample
	queries []queryRange
}

func (s *fakeGlucoseStore) GlucoseSamples(_ context.Context, start, end time.Time) ([]domain.GlucoseSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, queryRange{start, end})

	var out []domain.GlucoseSample
	for _, sample := range s.samples {
		if !sample.StartDate.Before(start) && !sample.StartDate.After(end) {
			out = append(out, sample)
		}
	}
	return out, nil
}

func (s *fakeGlucoseStore) AddGlucoseSamples(_ context.Context, samples []domain.GlucoseSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, samples...)
	return nil
}

type fakeDoseStore struct {
	mu           sync.Mutex
	doses        []domain.DoseEntry
	lastPumpData time.Time
}

func (s *fakeDoseStore) NormalizedDoseEntries(_ context.Context, start, end time.Time) ([]domain.DoseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.DoseEntry
	for _, dose := range s.doses {
		if dose.EndDate.Before(start) || dose.StartDate.After(end) {
			continue
		}
		out = append(out, dose)
	}
	return out, nil
}

func (s *fakeDoseStore) LastAddedPumpData(context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPumpData, nil
}

func (s *fakeDoseStore) AddDoses(_ context.Context, doses []domain.DoseEntry, reportedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doses = append(s.doses, doses...)
	s.lastPumpData = reportedAt
	return nil
}

type fakeCarbStore struct {
	mu      sync.Mutex
	entries []domain.CarbEntry
}

func (s *fakeCarbStore) CarbEntries(_ context.Context, start, end time.Time) ([]domain.CarbEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.CarbEntry
	for _, entry := range s.entries {
		if !entry.StartDate.Before(start) && !entry.StartDate.After(end) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *fakeCarbStore) AddCarbEntry(_ context.Context, entry domain.CarbEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

type fakeSettingsRepository struct {
	mu       sync.Mutex
	settings domain.LoopSettings
	saves    int
}

func (r *fakeSettingsRepository) Load(context.Context) (domain.LoopSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings.Clone(), nil
}

func (r *fakeSettingsRepository) Save(_ context.Context, settings domain.LoopSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = settings.Clone()
	r.saves++
	return nil
}

type fakeOverrideRepository struct {
	mu    sync.Mutex
	state domain.OverrideState
}

func (r *fakeOverrideRepository) Load(context.Context) (domain.OverrideState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, nil
}

func (r *fakeOverrideRepository) Save(_ context.Context, state domain.OverrideState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = state
	return nil
}

func flatSchedule[T any](value T) *domain.DailySchedule[T] {
	s := domain.NewDailySchedule(time.UTC, domain.ScheduleItem[T]{StartOffset: 0, Value: value})
	return &s
}

func testLoopSettings() domain.LoopSettings {
	s := domain.DefaultLoopSettings()
	s.DosingEnabled = true
	s.Limits = domain.DosingLimits{
		MaxBolus:         domain.Float64Ptr(10),
		MaxBasalRate:     domain.Float64Ptr(6),
		SuspendThreshold: domain.Float64Ptr(70),
	}
	s.Schedules = domain.TherapySchedules{
		Basal:              flatSchedule(1.0),
		InsulinSensitivity: flatSchedule(50.0),
		CarbRatio:          flatSchedule(10.0),
		TargetRange:        flatSchedule(domain.GlucoseRange{Min: 100, Max: 110}),
	}
	return s
}

// flatGlucose returns a sample every five minutes over the last hour before latest.
func flatGlucose(latest time.Time, value float64) []domain.GlucoseSample {
	samples := make([]domain.GlucoseSample, 0, 13)
	for i := 12; i >= 0; i-- {
		samples = append(samples, domain.GlucoseSample{
			StartDate: latest.Add(-time.Duration(i) * 5 * time.Minute),
			Quantity:  value,
		})
	}
	return samples
}

type loopFixture struct {
	clock     *fakeClock
	glucose   *fakeGlucoseStore
	doses     *fakeDoseStore
	carbs     *fakeCarbStore
	settings  *fakeSettingsRepository
	overrides *fakeOverrideRepository
}

func newLoopFixture() *loopFixture {
	return &loopFixture{
		clock:     newFakeClock(testNow),
		glucose:   &fakeGlucoseStore{samples: flatGlucose(testNow.Add(-2*time.Minute), 150)},
		doses:     &fakeDoseStore{lastPumpData: testNow.Add(-time.Minute)},
		carbs:     &fakeCarbStore{},
		settings:  &fakeSettingsRepository{settings: testLoopSettings()},
		overrides: &fakeOverrideRepository{},
	}
}

func (f *loopFixture) deps() LoopDeps {
	return LoopDeps{
		Glucose:   f.glucose,
		Doses:     f.doses,
		Carbs:     f.carbs,
		Schedules: NewSettingsSchedules(f.settings),
		Overrides: f.overrides,
		Settings:  f.settings,
		Clock:     f.clock,
	}
}

func (f *loopFixture) assembler() dataWindowAssembler {
	deps := f.deps()
	return dataWindowAssembler{
		glucose:   deps.Glucose,
		doses:     deps.Doses,
		carbs:     deps.Carbs,
		schedules: deps.Schedules,
		overrides: deps.Overrides,
		timing:    DefaultTiming(),
	}
}

// startLoop runs the service until the test ends.
func startLoop(t *testing.T, svc *LoopService) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func tempBasalOutput(rate float64) domain.AlgorithmOutput {
	return domain.AlgorithmOutput{
		PredictedGlucose: []domain.PredictedGlucoseValue{{StartDate: testNow, Quantity: 150}},
		ActiveInsulin:    domain.Float64Ptr(0.5),
		ActiveCarbs:      domain.Float64Ptr(0),
		Recommendation: &domain.DoseRecommendation{
			Automatic: &domain.AutomaticDoseRecommendation{
				BasalAdjustment: &domain.TempBasalRecommendation{UnitsPerHour: rate, Duration: 30 * time.Minute},
			},
		},
	}
}
