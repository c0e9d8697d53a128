package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bnema/loopctl/internal/adapters/algorithm/process"
	"github.com/bnema/loopctl/internal/adapters/notify/desktop"
	"github.com/bnema/loopctl/internal/adapters/pump/simulator"
	statusadapter "github.com/bnema/loopctl/internal/adapters/render/status"
	"github.com/bnema/loopctl/internal/adapters/repo/postgres"
	"github.com/bnema/loopctl/internal/adapters/repo/sqlite"
	tomlrepo "github.com/bnema/loopctl/internal/adapters/repo/toml"
	"github.com/bnema/loopctl/internal/adapters/telemetry"
	"github.com/bnema/loopctl/internal/application"
	"github.com/bnema/loopctl/internal/config"
	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
	"github.com/bnema/loopctl/internal/version"
	"github.com/spf13/viper"
)

const serviceName = "loopctl"

type app struct {
	cfg    config.Config
	logger *slog.Logger
	clock  ports.Clock

	db        *sqlite.DB
	history   *sqlite.HistoryStore
	decisions ports.DecisionStore
	closers   []func() error

	settingsRepo *tomlrepo.SettingsRepository
	overrideRepo *tomlrepo.OverrideRepository
	pump         *simulator.Pump
	algorithm    *process.Algorithm
	analytics    ports.Analytics

	bus       *application.EventBus
	settings  *application.SettingsService
	overrides *application.OverrideService

	statusRenderer   func(statusadapter.LoopStatus, statusadapter.RenderOptions) (string, error)
	decisionRenderer func([]domain.StoredDosingDecision, statusadapter.RenderOptions) (string, error)
	now              func() time.Time
}

func wireApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	a := &app{
		cfg:              cfg,
		logger:           logger,
		clock:            ports.SystemClock{},
		bus:              application.NewEventBus(),
		statusRenderer:   statusadapter.Render,
		decisionRenderer: statusadapter.RenderDecisions,
		now:              time.Now,
	}

	a.db, err = sqlite.Open(ctx, cfg.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("wire history store: %w", err)
	}
	a.closers = append(a.closers, a.db.Close)
	a.history = sqlite.NewHistoryStore(a.db)

	switch cfg.DecisionsBackend {
	case config.BackendPostgres:
		store, err := postgres.NewDecisionStore(ctx, cfg.PostgresURL, logger)
		if err != nil {
			_ = a.close()
			return nil, fmt.Errorf("wire decision store: %w", err)
		}
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
		a.decisions = store
	default:
		a.decisions = sqlite.NewDecisionStore(a.db)
	}

	if a.settingsRepo, err = tomlrepo.NewSettingsRepository(cfg.SettingsPath); err != nil {
		_ = a.close()
		return nil, fmt.Errorf("wire settings repository: %w", err)
	}
	if a.overrideRepo, err = tomlrepo.NewOverrideRepository(cfg.OverridesPath); err != nil {
		_ = a.close()
		return nil, fmt.Errorf("wire override repository: %w", err)
	}
	pumpState, err := tomlrepo.NewPumpStateRepository(cfg.PumpPath)
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("wire pump state repository: %w", err)
	}

	analytics, err := telemetry.NewAnalytics(nil)
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("wire analytics: %w", err)
	}
	a.analytics = analytics

	a.pump = simulator.New(pumpState, a.history, a.clock, logger)
	a.algorithm = process.New(cfg.AlgorithmCommand, cfg.AlgorithmArgs, cfg.AlgorithmTimeout)
	a.settings = application.NewSettingsService(a.settingsRepo, a.bus)
	a.overrides = application.NewOverrideService(a.overrideRepo, a.clock, a.bus, cfg.Timing.OverrideHistoryRetention)

	return a, nil
}

// newLoop builds a loop service. A zero interval disables periodic cycles.
func (a *app) newLoop(interval time.Duration) *application.LoopService {
	timing := a.cfg.Timing
	timing.LoopInterval = interval

	return application.NewLoopService(application.LoopDeps{
		Glucose:   a.history,
		Doses:     a.history,
		Carbs:     a.history,
		Schedules: application.NewSettingsSchedules(a.settingsRepo),
		Overrides: a.overrideRepo,
		Settings:  a.settingsRepo,
		Algorithm: a.algorithm,
		Decisions: a.decisions,
		Delivery:  a.pump,
		Recovery:  a.pump,
		Analytics: a.analytics,
		Clock:     a.clock,
		Logger:    a.logger,
		Bus:       a.bus,
	}, timing)
}

// withLoop runs fn against a loop service that lives for the duration of the call.
func (a *app) withLoop(ctx context.Context, fn func(context.Context, *application.LoopService) error) error {
	ctx, cancel := context.WithCancel(ctx)
	loop := a.newLoop(0)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		loop.Run(ctx)
	}()

	err := fn(ctx, loop)
	cancel()
	<-stopped

	return err
}

func (a *app) startTelemetry(ctx context.Context) (telemetry.Shutdown, error) {
	if !a.cfg.TelemetryEnabled {
		return func(context.Context) error { return nil }, nil
	}

	return telemetry.Init(ctx, a.cfg.TelemetryEndpoint, serviceName, version.Version, a.cfg.TelemetryInsecure)
}

func (a *app) startNotifier(ctx context.Context) func() {
	if !a.cfg.NotifyDesktop {
		return func() {}
	}

	events := a.bus.Subscribe()
	notifier := desktop.New(a.clock, a.logger, 0)
	go notifier.Run(ctx, events)

	return func() { a.bus.Unsubscribe(events) }
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	return errors.Join(errs...)
}
