// Package desktop raises desktop notifications for failed loop cycles.
package desktop

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bnema/loopctl/internal/application"
	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
	"github.com/gen2brain/beeep"
)

const (
	appName = "loopctl"

	// DefaultRepeatInterval is how long an unchanged failure stays quiet.
	DefaultRepeatInterval = 30 * time.Minute
)

type notifyFunc func(title, message string) error

// Notifier turns loop cycle events into desktop alerts.
type Notifier struct {
	notify notifyFunc
	clock  ports.Clock
	logger *slog.Logger
	repeat time.Duration

	mu        sync.Mutex
	lastAlert map[string]time.Time
}

func New(clock ports.Clock, logger *slog.Logger, repeat time.Duration) *Notifier {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if repeat <= 0 {
		repeat = DefaultRepeatInterval
	}

	return &Notifier{
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		clock:     clock,
		logger:    logger,
		repeat:    repeat,
		lastAlert: make(map[string]time.Time),
	}
}

// Run handles events until ctx is cancelled or events is closed.
func (n *Notifier) Run(ctx context.Context, events <-chan application.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := n.Handle(event); err != nil {
				n.logger.Warn("desktop notification", "error", err)
			}
		}
	}
}

// Handle alerts on a completed cycle that recorded issues. A clean cycle
// resets the alert state so the next failure is reported at once.
func (n *Notifier) Handle(event application.Event) error {
	if event.Kind != application.EventLoopCycleCompleted {
		return nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if len(event.Issues) == 0 {
		n.lastAlert = make(map[string]time.Time)
		return nil
	}

	kinds := slices.Clone(event.Issues)
	slices.Sort(kinds)
	key := strings.Join(kinds, ",")

	now := n.clock.Now()
	if last, ok := n.lastAlert[key]; ok && now.Sub(last) < n.repeat {
		return nil
	}

	title, message := formatAlert(kinds)
	if err := n.notify(title, message); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	n.lastAlert[key] = now
	return nil
}

func formatAlert(kinds []string) (string, string) {
	title := appName + ": loop failed"
	for _, kind := range kinds {
		switch kind {
		case domain.IssuePumpSuspended:
			title = appName + ": pump suspended"
		case domain.IssueUncertainDelivery:
			return appName + ": uncertain insulin delivery", "Check the pump before dosing again (" + strings.Join(kinds, ", ") + ")"
		case string(domain.StaleGlucoseTooOld):
			title = appName + ": glucose data too old"
		}
	}

	return title, "Automatic dosing did not run: " + strings.Join(kinds, ", ")
}
