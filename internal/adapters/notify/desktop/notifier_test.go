package desktop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/loopctl/internal/application"
	"github.com/bnema/loopctl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	return c.now
}

type sent struct {
	title   string
	message string
}

func newTestNotifier(clock *stepClock) (*Notifier, *[]sent) {
	var got []sent
	n := New(clock, nil, 10*time.Minute)
	n.notify = func(title, message string) error {
		got = append(got, sent{title: title, message: message})
		return nil
	}
	return n, &got
}

func failed(issues ...string) application.Event {
	return application.Event{Kind: application.EventLoopCycleCompleted, Issues: issues}
}

func TestNotifierAlertsOnFailedCycle(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	n, got := newTestNotifier(clock)

	require.NoError(t, n.Handle(failed(domain.IssueAlgorithm)))
	require.Len(t, *got, 1)
	assert.Equal(t, "loopctl: loop failed", (*got)[0].title)
	assert.Contains(t, (*got)[0].message, "algorithmError")
}

func TestNotifierIgnoresOtherEvents(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	n, got := newTestNotifier(clock)

	require.NoError(t, n.Handle(application.Event{Kind: application.EventLoopDataUpdated, Change: application.ChangeGlucose}))
	require.NoError(t, n.Handle(failed()))
	assert.Empty(t, *got)
}

func TestNotifierThrottlesRepeatedFailures(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	n, got := newTestNotifier(clock)

	require.NoError(t, n.Handle(failed(domain.IssuePumpSuspended)))
	clock.now = clock.now.Add(5 * time.Minute)
	require.NoError(t, n.Handle(failed(domain.IssuePumpSuspended)))
	assert.Len(t, *got, 1)

	clock.now = clock.now.Add(5 * time.Minute)
	require.NoError(t, n.Handle(failed(domain.IssuePumpSuspended)))
	require.Len(t, *got, 2)
	assert.Equal(t, "loopctl: pump suspended", (*got)[1].title)
}

func TestNotifierResetsAfterCleanCycle(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	n, got := newTestNotifier(clock)

	require.NoError(t, n.Handle(failed(string(domain.StaleGlucoseTooOld))))
	require.NoError(t, n.Handle(failed()))
	clock.now = clock.now.Add(time.Minute)
	require.NoError(t, n.Handle(failed(string(domain.StaleGlucoseTooOld))))

	require.Len(t, *got, 2)
	assert.Equal(t, "loopctl: glucose data too old", (*got)[1].title)
}

func TestNotifierUncertainDeliveryTakesPrecedence(t *testing.T) {
	t.Parallel()

	title, message := formatAlert([]string{domain.IssueEnactment, domain.IssueUncertainDelivery})
	assert.Equal(t, "loopctl: uncertain insulin delivery", title)
	assert.Contains(t, message, "Check the pump")
}

func TestNotifierSendFailureIsRetried(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	n := New(clock, nil, time.Hour)
	calls := 0
	n.notify = func(string, string) error {
		calls++
		if calls == 1 {
			return errors.New("no notification daemon")
		}
		return nil
	}

	err := n.Handle(failed(domain.IssueAlgorithm))
	require.ErrorContains(t, err, "send notification")
	require.NoError(t, n.Handle(failed(domain.IssueAlgorithm)))
	assert.Equal(t, 2, calls)
}

func TestNotifierRunStopsWhenChannelCloses(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	n, got := newTestNotifier(clock)

	events := make(chan application.Event, 2)
	events <- failed(domain.IssueAlgorithm)
	close(events)

	n.Run(context.Background(), events)
	assert.Len(t, *got, 1)
}
