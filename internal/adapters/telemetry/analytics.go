package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/bnema/loopctl/internal/ports"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "loopctl/loop"

// Analytics records loop outcomes as OTel instruments.
type Analytics struct {
	succeeded metric.Int64Counter
	failed    metric.Int64Counter
	cancelled metric.Int64Counter
	duration  metric.Float64Histogram
}

var _ ports.Analytics = (*Analytics)(nil)

// NewAnalytics creates the instruments on meter, or on the global meter when nil.
func NewAnalytics(meter metric.Meter) (*Analytics, error) {
	if meter == nil {
		meter = Meter(meterName)
	}

	succeeded, err := meter.Int64Counter("loop.cycles.succeeded",
		metric.WithDescription("Loop cycles that completed without error"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create succeeded counter: %w", err)
	}
	failed, err := meter.Int64Counter("loop.cycles.failed",
		metric.WithDescription("Loop cycles that recorded an error, by issue kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create failed counter: %w", err)
	}
	cancelled, err := meter.Int64Counter("loop.temp_basal.cancelled",
		metric.WithDescription("Automatic temp basals cancelled outside the loop, by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create cancelled counter: %w", err)
	}
	duration, err := meter.Float64Histogram("loop.cycle.duration",
		metric.WithDescription("Duration of successful loop cycles (ms)"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create duration histogram: %w", err)
	}

	return &Analytics{succeeded: succeeded, failed: failed, cancelled: cancelled, duration: duration}, nil
}

func (a *Analytics) LoopDidSucceed(ctx context.Context, duration time.Duration) {
	a.succeeded.Add(ctx, 1)
	a.duration.Record(ctx, float64(duration.Milliseconds()))
}

func (a *Analytics) LoopDidError(ctx context.Context, issue domain.DecisionIssue) {
	a.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("loop.issue_kind", issue.Kind)))
}

func (a *Analytics) TempBasalCancelled(ctx context.Context, reason domain.CancelActiveTempBasalReason) {
	a.cancelled.Add(ctx, 1, metric.WithAttributes(attribute.String("loop.cancel_reason", string(reason))))
}
