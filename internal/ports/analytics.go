package ports

import (
	"context"
	"time"

	"github.com/bnema/loopctl/internal/domain"
)

type Analytics interface {
	LoopDidSucceed(ctx context.Context, duration time.Duration)
	LoopDidError(ctx context.Context, issue domain.DecisionIssue)
	TempBasalCancelled(ctx context.Context, reason domain.CancelActiveTempBasalReason)
}

type NopAnalytics struct{}

func (NopAnalytics) LoopDidSucceed(context.Context, time.Duration) {}

func (NopAnalytics) LoopDidError(context.Context, domain.DecisionIssue) {}

func (NopAnalytics) TempBasalCancelled(context.Context, domain.CancelActiveTempBasalReason) {}
