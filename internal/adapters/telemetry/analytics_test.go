package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/loopctl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func newTestAnalytics(t *testing.T) (*Analytics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	analytics, err := NewAnalytics(provider.Meter("test"))
	require.NoError(t, err)
	return analytics, reader
}

func sumByAttribute(t *testing.T, m metricdata.Metrics, key string) map[string]int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	out := map[string]int64{}
	for _, point := range sum.DataPoints {
		value, _ := point.Attributes.Value(attribute.Key(key))
		out[value.AsString()] += point.Value
	}
	return out
}

func TestAnalyticsRecordsLoopOutcomes(t *testing.T) {
	t.Parallel()

	analytics, reader := newTestAnalytics(t)
	ctx := context.Background()

	analytics.LoopDidSucceed(ctx, 120*time.Millisecond)
	analytics.LoopDidSucceed(ctx, 80*time.Millisecond)
	analytics.LoopDidError(ctx, domain.DecisionIssue{Kind: string(domain.StaleGlucoseTooOld)})
	analytics.LoopDidError(ctx, domain.DecisionIssue{Kind: domain.IssueAlgorithm})
	analytics.LoopDidError(ctx, domain.DecisionIssue{Kind: domain.IssueAlgorithm})

	metrics := collect(t, reader)

	succeeded := sumByAttribute(t, metrics["loop.cycles.succeeded"], "none")
	assert.Equal(t, int64(2), succeeded[""])

	failed := sumByAttribute(t, metrics["loop.cycles.failed"], "loop.issue_kind")
	assert.Equal(t, map[string]int64{"glucoseTooOld": 1, "algorithmError": 2}, failed)

	hist, ok := metrics["loop.cycle.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.InDelta(t, 200.0, hist.DataPoints[0].Sum, 1e-9)
}

func TestAnalyticsRecordsCancellations(t *testing.T) {
	t.Parallel()

	analytics, reader := newTestAnalytics(t)

	analytics.TempBasalCancelled(context.Background(), domain.CancelReasonUnreliableCGMData)
	analytics.TempBasalCancelled(context.Background(), domain.CancelReasonMaximumBasalRateChanged)

	cancelled := sumByAttribute(t, collect(t, reader)["loop.temp_basal.cancelled"], "loop.cancel_reason")
	assert.Equal(t, map[string]int64{"unreliableCGMData": 1, "maximumBasalRateChanged": 1}, cancelled)
}

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	t.Parallel()

	shutdown, err := Init(context.Background(), "", "loopctl", "test", true)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
