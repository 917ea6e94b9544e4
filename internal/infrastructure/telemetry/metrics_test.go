package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/salescrm/backend/internal/domain/communication"
	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/shared"
	"github.com/salescrm/backend/internal/infrastructure/config"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), config.TelemetryConfig{Enabled: true}, "test", zap.NewNop())
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("x"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestBusinessMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader, zap.NewNop())
	metrics, err := NewBusinessMetrics(mp)
	require.NoError(t, err)
	ctx := context.Background()

	saleID := uuid.New()
	created := &sales.SaleEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(sales.EventTypeSaleCreated, sales.AggregateTypeSale, saleID, "created"),
		SaleType:        sales.SaleTypeNormal,
		PrimAmount:      decimal.NewFromInt(10000),
	}
	cancelled := &sales.SaleEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(sales.EventTypeSaleCancelled, sales.AggregateTypeSale, saleID, "cancelled"),
		SaleType:        sales.SaleTypeNormal,
	}
	penalty := &communication.PenaltyEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(communication.EventTypePenaltyAdded, communication.AggregateTypePenalty, uuid.New(), "penalty"),
		Points:          3,
	}
	login := &identity.UserLoggedInEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(identity.EventTypeUserLoggedIn, identity.AggregateTypeUser, uuid.New(), "login"),
	}

	for _, event := range []shared.DomainEvent{created, cancelled, penalty, login, login} {
		require.NoError(t, metrics.Handle(ctx, event))
	}

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["crm_sale_events_total"]))
	assert.Equal(t, int64(3), sumOf(t, got["crm_penalty_points_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["crm_penalty_events_total"]))
	assert.Equal(t, int64(2), sumOf(t, got["crm_logins_total"]))

	hist, ok := got["crm_sale_prim_amount"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 10000, hist.DataPoints[0].Sum, 0.001)

	assert.Contains(t, metrics.EventTypes(), sales.EventTypeSaleCreated)
}

type recordingProcessor struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (p *recordingProcessor) OnEmit(_ context.Context, r *sdklog.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, r.Clone())
	return nil
}

func (p *recordingProcessor) Enabled(context.Context, sdklog.EnabledParameters) bool { return true }

func (p *recordingProcessor) Shutdown(context.Context) error   { return nil }
func (p *recordingProcessor) ForceFlush(context.Context) error { return nil }

func TestLoggerProvider_Bridge(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	t.Run("disabled returns the base logger", func(t *testing.T) {
		lp, err := NewLoggerProvider(context.Background(), config.TelemetryConfig{}, "test", zap.NewNop())
		require.NoError(t, err)
		assert.False(t, lp.IsEnabled())
		assert.Same(t, base, lp.Bridge(base, "salescrm", zapcore.InfoLevel))
		assert.NoError(t, lp.Shutdown(context.Background()))
	})

	t.Run("enabled tees to the collector", func(t *testing.T) {
		processor := &recordingProcessor{}
		lp := newLoggerProviderWithProcessor(processor, zap.NewNop())
		log := lp.Bridge(base, "salescrm", zapcore.InfoLevel)

		log.Debug("below threshold")
		log.Info("sale created", zap.String("contract_no", "A-101"))

		assert.Equal(t, 2, observed.Len())
		processor.mu.Lock()
		defer processor.mu.Unlock()
		require.Len(t, processor.records, 1)
		assert.Equal(t, "sale created", processor.records[0].Body().AsString())
	})
}

func TestNewProfiler(t *testing.T) {
	p, err := NewProfiler(config.TelemetryConfig{}, "test", zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())

	_, err = NewProfiler(config.TelemetryConfig{ProfilingEnabled: true}, "test", zap.NewNop())
	assert.Error(t, err)
}
