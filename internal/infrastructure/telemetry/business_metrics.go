package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/salescrm/backend/internal/domain/backup"
	"github.com/salescrm/backend/internal/domain/communication"
	"github.com/salescrm/backend/internal/domain/identity"
	"github.com/salescrm/backend/internal/domain/sales"
	"github.com/salescrm/backend/internal/domain/shared"
)

// PrimAmountBuckets are the histogram boundaries for prim amounts in TRY
var PrimAmountBuckets = []float64{1000, 2500, 5000, 10000, 25000, 50000, 100000, 250000}

// BusinessMetrics turns domain events into CRM counters. It subscribes to
// the event bus like any other handler.
type BusinessMetrics struct {
	saleEvents    *Counter
	primAmount    *Histogram
	penaltyPoints *Counter
	penalties     *Counter
	logins        *Counter
	backups       *Counter
}

// NewBusinessMetrics creates the instruments on the provider's meter.
func NewBusinessMetrics(mp *MeterProvider) (*BusinessMetrics, error) {
	meter := mp.Meter("salescrm.business")

	saleEvents, err := NewCounter(meter, "crm_sale_events_total", "Sale lifecycle events", "{event}")
	if err != nil {
		return nil, err
	}
	primAmount, err := NewHistogram(meter, HistogramOpts{
		Name:        "crm_sale_prim_amount",
		Description: "Prim amount of newly created sales",
		Unit:        "TRY",
		Boundaries:  PrimAmountBuckets,
	})
	if err != nil {
		return nil, err
	}
	penaltyPoints, err := NewCounter(meter, "crm_penalty_points_total", "Penalty points issued", "{point}")
	if err != nil {
		return nil, err
	}
	penalties, err := NewCounter(meter, "crm_penalty_events_total", "Penalties added or cancelled", "{event}")
	if err != nil {
		return nil, err
	}
	logins, err := NewCounter(meter, "crm_logins_total", "Successful logins", "{login}")
	if err != nil {
		return nil, err
	}
	backups, err := NewCounter(meter, "crm_backup_events_total", "Backups created, restored or deleted", "{event}")
	if err != nil {
		return nil, err
	}

	return &BusinessMetrics{
		saleEvents:    saleEvents,
		primAmount:    primAmount,
		penaltyPoints: penaltyPoints,
		penalties:     penalties,
		logins:        logins,
		backups:       backups,
	}, nil
}

// EventTypes implements shared.EventHandler.
func (m *BusinessMetrics) EventTypes() []string {
	return []string{
		sales.EventTypeSaleCreated,
		sales.EventTypeSaleCancelled,
		sales.EventTypeSaleRestored,
		sales.EventTypeSaleDeleted,
		sales.EventTypeSaleKaporaConverted,
		sales.EventTypeSaleTransferred,
		communication.EventTypePenaltyAdded,
		communication.EventTypePenaltyCancelled,
		identity.EventTypeUserLoggedIn,
		backup.EventTypeCreated,
		backup.EventTypeRestored,
		backup.EventTypeDeleted,
	}
}

// Handle implements shared.EventHandler.
func (m *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	typeAttr := AttrEventType.String(event.EventType())

	switch e := event.(type) {
	case *sales.SaleEvent:
		attrs := []attribute.KeyValue{typeAttr, AttrSaleType.String(string(e.SaleType))}
		m.saleEvents.Inc(ctx, attrs...)
		if e.EventType() == sales.EventTypeSaleCreated && e.PrimAmount.IsPositive() {
			m.primAmount.Record(ctx, e.PrimAmount.InexactFloat64(), attrs...)
		}
	case *communication.PenaltyEvent:
		m.penalties.Inc(ctx, typeAttr)
		if e.EventType() == communication.EventTypePenaltyAdded {
			m.penaltyPoints.Add(ctx, int64(e.Points))
		}
	case *identity.UserLoggedInEvent:
		m.logins.Inc(ctx)
	case *backup.Event:
		m.backups.Inc(ctx, typeAttr, attribute.String("backup_type", e.Type))
	}
	return nil
}
