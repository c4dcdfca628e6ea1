package rental

import (
	"context"
	"log/slog"
	"time"

	"github.com/erazemk/izposoja/internal/model"
)

// Event types.
const (
	EventRentalCreated     = "rental.created"
	EventRentalCompleted   = "rental.completed"
	EventRentalCancelled   = "rental.cancelled"
	EventRentalOverdue     = "rental.overdue"
	EventReturnReminder    = "rental.return_reminder"
	EventEquipmentReserved = "equipment.reserved"
	EventEquipmentReleased = "equipment.released"
)

// Event describes something that happened to a rental or to equipment stock.
// Events are only emitted for committed changes.
type Event struct {
	Type        string        `json:"type"`
	RentalID    int64         `json:"rental_id,omitempty"`
	EquipmentID int64         `json:"equipment_id,omitempty"`
	CustomerID  int64         `json:"customer_id,omitempty"`
	Quantity    int           `json:"quantity,omitempty"`
	At          time.Time     `json:"at"`
	Rental      *model.Rental `json:"rental,omitempty"`
}

// Notifier receives events. Implementations must not block for long; they
// run on the caller's goroutine after the change is committed.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, e Event)

func (f NotifierFunc) Notify(ctx context.Context, e Event) { f(ctx, e) }

// Notifiers fans an event out to every notifier in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, e Event) {
	for _, n := range ns {
		n.Notify(ctx, e)
	}
}

// LogNotifier writes events as structured log lines.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, e Event) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{"event", e.Type, "equipment", e.EquipmentID}
	if e.RentalID != 0 {
		attrs = append(attrs, "rental", e.RentalID)
	}
	if e.CustomerID != 0 {
		attrs = append(attrs, "customer", e.CustomerID)
	}
	if e.Quantity != 0 {
		attrs = append(attrs, "quantity", e.Quantity)
	}
	if e.Rental != nil && (e.Type == EventRentalOverdue || e.Type == EventReturnReminder) {
		attrs = append(attrs, "customer_name", e.Rental.CustomerName, "end", e.Rental.EndDate)
	}

	level := slog.LevelInfo
	if e.Type == EventRentalOverdue {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "rental event", attrs...)
}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, Event) {}
