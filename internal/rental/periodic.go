package rental

import (
	"context"
	"time"

	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/repository"
)

// CheckOverdue emits an overdue event for every active rental past its end
// date and returns how many there were. It changes no state.
func (m *Manager) CheckOverdue(ctx context.Context) (int, error) {
	overdue, err := m.FlagOverdue(ctx)
	return len(overdue), err
}

// FlagOverdue is CheckOverdue returning the rentals it emitted events for.
func (m *Manager) FlagOverdue(ctx context.Context) ([]model.Rental, error) {
	overdue, err := m.OverdueRentals(ctx)
	if err != nil {
		return nil, err
	}

	now := m.now()
	for i := range overdue {
		r := &overdue[i]
		m.emit(ctx, Event{Type: EventRentalOverdue, RentalID: r.ID, EquipmentID: r.EquipmentID,
			CustomerID: r.CustomerID, Quantity: r.Quantity, At: now, Rental: r})
	}
	return overdue, nil
}

// SendReturnReminders emits a reminder for every active rental ending within
// the reminder window and returns how many were sent.
func (m *Manager) SendReturnReminders(ctx context.Context) (int, error) {
	active, err := m.ActiveRentals(ctx)
	if err != nil {
		return 0, err
	}

	now := m.now()
	sent := 0
	for i := range active {
		r := &active[i]
		if !dueForReminder(r, now, m.reminderWindow) {
			continue
		}
		m.emit(ctx, Event{Type: EventReturnReminder, RentalID: r.ID, EquipmentID: r.EquipmentID,
			CustomerID: r.CustomerID, Quantity: r.Quantity, At: now, Rental: r})
		sent++
	}
	return sent, nil
}

// Drift describes equipment whose stored available counter disagrees with
// its active rentals.
type Drift struct {
	EquipmentID int64 `json:"equipment_id"`
	Stored      int   `json:"stored"`
	Expected    int   `json:"expected"`
}

// Reconcile recomputes each equipment's available counter from the active
// rentals holding a reservation and reports the records that disagree. With
// fix set, the counters are corrected.
func (m *Manager) Reconcile(ctx context.Context, fix bool) ([]Drift, error) {
	list, err := m.ListEquipment(ctx, repository.EquipmentFilter{})
	if err != nil {
		return nil, err
	}

	var drifts []Drift
	for _, e := range list {
		d, err := m.reconcileOne(ctx, e.ID, fix)
		if err != nil {
			return drifts, err
		}
		if d != nil {
			drifts = append(drifts, *d)
		}
	}
	return drifts, nil
}

func (m *Manager) reconcileOne(ctx context.Context, id int64, fix bool) (*Drift, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	var drift *Drift
	err := m.store.WithTx(ctx, func(tx repository.Store) error {
		e, err := tx.GetEquipment(ctx, id)
		if err != nil {
			return persistence("loading equipment", err)
		}
		if e == nil {
			return nil
		}
		active, err := tx.ActiveRentalsForEquipment(ctx, id)
		if err != nil {
			return persistence("loading active rentals", err)
		}

		held := 0
		for _, r := range active {
			if r.ReservationApplied {
				held += r.Quantity
			}
		}
		expected := max(e.Quantity-held, 0)
		if expected == e.AvailableQuantity {
			return nil
		}

		drift = &Drift{EquipmentID: id, Stored: e.AvailableQuantity, Expected: expected}
		m.logger.Warn("equipment availability drift", "equipment", id,
			"stored", e.AvailableQuantity, "expected", expected)
		if !fix {
			return nil
		}
		if err := tx.SetEquipmentAvailability(ctx, id, expected, m.now()); err != nil {
			return persistence("correcting availability", err)
		}
		return nil
	})
	return drift, classify("reconciling equipment", err)
}

// dueForReminder reports whether end - window <= now < end.
func dueForReminder(r *model.Rental, now time.Time, window time.Duration) bool {
	return now.Before(r.EndDate) && !now.Before(r.EndDate.Add(-window))
}
