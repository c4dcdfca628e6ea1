// Package rental coordinates bookings against equipment stock: availability
// checks, reservations and releases, overdue detection and reporting.
package rental

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/repository"
)

// DefaultReminderWindow is how long before a rental ends a return reminder
// is sent.
const DefaultReminderWindow = 24 * time.Hour

type Clock interface{ Now() time.Time }
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// Manager is the single coordinator for rentals and equipment stock. All
// changes to availability go through it.
type Manager struct {
	store          repository.Store
	clock          Clock
	notifier       Notifier
	logger         *slog.Logger
	reminderWindow time.Duration
	locks          *keyedMutex
}

type Option func(*Manager)

func WithClock(c Clock) Option { return func(m *Manager) { m.clock = c } }

func WithNotifier(n Notifier) Option { return func(m *Manager) { m.notifier = n } }

func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

func WithReminderWindow(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.reminderWindow = d
		}
	}
}

// NewManager returns a Manager using store for persistence.
func NewManager(store repository.Store, opts ...Option) *Manager {
	m := &Manager{
		store:          store,
		clock:          realClock{},
		notifier:       discardNotifier{},
		logger:         slog.Default(),
		reminderWindow: DefaultReminderWindow,
		locks:          newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) now() time.Time { return db.Timestamp(m.clock.Now()) }

// Now returns the manager's current time, the reference for overdue status.
func (m *Manager) Now() time.Time { return m.now() }

// CreateRentalRequest describes a new booking.
type CreateRentalRequest struct {
	CustomerID  int64     `json:"customer_id"`
	EquipmentID int64     `json:"equipment_id"`
	Quantity    int       `json:"quantity"`
	Start       time.Time `json:"start_date"`
	End         time.Time `json:"end_date"`
	Notes       string    `json:"notes,omitempty"`
	CreatedBy   *int64    `json:"-"`
}

// CreateRental books req.Quantity units for [req.Start, req.End). On success
// the units are reserved and the rental is stored in one transaction. On
// failure nothing is reserved.
func (m *Manager) CreateRental(ctx context.Context, req CreateRentalRequest) (*model.Rental, error) {
	start, end := db.Timestamp(req.Start), db.Timestamp(req.End)
	if err := model.ValidateRequest(req.Quantity, start, end); err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(req.EquipmentID)
	defer unlock()

	now := m.now()
	var created *model.Rental
	err := m.store.WithTx(ctx, func(tx repository.Store) error {
		customer, err := tx.GetCustomer(ctx, req.CustomerID)
		if err != nil {
			return persistence("loading customer", err)
		}
		if customer == nil || customer.DeletedAt != nil {
			return model.Invalid("customer %d does not exist", req.CustomerID)
		}
		if err := customer.Validate(); err != nil {
			return err
		}

		eq, err := tx.GetEquipment(ctx, req.EquipmentID)
		if err != nil {
			return persistence("loading equipment", err)
		}
		if eq == nil || eq.DeletedAt != nil {
			return model.Invalid("equipment %d does not exist", req.EquipmentID)
		}
		if err := eq.Validate(); err != nil {
			return err
		}

		active, err := tx.ActiveRentalsForEquipment(ctx, eq.ID)
		if err != nil {
			return persistence("loading active rentals", err)
		}
		avail := CheckAvailability(eq, active, start, end, req.Quantity)
		if !avail.Available {
			return &model.AvailabilityError{
				EquipmentID: eq.ID,
				Requested:   req.Quantity,
				Free:        avail.Free,
				Conflicts:   avail.Conflicts,
			}
		}

		r := &model.Rental{
			CustomerID:  customer.ID,
			EquipmentID: eq.ID,
			Quantity:    req.Quantity,
			StartDate:   start,
			EndDate:     end,
			Deposit:     eq.DepositFor(req.Quantity),
			Notes:       req.Notes,
			Status:      model.RentalActive,
			CreatedBy:   req.CreatedBy,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		r.TotalPrice = eq.RentalPrice(r.Days()).Mul(decimalInt(req.Quantity))

		if !eq.Reserve(req.Quantity) {
			return &model.AvailabilityError{EquipmentID: eq.ID, Requested: req.Quantity, Free: avail.Free}
		}
		r.ReservationApplied = true

		if err := tx.SetEquipmentAvailability(ctx, eq.ID, eq.AvailableQuantity, now); err != nil {
			eq.Release(req.Quantity)
			return persistence("reserving equipment", err)
		}
		if err := tx.CreateRental(ctx, r); err != nil {
			eq.Release(req.Quantity)
			return persistence("saving rental", err)
		}

		r.CustomerName = customer.Name
		r.EquipmentName = eq.Name
		r.EquipmentCategory = eq.Category
		created = r
		return nil
	})
	if err != nil {
		return nil, classify("creating rental", err)
	}

	m.emit(ctx, Event{Type: EventRentalCreated, RentalID: created.ID, EquipmentID: created.EquipmentID,
		CustomerID: created.CustomerID, Quantity: created.Quantity, At: now, Rental: created})
	m.emit(ctx, Event{Type: EventEquipmentReserved, RentalID: created.ID, EquipmentID: created.EquipmentID,
		Quantity: created.Quantity, At: now})
	return created, nil
}

// CompleteRental records the return of an active rental and releases its
// units.
func (m *Manager) CompleteRental(ctx context.Context, id int64, c model.Completion) (*model.Rental, error) {
	return m.closeRental(ctx, id, "completing rental", EventRentalCompleted,
		func(r *model.Rental, now time.Time) (int, error) { return r.Complete(c, now) })
}

// CancelRental cancels an active rental and releases its units.
func (m *Manager) CancelRental(ctx context.Context, id int64, reason string) (*model.Rental, error) {
	return m.closeRental(ctx, id, "cancelling rental", EventRentalCancelled,
		func(r *model.Rental, now time.Time) (int, error) { return r.Cancel(reason, now) })
}

func (m *Manager) closeRental(ctx context.Context, id int64, op, event string,
	transition func(*model.Rental, time.Time) (int, error)) (*model.Rental, error) {

	r, err := m.GetRental(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := m.locks.Lock(r.EquipmentID)
	defer unlock()

	now := m.now()
	var released int
	err = m.store.WithTx(ctx, func(tx repository.Store) error {
		// Reload under the lock; another request may have closed it.
		current, err := tx.GetRental(ctx, id)
		if err != nil {
			return persistence("loading rental", err)
		}
		if current == nil {
			return fmt.Errorf("rental %d: %w", id, model.ErrNotFound)
		}

		release, err := transition(current, now)
		if err != nil {
			return err
		}

		if release > 0 {
			eq, err := tx.GetEquipment(ctx, current.EquipmentID)
			if err != nil {
				return persistence("loading equipment", err)
			}
			if eq == nil {
				return persistence("loading equipment", fmt.Errorf("equipment %d: %w", current.EquipmentID, model.ErrNotFound))
			}
			eq.Release(release)
			if err := tx.SetEquipmentAvailability(ctx, eq.ID, eq.AvailableQuantity, now); err != nil {
				return persistence("releasing equipment", err)
			}
		}
		if err := tx.UpdateRental(ctx, current); err != nil {
			return persistence("saving rental", err)
		}

		r = current
		released = release
		return nil
	})
	if err != nil {
		return nil, classify(op, err)
	}

	m.emit(ctx, Event{Type: event, RentalID: r.ID, EquipmentID: r.EquipmentID,
		CustomerID: r.CustomerID, Quantity: r.Quantity, At: now, Rental: r})
	if released > 0 {
		m.emit(ctx, Event{Type: EventEquipmentReleased, RentalID: r.ID, EquipmentID: r.EquipmentID,
			Quantity: released, At: now})
	}
	return r, nil
}

// GetRental returns a rental or an error wrapping model.ErrNotFound.
func (m *Manager) GetRental(ctx context.Context, id int64) (*model.Rental, error) {
	r, err := m.store.GetRental(ctx, id)
	if err != nil {
		return nil, persistence("loading rental", err)
	}
	if r == nil {
		return nil, fmt.Errorf("rental %d: %w", id, model.ErrNotFound)
	}
	return r, nil
}

// ListRentals returns rentals matching f. The derived status "overdue"
// selects active rentals past their end date.
func (m *Manager) ListRentals(ctx context.Context, f repository.RentalFilter) ([]model.Rental, error) {
	if f.Status == model.RentalOverdue {
		f.Status = model.RentalActive
		f.EndBefore = m.now()
	}
	rentals, err := m.store.ListRentals(ctx, f)
	if err != nil {
		return nil, persistence("listing rentals", err)
	}
	return rentals, nil
}

// ActiveRentals returns every active rental.
func (m *Manager) ActiveRentals(ctx context.Context) ([]model.Rental, error) {
	return m.ListRentals(ctx, repository.RentalFilter{Status: model.RentalActive})
}

// OverdueRentals returns active rentals whose end date has passed.
func (m *Manager) OverdueRentals(ctx context.Context) ([]model.Rental, error) {
	return m.ListRentals(ctx, repository.RentalFilter{Status: model.RentalOverdue})
}

// RentalsByCustomer returns the customer's rental history.
func (m *Manager) RentalsByCustomer(ctx context.Context, customerID int64) ([]model.Rental, error) {
	if _, err := m.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return m.ListRentals(ctx, repository.RentalFilter{CustomerID: customerID})
}

// RentalsByEquipment returns every rental of the equipment.
func (m *Manager) RentalsByEquipment(ctx context.Context, equipmentID int64) ([]model.Rental, error) {
	if _, err := m.GetEquipment(ctx, equipmentID); err != nil {
		return nil, err
	}
	return m.ListRentals(ctx, repository.RentalFilter{EquipmentID: equipmentID})
}

// CheckAvailability reports whether qty units of the equipment can be booked
// for [start, end) and which active rentals stand in the way.
func (m *Manager) CheckAvailability(ctx context.Context, equipmentID int64, start, end time.Time, qty int) (Availability, error) {
	start, end = db.Timestamp(start), db.Timestamp(end)
	if err := model.ValidateRequest(qty, start, end); err != nil {
		return Availability{}, err
	}

	eq, err := m.GetEquipment(ctx, equipmentID)
	if err != nil {
		return Availability{}, err
	}
	active, err := m.store.ActiveRentalsForEquipment(ctx, equipmentID)
	if err != nil {
		return Availability{}, persistence("loading active rentals", err)
	}
	return CheckAvailability(eq, active, start, end, qty), nil
}

// IsAvailable is CheckAvailability reduced to its verdict.
func (m *Manager) IsAvailable(ctx context.Context, equipmentID int64, start, end time.Time, qty int) (bool, error) {
	a, err := m.CheckAvailability(ctx, equipmentID, start, end, qty)
	if err != nil {
		return false, err
	}
	return a.Available, nil
}

func (m *Manager) emit(ctx context.Context, e Event) {
	m.notifier.Notify(ctx, e)
}

func persistence(op string, err error) error {
	return &model.PersistenceError{Op: op, Err: err}
}

// storeWrite wraps a failed write as a persistence error, except a write that
// found no live row, which stays a not-found error.
func storeWrite(op string, err error) error {
	if err == nil || errors.Is(err, model.ErrNotFound) {
		return err
	}
	return persistence(op, err)
}

// classify passes domain errors through and wraps anything else, such as a
// failed commit, as a persistence error.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		verr *model.ValidationError
		aerr *model.AvailabilityError
		serr *model.InvalidStateError
		perr *model.PersistenceError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &aerr), errors.As(err, &serr),
		errors.As(err, &perr), errors.Is(err, model.ErrNotFound):
		return err
	}
	return persistence(op, err)
}
