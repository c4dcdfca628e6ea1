package rental

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/repository"
	"github.com/erazemk/izposoja/internal/store"
)

var base = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func day(n int) time.Time { return base.AddDate(0, 0, n) }

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type fixture struct {
	ctx      context.Context
	store    *store.Store
	manager  *Manager
	clock    *fakeClock
	events   *recorder
	customer *model.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, func(s repository.Store) repository.Store { return s })
}

func newFixtureWithStore(t *testing.T, wrap func(repository.Store) repository.Store) *fixture {
	t.Helper()
	f := &fixture{
		ctx:    context.Background(),
		store:  store.New(db.NewTestDB(t)),
		clock:  &fakeClock{t: day(0)},
		events: &recorder{},
	}
	f.manager = NewManager(wrap(f.store), WithClock(f.clock), WithNotifier(f.events))

	c, err := f.manager.AddCustomer(f.ctx, &model.Customer{Name: "Ana Novak"})
	require.NoError(t, err)
	f.customer = c
	return f
}

func (f *fixture) equipment(t *testing.T, name string, total int) *model.Equipment {
	t.Helper()
	e, err := f.manager.AddEquipment(f.ctx, &model.Equipment{
		Name:     name,
		Category: "Camping",
		Price:    decimal.NewFromInt(1000),
		Deposit:  decimal.NewFromInt(3000),
		Quantity: total,
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) rent(eq *model.Equipment, q int, start, end time.Time) (*model.Rental, error) {
	return f.manager.CreateRental(f.ctx, CreateRentalRequest{
		CustomerID:  f.customer.ID,
		EquipmentID: eq.ID,
		Quantity:    q,
		Start:       start,
		End:         end,
	})
}

func (f *fixture) available(t *testing.T, id int64) int {
	t.Helper()
	e, err := f.manager.GetEquipment(f.ctx, id)
	require.NoError(t, err)
	return e.AvailableQuantity
}

var errDisk = errors.New("disk I/O error")

// failingStore fails the chosen write inside transactions.
type failingStore struct {
	repository.Store
	failCreateRental bool
	failUpdateRental bool
}

func (s *failingStore) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(&failingStore{Store: tx, failCreateRental: s.failCreateRental, failUpdateRental: s.failUpdateRental})
	})
}

func (s *failingStore) CreateRental(ctx context.Context, r *model.Rental) error {
	if s.failCreateRental {
		return errDisk
	}
	return s.Store.CreateRental(ctx, r)
}

func (s *failingStore) UpdateRental(ctx context.Context, r *model.Rental) error {
	if s.failUpdateRental {
		return errDisk
	}
	return s.Store.UpdateRental(ctx, r)
}
