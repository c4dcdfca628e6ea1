package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/repository"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so every query in this
// package runs the same inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements repository.Store on top of the package-level query
// functions.
type Store struct {
	db *sql.DB
	q  Querier
}

var _ repository.Store = (*Store)(nil)

// New returns a Store backed by db.
func New(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// WithTx runs fn inside a transaction. A Store already bound to a
// transaction runs fn in the same transaction.
func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *Store) CreateCustomer(ctx context.Context, c *model.Customer) error {
	return CreateCustomer(ctx, s.q, c)
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	return GetCustomer(ctx, s.q, id)
}

func (s *Store) UpdateCustomer(ctx context.Context, c *model.Customer) error {
	return UpdateCustomer(ctx, s.q, c)
}

func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	return DeleteCustomer(ctx, s.q, id)
}

func (s *Store) ListCustomers(ctx context.Context, query string) ([]model.Customer, error) {
	return ListCustomers(ctx, s.q, query)
}

func (s *Store) CreateEquipment(ctx context.Context, e *model.Equipment) error {
	return CreateEquipment(ctx, s.q, e)
}

func (s *Store) GetEquipment(ctx context.Context, id int64) (*model.Equipment, error) {
	return GetEquipment(ctx, s.q, id)
}

func (s *Store) UpdateEquipment(ctx context.Context, e *model.Equipment) error {
	return UpdateEquipment(ctx, s.q, e)
}

func (s *Store) SetEquipmentAvailability(ctx context.Context, id int64, available int, at time.Time) error {
	return SetEquipmentAvailability(ctx, s.q, id, available, at)
}

func (s *Store) DeleteEquipment(ctx context.Context, id int64) error {
	return DeleteEquipment(ctx, s.q, id)
}

func (s *Store) ListEquipment(ctx context.Context, f repository.EquipmentFilter) ([]model.Equipment, error) {
	return ListEquipment(ctx, s.q, f)
}

func (s *Store) SetEquipmentImage(ctx context.Context, id int64, image []byte, mime string) error {
	return SetEquipmentImage(ctx, s.q, id, image, mime)
}

func (s *Store) GetEquipmentImage(ctx context.Context, id int64) ([]byte, string, error) {
	return GetEquipmentImage(ctx, s.q, id)
}

func (s *Store) CreateRental(ctx context.Context, r *model.Rental) error {
	return CreateRental(ctx, s.q, r)
}

func (s *Store) GetRental(ctx context.Context, id int64) (*model.Rental, error) {
	return GetRental(ctx, s.q, id)
}

func (s *Store) UpdateRental(ctx context.Context, r *model.Rental) error {
	return UpdateRental(ctx, s.q, r)
}

func (s *Store) ListRentals(ctx context.Context, f repository.RentalFilter) ([]model.Rental, error) {
	return ListRentals(ctx, s.q, f)
}

func (s *Store) ActiveRentalsForEquipment(ctx context.Context, equipmentID int64) ([]model.Rental, error) {
	return ListRentals(ctx, s.q, repository.RentalFilter{
		Status:      model.RentalActive,
		EquipmentID: equipmentID,
	})
}
