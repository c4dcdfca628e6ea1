// Package repository declares the storage capabilities the rental
// coordinator depends on.
package repository

import (
	"context"
	"time"

	"github.com/erazemk/izposoja/internal/model"
)

// Getters return nil and no error when the record does not exist.

type CustomerRepository interface {
	CreateCustomer(ctx context.Context, c *model.Customer) error
	GetCustomer(ctx context.Context, id int64) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, c *model.Customer) error
	DeleteCustomer(ctx context.Context, id int64) error
	ListCustomers(ctx context.Context, query string) ([]model.Customer, error)
}

type EquipmentRepository interface {
	CreateEquipment(ctx context.Context, e *model.Equipment) error
	GetEquipment(ctx context.Context, id int64) (*model.Equipment, error)
	UpdateEquipment(ctx context.Context, e *model.Equipment) error
	SetEquipmentAvailability(ctx context.Context, id int64, available int, at time.Time) error
	DeleteEquipment(ctx context.Context, id int64) error
	ListEquipment(ctx context.Context, f EquipmentFilter) ([]model.Equipment, error)
	SetEquipmentImage(ctx context.Context, id int64, image []byte, mime string) error
	GetEquipmentImage(ctx context.Context, id int64) ([]byte, string, error)
}

type RentalRepository interface {
	CreateRental(ctx context.Context, r *model.Rental) error
	GetRental(ctx context.Context, id int64) (*model.Rental, error)
	UpdateRental(ctx context.Context, r *model.Rental) error
	ListRentals(ctx context.Context, f RentalFilter) ([]model.Rental, error)
	// ActiveRentalsForEquipment returns active rentals of one equipment
	// ordered by start date.
	ActiveRentalsForEquipment(ctx context.Context, equipmentID int64) ([]model.Rental, error)
}

// Store is the full storage capability. WithTx runs fn against a Store bound
// to one transaction, committing when fn returns nil.
type Store interface {
	CustomerRepository
	EquipmentRepository
	RentalRepository
	WithTx(ctx context.Context, fn func(Store) error) error
}

// EquipmentFilter narrows ListEquipment. Zero values match everything.
type EquipmentFilter struct {
	Query    string
	Category string
}

// RentalFilter narrows ListRentals. Zero values match everything.
type RentalFilter struct {
	Status      string
	CustomerID  int64
	EquipmentID int64

	// Overlapping selects rentals whose period intersects [From, To).
	From, To time.Time

	// StartFrom and StartTo select rentals starting within [StartFrom, StartTo].
	StartFrom, StartTo time.Time

	// EndBefore selects rentals whose end date is before it.
	EndBefore time.Time
}
