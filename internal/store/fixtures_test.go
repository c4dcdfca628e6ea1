package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/izposoja/internal/model"
)

var base = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func day(n int) time.Time { return base.AddDate(0, 0, n) }

func seedCustomer(t *testing.T, database *sql.DB, name string) *model.Customer {
	t.Helper()
	c := &model.Customer{Name: name, Phone: "+7 (999) 123-45-67"}
	if err := CreateCustomer(context.Background(), database, c); err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	return c
}

func seedEquipment(t *testing.T, database *sql.DB, name string, total int) *model.Equipment {
	t.Helper()
	e := &model.Equipment{
		Name:              name,
		Category:          "Camping",
		Price:             decimal.RequireFromString("1000.50"),
		Deposit:           decimal.NewFromInt(3000),
		Quantity:          total,
		AvailableQuantity: total,
	}
	if err := CreateEquipment(context.Background(), database, e); err != nil {
		t.Fatalf("CreateEquipment: %v", err)
	}
	return e
}

func seedRental(t *testing.T, database *sql.DB, c *model.Customer, e *model.Equipment, q int, start, end time.Time) *model.Rental {
	t.Helper()
	r := &model.Rental{
		CustomerID:         c.ID,
		EquipmentID:        e.ID,
		Quantity:           q,
		StartDate:          start,
		EndDate:            end,
		TotalPrice:         decimal.NewFromInt(int64(1000 * q)),
		Deposit:            e.DepositFor(q),
		Status:             model.RentalActive,
		ReservationApplied: true,
	}
	if err := CreateRental(context.Background(), database, r); err != nil {
		t.Fatalf("CreateRental: %v", err)
	}
	return r
}
