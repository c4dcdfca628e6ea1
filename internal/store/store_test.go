package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/repository"
)

func TestWithTxCommits(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	s := New(database)

	e := seedEquipment(t, database, "Tent", 3)

	err := s.WithTx(ctx, func(tx repository.Store) error {
		return tx.SetEquipmentAvailability(ctx, e.ID, 1, day(0))
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	got, _ := s.GetEquipment(ctx, e.ID)
	if got.AvailableQuantity != 1 {
		t.Errorf("expected committed available 1, got %d", got.AvailableQuantity)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	s := New(database)

	c := seedCustomer(t, database, "Ana")
	e := seedEquipment(t, database, "Tent", 3)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.SetEquipmentAvailability(ctx, e.ID, 0, day(0)); err != nil {
			return err
		}
		// Nested WithTx joins the outer transaction.
		return tx.WithTx(ctx, func(inner repository.Store) error {
			if err := inner.DeleteCustomer(ctx, c.ID); err != nil {
				return err
			}
			return boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := s.GetEquipment(ctx, e.ID)
	if got.AvailableQuantity != 3 {
		t.Errorf("expected rolled back available 3, got %d", got.AvailableQuantity)
	}
	customer, _ := s.GetCustomer(ctx, c.ID)
	if customer.DeletedAt != nil {
		t.Error("expected customer delete to be rolled back")
	}
}

func TestWithTxRollbackOnFailedStatement(t *testing.T) {
	database, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer database.Close()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE equipment SET available_quantity").
		WithArgs(1, sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE rentals SET").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	s := New(database)
	err = s.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.SetEquipmentAvailability(ctx, 7, 1, day(0)); err != nil {
			return err
		}
		return tx.UpdateRental(ctx, &model.Rental{ID: 3, Status: model.RentalCompleted})
	})
	if err == nil {
		t.Fatal("expected error from failed statement")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWithTxCommitFailure(t *testing.T) {
	database, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer database.Close()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	err = New(database).WithTx(ctx, func(repository.Store) error { return nil })
	if err == nil {
		t.Fatal("expected commit error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
