package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/repository"
)

func TestCreateAndGetRental(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := seedCustomer(t, database, "Ana")
	e := seedEquipment(t, database, "Tent", 3)
	r := seedRental(t, database, c, e, 2, day(0), day(2))

	got, err := GetRental(ctx, database, r.ID)
	if err != nil {
		t.Fatalf("GetRental: %v", err)
	}
	if got.Quantity != 2 || got.Status != model.RentalActive || !got.ReservationApplied {
		t.Errorf("unexpected rental %+v", got)
	}
	if !got.StartDate.Equal(day(0)) || !got.EndDate.Equal(day(2)) {
		t.Errorf("unexpected period %v - %v", got.StartDate, got.EndDate)
	}
	if got.CustomerName != "Ana" || got.EquipmentName != "Tent" || got.EquipmentCategory != "Camping" {
		t.Errorf("expected joined names, got %+v", got)
	}
	if !got.Deposit.Equal(decimal.NewFromInt(6000)) {
		t.Errorf("expected deposit 6000, got %s", got.Deposit)
	}

	missing, err := GetRental(ctx, database, 999)
	if err != nil {
		t.Fatalf("GetRental: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing rental")
	}
}

func TestRentalRejectsEmptyPeriod(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := seedCustomer(t, database, "Ana")
	e := seedEquipment(t, database, "Tent", 3)
	r := &model.Rental{
		CustomerID: c.ID, EquipmentID: e.ID, Quantity: 1,
		StartDate: day(2), EndDate: day(2), Status: model.RentalActive,
	}
	if err := CreateRental(ctx, database, r); err == nil {
		t.Error("expected CHECK failure for empty period")
	}
}

func TestUpdateRental(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := seedCustomer(t, database, "Ana")
	e := seedEquipment(t, database, "Tent", 3)
	r := seedRental(t, database, c, e, 1, day(0), day(1))

	if _, err := r.Complete(model.Completion{CleaningCost: decimal.NewFromInt(500)}, day(1)); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := UpdateRental(ctx, database, r); err != nil {
		t.Fatalf("UpdateRental: %v", err)
	}

	got, _ := GetRental(ctx, database, r.ID)
	if got.Status != model.RentalCompleted || got.ReservationApplied {
		t.Errorf("unexpected state %+v", got)
	}
	if !got.FinalPrice.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("expected final price 1500, got %s", got.FinalPrice)
	}
	if got.ClosedAt == nil || !got.ClosedAt.Equal(day(1)) {
		t.Errorf("expected closed_at %v, got %v", day(1), got.ClosedAt)
	}

	r.ID = 999
	if err := UpdateRental(ctx, database, r); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListRentalsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	ana := seedCustomer(t, database, "Ana")
	bor := seedCustomer(t, database, "Bor")
	tent := seedEquipment(t, database, "Tent", 3)
	kayak := seedEquipment(t, database, "Kayak", 2)

	r1 := seedRental(t, database, ana, tent, 1, day(0), day(2))
	r2 := seedRental(t, database, bor, tent, 1, day(2), day(4))
	r3 := seedRental(t, database, ana, kayak, 1, day(5), day(6))
	r3.Cancel("", day(1))
	UpdateRental(ctx, database, r3)

	tests := []struct {
		name   string
		filter repository.RentalFilter
		want   []int64
	}{
		{"all", repository.RentalFilter{}, []int64{r1.ID, r2.ID, r3.ID}},
		{"active", repository.RentalFilter{Status: model.RentalActive}, []int64{r1.ID, r2.ID}},
		{"customer", repository.RentalFilter{CustomerID: ana.ID}, []int64{r1.ID, r3.ID}},
		{"equipment", repository.RentalFilter{EquipmentID: tent.ID}, []int64{r1.ID, r2.ID}},
		{"overlap", repository.RentalFilter{From: day(1), To: day(3)}, []int64{r1.ID, r2.ID}},
		{"touching end excluded", repository.RentalFilter{From: day(4), To: day(5)}, nil},
		{"start range", repository.RentalFilter{StartFrom: day(1), StartTo: day(5)}, []int64{r2.ID, r3.ID}},
		{"ended before", repository.RentalFilter{Status: model.RentalActive, EndBefore: day(3)}, []int64{r1.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ListRentals(ctx, database, tt.filter)
			if err != nil {
				t.Fatalf("ListRentals: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d rentals, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("rental %d: expected id %d, got %d", i, id, got[i].ID)
				}
			}
		})
	}
}

func TestActiveRentalsForEquipment(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	s := New(database)

	c := seedCustomer(t, database, "Ana")
	e := seedEquipment(t, database, "Tent", 3)
	later := seedRental(t, database, c, e, 1, day(3), day(4))
	earlier := seedRental(t, database, c, e, 1, day(0), day(1))

	got, err := s.ActiveRentalsForEquipment(ctx, e.ID)
	if err != nil {
		t.Fatalf("ActiveRentalsForEquipment: %v", err)
	}
	if len(got) != 2 || got[0].ID != earlier.ID || got[1].ID != later.ID {
		t.Errorf("expected rentals ordered by start, got %v", got)
	}
}
