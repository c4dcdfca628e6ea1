package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/repository"
)

const rentalSelect = `SELECT r.id, r.customer_id, r.equipment_id, r.quantity, r.start_date, r.end_date,
	        r.total_price, r.deposit, r.final_price, r.damage_cost, r.cleaning_cost, r.final_deposit,
	        r.notes, r.status, r.reservation_applied, r.created_by, r.created_at, r.updated_at, r.closed_at,
	        c.name AS customer_name, e.name AS equipment_name, e.category AS equipment_category
	 FROM rentals r
	 JOIN customers c ON c.id = r.customer_id
	 JOIN equipment e ON e.id = r.equipment_id`

// CreateRental inserts r and sets its ID and timestamps.
func CreateRental(ctx context.Context, q Querier, r *model.Rental) error {
	now := stamp(r.CreatedAt)
	r.StartDate = db.Timestamp(r.StartDate)
	r.EndDate = db.Timestamp(r.EndDate)

	result, err := q.ExecContext(ctx,
		`INSERT INTO rentals (customer_id, equipment_id, quantity, start_date, end_date,
		                      total_price, deposit, final_price, damage_cost, cleaning_cost, final_deposit,
		                      notes, status, reservation_applied, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.CustomerID, r.EquipmentID, r.Quantity, r.StartDate, r.EndDate,
		r.TotalPrice, r.Deposit, r.FinalPrice, r.DamageCost, r.CleaningCost, r.FinalDeposit,
		nullString(r.Notes), r.Status, r.ReservationApplied, r.CreatedBy, now, now,
	)
	if err != nil {
		return fmt.Errorf("creating rental: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting rental id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// GetRental returns a rental by ID with customer and equipment names joined.
func GetRental(ctx context.Context, q Querier, id int64) (*model.Rental, error) {
	r, err := scanRental(q.QueryRowContext(ctx, rentalSelect+` WHERE r.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting rental: %w", err)
	}
	return r, nil
}

// UpdateRental stores the mutable fields of r: money, notes, status and the
// reservation flag. Customer, equipment, quantity and period are fixed at
// creation.
func UpdateRental(ctx context.Context, q Querier, r *model.Rental) error {
	now := stamp(r.UpdatedAt)
	var closedAt sql.NullTime
	if r.ClosedAt != nil {
		closedAt = sql.NullTime{Time: db.Timestamp(*r.ClosedAt), Valid: true}
	}

	result, err := q.ExecContext(ctx,
		`UPDATE rentals SET total_price = ?, deposit = ?, final_price = ?, damage_cost = ?,
		        cleaning_cost = ?, final_deposit = ?, notes = ?, status = ?, reservation_applied = ?,
		        updated_at = ?, closed_at = ?
		 WHERE id = ?`,
		r.TotalPrice, r.Deposit, r.FinalPrice, r.DamageCost, r.CleaningCost, r.FinalDeposit,
		nullString(r.Notes), r.Status, r.ReservationApplied, now, closedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("updating rental: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating rental: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating rental %d: %w", r.ID, model.ErrNotFound)
	}
	r.UpdatedAt = now
	return nil
}

// ListRentals returns rentals matching f ordered by start date.
func ListRentals(ctx context.Context, q Querier, f repository.RentalFilter) ([]model.Rental, error) {
	query := rentalSelect + ` WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += ` AND r.status = ?`
		args = append(args, f.Status)
	}
	if f.CustomerID > 0 {
		query += ` AND r.customer_id = ?`
		args = append(args, f.CustomerID)
	}
	if f.EquipmentID > 0 {
		query += ` AND r.equipment_id = ?`
		args = append(args, f.EquipmentID)
	}
	if !f.From.IsZero() && !f.To.IsZero() {
		// Half-open periods: touching endpoints do not overlap.
		query += ` AND r.start_date < ? AND r.end_date > ?`
		args = append(args, db.Timestamp(f.To), db.Timestamp(f.From))
	}
	if !f.StartFrom.IsZero() {
		query += ` AND r.start_date >= ?`
		args = append(args, db.Timestamp(f.StartFrom))
	}
	if !f.StartTo.IsZero() {
		query += ` AND r.start_date <= ?`
		args = append(args, db.Timestamp(f.StartTo))
	}
	if !f.EndBefore.IsZero() {
		query += ` AND r.end_date < ?`
		args = append(args, db.Timestamp(f.EndBefore))
	}

	query += ` ORDER BY r.start_date, r.id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing rentals: %w", err)
	}
	defer rows.Close()

	var rentals []model.Rental
	for rows.Next() {
		r, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rental: %w", err)
		}
		rentals = append(rentals, *r)
	}
	return rentals, rows.Err()
}

func scanRental(s scanner) (*model.Rental, error) {
	r := &model.Rental{}
	var notes sql.NullString
	if err := s.Scan(&r.ID, &r.CustomerID, &r.EquipmentID, &r.Quantity, &r.StartDate, &r.EndDate,
		&r.TotalPrice, &r.Deposit, &r.FinalPrice, &r.DamageCost, &r.CleaningCost, &r.FinalDeposit,
		&notes, &r.Status, &r.ReservationApplied, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt, &r.ClosedAt,
		&r.CustomerName, &r.EquipmentName, &r.EquipmentCategory); err != nil {
		return nil, err
	}
	r.Notes = notes.String
	r.StartDate = r.StartDate.UTC()
	r.EndDate = r.EndDate.UTC()
	return r, nil
}
