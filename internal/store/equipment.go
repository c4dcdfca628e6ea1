package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/repository"
)

const equipmentColumns = `id, name, category, description, price, additional_day_price, deposit,
	quantity, available_quantity, image_mime, created_at, updated_at, deleted_at`

// CreateEquipment inserts e and sets its ID and timestamps.
func CreateEquipment(ctx context.Context, q Querier, e *model.Equipment) error {
	now := stamp(e.CreatedAt)
	result, err := q.ExecContext(ctx,
		`INSERT INTO equipment (name, category, description, price, additional_day_price, deposit,
		                        quantity, available_quantity, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Category, nullString(e.Description), e.Price, e.AdditionalDayPrice, e.Deposit,
		e.Quantity, e.AvailableQuantity, now, now,
	)
	if err != nil {
		return fmt.Errorf("creating equipment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting equipment id: %w", err)
	}
	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

// GetEquipment returns equipment by ID, including soft-deleted records.
func GetEquipment(ctx context.Context, q Querier, id int64) (*model.Equipment, error) {
	e, err := scanEquipment(q.QueryRowContext(ctx,
		`SELECT `+equipmentColumns+` FROM equipment WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting equipment: %w", err)
	}
	return e, nil
}

// ListEquipment returns non-deleted equipment ordered by category and name.
func ListEquipment(ctx context.Context, q Querier, f repository.EquipmentFilter) ([]model.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE deleted_at IS NULL`
	var args []any

	if f.Query != "" {
		like := "%" + f.Query + "%"
		query += ` AND (name LIKE ? OR description LIKE ?)`
		args = append(args, like, like)
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	query += ` ORDER BY category, name`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing equipment: %w", err)
	}
	defer rows.Close()

	var list []model.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning equipment: %w", err)
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// UpdateEquipment stores every field of e, including both counters.
func UpdateEquipment(ctx context.Context, q Querier, e *model.Equipment) error {
	now := stamp(e.UpdatedAt)
	result, err := q.ExecContext(ctx,
		`UPDATE equipment SET name = ?, category = ?, description = ?, price = ?,
		        additional_day_price = ?, deposit = ?, quantity = ?, available_quantity = ?,
		        updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		e.Name, e.Category, nullString(e.Description), e.Price, e.AdditionalDayPrice, e.Deposit,
		e.Quantity, e.AvailableQuantity, now, e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating equipment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating equipment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating equipment %d: %w", e.ID, model.ErrNotFound)
	}
	e.UpdatedAt = now
	return nil
}

// SetEquipmentAvailability stores the available counter.
func SetEquipmentAvailability(ctx context.Context, q Querier, id int64, available int, at time.Time) error {
	result, err := q.ExecContext(ctx,
		`UPDATE equipment SET available_quantity = ?, updated_at = ? WHERE id = ?`,
		available, db.Timestamp(at), id,
	)
	if err != nil {
		return fmt.Errorf("setting equipment availability: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting equipment availability: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("setting equipment availability: equipment %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// DeleteEquipment soft-deletes equipment.
func DeleteEquipment(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE equipment SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting equipment: %w", err)
	}
	return nil
}

// SetEquipmentImage sets the equipment photo.
func SetEquipmentImage(ctx context.Context, q Querier, id int64, image []byte, mime string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE equipment SET image = ?, image_mime = ? WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting equipment image: %w", err)
	}
	return nil
}

// GetEquipmentImage returns the equipment photo and its MIME type.
func GetEquipmentImage(ctx context.Context, q Querier, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT image, image_mime FROM equipment WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting equipment image: %w", err)
	}
	return image, mime.String, nil
}

func scanEquipment(s scanner) (*model.Equipment, error) {
	e := &model.Equipment{}
	var description, imageMime sql.NullString
	if err := s.Scan(&e.ID, &e.Name, &e.Category, &description, &e.Price, &e.AdditionalDayPrice,
		&e.Deposit, &e.Quantity, &e.AvailableQuantity, &imageMime,
		&e.CreatedAt, &e.UpdatedAt, &e.DeletedAt); err != nil {
		return nil, err
	}
	e.Description = description.String
	e.ImageMime = imageMime.String
	return e, nil
}
