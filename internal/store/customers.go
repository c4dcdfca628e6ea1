package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
)

const customerColumns = `id, name, phone, email, passport, address, passport_issue_date,
	created_at, updated_at, deleted_at`

// CreateCustomer inserts c and sets its ID and timestamps.
func CreateCustomer(ctx context.Context, q Querier, c *model.Customer) error {
	now := stamp(c.CreatedAt)
	result, err := q.ExecContext(ctx,
		`INSERT INTO customers (name, phone, email, passport, address, passport_issue_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, nullString(c.Phone), nullString(c.Email), nullString(c.Passport), nullString(c.Address),
		nullTime(c.PassportIssueDate), now, now,
	)
	if err != nil {
		return fmt.Errorf("creating customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting customer id: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// GetCustomer returns a customer by ID, including soft-deleted ones.
func GetCustomer(ctx context.Context, q Querier, id int64) (*model.Customer, error) {
	c, err := scanCustomer(q.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting customer: %w", err)
	}
	return c, nil
}

// ListCustomers returns non-deleted customers whose name, phone or email
// contains query.
func ListCustomers(ctx context.Context, q Querier, query string) ([]model.Customer, error) {
	sqlQuery := `SELECT ` + customerColumns + ` FROM customers WHERE deleted_at IS NULL`
	var args []any
	if query != "" {
		like := "%" + query + "%"
		sqlQuery += ` AND (name LIKE ? OR phone LIKE ? OR email LIKE ?)`
		args = append(args, like, like, like)
	}
	sqlQuery += ` ORDER BY name`

	rows, err := q.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

// UpdateCustomer stores every editable field of c.
func UpdateCustomer(ctx context.Context, q Querier, c *model.Customer) error {
	now := stamp(c.UpdatedAt)
	result, err := q.ExecContext(ctx,
		`UPDATE customers SET name = ?, phone = ?, email = ?, passport = ?, address = ?,
		        passport_issue_date = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		c.Name, nullString(c.Phone), nullString(c.Email), nullString(c.Passport), nullString(c.Address),
		nullTime(c.PassportIssueDate), now, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating customer: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating customer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating customer %d: %w", c.ID, model.ErrNotFound)
	}
	c.UpdatedAt = now
	return nil
}

// DeleteCustomer soft-deletes a customer.
func DeleteCustomer(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE customers SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting customer: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomer(s scanner) (*model.Customer, error) {
	c := &model.Customer{}
	var phone, email, passport, address sql.NullString
	if err := s.Scan(&c.ID, &c.Name, &phone, &email, &passport, &address, &c.PassportIssueDate,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
		return nil, err
	}
	c.Phone = phone.String
	c.Email = email.String
	c.Passport = passport.String
	c.Address = address.String
	return c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: db.Timestamp(*t), Valid: true}
}

// stamp returns t normalised for storage, or the current time when t is zero.
func stamp(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return db.Timestamp(t)
}
