package rental

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/erazemk/izposoja/internal/imaging"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/repository"
)

func decimalInt(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

// AddEquipment stores a new equipment type with its whole quantity available.
func (m *Manager) AddEquipment(ctx context.Context, e *model.Equipment) (*model.Equipment, error) {
	e.ID = 0
	e.AvailableQuantity = e.Quantity
	if err := e.Validate(); err != nil {
		return nil, err
	}

	now := m.now()
	e.CreatedAt, e.UpdatedAt = now, now
	if err := m.store.CreateEquipment(ctx, e); err != nil {
		return nil, persistence("creating equipment", err)
	}
	return e, nil
}

// GetEquipment returns live equipment or an error wrapping model.ErrNotFound.
func (m *Manager) GetEquipment(ctx context.Context, id int64) (*model.Equipment, error) {
	e, err := m.store.GetEquipment(ctx, id)
	if err != nil {
		return nil, persistence("loading equipment", err)
	}
	if e == nil || e.DeletedAt != nil {
		return nil, fmt.Errorf("equipment %d: %w", id, model.ErrNotFound)
	}
	return e, nil
}

// ListEquipment returns live equipment matching f.
func (m *Manager) ListEquipment(ctx context.Context, f repository.EquipmentFilter) ([]model.Equipment, error) {
	list, err := m.store.ListEquipment(ctx, f)
	if err != nil {
		return nil, persistence("listing equipment", err)
	}
	return list, nil
}

// UpdateEquipment replaces the descriptive fields and total quantity of the
// equipment with ID e.ID. Units currently rented out stay reserved, so the
// new total may not drop below them.
func (m *Manager) UpdateEquipment(ctx context.Context, e *model.Equipment) (*model.Equipment, error) {
	unlock := m.locks.Lock(e.ID)
	defer unlock()

	var updated *model.Equipment
	err := m.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.GetEquipment(ctx, e.ID)
		if err != nil {
			return persistence("loading equipment", err)
		}
		if current == nil || current.DeletedAt != nil {
			return fmt.Errorf("equipment %d: %w", e.ID, model.ErrNotFound)
		}

		current.Name = e.Name
		current.Category = e.Category
		current.Description = e.Description
		current.Price = e.Price
		current.AdditionalDayPrice = e.AdditionalDayPrice
		current.Deposit = e.Deposit
		if err := current.SetQuantity(e.Quantity); err != nil {
			return err
		}
		if err := current.Validate(); err != nil {
			return err
		}

		current.UpdatedAt = m.now()
		if err := storeWrite("updating equipment", tx.UpdateEquipment(ctx, current)); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, classify("updating equipment", err)
	}
	return updated, nil
}

// DeleteEquipment soft-deletes equipment that has no active rentals.
func (m *Manager) DeleteEquipment(ctx context.Context, id int64) error {
	unlock := m.locks.Lock(id)
	defer unlock()

	err := m.store.WithTx(ctx, func(tx repository.Store) error {
		e, err := tx.GetEquipment(ctx, id)
		if err != nil {
			return persistence("loading equipment", err)
		}
		if e == nil || e.DeletedAt != nil {
			return fmt.Errorf("equipment %d: %w", id, model.ErrNotFound)
		}

		active, err := tx.ActiveRentalsForEquipment(ctx, id)
		if err != nil {
			return persistence("loading active rentals", err)
		}
		if len(active) > 0 {
			return model.Invalid("equipment %d has %d active rentals", id, len(active))
		}

		if err := tx.DeleteEquipment(ctx, id); err != nil {
			return persistence("deleting equipment", err)
		}
		return nil
	})
	return classify("deleting equipment", err)
}

// SetEquipmentImage normalises the uploaded photo and stores it.
func (m *Manager) SetEquipmentImage(ctx context.Context, id int64, r io.Reader) error {
	if _, err := m.GetEquipment(ctx, id); err != nil {
		return err
	}

	photo, err := imaging.Process(r)
	if err != nil {
		return model.Invalid("%v", err)
	}
	if err := m.store.SetEquipmentImage(ctx, id, photo.Data, photo.MIME); err != nil {
		return persistence("storing equipment image", err)
	}
	return nil
}

// EquipmentImage returns the stored photo of the equipment.
func (m *Manager) EquipmentImage(ctx context.Context, id int64) (io.Reader, string, error) {
	data, mime, err := m.store.GetEquipmentImage(ctx, id)
	if err != nil {
		return nil, "", persistence("loading equipment image", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image of equipment %d: %w", id, model.ErrNotFound)
	}
	return bytes.NewReader(data), mime, nil
}

// AddCustomer stores a new customer.
func (m *Manager) AddCustomer(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	c.ID = 0
	if err := c.Validate(); err != nil {
		return nil, err
	}

	now := m.now()
	c.CreatedAt, c.UpdatedAt = now, now
	if err := m.store.CreateCustomer(ctx, c); err != nil {
		return nil, persistence("creating customer", err)
	}
	return c, nil
}

// GetCustomer returns a live customer or an error wrapping model.ErrNotFound.
func (m *Manager) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	c, err := m.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, persistence("loading customer", err)
	}
	if c == nil || c.DeletedAt != nil {
		return nil, fmt.Errorf("customer %d: %w", id, model.ErrNotFound)
	}
	return c, nil
}

// ListCustomers returns live customers matching query.
func (m *Manager) ListCustomers(ctx context.Context, query string) ([]model.Customer, error) {
	list, err := m.store.ListCustomers(ctx, query)
	if err != nil {
		return nil, persistence("listing customers", err)
	}
	return list, nil
}

// UpdateCustomer replaces the fields of the customer with ID c.ID.
func (m *Manager) UpdateCustomer(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	err := m.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.GetCustomer(ctx, c.ID)
		if err != nil {
			return persistence("loading customer", err)
		}
		if current == nil || current.DeletedAt != nil {
			return fmt.Errorf("customer %d: %w", c.ID, model.ErrNotFound)
		}
		if err := c.Validate(); err != nil {
			return err
		}

		c.CreatedAt = current.CreatedAt
		c.UpdatedAt = m.now()
		return storeWrite("updating customer", tx.UpdateCustomer(ctx, c))
	})
	if err != nil {
		return nil, classify("updating customer", err)
	}
	return c, nil
}

// DeleteCustomer soft-deletes a customer who has no active rentals.
func (m *Manager) DeleteCustomer(ctx context.Context, id int64) error {
	err := m.store.WithTx(ctx, func(tx repository.Store) error {
		c, err := tx.GetCustomer(ctx, id)
		if err != nil {
			return persistence("loading customer", err)
		}
		if c == nil || c.DeletedAt != nil {
			return fmt.Errorf("customer %d: %w", id, model.ErrNotFound)
		}

		active, err := tx.ListRentals(ctx, repository.RentalFilter{Status: model.RentalActive, CustomerID: id})
		if err != nil {
			return persistence("loading active rentals", err)
		}
		if len(active) > 0 {
			return model.Invalid("customer %d has %d active rentals", id, len(active))
		}

		if err := tx.DeleteCustomer(ctx, id); err != nil {
			return persistence("deleting customer", err)
		}
		return nil
	})
	return classify("deleting customer", err)
}
