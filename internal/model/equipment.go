package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Equipment is a rentable equipment type tracked by quantity.
// AvailableQuantity is the number of units not held by active rentals.
type Equipment struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	Description        string          `json:"description,omitempty"`
	Price              decimal.Decimal `json:"price"`
	AdditionalDayPrice decimal.Decimal `json:"additional_day_price"`
	Deposit            decimal.Decimal `json:"deposit"`
	Quantity           int             `json:"quantity"`
	AvailableQuantity  int             `json:"available_quantity"`
	ImageMime          string          `json:"image_mime,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeletedAt          *time.Time      `json:"deleted_at,omitempty"`
}

// Stock statuses.
const (
	StockAvailable   = "available"
	StockPartial     = "partial"
	StockUnavailable = "unavailable"
)

// CanRent reports whether q units can be taken from the current stock.
func (e *Equipment) CanRent(q int) bool {
	return q > 0 && e.AvailableQuantity >= q
}

// Reserve takes q units from stock. It does nothing and returns false when
// the units are not available.
func (e *Equipment) Reserve(q int) bool {
	if !e.CanRent(q) {
		return false
	}
	e.AvailableQuantity -= q
	return true
}

// Release returns q units to stock, never exceeding the total.
func (e *Equipment) Release(q int) {
	if q <= 0 {
		return
	}
	e.AvailableQuantity = min(e.AvailableQuantity+q, e.Quantity)
}

// Reserved is the number of units currently held by rentals.
func (e *Equipment) Reserved() int {
	return e.Quantity - e.AvailableQuantity
}

// SetQuantity changes the total while keeping the reserved units reserved.
func (e *Equipment) SetQuantity(total int) error {
	reserved := e.Reserved()
	if total <= 0 {
		return Invalid("quantity must be positive")
	}
	if total < reserved {
		return Invalid("quantity %d is below the %d units currently rented out", total, reserved)
	}
	e.Quantity = total
	e.AvailableQuantity = total - reserved
	return nil
}

// DayPrice is the price of each day after the first.
func (e *Equipment) DayPrice() decimal.Decimal {
	if e.AdditionalDayPrice.IsPositive() {
		return e.AdditionalDayPrice
	}
	return e.Price
}

// RentalPrice is the price of renting one unit for the given number of days.
func (e *Equipment) RentalPrice(days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	return e.Price.Add(e.DayPrice().Mul(decimal.NewFromInt(int64(days - 1))))
}

// DepositFor is the deposit for q units.
func (e *Equipment) DepositFor(q int) decimal.Decimal {
	return e.Deposit.Mul(decimal.NewFromInt(int64(q)))
}

// StockStatus summarises the available quantity.
func (e *Equipment) StockStatus() string {
	switch {
	case e.AvailableQuantity <= 0:
		return StockUnavailable
	case e.AvailableQuantity >= e.Quantity:
		return StockAvailable
	default:
		return StockPartial
	}
}

// Validate checks the record and reports every problem found.
func (e *Equipment) Validate() error {
	var v validation
	v.check(strings.TrimSpace(e.Name) != "", "name is required")
	v.check(strings.TrimSpace(e.Category) != "", "category is required")
	v.check(e.Price.IsPositive(), "price must be positive")
	v.check(!e.AdditionalDayPrice.IsNegative(), "additional day price must not be negative")
	v.check(!e.Deposit.IsNegative(), "deposit must not be negative")
	v.check(e.Quantity > 0, "quantity must be positive")
	v.check(e.AvailableQuantity >= 0 && e.AvailableQuantity <= e.Quantity,
		"available quantity must be between 0 and quantity")
	return v.err()
}
