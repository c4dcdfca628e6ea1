package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Rental is a booking of a quantity of one equipment type for a period.
// The period is half-open: [StartDate, EndDate).
type Rental struct {
	ID           int64           `json:"id"`
	CustomerID   int64           `json:"customer_id"`
	EquipmentID  int64           `json:"equipment_id"`
	Quantity     int             `json:"quantity"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Deposit      decimal.Decimal `json:"deposit"`
	FinalPrice   decimal.Decimal `json:"final_price"`
	DamageCost   decimal.Decimal `json:"damage_cost"`
	CleaningCost decimal.Decimal `json:"cleaning_cost"`
	FinalDeposit decimal.Decimal `json:"final_deposit"`
	Notes        string          `json:"notes,omitempty"`
	Status       string          `json:"status"`

	// ReservationApplied is true while the rental's quantity is subtracted
	// from the equipment's available stock.
	ReservationApplied bool `json:"reservation_applied"`

	CreatedBy *int64     `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`

	// Joined fields (not always populated).
	CustomerName      string `json:"customer_name,omitempty"`
	EquipmentName     string `json:"equipment_name,omitempty"`
	EquipmentCategory string `json:"equipment_category,omitempty"`
}

// Rental statuses. Overdue is derived and never stored.
const (
	RentalActive    = "active"
	RentalCompleted = "completed"
	RentalCancelled = "cancelled"
	RentalOverdue   = "overdue"
)

// Completion holds the figures recorded when equipment comes back.
type Completion struct {
	DamageCost   decimal.Decimal `json:"damage_cost"`
	CleaningCost decimal.Decimal `json:"cleaning_cost"`
	FinalDeposit decimal.Decimal `json:"final_deposit"`
	Notes        string          `json:"notes,omitempty"`
}

// RentalDays is the number of billable days between start and end: the
// difference in UTC calendar dates, at least one. Pickup and return times
// within a day do not change the count.
func RentalDays(start, end time.Time) int {
	days := int(civilDate(end).Sub(civilDate(start)) / (24 * time.Hour))
	return max(days, 1)
}

// civilDate truncates t to midnight of its UTC calendar date.
func civilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (r *Rental) IsActive() bool { return r.Status == RentalActive }

// IsOverdue reports whether an active rental is past its end date.
func (r *Rental) IsOverdue(now time.Time) bool {
	return r.IsActive() && now.After(r.EndDate)
}

// DisplayStatus is the stored status, or overdue for late active rentals.
func (r *Rental) DisplayStatus(now time.Time) string {
	if r.IsOverdue(now) {
		return RentalOverdue
	}
	return r.Status
}

// Overlaps reports whether the rental period intersects [start, end).
// Periods that only touch at an endpoint do not overlap.
func (r *Rental) Overlaps(start, end time.Time) bool {
	return r.StartDate.Before(end) && start.Before(r.EndDate)
}

func (r *Rental) Days() int { return RentalDays(r.StartDate, r.EndDate) }

// Complete closes an active rental with its final figures. It returns the
// quantity that must be released back to stock.
func (r *Rental) Complete(c Completion, now time.Time) (int, error) {
	if !r.IsActive() {
		return 0, &InvalidStateError{RentalID: r.ID, Status: r.Status, Op: "complete"}
	}
	var v validation
	v.check(!c.DamageCost.IsNegative(), "damage cost must not be negative")
	v.check(!c.CleaningCost.IsNegative(), "cleaning cost must not be negative")
	v.check(!c.FinalDeposit.IsNegative(), "final deposit must not be negative")
	if err := v.err(); err != nil {
		return 0, err
	}

	r.DamageCost = c.DamageCost
	r.CleaningCost = c.CleaningCost
	r.FinalDeposit = c.FinalDeposit
	r.FinalPrice = r.TotalPrice.Add(c.DamageCost).Add(c.CleaningCost)
	r.appendNote(c.Notes)
	return r.close(RentalCompleted, now), nil
}

// Cancel closes an active rental without charging it. It returns the
// quantity that must be released back to stock.
func (r *Rental) Cancel(reason string, now time.Time) (int, error) {
	if !r.IsActive() {
		return 0, &InvalidStateError{RentalID: r.ID, Status: r.Status, Op: "cancel"}
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		r.appendNote("Cancelled: " + reason)
	}
	return r.close(RentalCancelled, now), nil
}

func (r *Rental) close(status string, now time.Time) int {
	release := 0
	if r.ReservationApplied {
		release = r.Quantity
		r.ReservationApplied = false
	}
	r.Status = status
	r.UpdatedAt = now
	r.ClosedAt = &now
	return release
}

func (r *Rental) appendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if r.Notes == "" {
		r.Notes = note
		return
	}
	r.Notes += "\n" + note
}

// ValidateRequest checks the quantity and period of a new booking.
func ValidateRequest(quantity int, start, end time.Time) error {
	var v validation
	v.check(quantity > 0, "quantity must be positive")
	v.check(!start.IsZero() && !end.IsZero(), "start and end dates are required")
	v.check(end.After(start), "end date must be after start date")
	return v.err()
}
