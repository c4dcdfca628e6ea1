package rental

import (
	"slices"
	"time"

	"github.com/erazemk/izposoja/internal/model"
)

// Availability is the outcome of checking whether a quantity of equipment
// can be booked for a period.
type Availability struct {
	EquipmentID int64 `json:"equipment_id"`
	Requested   int   `json:"requested"`
	Available   bool  `json:"available"`

	// Free is the largest quantity that could be booked for the period.
	Free int `json:"free"`

	// Consumed is the quantity held by active rentals overlapping the period.
	Consumed int `json:"consumed"`

	// Conflicts lists the IDs of those rentals.
	Conflicts []int64 `json:"conflicts,omitempty"`
}

// CheckAvailability decides whether qty units of eq can be booked for
// [start, end), given the rentals known for eq. Only active rentals of eq
// count. It does not modify its arguments.
func CheckAvailability(eq *model.Equipment, rentals []model.Rental, start, end time.Time, qty int) Availability {
	candidates := make([]*model.Rental, 0, len(rentals))
	for i := range rentals {
		r := &rentals[i]
		if r.EquipmentID == eq.ID && r.IsActive() {
			candidates = append(candidates, r)
		}
	}
	slices.SortFunc(candidates, func(a, b *model.Rental) int {
		return a.StartDate.Compare(b.StartDate)
	})

	a := Availability{EquipmentID: eq.ID, Requested: qty}
	for _, r := range candidates {
		if !r.StartDate.Before(end) {
			break
		}
		if r.Overlaps(start, end) {
			a.Consumed += r.Quantity
			a.Conflicts = append(a.Conflicts, r.ID)
		}
	}

	a.Free = max(min(eq.AvailableQuantity, eq.Quantity-a.Consumed), 0)
	a.Available = eq.CanRent(qty) && eq.Quantity-a.Consumed >= qty
	return a
}
