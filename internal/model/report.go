package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Report summarises rentals that started within a period.
type Report struct {
	From              time.Time                  `json:"from"`
	To                time.Time                  `json:"to"`
	RentalCount       int                        `json:"rental_count"`
	TotalRevenue      decimal.Decimal            `json:"total_revenue"`
	TotalDeposits     decimal.Decimal            `json:"total_deposits"`
	UsageByCategory   map[string]int             `json:"usage_by_category"`
	RevenueByCustomer map[string]decimal.Decimal `json:"revenue_by_customer"` // keyed by CustomerKey
}

// CustomerKey labels a customer in RevenueByCustomer as "<id> <name>", so
// customers sharing a name stay apart.
func CustomerKey(id int64, name string) string {
	return fmt.Sprintf("%d %s", id, name)
}

// NewReport returns an empty report for the period.
func NewReport(from, to time.Time) *Report {
	return &Report{
		From:              from,
		To:                to,
		UsageByCategory:   map[string]int{},
		RevenueByCustomer: map[string]decimal.Decimal{},
	}
}

// Add accounts for one rental. Cancelled rentals earn nothing and are skipped.
func (rp *Report) Add(r *Rental) {
	if r.Status == RentalCancelled {
		return
	}
	revenue := r.TotalPrice
	if r.Status == RentalCompleted {
		revenue = r.FinalPrice
	}
	rp.RentalCount++
	rp.TotalRevenue = rp.TotalRevenue.Add(revenue)
	rp.TotalDeposits = rp.TotalDeposits.Add(r.Deposit)
	rp.UsageByCategory[r.EquipmentCategory] += r.Quantity
	key := CustomerKey(r.CustomerID, r.CustomerName)
	rp.RevenueByCustomer[key] = rp.RevenueByCustomer[key].Add(revenue)
}
