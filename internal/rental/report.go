package rental

import (
	"context"
	"time"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/repository"
)

// Report summarises revenue, deposits and usage of rentals starting within
// [from, to]. Cancelled rentals are left out.
func (m *Manager) Report(ctx context.Context, from, to time.Time) (*model.Report, error) {
	from, to = db.Timestamp(from), db.Timestamp(to)
	if from.IsZero() || to.IsZero() {
		return nil, model.Invalid("report period needs both from and to")
	}
	if to.Before(from) {
		return nil, model.Invalid("report period ends before it starts")
	}

	rentals, err := m.ListRentals(ctx, repository.RentalFilter{StartFrom: from, StartTo: to})
	if err != nil {
		return nil, err
	}

	rp := model.NewReport(from, to)
	for i := range rentals {
		rp.Add(&rentals[i])
	}
	return rp, nil
}
