package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/rental"
	"github.com/erazemk/izposoja/internal/repository"
)

// RentalsHandler handles booking endpoints.
type RentalsHandler struct {
	Manager *rental.Manager
}

// rentalView adds the derived overdue status to a rental.
type rentalView struct {
	*model.Rental
	DisplayStatus string `json:"display_status"`
	Overdue       bool   `json:"overdue"`
	Days          int    `json:"days"`
}

func viewRental(r *model.Rental, now time.Time) rentalView {
	return rentalView{Rental: r, DisplayStatus: r.DisplayStatus(now), Overdue: r.IsOverdue(now), Days: r.Days()}
}

func rentalViews(rentals []model.Rental, now time.Time) []rentalView {
	views := make([]rentalView, 0, len(rentals))
	for i := range rentals {
		views = append(views, viewRental(&rentals[i], now))
	}
	return views
}

type createRentalRequest struct {
	CustomerID  int64  `json:"customer_id"`
	EquipmentID int64  `json:"equipment_id"`
	Quantity    int    `json:"quantity"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Notes       string `json:"notes"`
}

type cancelRentalRequest struct {
	Reason string `json:"reason"`
}

var rentalStatuses = map[string]bool{
	"":                    true,
	model.RentalActive:    true,
	model.RentalOverdue:   true,
	model.RentalCompleted: true,
	model.RentalCancelled: true,
}

// List handles GET /api/rentals.
func (h *RentalsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.RentalFilter{Status: q.Get("status")}
	if !rentalStatuses[f.Status] {
		writeError(w, r, model.Invalid("unknown status %q", f.Status))
		return
	}

	var err error
	if f.CustomerID, err = queryInt64(r, "customer_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.EquipmentID, err = queryInt64(r, "equipment_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.From, err = queryTime(r, "from"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.To, err = queryTime(r, "to"); err != nil {
		writeError(w, r, err)
		return
	}

	rentals, err := h.Manager.ListRentals(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, rentalViews(rentals, h.Manager.Now()))
}

// Create handles POST /api/rentals.
func (h *RentalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRentalRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, err := parseTime(req.StartDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := parseTime(req.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	claims := GetClaims(r.Context())
	created, err := h.Manager.CreateRental(r.Context(), rental.CreateRentalRequest{
		CustomerID:  req.CustomerID,
		EquipmentID: req.EquipmentID,
		Quantity:    req.Quantity,
		Start:       start,
		End:         end,
		Notes:       req.Notes,
		CreatedBy:   &claims.UserID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("rental created", "user", claims.Username, "rental_id", created.ID,
		"equipment_id", created.EquipmentID, "quantity", created.Quantity)
	jsonResponse(w, http.StatusCreated, viewRental(created, h.Manager.Now()))
}

// Get handles GET /api/rentals/{id}.
func (h *RentalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "rental")
	if !ok {
		return
	}

	rent, err := h.Manager.GetRental(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, viewRental(rent, h.Manager.Now()))
}

// Complete handles POST /api/rentals/{id}/complete.
func (h *RentalsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "rental")
	if !ok {
		return
	}

	var c model.Completion
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &c); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	rent, err := h.Manager.CompleteRental(r.Context(), id, c)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("rental completed", "user", GetClaims(r.Context()).Username, "rental_id", id,
		"final_price", rent.FinalPrice.StringFixed(2))
	jsonResponse(w, http.StatusOK, viewRental(rent, h.Manager.Now()))
}

// Cancel handles POST /api/rentals/{id}/cancel.
func (h *RentalsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "rental")
	if !ok {
		return
	}

	var req cancelRentalRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	rent, err := h.Manager.CancelRental(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("rental cancelled", "user", GetClaims(r.Context()).Username, "rental_id", id)
	jsonResponse(w, http.StatusOK, viewRental(rent, h.Manager.Now()))
}
