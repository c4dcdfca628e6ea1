package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/rental"
)

// CustomersHandler handles customer endpoints.
type CustomersHandler struct {
	Manager *rental.Manager
}

// List handles GET /api/customers?q=.
func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Manager.ListCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if customers == nil {
		customers = []model.Customer{}
	}
	jsonResponse(w, http.StatusOK, customers)
}

// Create handles POST /api/customers.
func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c model.Customer
	if err := decodeJSON(r, &c); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.Manager.AddCustomer(r.Context(), &c)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("customer created", "user", GetClaims(r.Context()).Username, "customer_id", created.ID)
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/customers/{id}.
func (h *CustomersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "customer")
	if !ok {
		return
	}

	c, err := h.Manager.GetCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// Update handles PUT /api/customers/{id}.
func (h *CustomersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "customer")
	if !ok {
		return
	}

	var c model.Customer
	if err := decodeJSON(r, &c); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.ID = id

	updated, err := h.Manager.UpdateCustomer(r.Context(), &c)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("customer updated", "user", GetClaims(r.Context()).Username, "customer_id", id)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/customers/{id}.
func (h *CustomersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "customer")
	if !ok {
		return
	}

	if err := h.Manager.DeleteCustomer(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("customer deleted", "user", GetClaims(r.Context()).Username, "customer_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "customer deleted"})
}

// Rentals handles GET /api/customers/{id}/rentals.
func (h *CustomersHandler) Rentals(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "customer")
	if !ok {
		return
	}

	rentals, err := h.Manager.RentalsByCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, rentalViews(rentals, h.Manager.Now()))
}
