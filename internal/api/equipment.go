package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/izposoja/internal/imaging"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/rental"
	"github.com/erazemk/izposoja/internal/repository"
)

// EquipmentHandler handles equipment endpoints.
type EquipmentHandler struct {
	Manager *rental.Manager
}

type equipmentView struct {
	*model.Equipment
	StockStatus string `json:"stock_status"`
	Reserved    int    `json:"reserved"`
}

func viewEquipment(e *model.Equipment) equipmentView {
	return equipmentView{Equipment: e, StockStatus: e.StockStatus(), Reserved: e.Reserved()}
}

// List handles GET /api/equipment?q=&category=.
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Manager.ListEquipment(r.Context(), repository.EquipmentFilter{
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]equipmentView, 0, len(list))
	for i := range list {
		views = append(views, viewEquipment(&list[i]))
	}
	jsonResponse(w, http.StatusOK, views)
}

// Create handles POST /api/equipment.
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var e model.Equipment
	if err := decodeJSON(r, &e); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.Manager.AddEquipment(r.Context(), &e)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("equipment created", "user", GetClaims(r.Context()).Username,
		"equipment_id", created.ID, "name", created.Name, "quantity", created.Quantity)
	jsonResponse(w, http.StatusCreated, viewEquipment(created))
}

// Get handles GET /api/equipment/{id}.
func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "equipment")
	if !ok {
		return
	}

	e, err := h.Manager.GetEquipment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, viewEquipment(e))
}

// Update handles PUT /api/equipment/{id}. The available quantity is derived
// from the new total and cannot be set directly.
func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "equipment")
	if !ok {
		return
	}

	var e model.Equipment
	if err := decodeJSON(r, &e); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e.ID = id

	updated, err := h.Manager.UpdateEquipment(r.Context(), &e)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("equipment updated", "user", GetClaims(r.Context()).Username,
		"equipment_id", id, "quantity", updated.Quantity, "available", updated.AvailableQuantity)
	jsonResponse(w, http.StatusOK, viewEquipment(updated))
}

// Delete handles DELETE /api/equipment/{id}.
func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "equipment")
	if !ok {
		return
	}

	if err := h.Manager.DeleteEquipment(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("equipment deleted", "user", GetClaims(r.Context()).Username, "equipment_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "equipment deleted"})
}

// UploadImage handles PUT /api/equipment/{id}/image. The body is a multipart
// form with an "image" file.
func (h *EquipmentHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "equipment")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	if err := h.Manager.SetEquipmentImage(r.Context(), id, file); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("equipment image uploaded", "user", GetClaims(r.Context()).Username, "equipment_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/equipment/{id}/image.
func (h *EquipmentHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "equipment")
	if !ok {
		return
	}

	img, mime, err := h.Manager.EquipmentImage(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, img); err != nil {
		slog.Warn("failed to write image", "equipment_id", id, "error", err)
	}
}

// Rentals handles GET /api/equipment/{id}/rentals.
func (h *EquipmentHandler) Rentals(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "equipment")
	if !ok {
		return
	}

	rentals, err := h.Manager.RentalsByEquipment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, rentalViews(rentals, h.Manager.Now()))
}

// Availability handles GET /api/equipment/{id}/availability?start=&end=&quantity=.
func (h *EquipmentHandler) Availability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "equipment")
	if !ok {
		return
	}

	start, err := parseTime(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := parseTime(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	qty := 1
	if v := r.URL.Query().Get("quantity"); v != "" {
		if qty, err = strconv.Atoi(v); err != nil {
			writeError(w, r, model.Invalid("invalid quantity %q", v))
			return
		}
	}

	avail, err := h.Manager.CheckAvailability(r.Context(), id, start, end, qty)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, avail)
}
