package api

import (
	"net/http"
	"time"

	"github.com/erazemk/izposoja/internal/rental"
)

// ReportsHandler handles reporting endpoints.
type ReportsHandler struct {
	Manager *rental.Manager
}

// Summary handles GET /api/reports/summary?from=&to=. A plain date as "to"
// covers that whole day.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, err := parseTime(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	toParam := r.URL.Query().Get("to")
	to, err := parseTime(toParam)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(toParam) == len(time.DateOnly) {
		to = to.Add(24*time.Hour - time.Second)
	}

	report, err := h.Manager.Report(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, report)
}
