package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/izposoja/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

type errorBody struct {
	Error     string   `json:"error"`
	Problems  []string `json:"problems,omitempty"`
	Free      *int     `json:"free,omitempty"`
	Conflicts []int64  `json:"conflicts,omitempty"`
	Status    string   `json:"status,omitempty"`
}

// writeError maps a rental-domain error onto an HTTP status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *model.ValidationError
		aerr *model.AvailabilityError
		serr *model.InvalidStateError
		perr *model.PersistenceError
	)

	switch {
	case errors.As(err, &verr):
		jsonResponse(w, http.StatusBadRequest, errorBody{Error: verr.Error(), Problems: verr.Problems})
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &aerr):
		free := aerr.Free
		jsonResponse(w, http.StatusConflict, errorBody{Error: aerr.Error(), Free: &free, Conflicts: aerr.Conflicts})
	case errors.As(err, &serr):
		jsonResponse(w, http.StatusConflict, errorBody{Error: serr.Error(), Status: serr.Status})
	case errors.As(err, &perr):
		slog.Error("storage failure", "op", perr.Op, "error", perr.Err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "internal error")
	default:
		slog.Error("unhandled error", "error", err, "path", r.URL.Path, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// pathID parses the {id} path segment, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, what string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid "+what+" id")
		return 0, false
	}
	return id, true
}

// parseTime accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC
// midnight).
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, model.Invalid("invalid time %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

// queryTime parses an optional time query parameter.
func queryTime(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	return parseTime(v)
}

// queryInt64 parses an optional integer query parameter.
func queryInt64(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, model.Invalid("invalid %s %q", name, v)
	}
	return n, nil
}
