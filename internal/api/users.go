package api

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

// UsersHandler manages desk operator accounts. All routes are admin only.
type UsersHandler struct {
	DB *sql.DB
}

type userRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// hashPassword checks the password policy and returns the bcrypt hash.
func hashPassword(password string) (string, error) {
	if err := model.ValidatePassword(password); err != nil {
		return "", model.Invalid("%s", err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// activeUser loads a user that has not been deleted.
func (h *UsersHandler) activeUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := store.GetUser(ctx, h.DB, id)
	if err != nil {
		return nil, &model.PersistenceError{Op: "get user", Err: err}
	}
	if user == nil || user.DeletedAt != nil {
		return nil, fmt.Errorf("user %d: %w", id, model.ErrNotFound)
	}
	return user, nil
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, &model.PersistenceError{Op: "list users", Err: err})
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || !model.ValidRole(req.Role) {
		writeError(w, r, model.Invalid("username and a valid role are required"))
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	existing, err := store.GetUserByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		writeError(w, r, &model.PersistenceError{Op: "look up user", Err: err})
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, "username already exists")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, hash, req.Role)
	if err != nil {
		writeError(w, r, &model.PersistenceError{Op: "create user", Err: err})
		return
	}

	slog.Info("operator account created",
		"by", GetClaims(r.Context()).Username, "username", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}
	user, err := h.activeUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}. Only the role can change; admins
// cannot demote themselves.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidRole(req.Role) {
		writeError(w, r, model.Invalid("role must be admin, manager or user"))
		return
	}

	claims := GetClaims(r.Context())
	if claims.UserID == id && req.Role != model.RoleAdmin {
		writeError(w, r, model.Invalid("cannot change your own role"))
		return
	}

	user, err := h.activeUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.UpdateUserRole(r.Context(), h.DB, id, req.Role); err != nil {
		writeError(w, r, &model.PersistenceError{Op: "update user role", Err: err})
		return
	}
	user.Role = req.Role

	slog.Info("operator role changed", "by", claims.Username, "username", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.activeUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.UpdateUserPassword(r.Context(), h.DB, id, hash); err != nil {
		writeError(w, r, &model.PersistenceError{Op: "reset password", Err: err})
		return
	}

	slog.Info("operator password reset", "by", GetClaims(r.Context()).Username, "username", user.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// Delete handles DELETE /api/users/{id}. Rentals keep the id of the operator
// who created them.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	if claims.UserID == id {
		writeError(w, r, model.Invalid("cannot delete yourself"))
		return
	}

	user, err := h.activeUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		writeError(w, r, &model.PersistenceError{Op: "delete user", Err: err})
		return
	}

	slog.Info("operator account deleted", "by", claims.Username, "username", user.Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
