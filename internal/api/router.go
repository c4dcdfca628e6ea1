package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/izposoja/internal/auth"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/rental"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, manager *rental.Manager, issuer *auth.Issuer) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, Issuer: issuer}
	usersHandler := &UsersHandler{DB: db}
	customersHandler := &CustomersHandler{Manager: manager}
	equipmentHandler := &EquipmentHandler{Manager: manager}
	rentalsHandler := &RentalsHandler{Manager: manager}
	reportsHandler := &ReportsHandler{Manager: manager}

	authMW := AuthMiddleware(issuer, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Customers: read and create (all roles), edit and delete (manager+).
	mux.Handle("GET /api/customers", authMW(http.HandlerFunc(customersHandler.List)))
	mux.Handle("POST /api/customers", authMW(http.HandlerFunc(customersHandler.Create)))
	mux.Handle("GET /api/customers/{id}", authMW(http.HandlerFunc(customersHandler.Get)))
	mux.Handle("PUT /api/customers/{id}", authMW(requireManager(http.HandlerFunc(customersHandler.Update))))
	mux.Handle("DELETE /api/customers/{id}", authMW(requireManager(http.HandlerFunc(customersHandler.Delete))))
	mux.Handle("GET /api/customers/{id}/rentals", authMW(http.HandlerFunc(customersHandler.Rentals)))

	// Equipment: read (all roles), write (manager+).
	mux.Handle("GET /api/equipment", authMW(http.HandlerFunc(equipmentHandler.List)))
	mux.Handle("POST /api/equipment", authMW(requireManager(http.HandlerFunc(equipmentHandler.Create))))
	mux.Handle("GET /api/equipment/{id}", authMW(http.HandlerFunc(equipmentHandler.Get)))
	mux.Handle("PUT /api/equipment/{id}", authMW(requireManager(http.HandlerFunc(equipmentHandler.Update))))
	mux.Handle("DELETE /api/equipment/{id}", authMW(requireManager(http.HandlerFunc(equipmentHandler.Delete))))
	mux.Handle("PUT /api/equipment/{id}/image", authMW(requireManager(http.HandlerFunc(equipmentHandler.UploadImage))))
	mux.Handle("GET /api/equipment/{id}/image", authMW(http.HandlerFunc(equipmentHandler.GetImage)))
	mux.Handle("GET /api/equipment/{id}/rentals", authMW(http.HandlerFunc(equipmentHandler.Rentals)))
	mux.Handle("GET /api/equipment/{id}/availability", authMW(http.HandlerFunc(equipmentHandler.Availability)))

	// Rentals (all roles).
	mux.Handle("GET /api/rentals", authMW(http.HandlerFunc(rentalsHandler.List)))
	mux.Handle("POST /api/rentals", authMW(http.HandlerFunc(rentalsHandler.Create)))
	mux.Handle("GET /api/rentals/{id}", authMW(http.HandlerFunc(rentalsHandler.Get)))
	mux.Handle("POST /api/rentals/{id}/complete", authMW(http.HandlerFunc(rentalsHandler.Complete)))
	mux.Handle("POST /api/rentals/{id}/cancel", authMW(http.HandlerFunc(rentalsHandler.Cancel)))

	// Reports (manager+).
	mux.Handle("GET /api/reports/summary", authMW(requireManager(http.HandlerFunc(reportsHandler.Summary))))

	return mux
}
