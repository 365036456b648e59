package api

import (
	"database/sql"
	"net/http"

	"github.com/inventario-ti/inventario/internal/auth"
	"github.com/inventario-ti/inventario/internal/events"
	"github.com/inventario-ti/inventario/internal/policy"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, tokens *auth.Issuer, publisher events.Publisher) http.Handler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, Tokens: tokens}
	inventoryHandler := &InventoryHandler{DB: db}
	usersHandler := &UsersHandler{DB: db}
	historyHandler := &HistoryHandler{DB: db, Events: publisher}
	consumablesHandler := &ConsumablesHandler{DB: db}
	catalogHandler := &CatalogHandler{DB: db}

	authMW := AuthMiddleware(db, tokens)
	authed := func(h http.HandlerFunc) http.Handler {
		return authMW(h)
	}
	requiring := func(capability policy.Capability, h http.HandlerFunc) http.Handler {
		return authMW(RequireCapability(capability)(h))
	}

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("GET /api/health", Health(db))

	// Session.
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("GET /api/auth/profile", authed(authHandler.Profile))
	mux.Handle("POST /api/auth/branch", authed(authHandler.SwitchBranch))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))

	// Aggregate ledger.
	mux.Handle("GET /api/inventory", authed(inventoryHandler.List))
	mux.Handle("GET /api/inventory/{tipo}/{id}", authed(inventoryHandler.Get))

	// Assets: read (branch-scoped), write (admin).
	for _, kind := range assetKinds {
		h := &AssetsHandler{DB: db, Events: publisher, Kind: kind}
		base := "/api/" + kind.Path
		mux.Handle("GET "+base, authed(h.List))
		mux.Handle("POST "+base, requiring(policy.ManageAssets, h.Create))
		mux.Handle("GET "+base+"/{id}", authed(h.Get))
		mux.Handle("PUT "+base+"/{id}", requiring(policy.ManageAssets, h.Update))
		mux.Handle("DELETE "+base+"/{id}", requiring(policy.ManageAssets, h.Delete))
		mux.Handle("PUT "+base+"/{id}/photo", requiring(policy.ManageAssets, h.UploadPhoto))
		mux.Handle("GET "+base+"/{id}/photo", authed(h.GetPhoto))
		mux.Handle("GET "+base+"/{id}/history", authed(h.History))
	}

	// Consumables.
	mux.Handle("GET /api/consumables", authed(consumablesHandler.List))
	mux.Handle("POST /api/consumables", requiring(policy.ManageConsumables, consumablesHandler.Create))
	mux.Handle("GET /api/consumables/{id}", authed(consumablesHandler.Get))
	mux.Handle("PUT /api/consumables/{id}", requiring(policy.ManageConsumables, consumablesHandler.Update))
	mux.Handle("DELETE /api/consumables/{id}", requiring(policy.ManageConsumables, consumablesHandler.Delete))

	// Users: list, create and delete are admin-only; get and update check
	// self-or-admin in the handler.
	mux.Handle("GET /api/users", requiring(policy.ManageUsers, usersHandler.List))
	mux.Handle("POST /api/users", requiring(policy.ManageUsers, usersHandler.Create))
	mux.Handle("GET /api/users/{id}", authed(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", authed(usersHandler.Update))
	mux.Handle("DELETE /api/users/{id}", requiring(policy.ManageUsers, usersHandler.Delete))

	// History: append-only.
	mux.Handle("GET /api/history", authed(historyHandler.List))
	mux.Handle("POST /api/history", requiring(policy.RecordHistory, historyHandler.Create))
	mux.Handle("GET /api/history/{id}", authed(historyHandler.Get))

	// Catalog.
	mux.Handle("GET /api/roles", authed(catalogHandler.Roles))
	mux.Handle("GET /api/branches", authed(catalogHandler.Branches))
	mux.Handle("POST /api/branches", requiring(policy.ManageCatalog, catalogHandler.CreateBranch))
	mux.Handle("GET /api/areas", authed(catalogHandler.Areas))
	mux.Handle("POST /api/areas", requiring(policy.ManageCatalog, catalogHandler.CreateArea))

	return RecoveryMiddleware(LoggingMiddleware(mux))
}
