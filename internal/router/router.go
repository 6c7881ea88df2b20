package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/ricardoazt/kennel-gestor-sub001/internal/handler" // import the handlers that implement business logic
)

// API bundles the handlers wired into the route table.  The router
// itself carries no business logic; it only maps paths to handlers.
type API struct {
	Animals      *handler.AnimalHandler
	Clients      *handler.ClientHandler
	Litters      *handler.LitterHandler
	Puppies      *handler.PuppyHandler
	Reservations *handler.ReservationHandler
}

// RegisterRoutes registers the health check and the full /v1 API on
// the provided Echo instance.  Middleware applied to the Echo instance
// before this call (rate limiting, logging) covers every route here.
// The lineageCache middleware wraps only the ancestors route, the one
// read expensive enough to be worth a response cache.
func RegisterRoutes(e *echo.Echo, api *API, lineageCache echo.MiddlewareFunc) {
	// The health endpoint lives outside /v1 so load balancers and
	// monitoring systems can probe it without versioned paths.
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")

	// Breeding animal registry and lineage.
	v1.POST("/animals", api.Animals.Create)
	v1.GET("/animals/:id", api.Animals.Get)
	if lineageCache != nil {
		v1.GET("/animals/:id/ancestors", api.Animals.Ancestors, lineageCache)
	} else {
		v1.GET("/animals/:id/ancestors", api.Animals.Ancestors)
	}

	// Customer registry.
	v1.POST("/clients", api.Clients.Create)
	v1.GET("/clients/:id", api.Clients.Get)

	// Litters own the availability ledger; the overbooking endpoint is
	// the diagnostic reconciliation of reservations against capacity.
	v1.POST("/litters", api.Litters.Create)
	v1.GET("/litters", api.Litters.List)
	v1.GET("/litters/:id", api.Litters.Get)
	v1.GET("/litters/:id/puppies", api.Litters.Puppies)
	v1.GET("/litters/:id/overbooking", api.Litters.Overbooking)

	// Individual puppies born in a litter.
	v1.POST("/puppies", api.Puppies.Create)
	v1.GET("/puppies/:id", api.Puppies.Get)

	// Reservation lifecycle.  The expiring and expired routes are
	// registered before /:id so Echo does not capture the literal
	// segments as identifiers.
	v1.GET("/reservations/expiring", api.Reservations.Expiring)
	v1.POST("/reservations/expired/cancel", api.Reservations.CancelExpired)
	v1.GET("/reservations/litter/:litterId/availability", api.Reservations.Availability)
	v1.POST("/reservations", api.Reservations.Create)
	v1.GET("/reservations", api.Reservations.List)
	v1.GET("/reservations/:id", api.Reservations.Get)
	v1.PUT("/reservations/:id", api.Reservations.Update)
	v1.PUT("/reservations/:id/status", api.Reservations.UpdateStatus)
	v1.DELETE("/reservations/:id", api.Reservations.Delete)
	v1.PUT("/reservations/:id/preferences", api.Reservations.SetPreferences)
	v1.POST("/reservations/:id/documents", api.Reservations.AddDocument)
	v1.GET("/reservations/:id/documents", api.Reservations.ListDocuments)
}
