package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/handler"
	"github.com/iliyamo/festival-reservation/internal/middleware"
	"github.com/iliyamo/festival-reservation/internal/model"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic mounts the guest browse and guest reservation
// surface. No JWT or level middleware applies here; the handlers only
// expose published festivals and the active catalog.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, t *handler.TicketHandler) {
	e.GET("/v1/festivals", p.GetFestivals)
	e.GET("/v1/festivals/:id", p.GetFestival)
	e.GET("/v1/festivals/:id/schedule", p.GetFestivalSchedule)
	e.GET("/v1/bands", p.GetBands)
	e.GET("/v1/stages", p.GetStages)
	// Guests reserve with a contact triple; the email is their
	// throttle key.
	e.POST("/v1/festivals/:id/guest-tickets", t.GuestReserve)
}

// RegisterAuth registers the session endpoints. Register, login and
// refresh live under /v1/auth and need no token; logout and me need a
// valid session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.POST("/auth/logout", a.Logout)
	auth.GET("/me", a.Me)
}

// RegisterUser mounts endpoints available to every authenticated
// account: reserving tickets, listing their own and cancelling. The
// cancel route is shared with managers; the service decides per ticket
// whether the actor is the holder or holds festival authority.
func RegisterUser(e *echo.Echo, t *handler.TicketHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireLevel(model.LevelUser),
	)
	g.POST("/festivals/:id/tickets", t.Reserve)
	g.GET("/my-tickets", t.MyTickets)
	g.POST("/tickets/:id/cancel", t.Cancel)
}

// RegisterSeller mounts the ticket management console. The level gate
// only filters obvious non-managers; real authority over a festival is
// re-checked in the service against ownership and seller assignments.
func RegisterSeller(e *echo.Echo, t *handler.TicketHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireLevel(model.LevelSeller),
	)
	g.GET("/festivals/:id/tickets", t.ListFestivalTickets)
	g.POST("/tickets/:id/approve", t.Approve)
}

// RegisterOrganizer mounts festival, catalog and scheduling management
// for organizer level and above.
func RegisterOrganizer(e *echo.Echo, f *handler.FestivalHandler, s *handler.ScheduleHandler, st *handler.StageHandler, b *handler.BandHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireLevel(model.LevelOrganizer),
	)

	// ---- Festivals ----
	g.POST("/festivals", f.Create)
	g.PUT("/festivals/:id", f.Update)
	g.POST("/festivals/:id/publish", f.Publish)
	g.POST("/festivals/:id/cancel", f.Cancel)
	g.GET("/my-festivals", f.Mine)

	// ---- Seller assignments ----
	g.POST("/festivals/:id/sellers", f.AssignSeller)
	g.GET("/festivals/:id/sellers", f.ListSellers)
	g.DELETE("/festivals/:id/sellers/:seller_id", f.RemoveSeller)

	// ---- Performances ----
	g.POST("/festivals/:id/performances", s.Schedule)
	g.GET("/festivals/:id/performances", s.ListByFestival)
	g.POST("/performances/:id/cancel", s.Cancel)

	// ---- Catalog ----
	g.POST("/stages", st.Create)
	g.PUT("/stages/:id", st.Update)
	g.POST("/bands", b.Create)
	g.DELETE("/bands/:id", b.Delete)
}

// RegisterAdmin mounts the account administration console for admin
// level and above.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireLevel(model.LevelAdmin),
	)
	g.GET("/users", a.ListUsers)
	g.POST("/users/:id/promote", a.Promote)
	g.POST("/users/:id/deactivate", a.Deactivate)
	g.POST("/users/:id/reactivate", a.Reactivate)
}
