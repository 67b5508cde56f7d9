package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/terramar-app/terramar-backend/internal/api/auth"
	"github.com/terramar-app/terramar-backend/internal/container"
)

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(c *container.Container) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   c.Config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := auth.Authenticate(c.Logger, c.Config.Auth, c.Config.Server.DebugHeaders)
	requireAdmin := auth.RequireAdmin(c.Logger, c.ProfileService)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	// The assistant endpoints predate the versioned API and the mobile
	// clients still call them unversioned.
	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Route("/api/chat", func(r chi.Router) {
			r.Post("/", c.ChatHandler.PostChat)
			r.Delete("/", c.ChatHandler.DeleteChat)
			r.Options("/", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
			r.Get("/history", c.ChatHandler.GetChatHistory)
		})
		r.Get("/api/chats", c.ChatHandler.ListChats)
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Public routes: account entry points and the read-only catalogue.
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", c.AuthHandler.Register)
			r.Post("/auth/login", c.AuthHandler.Login)
			r.Post("/auth/refresh", c.AuthHandler.Refresh)

			r.Get("/events", c.EventHandler.ListEvents)
			r.Get("/events/{eventID}", c.EventHandler.GetEvent)
			r.Get("/guides", c.GuideHandler.ListGuides)
			r.Get("/guides/{guideID}", c.GuideHandler.GetGuide)
			r.Get("/partners", c.PartnerHandler.ListPartners)
			r.Get("/partners/{partnerID}", c.PartnerHandler.GetPartner)
			r.Get("/items", c.ItemHandler.ListItems)
			r.Get("/items/search", c.ItemHandler.SearchItems)
			r.Get("/items/{itemID}", c.ItemHandler.GetItem)
		})

		// Protected routes require a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/auth/logout", c.AuthHandler.Logout)
			r.Post("/auth/logout-all", c.AuthHandler.LogoutAll)
			r.Get("/profile", c.ProfileHandler.GetMyProfile)
			r.Put("/profile", c.ProfileHandler.UpdateMyProfile)
		})

		// Admin routes gate all catalogue writes and the dashboard.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(requireAdmin)

			r.Get("/dashboard", c.DashboardHandler.GetOverview)

			r.Post("/events", c.EventHandler.CreateEvent)
			r.Put("/events/{eventID}", c.EventHandler.UpdateEvent)
			r.Delete("/events/{eventID}", c.EventHandler.DeleteEvent)

			r.Post("/guides", c.GuideHandler.CreateGuide)
			r.Put("/guides/{guideID}", c.GuideHandler.UpdateGuide)
			r.Delete("/guides/{guideID}", c.GuideHandler.DeleteGuide)

			r.Post("/partners", c.PartnerHandler.CreatePartner)
			r.Put("/partners/{partnerID}", c.PartnerHandler.UpdatePartner)
			r.Delete("/partners/{partnerID}", c.PartnerHandler.DeletePartner)

			r.Post("/items", c.ItemHandler.CreateItem)
			r.Put("/items/{itemID}", c.ItemHandler.UpdateItem)
			r.Delete("/items/{itemID}", c.ItemHandler.DeleteItem)
		})
	})

	return r
}
