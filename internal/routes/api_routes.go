package routes

import (
	"autobazar/listing-editor/internal/api"
	"autobazar/listing-editor/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
func RegisterAPIRoutes(r chi.Router, handlers *api.Handlers, deps *api.Dependencies) {
	r.Route("/api/v1", func(v1 chi.Router) {
		// Session management and the public catalog work signed out.
		v1.Get("/session", handlers.SessionStatus())
		v1.Post("/session", handlers.Login())
		v1.Delete("/session", handlers.Logout())
		v1.Get("/notifications", handlers.Notifications())
		v1.Get("/listings", handlers.CatalogPage())
		v1.Get("/listings/{listingID}", handlers.ListingDetail())

		v1.Group(func(signedIn chi.Router) {
			signedIn.Use(middleware.SessionRequired(deps.Session))

			signedIn.Post("/session/refresh", handlers.RefreshSession())

			signedIn.Get("/listings/mine", handlers.MyListings())
			signedIn.Get("/listings/mine/on-sale", handlers.MyListingsOnSale())
			signedIn.Get("/listings/liked", handlers.LikedListings())
			signedIn.Delete("/listings/{listingID}", handlers.DeleteListing())

			signedIn.Get("/drafts", handlers.ListDrafts())
			signedIn.Get("/submissions", handlers.RecentSubmissions())

			signedIn.Post("/editors", handlers.OpenEditor())
			signedIn.Route("/editors/{editorID}", func(ed chi.Router) {
				ed.Get("/", handlers.GetEditor())
				ed.Delete("/", handlers.CloseEditor())
				ed.Post("/resume", handlers.ResumeEditor())
				ed.Post("/refresh", handlers.RefreshEditor())
				ed.Put("/fields/{field}", handlers.SetField())
				ed.Patch("/details", handlers.UpdateDetails())
				ed.Post("/media", handlers.AddMedia())
				ed.Delete("/media/{name}", handlers.RemoveNewMedia())
				ed.Post("/media/existing/remove", handlers.RemoveExistingMedia())
				ed.Get("/options/{list}", handlers.Options())
				ed.Get("/validate", handlers.Validate())
				ed.Get("/price-advice", handlers.PriceAdvice())
				ed.Post("/autosave", handlers.Autosave())
				ed.Post("/submit", handlers.Submit())
				ed.Get("/submissions", handlers.EditorSubmissions())
			})
		})
	})
}
