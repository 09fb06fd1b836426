package campaigns

import (
	"net/http"

	"github.com/FieldScope/FS-Backend/internal/auth"
	"github.com/FieldScope/FS-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}

	// Submissions are the only write path contributors have; keep it
	// bucketed per user.
	submitLimiter := middleware.NewRateLimiter(6, 3)

	// Public routes - browsing campaigns needs no account
	r.Get("/", ListCampaigns)
	r.Get("/{campaign_id}", GetCampaign)
	r.Get("/areas/{area_id}", GetArea)
	r.Get("/pois/{poi_id}", GetPOI)
	r.Get("/tasks/{task_id}", GetTask)

	// Contributor routes - require a session
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))

		r.Post("/{campaign_id}/join", JoinCampaign)
		r.Get("/tasks/{task_id}/responses/mine", MyTaskResponses)

		r.Group(func(r chi.Router) {
			r.Use(submitLimiter.Middleware)
			r.Post("/tasks/{task_id}/response", SubmitResponse)
		})
	})

	// Admin routes - require authentication + admin role
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Use(middleware.AdminMiddleware(sessionFetcher))

		r.Get("/campaigns", AdminListCampaigns)
		r.Post("/campaigns", CreateCampaign)
		r.Get("/campaigns/{campaign_id}", AdminGetCampaign)
		r.Put("/campaigns/{campaign_id}", UpdateCampaign)
		r.Delete("/campaigns/{campaign_id}", DeleteCampaign)

		r.Get("/areas", AdminListAreas)
		r.Post("/areas", CreateArea)
		r.Get("/areas/{area_id}", AdminGetArea)
		r.Put("/areas/{area_id}", UpdateArea)
		r.Delete("/areas/{area_id}", DeleteArea)

		r.Get("/pois", AdminListPOIs)
		r.Post("/pois", CreatePOI)
		r.Get("/pois/{poi_id}", AdminGetPOI)
		r.Put("/pois/{poi_id}", UpdatePOI)
		r.Delete("/pois/{poi_id}", DeletePOI)

		r.Get("/tasks", AdminListTasks)
		r.Post("/tasks", CreateTask)
		r.Get("/tasks/{task_id}", AdminGetTask)
		r.Put("/tasks/{task_id}", UpdateTask)
		r.Delete("/tasks/{task_id}", DeleteTask)
		r.Get("/tasks/{task_id}/responses", AdminListTaskResponses)

		r.Get("/stats", AdminStats)
	})

	return r
}
