package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/upsurge/campaign-lab/internal/domain/activity"
	"github.com/upsurge/campaign-lab/internal/domain/campaign"
	"github.com/upsurge/campaign-lab/internal/domain/notification"
	"github.com/upsurge/campaign-lab/internal/domain/optimizer"
	"github.com/upsurge/campaign-lab/internal/domain/variant"
	"github.com/upsurge/campaign-lab/internal/middleware"
	"github.com/upsurge/campaign-lab/internal/pkg/metrics"
	pkgresponse "github.com/upsurge/campaign-lab/internal/pkg/response"
)

// Router builds the HTTP router
func (a *App) Router() http.Handler {
	campaignHandler := campaign.NewHandler(a.Campaigns)
	variantHandler := variant.NewHandler(a.Variants)
	optimizerHandler := optimizer.NewHandler(a.Optimizer)
	notificationHandler := notification.NewHandler(a.Notifications)
	activityHandler := activity.NewHandler(a.Activity)

	authMiddleware := middleware.Auth(a.JWT)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(a.Config.AllowedOrigins))
	r.Use(metrics.HTTPMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"service": "campaign-lab",
		})
	})
	r.Handle("/metrics", a.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/campaigns", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", campaignHandler.Create)
			r.Get("/", campaignHandler.List)

			r.Route("/{campaignID}", func(r chi.Router) {
				campaignHandler.CampaignRoutes(r)
				variantHandler.CampaignRoutes(r)
				optimizerHandler.CampaignRoutes(r)
			})
		})

		r.Mount("/variants", variantHandler.Routes(authMiddleware))
		r.Mount("/notifications", notificationHandler.Routes(authMiddleware))
		r.Mount("/activity", activityHandler.Routes(authMiddleware))
	})

	return r
}
