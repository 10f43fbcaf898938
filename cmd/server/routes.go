package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leadflow/ingest-server/internal/config"
	"github.com/leadflow/ingest-server/internal/handler"
	"github.com/leadflow/ingest-server/internal/middleware"
)

type routes struct {
	tracking *handler.TrackingHandler
	webhook  *handler.WebhookHandler
	contacts *handler.ContactHandler
	audience *handler.AudienceHandler
	leads    *handler.LeadsHandler
	health   *handler.HealthHandler

	operatorAuth      *middleware.OperatorAuthMiddleware
	gatewaySignature  *middleware.GatewaySignatureMiddleware
	trackingRateLimit *middleware.IPRateLimitMiddleware
	securityHeaders   *middleware.SecurityHeadersMiddleware

	importMaxBytes int64
}

func newRouter(rt routes) http.Handler {
	bodyLimit := middleware.NewBodyLimitMiddleware(0)
	webhookBodyLimit := middleware.NewWebhookBodyLimitMiddleware(0)
	importBodyLimit := middleware.NewBodyLimitMiddleware(rt.importMaxBytes)
	timeout := chimiddleware.Timeout(config.ServerRequestTimeout)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.securityHeaders.Handler)

	r.Get("/health", rt.health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(timeout)
			r.Use(bodyLimit.Handler)

			r.Route("/tracking", func(r chi.Router) {
				r.With(rt.trackingRateLimit.Handler).Post("/events", rt.tracking.RecordEvent)
				r.With(rt.operatorAuth.Handler).Get("/events", rt.tracking.ListEvents)
				r.With(rt.operatorAuth.Handler).Get("/summary", rt.tracking.Summary)
			})

			r.With(rt.operatorAuth.Handler).Post("/campaigns/{campaignID}/audience", rt.audience.Assign)
			r.With(rt.operatorAuth.Handler).Get("/leads", rt.leads.List)
		})

		// The gateway gets 200 for every delivery, oversized ones included.
		r.Route("/webhook/whatsapp", func(r chi.Router) {
			r.Use(timeout)
			r.Get("/", rt.webhook.Health)
			r.With(webhookBodyLimit.Handler, rt.gatewaySignature.Handler).Post("/", rt.webhook.Receive)
		})

		r.With(
			rt.operatorAuth.Handler,
			importBodyLimit.Handler,
			timeout,
		).Post("/contacts/import", rt.contacts.Import)

		// No request timeout: the stream lives until the client disconnects.
		r.With(rt.operatorAuth.Handler).Get("/leads/stream", rt.leads.Stream)
	})

	return r
}
