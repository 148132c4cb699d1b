package http

import (
	"net/http"

	"github.com/contrib-gateway/internal/application/admin"
	"github.com/contrib-gateway/internal/application/share"
	"github.com/contrib-gateway/internal/application/submission"
	"github.com/contrib-gateway/internal/config"
	"github.com/contrib-gateway/internal/transport/http/handler"
	appmiddleware "github.com/contrib-gateway/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RequestSize(cfg.MaxBodyBytes))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, applied to endpoints that send mail or
	// write to the repository.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	submissionSvc := submission.NewService(submission.Deps{
		Codes:                deps.Codes,
		Exchanger:            deps.Exchanger,
		Publisher:            deps.Publisher,
		Mailer:               deps.Mailer,
		Alerts:               deps.Alerts,
		Audit:                deps.Audit,
		AdminEmails:          cfg.AdminEmails,
		ContentDir:           cfg.GitHub.ContentDir,
		CodeTTL:              cfg.CodeTTL,
		RequireIdentityMatch: cfg.RequireIdentityMatch,
		MaxAttachments:       cfg.MaxAttachments,
		MaxAttachmentBytes:   cfg.MaxAttachmentBytes,
	})
	shareSvc := share.NewService(share.Deps{
		Codes:       deps.Codes,
		Stager:      deps.Stager,
		Mailer:      deps.Mailer,
		Alerts:      deps.Alerts,
		AdminEmails: cfg.AdminEmails,
		ShareDir:    cfg.ShareDir,
		LinkTTL:     cfg.ShareLinkTTL,
	})

	healthH := handler.NewHealthHandler(cfg)
	authH := handler.NewAuthHandler(submissionSvc)
	submitH := handler.NewSubmitHandler(submissionSvc)
	shareH := handler.NewShareHandler(shareSvc)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", healthH.Check)

		r.With(sensitiveRL.Limit).Post("/auth/send", authH.SendCode)
		r.With(sensitiveRL.Limit).Post("/submit", submitH.Submit)
		r.With(sensitiveRL.Limit).Post("/share", shareH.Share)
		r.Get("/share/files", shareH.List)

		// The admin surface needs signing keys; without them it stays off.
		if deps.JWTProvider != nil {
			adminSvc := admin.NewService(admin.Deps{
				Exchanger:   deps.Exchanger,
				Signer:      deps.JWTProvider,
				Audit:       deps.Audit,
				AdminEmails: cfg.AdminEmails,
			})
			adminH := handler.NewAdminHandler(adminSvc)

			r.With(sensitiveRL.Limit).Post("/admin/login", adminH.Login)
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.Auth(deps.JWTProvider))
				r.Get("/admin/submissions", adminH.Submissions)
			})
		}
	})

	return r
}
