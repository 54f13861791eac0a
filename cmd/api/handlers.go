package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/xavierca1/realty-crm/internal/entity"
	"github.com/xavierca1/realty-crm/internal/infra/http/handlers"
	"github.com/xavierca1/realty-crm/internal/infra/http/middleware"
	"github.com/xavierca1/realty-crm/internal/usecase"
)

type useCases struct {
	Auth      *usecase.AuthUseCase
	Users     *usecase.UserUseCase
	Leads     *usecase.LeadUseCase
	Calls     *usecase.CallUseCase
	Viewings  *usecase.ViewingUseCase
	Sales     *usecase.SaleUseCase
	Emails    *usecase.EmailUseCase
	Templates *usecase.TemplateUseCase
	Dashboard *usecase.DashboardUseCase
}

type routerDeps struct {
	Log         zerolog.Logger
	Tokens      middleware.TokenVerifier
	UseCases    useCases
	Health      *handlers.HealthHandler
	CORSOrigins []string
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Handle("/metrics", promhttp.Handler())

	uc := d.UseCases
	authH := handlers.NewAuthHandler(uc.Auth)
	dashH := handlers.NewDashboardHandler(uc.Dashboard)
	emailH := handlers.NewEmailActionHandler(uc.Emails)
	exportH := handlers.NewExportHandler(uc.Leads)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", d.Health.Root)
		r.Get("/health", d.Health.Handle)

		r.Route("/auth", func(r chi.Router) {
			r.With(httprate.LimitByIP(10, time.Minute)).Post("/login", authH.Login)
			r.Post("/logout", authH.Logout)
			r.With(middleware.Authenticate(d.Tokens), middleware.RequireAuth).Get("/me", authH.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(d.Tokens))
			r.Use(middleware.RequireAuth)

			r.Route("/leads", func(r chi.Router) {
				r.Get("/export", exportH.Leads)
				handlers.NewResourceHandler[entity.Lead, usecase.LeadInput, usecase.LeadPatch](uc.Leads, "lead", "leads").Routes(r)
			})
			r.Route("/calls", handlers.NewResourceHandler[entity.Call, usecase.CallInput, usecase.CallPatch](uc.Calls, "call", "calls").Routes)
			r.Route("/viewings", handlers.NewResourceHandler[entity.Viewing, usecase.ViewingInput, usecase.ViewingPatch](uc.Viewings, "viewing", "viewings").Routes)
			r.Route("/sales", handlers.NewResourceHandler[entity.Sale, usecase.SaleInput, usecase.SalePatch](uc.Sales, "sale", "sales").Routes)
			r.Route("/emails", func(r chi.Router) {
				r.Route("/templates", func(r chi.Router) {
					th := handlers.NewResourceHandler[entity.EmailTemplate, usecase.TemplateInput, usecase.TemplatePatch](uc.Templates, "template", "templates")
					r.Get("/", th.List)
					r.Get("/{id}", th.Get)
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireAdmin)
						r.Post("/", th.Create)
						r.Put("/{id}", th.Update)
						r.Delete("/{id}", th.Delete)
					})
				})
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRoles(entity.RoleAdmin, entity.RoleAgent))
					r.Post("/send-template", emailH.SendTemplate)
					r.Post("/triggers/new-lead", emailH.TriggerNewLead)
					r.Post("/triggers/viewing-reminder", emailH.TriggerViewingReminder)
				})
				handlers.NewResourceHandler[entity.Email, usecase.EmailInput, usecase.EmailPatch](uc.Emails, "email", "emails").Routes(r)
			})
			r.Route("/users", func(r chi.Router) {
				uh := handlers.NewResourceHandler[entity.User, usecase.UserInput, usecase.UserPatch](uc.Users, "user", "users")
				r.With(middleware.RequireAdmin).Get("/", uh.List)
				r.With(middleware.RequireAdmin).Post("/", uh.Create)
				// Non-admins may read and edit their own account.
				r.Get("/{id}", uh.Get)
				r.Put("/{id}", uh.Update)
				r.Delete("/{id}", uh.Delete)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/stats", dashH.Stats)
				r.Get("/charts", dashH.Charts)
			})
		})
	})

	return r
}
