package http

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/obraplan/payroll-backend-go/internal/handler/http/middleware"
	"github.com/obraplan/payroll-backend-go/internal/pkg/jwt"
)

type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(
	opts RouterOptions,
	JWTService jwt.Service,
	payrollHandler PayrollHandler,
	payrollConfigHandler PayrollConfigHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	if opts.Logger != nil {
		r.Use(httplog.RequestLogger(opts.Logger, &httplog.Options{
			Level:  slog.LevelDebug,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))
	if opts.RequestTimeout > 0 {
		r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/payroll", func(r chi.Router) {
				r.Get("/config", payrollConfigHandler.ListConfig)
				r.Get("/afp-rates", payrollConfigHandler.ListAfpRates)

				// Configuration is edited by admins and HR only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleHR))
					r.Put("/config/{key}", payrollConfigHandler.UpdateConfig)
					r.Put("/afp-rates/{provider}", payrollConfigHandler.UpsertAfpRate)
				})

				r.Route("/{regime}", func(r chi.Router) {
					r.Get("/runs", payrollHandler.ComputeRun)
					r.Get("/export", payrollHandler.Export)

					r.Route("/persons/{personId}", func(r chi.Router) {
						r.Get("/payslip", payrollHandler.GetPayslip)
						r.Get("/adjustment", payrollHandler.GetAdjustment)

						r.Group(func(r chi.Router) {
							r.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleHR))
							r.Put("/adjustment", payrollHandler.SaveAdjustment)
							r.Delete("/adjustment", payrollHandler.DeleteAdjustment)
						})
					})
				})
			})
		})
	})
	return r
}
