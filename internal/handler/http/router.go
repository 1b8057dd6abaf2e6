package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/telegram"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/time/rate"
)

type RouterOptions struct {
	Env            string
	Version        string
	AllowedOrigins []string

	Telegram       *telegram.Validator
	TelegramBypass bool

	// Per Telegram user limit on the employee client endpoints.
	ClientRate  rate.Limit
	ClientBurst int
}

func NewRouter(
	opts RouterOptions,
	JWTService jwt.Service,
	attendanceHandler AttendanceHandler,
	scheduleHandler ScheduleHandler,
	ratingHandler RatingHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env == "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "shiftcheck"),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Employee client (Telegram Mini App)
		r.Group(func(r chi.Router) {
			r.Use(middleware.TelegramAuth(opts.Telegram, opts.TelegramBypass))
			r.Use(middleware.RateLimitByTelegramUser(opts.ClientRate, opts.ClientBurst))

			r.Get("/employee/{telegramID}", attendanceHandler.GetEmployee)
			r.Post("/shift/start", attendanceHandler.StartShift)
			r.Post("/shift/end", attendanceHandler.EndShift)
			r.Post("/break/start", attendanceHandler.StartBreak)
			r.Post("/break/end", attendanceHandler.EndBreak)
		})

		// Manager surface, requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/companies/{companyID}", func(r chi.Router) {
				r.Use(middleware.RequireCompany)

				r.Post("/generate-shifts", scheduleHandler.GenerateShifts)
				r.Get("/shifts", scheduleHandler.ListShifts)

				r.Route("/schedule-templates", func(r chi.Router) {
					r.Get("/", scheduleHandler.ListTemplates)
					r.Post("/", scheduleHandler.CreateTemplate)
				})
				r.Post("/employees/{employeeID}/schedules", scheduleHandler.AssignSchedule)

				r.Route("/violation-rules", func(r chi.Router) {
					r.Get("/", ratingHandler.ListRules)
					r.Post("/", ratingHandler.CreateRule)
				})
			})

			r.Post("/violations", ratingHandler.CreateViolation)

			r.Route("/rating", func(r chi.Router) {
				r.Route("/employees/{employeeID}", func(r chi.Router) {
					r.Get("/", ratingHandler.GetEmployeeRating)
					r.Get("/violations", ratingHandler.ListEmployeeViolations)
					r.Post("/adjust", ratingHandler.AdjustRating)
				})
				r.Route("/companies/{companyID}", func(r chi.Router) {
					r.Use(middleware.RequireCompany)
					r.Get("/", ratingHandler.ListCompanyRatings)
					r.Get("/export", ratingHandler.ExportCompanyRatings)
				})
			})
		})
	})
	return r
}
