package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/shiftcheck-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/keylock"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/telegram"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/shiftcheck-backend-go/internal/service/attendance"
	ratingService "github.com/cmlabs-hris/shiftcheck-backend-go/internal/service/rating"
	scheduleService "github.com/cmlabs-hris/shiftcheck-backend-go/internal/service/schedule"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const version = "v1.0.0"

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.App.LogLevel),
	})).With(slog.String("app", "shiftcheck"), slog.String("env", cfg.App.Env)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DatabaseURL()
	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(dsn); err != nil {
			return err
		}
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: cfg.Database.MaxConns})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	var locker keylock.Locker = keylock.NewLocalLocker(keylock.LocalOptions{Wait: cfg.Redis.LockWait})
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		locker = keylock.NewRedisLocker(rdb, keylock.RedisOptions{Wait: cfg.Redis.LockWait})
		slog.Info("using redis attendance locks", "addr", cfg.Redis.Addr)
	}

	transactor := postgresql.NewTransactor(db)
	companyRepo := postgresql.NewCompanyRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	intervalRepo := postgresql.NewIntervalRepository(db)
	templateRepo := postgresql.NewScheduleTemplateRepository(db)
	assignmentRepo := postgresql.NewEmployeeScheduleRepository(db)
	ruleRepo := postgresql.NewViolationRuleRepository(db)
	violationRepo := postgresql.NewViolationRepository(db)
	adjustmentRepo := postgresql.NewRatingAdjustmentRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	ratingSvc := ratingService.NewRatingService(employeeRepo, companyRepo, ruleRepo, violationRepo, adjustmentRepo)
	attendanceSvc := attendanceService.NewAttendanceService(
		transactor,
		locker,
		employeeRepo,
		shiftRepo,
		intervalRepo,
		attendanceService.Options{
			Violations: ratingSvc,
			LateGrace:  time.Duration(cfg.Jobs.LateGraceMinutes) * time.Minute,
			StaleAfter: cfg.Jobs.StaleShiftAfter,
		},
	)
	scheduleSvc := scheduleService.NewScheduleService(templateRepo, assignmentRepo, employeeRepo, companyRepo, shiftRepo)
	generator := scheduleService.NewShiftGenerator(transactor, locker, companyRepo, employeeRepo, assignmentRepo, shiftRepo)

	scheduler := cron.NewScheduler(ctx)
	if cfg.Jobs.ShiftAutogenDays > 0 {
		cron.NewShiftJobs(companyRepo, generator, cfg.Jobs.ShiftAutogenDays).RegisterJobs(scheduler, cfg.Jobs.ShiftAutogenInterval)
	}
	if cfg.Jobs.StaleShiftAfter > 0 {
		cron.NewAttendanceJobs(attendanceSvc).RegisterJobs(scheduler, cfg.Jobs.StaleShiftInterval)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Env:            cfg.App.Env,
			Version:        version,
			AllowedOrigins: cfg.App.AllowedOrigins,
			Telegram:       telegram.NewValidator(cfg.Telegram.BotToken, cfg.Telegram.MaxAge),
			TelegramBypass: cfg.TelegramBypass(),
			ClientRate:     rate.Limit(cfg.App.ClientRatePerSecond),
			ClientBurst:    cfg.App.ClientBurst,
		},
		JWTService,
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewScheduleHandler(scheduleSvc, generator),
		appHTTP.NewRatingHandler(ratingSvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
