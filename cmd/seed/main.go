// Command seed creates the default violation rules and schedule templates for
// an existing company.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/config"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/fixtures"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/shiftcheck-backend-go/internal/repository/postgresql"
	ratingService "github.com/cmlabs-hris/shiftcheck-backend-go/internal/service/rating"
	scheduleService "github.com/cmlabs-hris/shiftcheck-backend-go/internal/service/schedule"
)

func main() {
	companyID := flag.String("company", "", "company id to seed")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if *companyID == "" {
		logger.Error("-company is required")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{MaxConns: 2})
	if err != nil {
		logger.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	companyRepo := postgresql.NewCompanyRepository(db)
	if _, err := companyRepo.GetByID(ctx, *companyID); err != nil {
		logger.Error("company lookup", "company_id", *companyID, "error", err)
		os.Exit(1)
	}

	employeeRepo := postgresql.NewEmployeeRepository(db)
	ratingSvc := ratingService.NewRatingService(
		employeeRepo,
		companyRepo,
		postgresql.NewViolationRuleRepository(db),
		postgresql.NewViolationRepository(db),
		postgresql.NewRatingAdjustmentRepository(db),
	)
	scheduleSvc := scheduleService.NewScheduleService(
		postgresql.NewScheduleTemplateRepository(db),
		postgresql.NewEmployeeScheduleRepository(db),
		employeeRepo,
		companyRepo,
		postgresql.NewShiftRepository(db),
	)

	seeded, err := fixtures.SeedCompanyDefaults(ctx, ratingSvc, scheduleSvc, *companyID)
	if err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
	logger.Info("company seeded",
		"company_id", *companyID,
		"rules", len(seeded.RuleIDs),
		"templates", len(seeded.TemplateIDs),
		"skipped", seeded.Skipped,
	)
}
