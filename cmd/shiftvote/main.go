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

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/shiftvote/internal/application"
	"github.com/example/shiftvote/internal/config"
	httptransport "github.com/example/shiftvote/internal/http"
	"github.com/example/shiftvote/internal/period"
	"github.com/example/shiftvote/internal/persistence/sqlite"
	"github.com/example/shiftvote/internal/roster"
)

const sessionPurgeInterval = time.Hour

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err == nil {
		logger.Info("environment loaded from .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now
	policy := newPeriodPolicy(cfg)

	rosterRepo := newRosterAdapter(sqlite.NewRosterRepository(pool, now))
	ledgerRepo := newLedgerAdapter(sqlite.NewLedgerRepository(pool))
	tallyRepo := newTallyAdapter(sqlite.NewTallyRepository(pool, now))
	recorder := newVoteRecorderAdapter(sqlite.NewVoteStore(pool, now))
	quotaStore := newQuotaAdapter(sqlite.NewQuotaRepository(pool, now))
	adminStore := newAdminStoreAdapter(sqlite.NewAdminRepository(pool, now))
	sessionStore := newSessionStoreAdapter(sqlite.NewSessionRepository(pool))

	if err := seedQuotas(ctx, quotaStore, cfg); err != nil {
		logger.Error("failed to seed vote quotas", "error", err)
		os.Exit(1)
	}

	gate := application.NewGate()
	tallyService := application.NewTallyServiceWithLogger(tallyRepo, ledgerRepo, quotaStore, logger)
	votingService := application.NewVotingService(application.VotingServiceConfig{
		Roster:            rosterRepo,
		Recorder:          recorder,
		Tally:             tallyService,
		Policy:            policy,
		Gate:              gate,
		CrossCategoryRule: cfg.CrossCategoryRule,
		IDGenerator:       idGenerator,
		Now:               now,
		Logger:            logger,
	})
	rosterService := application.NewRosterService(application.RosterServiceConfig{
		Roster: rosterRepo,
		Ledger: ledgerRepo,
		Tally:  tallyService,
		Policy: policy,
		Gate:   gate,
		Now:    now,
		Logger: logger,
	})
	statsService := application.NewStatsService(application.StatsServiceConfig{
		Roster: rosterRepo,
		Ledger: ledgerRepo,
		Policy: policy,
		Now:    now,
		Logger: logger,
	})
	quotaService := application.NewQuotaServiceWithLogger(quotaStore, cfg.QuotaUpperBound, logger)
	authService := application.NewAuthService(application.AuthServiceConfig{
		Admins:      adminStore,
		Sessions:    sessionStore,
		SessionTTL:  cfg.SessionTTL,
		IDGenerator: idGenerator,
		Now:         now,
		Logger:      logger,
	})

	if err := authService.EnsureAdmin(ctx, cfg.AdminID, "管理員", cfg.AdminPassword); err != nil {
		logger.Error("failed to bootstrap administrator account", "error", err)
		os.Exit(1)
	}

	if cfg.RosterPath != "" {
		if err := importRoster(ctx, rosterService, cfg.RosterPath, logger); err != nil {
			logger.Error("failed to import roster file", "path", cfg.RosterPath, "error", err)
			os.Exit(1)
		}
	}

	go purgeSessionsLoop(ctx, authService, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:            httptransport.NewAuthHandler(authService, logger),
		Votes:           httptransport.NewVoteHandler(votingService, logger),
		Roster:          httptransport.NewRosterHandler(rosterService, logger),
		Quotas:          httptransport.NewQuotaHandler(quotaService, logger),
		Stats:           httptransport.NewStatsHandler(statsService, logger),
		AdminMiddleware: httptransport.RequireSession(authService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("voting API listening", "addr", server.Addr, "period_model", string(cfg.PeriodModel))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// newPeriodPolicy selects the period keying scheme from configuration.
func newPeriodPolicy(cfg config.Config) period.Policy {
	loc := cfg.Location()
	if cfg.PeriodModel == config.PeriodModelISOWeek {
		return period.NewISOWeekPolicy(loc)
	}
	return period.NewMonthPolicy(loc)
}

// seedQuotas writes the configured allowances for categories that have none
// yet. Existing settings win so administrative updates survive restarts.
func seedQuotas(ctx context.Context, quotas application.QuotaStore, cfg config.Config) error {
	defaults := map[application.Category]int{
		application.CategoryFixed:    cfg.QuotaFixed,
		application.CategoryRotating: cfg.QuotaRotating,
	}
	for category, maxVotes := range defaults {
		_, err := quotas.GetQuota(ctx, category)
		if err == nil {
			continue
		}
		if !errors.Is(err, application.ErrNotFound) {
			return err
		}
		if err := quotas.SetQuota(ctx, category, maxVotes); err != nil {
			return err
		}
	}
	return nil
}

// importRoster seeds the current period's roster from a JSON or XLSX file.
// The import is idempotent per period, so restarting the service is safe.
func importRoster(ctx context.Context, service *application.RosterService, path string, logger *slog.Logger) error {
	parsed, err := roster.LoadFile(path)
	if err != nil {
		return err
	}
	for _, dropped := range parsed.Dropped {
		logger.Warn("dropped roster record", "row", dropped.Row, "reason", dropped.Reason)
	}

	result, err := service.ImportEmployees(ctx, "", parsed.Records)
	if err != nil {
		return err
	}
	if result.Skipped {
		logger.Info("roster already seeded for period", "period", string(result.PeriodKey))
		return nil
	}
	logger.Info("roster imported", "period", string(result.PeriodKey), "imported", result.Imported)
	return nil
}

// purgeSessionsLoop deletes expired administrator sessions until the context
// is cancelled.
func purgeSessionsLoop(ctx context.Context, auth *application.AuthService, logger *slog.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.PurgeExpiredSessions(ctx); err != nil {
				logger.Error("failed to purge expired sessions", "error", err)
			}
		}
	}
}
