// Package main is the entry point for the portfolio rebalancing service.
// It analyzes portfolio allocation drift against target models and turns
// externally generated recommendations into validated trade plans.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fxmartin/portfolio-management-sub002/internal/clients/advisor"
	"github.com/fxmartin/portfolio-management-sub002/internal/config"
	"github.com/fxmartin/portfolio-management-sub002/internal/database"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/allocation"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/planning"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/portfolio"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/rebalancing"
	"github.com/fxmartin/portfolio-management-sub002/internal/scheduler"
	"github.com/fxmartin/portfolio-management-sub002/internal/server"
	"github.com/fxmartin/portfolio-management-sub002/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting rebalancer")

	// Three databases: durable configuration, durable portfolio state,
	// and an ephemeral plan cache.
	configDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "config.db"),
		Profile: database.ProfileStandard,
		Name:    "config",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open config database")
	}
	defer configDB.Close()

	portfolioDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	// Repositories and schemas
	modelRepo := allocation.NewRepository(configDB.Conn(), log)
	if err := modelRepo.InitSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize allocation schema")
	}

	holdingRepo := portfolio.NewHoldingRepository(portfolioDB.Conn(), log)
	if err := holdingRepo.InitSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize holdings schema")
	}

	planCache := planning.NewPlanCache(cacheDB.Conn(), cfg.PlanCacheTTL, log)
	if err := planCache.InitSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize plan cache schema")
	}

	// Services
	portfolioService := portfolio.NewService(holdingRepo, log)
	analyzer := rebalancing.NewAnalyzer(rebalancing.DefaultPolicy(), log)
	advisorClient := advisor.NewClient(cfg.AdvisorServiceURL, cfg.AdvisorTimeout, log)
	planner := planning.NewPlanner(advisorClient, planCache, planning.DefaultPriorityPolicy(), log)

	srv := server.New(server.Config{
		Log:              log,
		Config:           cfg,
		ConfigDB:         configDB,
		PortfolioDB:      portfolioDB,
		CacheDB:          cacheDB,
		PortfolioService: portfolioService,
		Analyzer:         analyzer,
		Planner:          planner,
		ModelRepo:        modelRepo,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Background maintenance. Run the sweep once up front to clear rows
	// left over from a previous run.
	sched := scheduler.New(log)
	sweepJob := planning.NewCacheSweepJob(planCache, log)
	if err := sched.AddJob("@hourly", sweepJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache sweep job")
	}
	if err := sched.RunNow(sweepJob); err != nil {
		log.Warn().Err(err).Msg("Initial cache sweep failed")
	}
	sched.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
