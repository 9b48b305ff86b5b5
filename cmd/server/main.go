package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/config"
	"github.com/iliyamo/festival-reservation/internal/database"
	"github.com/iliyamo/festival-reservation/internal/handler"
	"github.com/iliyamo/festival-reservation/internal/middleware"
	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/queue"
	"github.com/iliyamo/festival-reservation/internal/repository"
	"github.com/iliyamo/festival-reservation/internal/router"
	"github.com/iliyamo/festival-reservation/internal/service"
	"github.com/iliyamo/festival-reservation/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	festivals := repository.NewFestivalRepo(db)
	tickets := repository.NewTicketRepo(db)
	performances := repository.NewPerformanceRepo(db)
	stages := repository.NewStageRepo(db)
	bands := repository.NewBandRepo(db)
	sellers := repository.NewSellerRepo(db)

	if err := seedRootAdmin(cfg, users); err != nil {
		log.Fatalf("root admin seed: %v", err)
	}

	// Services
	reservations := service.NewReservationService(festivals, tickets, sellers)
	scheduling := service.NewSchedulingService(festivals, stages, bands, performances)
	lifecycle := service.NewFestivalService(festivals, tickets, performances)
	accounts := service.NewAccountService(users, tokens)

	// Handlers
	authH := handler.NewAuthHandler(cfg, users, tokens)
	publicH := handler.NewPublicHandler(festivals, performances, bands, stages)
	ticketH := handler.NewTicketHandler(reservations, festivals, tickets)
	festivalH := handler.NewFestivalHandler(festivals, sellers, users, lifecycle)
	scheduleH := handler.NewScheduleHandler(scheduling, performances)
	stageH := handler.NewStageHandler(stages)
	bandH := handler.NewBandHandler(bands)
	adminH := handler.NewAdminHandler(users, accounts)

	e := echo.New()
	e.HideBanner = true

	// Distributed rate limiting; disabled automatically when Redis is
	// unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, ticketH)
	router.RegisterUser(e, ticketH, cfg.JWTSecret)
	router.RegisterSeller(e, ticketH, cfg.JWTSecret)
	router.RegisterOrganizer(e, festivalH, scheduleH, stageH, bandH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	// Event consumers drain the reservation and scheduling queues in
	// the background and reconnect on broker failure.
	queue.StartEventConsumers()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// seedRootAdmin creates the single root admin account on first boot.
// The seed is idempotent: an existing account with the configured
// email is left untouched, and skipping the env vars skips the seed.
func seedRootAdmin(cfg config.Config, users *repository.UserRepo) error {
	if cfg.RootAdminEmail == "" || cfg.RootAdminPass == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hash, err := utils.HashPassword(cfg.RootAdminPass, cfg.BcryptCost)
	if err != nil {
		return err
	}
	_, err = users.Create(ctx, cfg.RootAdminEmail, hash, "Root", "Admin", model.LevelRootAdmin)
	if errors.Is(err, repository.ErrEmailExists) {
		return nil
	}
	return err
}
