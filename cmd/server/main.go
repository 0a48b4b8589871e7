package main // Entry point package

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/event-rsvp/internal/config"
	"github.com/iliyamo/event-rsvp/internal/database"
	"github.com/iliyamo/event-rsvp/internal/handler"
	"github.com/iliyamo/event-rsvp/internal/mailer"
	"github.com/iliyamo/event-rsvp/internal/middleware"
	"github.com/iliyamo/event-rsvp/internal/queue"
	"github.com/iliyamo/event-rsvp/internal/repository"
	"github.com/iliyamo/event-rsvp/internal/router"
	"github.com/iliyamo/event-rsvp/internal/service"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	cfg := config.Load()
	if cfg.Env == "development" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	// Repositories and the booking unit of work.
	users := repository.NewUserRepo(db)
	events := repository.NewEventRepo(db)
	seats := repository.NewSeatRepo(db)
	rsvps := repository.NewRsvpRepo(db)
	store := repository.NewStore(db, seats, rsvps)

	// Notifications ride through RabbitMQ to the SMTP consumer. With no
	// broker configured bookings still work, they just stay silent.
	var notifier service.Notifier
	if cfg.RabbitURL != "" {
		notifier = queue.NewPublisher(cfg.RabbitURL, log)
		m := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPPass, log)
		go queue.StartNotificationConsumer(cfg.RabbitURL, m, log)
	}

	booking := service.NewBookingService(seats, store, events, notifier, log)

	authH := handler.NewAuthHandler(cfg, users)
	eventH := handler.NewEventHandler(events, seats, rsvps)
	seatH := handler.NewSeatHandler(seats, events)
	rsvpH := handler.NewRsvpHandler(booking, rsvps)

	// Rate limiting needs Redis; without it the limiter is a no-op.
	rlCfg := config.LoadRateLimitConfig()
	limiter := middleware.NewTokenBucket(rlCfg, config.NewRedisClient())

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	router.RegisterHealth(e, db)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterEvents(e, eventH, seatH, cfg.JWTSecret)
	router.RegisterRsvps(e, rsvpH, cfg.JWTSecret, limiter)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
