package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/rifle-app/rifle/internal/config"
	"github.com/rifle-app/rifle/internal/database"
	"github.com/rifle-app/rifle/internal/handler"
	"github.com/rifle-app/rifle/internal/queue"
	"github.com/rifle-app/rifle/internal/repository"
	"github.com/rifle-app/rifle/internal/router"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	h := router.Handlers{
		Auth:      handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)),
		Events:    handler.NewEventHandler(repository.NewEventRepo(db)),
		Dashboard: handler.NewDashboardHandler(repository.NewDashboardRepo(db)),
	}
	h.Tickets = handler.NewTicketHandler(repository.NewTicketRepo(db), repository.NewEventRepo(db))

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h, cfg, rdb)

	// The ticket.issued consumer reconnects on its own; it only logs when
	// the broker is down.
	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("ticket-consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
