package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/ecotrack/waste-admin/internal/config"
	"github.com/ecotrack/waste-admin/internal/database"
	"github.com/ecotrack/waste-admin/internal/handler"
	"github.com/ecotrack/waste-admin/internal/middleware"
	"github.com/ecotrack/waste-admin/internal/queue"
	"github.com/ecotrack/waste-admin/internal/repository"
	"github.com/ecotrack/waste-admin/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	institutions := repository.NewInstitutionRepo(db)
	memberships := repository.NewMembershipRepo(db)
	stats := repository.NewStatsRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, memberships)
	userHandler := handler.NewUserHandler(cfg, users, memberships, institutions)
	institutionHandler := handler.NewInstitutionHandler(institutions, memberships)
	statsHandler := handler.NewStatsHandler(stats, institutions)

	authn := middleware.Authenticate(cfg.JWTAccessSecret, users, memberships)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; stats cache disabled")
	}

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, authn)
	router.RegisterUsers(e, userHandler, authn)
	router.RegisterInstitutions(e, institutionHandler, authn)
	router.RegisterStats(e, statsHandler, authn, config.LoadCacheConfig(), rdb)

	// Background consumer feeding logs/accounts.log; reconnects on its own.
	go func() {
		if err := queue.StartAccountConsumer(); err != nil {
			log.Printf("account consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
