package main // Entry point package

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/orbit-studio/orbit-api/internal/config"
	"github.com/orbit-studio/orbit-api/internal/database"
	"github.com/orbit-studio/orbit-api/internal/handler"
	"github.com/orbit-studio/orbit-api/internal/ratelimit"
	"github.com/orbit-studio/orbit-api/internal/repository"
	"github.com/orbit-studio/orbit-api/internal/router"
	"github.com/orbit-studio/orbit-api/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()
	limitCfg := config.LoadLoginLimitConfig()
	queueCfg := config.LoadAuditQueueConfig()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.InitSchema(db, cfg.DBDriver); err != nil {
		log.Fatalf("schema: %v", err)
	}
	if err := database.SeedAdmin(context.Background(), db, cfg); err != nil {
		log.Fatalf("seed: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	audits := repository.NewAuditRepo(db)
	sequences := repository.NewSequenceRepo(db)

	var limiter *ratelimit.LoginLimiter
	if limitCfg.Enabled {
		limiter = ratelimit.NewLoginLimiter(limitCfg.Window, limitCfg.MaxAttempts)
		limiter.StartSweeper(limitCfg.SweepInterval)
		defer limiter.Stop()
	}

	audit := service.NewAuditLogger(audits, service.NewAuditPublisher(queueCfg))

	authH := handler.NewAuthHandler(cfg, users, tokens, audit, limiter)
	userH := handler.NewUserHandler(cfg, users)
	invoiceH := handler.NewInvoiceHandler(sequences)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, limiter)
	router.RegisterAdmin(e, userH, invoiceH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, db=%s)", addr, cfg.Env, cfg.DBDriver)

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
	log.Println("server exited properly")
}
