package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/car-marketplace/internal/config"
	"github.com/iliyamo/car-marketplace/internal/database"
	"github.com/iliyamo/car-marketplace/internal/handler"
	"github.com/iliyamo/car-marketplace/internal/queue"
	"github.com/iliyamo/car-marketplace/internal/repository"
	"github.com/iliyamo/car-marketplace/internal/router"
	"github.com/iliyamo/car-marketplace/internal/service"
	"github.com/iliyamo/car-marketplace/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	mctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := database.Migrate(mctx, db); err != nil {
		log.Printf("database: migrate failed: %v", err)
	}
	cancel()

	var store session.Store
	if rdb := config.NewRedisClient(cfg.Redis); rdb != nil {
		defer rdb.Close()
		store = session.NewRedisStore(rdb)
		log.Printf("session: using redis store")
	} else {
		store = session.NewMemoryStore()
		log.Printf("session: redis unavailable, using in-memory store")
	}
	sessions := session.NewManager(store, session.Options{
		CookieName: cfg.Session.CookieName,
		Secret:     cfg.Session.Secret,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
	})

	events := service.NewListingEvents(cfg.Events.URL())
	if cfg.Events.RunConsumer && cfg.Events.URL() != "" {
		c := &queue.Consumer{URL: cfg.Events.URL(), LogPath: cfg.Events.AuditLog}
		go func() {
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("listing-consumer: stopped: %v", err)
			}
		}()
	}

	users := repository.NewUserRepo(db)
	auth := service.NewAuthService(users, cfg.BcryptCost, cfg.RehashOnLogin)
	e, err := router.New(router.Deps{
		Auth:      handler.NewAuthHandler(auth, sessions, events),
		Market:    handler.NewMarketHandler(repository.NewCarRepo(db), repository.NewCartRepo(db), events),
		Users:     auth,
		Sessions:  sessions,
		TestHooks: cfg.IsTest(),
		AccessLog: true,
	})
	if err != nil {
		return err
	}

	addr := ":" + cfg.Port
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(sctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
