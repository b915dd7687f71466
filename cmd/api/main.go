package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"complyhq.org/internal/auth"
	"complyhq.org/internal/config"
	"complyhq.org/internal/httpapi"
	"complyhq.org/internal/obs"
	"complyhq.org/internal/records"
	"complyhq.org/internal/tenant"
)

var version = "0.3.0"

func main() {
	// Local development keeps its COMPLY_* variables in .env; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()

	var (
		db    *sql.DB
		dir   tenant.Directory
		users auth.UserStore
		store records.Store
	)
	if cfg.PostgresDSN != "" {
		db, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		dir = tenant.NewPGDirectory(db)
		users = auth.NewPGUserStore(db)
		store = records.NewPGStore(db)
	} else {
		// Without a DSN everything runs in process. Useful for local
		// development against the tenant router without a database.
		log.Print("COMPLY_PG_DSN not set, using in-memory stores")
		dir = tenant.NewMemoryDirectory()
		users = auth.NewMemoryUserStore()
		store = records.NewMemoryStore()
	}

	sessions, err := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookies())
	if err != nil {
		log.Fatalf("sessions: %v", err)
	}

	api := httpapi.New(cfg, dir, users, store, sessions, httpapi.ReadyProbe{DB: db}, version)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting complyhq-api %s on %s (root domain %s)", version, srv.Addr, cfg.RootDomain)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
