package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dentalops/clinic-scheduling/internal/api"
	"github.com/dentalops/clinic-scheduling/internal/booking"
	"github.com/dentalops/clinic-scheduling/internal/config"
	"github.com/dentalops/clinic-scheduling/internal/db"
	"github.com/dentalops/clinic-scheduling/internal/invoice"
	"github.com/dentalops/clinic-scheduling/internal/patient"
	redisclient "github.com/dentalops/clinic-scheduling/internal/redis"
)

const version = "0.3.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s clinic_hours=%d-%d slot_minutes=%d",
		cfg.Env, cfg.HTTPPort, cfg.ClinicOpenMin, cfg.ClinicCloseMin, cfg.SlotMinutes)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	locker := redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)

	bookings := booking.NewService(booking.NewPgRepository(pgPool), locker, cfg)
	invoices := invoice.NewService(invoice.NewPgRepository(pgPool))
	patients := patient.NewPgRepository(pgPool)

	handler := api.NewRouter(api.RouterConfig{
		Bookings:    bookings,
		Invoices:    invoices,
		Patients:    patients,
		SlotMinutes: cfg.SlotMinutes,
		PgPool:      pgPool,
		Redis:       rdb,
		Env:         cfg.Env,
		Version:     version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
