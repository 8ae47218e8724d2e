package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/dentalops/clinic-scheduling/internal/config"
	"github.com/dentalops/clinic-scheduling/internal/db"
	"github.com/dentalops/clinic-scheduling/internal/invoice"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("overdue-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running overdue worker in env=%s interval=%s", cfg.Env, cfg.WorkerInterval)

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

	svc := invoice.NewService(invoice.NewPgRepository(pgPool))

	// Run once at startup
	runOnce(rootCtx, svc)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping overdue worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *invoice.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	marked, err := svc.MarkOverdueInvoices(runCtx)
	if err != nil {
		log.Printf("overdue run error: %v", err)
		return
	}
	log.Printf("overdue run complete in %s, marked=%d", time.Since(start), marked)
}
