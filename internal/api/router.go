package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dentalops/clinic-scheduling/internal/booking"
	"github.com/dentalops/clinic-scheduling/internal/invoice"
	"github.com/dentalops/clinic-scheduling/internal/patient"
)

type RouterConfig struct {
	Bookings    *booking.Service
	Invoices    *invoice.Service
	Patients    patient.Repository
	SlotMinutes int
	PgPool      *pgxpool.Pool
	Redis       *redis.Client
	Env         string
	Version     string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Patient endpoints
	r.Post("/patients", createPatientHandler(cfg.Patients))
	r.Get("/patients", listPatientsHandler(cfg.Patients))
	r.Get("/patients/{id}", getPatientHandler(cfg.Patients))
	r.Get("/patients/{id}/appointments", listPatientAppointmentsHandler(cfg.Bookings))

	// Scheduling endpoints
	r.Get("/dentists/{id}/slots", availableSlotsHandler(cfg.Bookings, cfg.SlotMinutes))
	r.Post("/appointments", bookAppointmentHandler(cfg.Bookings))
	r.Get("/appointments", listAppointmentsHandler(cfg.Bookings))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Bookings))
	r.Post("/appointments/{id}/status", changeAppointmentStatusHandler(cfg.Bookings))

	// Billing endpoints
	r.Post("/invoices", createInvoiceHandler(cfg.Invoices))
	r.Get("/invoices/{id}", getInvoiceHandler(cfg.Invoices))
	r.Delete("/invoices/{id}", deleteInvoiceHandler(cfg.Invoices))
	r.Post("/invoices/{id}/payments", recordPaymentHandler(cfg.Invoices))
	r.Get("/invoices/{id}/payments", listPaymentsHandler(cfg.Invoices))
	r.Patch("/invoices/{id}/discount", updateDiscountHandler(cfg.Invoices))

	// Reporting
	r.Get("/reports/revenue", revenueReportHandler(cfg.Invoices))

	return r
}
