package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dentalops/clinic-scheduling/internal/db"
	"github.com/dentalops/clinic-scheduling/internal/ledger"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	clinicID := uuid.New()
	if err := seedClinic(context.Background(), pool, clinicID); err != nil {
		log.Fatalf("seed clinic: %v", err)
	}

	dentists, err := seedDentists(context.Background(), pool, clinicID, 8)
	if err != nil {
		log.Fatalf("seed dentists: %v", err)
	}

	patients, err := seedPatients(context.Background(), pool, clinicID, 500)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	if err := seedAppointments(context.Background(), pool, clinicID, dentists, patients, 14); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	if err := seedInvoices(context.Background(), pool, clinicID, patients, 200); err != nil {
		log.Fatalf("seed invoices: %v", err)
	}

	log.Printf("seed complete, clinic_id=%s", clinicID)
}

func seedClinic(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO clinics (id, name, created_at, updated_at)
		VALUES ($1, $2, now(), now())
	`, id, gofakeit.Company()+" Dental")
	return err
}

func seedDentists(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d dentists", count)

	specialties := []string{
		"General Dentistry",
		"Orthodontics",
		"Endodontics",
		"Periodontics",
		"Oral Surgery",
		"Pediatric Dentistry",
		"Prosthodontics",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO dentists (id, clinic_id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, id, clinicID, name, spec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("dentists seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	const batchSize = 100

	ids := make([]uuid.UUID, 0, count)
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()
			phone := gofakeit.Phone()

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, clinic_id, name, email, phone, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, now(), now())
			`, id, clinicID, name, email, phone)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return ids, nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID, dentists, patients []uuid.UUID, days int) error {
	log.Printf("seeding appointments across %d days", days)

	types := []string{"checkup", "cleaning", "filling", "root_canal", "extraction", "crown"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	today := time.Now().UTC().Truncate(24 * time.Hour)

	for d := 1; d <= days; d++ {
		date := today.AddDate(0, 0, d)
		for _, dentistID := range dentists {
			// Fill roughly half the day's 30-minute grid.
			for slot := 9 * 60; slot < 18*60; slot += 30 {
				if gofakeit.Bool() {
					continue
				}

				_, err := tx.Exec(ctx, `
					INSERT INTO appointments (id, clinic_id, patient_id, dentist_id, date, start_min, end_min, type, status, reason, notes, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'scheduled', $9, '', now(), now())
				`, uuid.New(), clinicID,
					patients[gofakeit.Number(0, len(patients)-1)],
					dentistID, date, slot, slot+30,
					types[gofakeit.Number(0, len(types)-1)],
					gofakeit.Sentence(4))
				if err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("appointments seeded")
	return nil
}

func seedInvoices(ctx context.Context, pool *pgxpool.Pool, clinicID uuid.UUID, patients []uuid.UUID, count int) error {
	log.Printf("seeding %d invoices", count)

	treatments := []string{"Checkup", "Scaling", "Filling", "Root canal", "Crown", "Extraction"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	today := time.Now().UTC().Truncate(24 * time.Hour)

	for i := 0; i < count; i++ {
		items := make([]ledger.LineItem, 0, 3)
		for n := 0; n < gofakeit.Number(1, 3); n++ {
			items = append(items, ledger.LineItem{
				Description: treatments[gofakeit.Number(0, len(treatments)-1)],
				Quantity:    gofakeit.Number(1, 2),
				UnitPrice:   decimal.NewFromInt(int64(gofakeit.Number(50, 800))),
			})
		}

		snap := ledger.New(items, decimal.NewFromInt(int64(gofakeit.Number(0, 50))), decimal.Zero)

		invoiceDate := today.AddDate(0, 0, -gofakeit.Number(0, 60))
		dueDate := invoiceDate.AddDate(0, 0, 30)
		invoiceID := uuid.New()

		_, err := tx.Exec(ctx, `
			INSERT INTO invoices (id, clinic_id, patient_id, invoice_date, due_date, subtotal, discount_amount, tax_amount, total_amount, amount_paid, balance, status, is_void, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, false, now(), now())
		`, invoiceID, clinicID,
			patients[gofakeit.Number(0, len(patients)-1)],
			invoiceDate, dueDate,
			snap.Subtotal, snap.DiscountAmount, snap.TaxAmount, snap.TotalAmount,
			snap.AmountPaid, snap.Balance, snap.Status)
		if err != nil {
			return err
		}

		for pos, it := range snap.Items {
			_, err := tx.Exec(ctx, `
				INSERT INTO invoice_items (id, invoice_id, position, description, tooth_number, quantity, unit_price, line_total)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, uuid.New(), invoiceID, pos, it.Description, it.ToothNumber, it.Quantity, it.UnitPrice, it.LineTotal)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("invoices seeded")
	return nil
}
