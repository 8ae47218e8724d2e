package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalops/clinic-scheduling/internal/ledger"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

const invoiceColumns = `id, clinic_id, patient_id, invoice_date, due_date, subtotal, discount_amount, tax_amount, total_amount, amount_paid, balance, status, is_void, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice

	err := row.Scan(
		&inv.ID,
		&inv.ClinicID,
		&inv.PatientID,
		&inv.InvoiceDate,
		&inv.DueDate,
		&inv.Subtotal,
		&inv.DiscountAmount,
		&inv.TaxAmount,
		&inv.TotalAmount,
		&inv.AmountPaid,
		&inv.Balance,
		&inv.Status,
		&inv.IsVoid,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	return &inv, nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var ref, notes *string

	err := row.Scan(
		&p.ID,
		&p.InvoiceID,
		&p.PatientID,
		&p.Date,
		&p.Amount,
		&p.Method,
		&ref,
		&notes,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.ReferenceNumber = ref
	p.Notes = notes
	return &p, nil
}

func (r *PgRepository) loadItems(ctx context.Context, inv *Invoice) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, description, tooth_number, quantity, unit_price, line_total
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY position
	`, inv.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it InvoiceItem
		var tooth *int
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &tooth, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return err
		}
		it.ToothNumber = tooth
		inv.Items = append(inv.Items, it)
	}

	return rows.Err()
}

// Interface methods

func (r *PgRepository) PatientExists(ctx context.Context, clinicID, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM patients WHERE id = $1 AND clinic_id = $2
		)
	`, patientID, clinicID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error) {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO invoices (id, clinic_id, patient_id, invoice_date, due_date, subtotal, discount_amount, tax_amount, total_amount, amount_paid, balance, status, is_void, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, false, now(), now())
		RETURNING `+invoiceColumns+`
	`, inv.ID, inv.ClinicID, inv.PatientID, inv.InvoiceDate, inv.DueDate,
		inv.Subtotal, inv.DiscountAmount, inv.TaxAmount, inv.TotalAmount,
		inv.AmountPaid, inv.Balance, inv.Status)

	created, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}

	for pos, it := range inv.Items {
		itemID := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, position, description, tooth_number, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, itemID, created.ID, pos, it.Description, it.ToothNumber, it.Quantity, it.UnitPrice, it.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("insert invoice item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	created.Items = inv.Items
	return created, nil
}

func (r *PgRepository) GetInvoiceByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1
	`, id)

	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, inv); err != nil {
		return nil, fmt.Errorf("load invoice items: %w", err)
	}
	return inv, nil
}

func (r *PgRepository) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) UpdateInvoiceAmounts(ctx context.Context, inv Invoice) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE invoices
		SET discount_amount = $2,
		    total_amount = $3,
		    amount_paid = $4,
		    balance = $5,
		    status = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+invoiceColumns+`
	`, inv.ID, inv.DiscountAmount, inv.TotalAmount, inv.AmountPaid, inv.Balance, inv.Status)

	updated, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}
	updated.Items = inv.Items
	return updated, nil
}

func (r *PgRepository) AppendPayment(ctx context.Context, p Payment) (*Payment, *Invoice, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	// Lock the invoice row and recompute from what it holds now, not
	// from whatever the caller read before the transaction started.
	row := tx.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1
		FOR UPDATE
	`, p.InvoiceID)

	inv, err := scanInvoice(row)
	if err != nil {
		return nil, nil, err
	}

	row = tx.QueryRow(ctx, `
		INSERT INTO payments (id, invoice_id, patient_id, date, amount, method, reference_number, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING id, invoice_id, patient_id, date, amount, method, reference_number, notes, created_at
	`, p.ID, p.InvoiceID, p.PatientID, p.Date, p.Amount, p.Method, p.ReferenceNumber, p.Notes)

	created, err := scanPayment(row)
	if err != nil {
		return nil, nil, fmt.Errorf("insert payment: %w", err)
	}

	next := ledger.ApplyPayment(inv.Snapshot(), p.Amount)

	row = tx.QueryRow(ctx, `
		UPDATE invoices
		SET amount_paid = $2,
		    balance = $3,
		    status = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+invoiceColumns+`
	`, inv.ID, next.AmountPaid, next.Balance, next.Status)

	updated, err := scanInvoice(row)
	if err != nil {
		return nil, nil, fmt.Errorf("update invoice amounts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	return created, updated, nil
}

func (r *PgRepository) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, patient_id, date, amount, method, reference_number, notes, created_at
		FROM payments
		WHERE invoice_id = $1
		ORDER BY created_at
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) FindOverdueCandidates(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE status IN ('unpaid', 'partial')
		  AND NOT is_void
		  AND due_date < $1
	`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inv)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) MarkOverdue(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET status = 'overdue',
		    updated_at = now()
		WHERE id = $1
		  AND status IN ('unpaid', 'partial')
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *PgRepository) RevenueReport(ctx context.Context, clinicID uuid.UUID, from, to time.Time) (*RevenueReport, error) {
	rep := RevenueReport{ClinicID: clinicID, From: from, To: to}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_amount), 0),
		       COALESCE(SUM(amount_paid), 0),
		       COALESCE(SUM(balance), 0),
		       COUNT(*) FILTER (WHERE status = 'overdue')
		FROM invoices
		WHERE clinic_id = $1
		  AND NOT is_void
		  AND invoice_date >= $2
		  AND invoice_date <= $3
	`, clinicID, from, to).Scan(&rep.InvoiceCount, &rep.Invoiced, &rep.Collected, &rep.Outstanding, &rep.OverdueCount)
	if err != nil {
		return nil, err
	}

	return &rep, nil
}
