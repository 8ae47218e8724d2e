package invoice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrPatientNotFound = errors.New("patient not found")
)

// RevenueReport aggregates collected and outstanding money for a clinic
// over an invoice-date range.
type RevenueReport struct {
	ClinicID     uuid.UUID
	From         time.Time
	To           time.Time
	InvoiceCount int
	Invoiced     decimal.Decimal
	Collected    decimal.Decimal
	Outstanding  decimal.Decimal
	OverdueCount int
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	PatientExists(ctx context.Context, clinicID, patientID uuid.UUID) (bool, error)

	// CreateInvoice persists the invoice and its items in one transaction.
	CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error)
	GetInvoiceByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	DeleteInvoice(ctx context.Context, id uuid.UUID) error

	// UpdateInvoiceAmounts writes a reconciled snapshot back to the row.
	UpdateInvoiceAmounts(ctx context.Context, inv Invoice) (*Invoice, error)

	// AppendPayment inserts the payment row and reconciles the invoice
	// amounts in one transaction, against the row as it exists inside
	// that transaction. Concurrent payments therefore all accumulate;
	// a caller's earlier read of the invoice is never written back.
	AppendPayment(ctx context.Context, p Payment) (*Payment, *Invoice, error)
	ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)

	// Overdue worker
	FindOverdueCandidates(ctx context.Context, asOf time.Time) ([]Invoice, error)
	MarkOverdue(ctx context.Context, id uuid.UUID) error

	// Reporting
	RevenueReport(ctx context.Context, clinicID uuid.UUID, from, to time.Time) (*RevenueReport, error)
}
