package invoice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dentalops/clinic-scheduling/internal/ledger"
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrEmptyInvoice        = errors.New("invoice has no billable items")
	ErrInvoiceVoid         = errors.New("invoice is void")
	ErrInvoiceNotDeletable = errors.New("invoice has recorded payments and cannot be deleted")
)

type CreateInvoiceRequest struct {
	ClinicID       uuid.UUID
	PatientID      uuid.UUID
	InvoiceDate    time.Time
	DueDate        time.Time
	Items          []ledger.LineItem
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
}

type RecordPaymentRequest struct {
	InvoiceID       uuid.UUID
	Amount          decimal.Decimal
	Method          PaymentMethod
	ReferenceNumber *string
	Notes           *string
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		clock: time.Now,
	}
}

// CreateInvoice runs the ledger engine over the submitted items and
// persists the resulting snapshot. Items without a description are dropped
// by the engine; an invoice where nothing survives is rejected here rather
// than stored as a zero charge.
func (s *Service) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	ok, err := s.repo.PatientExists(ctx, req.ClinicID, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return nil, ErrPatientNotFound
	}

	snap := ledger.New(req.Items, req.DiscountAmount, req.TaxAmount)
	if len(snap.Items) == 0 {
		return nil, ErrEmptyInvoice
	}

	inv := Invoice{
		ClinicID:    req.ClinicID,
		PatientID:   req.PatientID,
		InvoiceDate: req.InvoiceDate,
		DueDate:     req.DueDate,
	}
	inv.applySnapshot(snap)
	for _, it := range snap.Items {
		inv.Items = append(inv.Items, InvoiceItem{
			Description: it.Description,
			ToothNumber: it.ToothNumber,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		})
	}

	created, err := s.repo.CreateInvoice(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return created, nil
}

// RecordPayment appends one immutable payment. The repository reconciles
// the invoice snapshot against the locked row inside the same transaction,
// so concurrent payments accumulate instead of overwriting each other. On
// storage failure the prior snapshot is untouched; nothing tentative ever
// reaches the row.
func (s *Service) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*Payment, *Invoice, error) {
	if !req.Amount.GreaterThan(decimal.Zero) {
		return nil, nil, ErrInvalidAmount
	}

	inv, err := s.repo.GetInvoiceByID(ctx, req.InvoiceID)
	if err != nil {
		return nil, nil, err
	}
	if inv.IsVoid {
		return nil, nil, ErrInvoiceVoid
	}

	// Overpayment is accepted: the desk collected real money. AmountPaid
	// keeps the full sum, Balance clamps at zero.
	if req.Amount.GreaterThan(inv.Balance) {
		log.Printf("invoice %s over-collected: payment=%s balance=%s", inv.ID, req.Amount, inv.Balance)
	}

	payment := Payment{
		InvoiceID:       inv.ID,
		PatientID:       inv.PatientID,
		Date:            s.clock(),
		Amount:          req.Amount,
		Method:          req.Method,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	}

	created, updated, err := s.repo.AppendPayment(ctx, payment)
	if err != nil {
		return nil, nil, fmt.Errorf("append payment: %w", err)
	}

	return created, updated, nil
}

// UpdateDiscount replaces the invoice discount and reconciles. Idempotent.
func (s *Service) UpdateDiscount(ctx context.Context, invoiceID uuid.UUID, newDiscount decimal.Decimal) (*Invoice, error) {
	inv, err := s.repo.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.IsVoid {
		return nil, ErrInvoiceVoid
	}

	snap := ledger.ApplyDiscount(inv.Snapshot(), newDiscount)
	next := *inv
	next.applySnapshot(snap)

	updated, err := s.repo.UpdateInvoiceAmounts(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("update discount: %w", err)
	}
	return updated, nil
}

// DeleteInvoice removes an invoice nothing has been paid against.
func (s *Service) DeleteInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	inv, err := s.repo.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if inv.AmountPaid.GreaterThan(decimal.Zero) {
		return ErrInvoiceNotDeletable
	}
	return s.repo.DeleteInvoice(ctx, invoiceID)
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.repo.GetInvoiceByID(ctx, id)
}

func (s *Service) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error) {
	if _, err := s.repo.GetInvoiceByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, invoiceID)
}

// MarkOverdueInvoices is intended to be called by the worker periodically.
func (s *Service) MarkOverdueInvoices(ctx context.Context) (int, error) {
	now := s.clock()
	candidates, err := s.repo.FindOverdueCandidates(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("find overdue candidates: %w", err)
	}

	marked := 0
	for _, inv := range candidates {
		if !ledger.Overdue(inv.Snapshot(), inv.DueDate, now) {
			continue
		}
		if err := s.repo.MarkOverdue(ctx, inv.ID); err != nil {
			if errors.Is(err, ErrInvoiceNotFound) {
				continue
			}
			log.Printf("failed to mark invoice %s overdue: %v", inv.ID, err)
			continue
		}
		marked++
	}

	return marked, nil
}

func (s *Service) RevenueReport(ctx context.Context, clinicID uuid.UUID, from, to time.Time) (*RevenueReport, error) {
	return s.repo.RevenueReport(ctx, clinicID, from, to)
}
