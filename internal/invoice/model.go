package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dentalops/clinic-scheduling/internal/ledger"
)

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCheque       PaymentMethod = "cheque"
)

type InvoiceItem struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	Description string
	ToothNumber *int
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

type Invoice struct {
	ID             uuid.UUID
	ClinicID       uuid.UUID
	PatientID      uuid.UUID
	InvoiceDate    time.Time
	DueDate        time.Time
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	AmountPaid     decimal.Decimal
	Balance        decimal.Decimal
	Status         ledger.Status
	IsVoid         bool
	Items          []InvoiceItem
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Payment rows are append-only and immutable once created.
type Payment struct {
	ID              uuid.UUID
	InvoiceID       uuid.UUID
	PatientID       uuid.UUID
	Date            time.Time
	Amount          decimal.Decimal
	Method          PaymentMethod
	ReferenceNumber *string
	Notes           *string
	CreatedAt       time.Time
}

// Snapshot translates the stored row into the ledger engine's shape.
// The reverse direction is applySnapshot; together they are the single
// boundary between storage rows and the pure reconciliation code.
func (inv Invoice) Snapshot() ledger.Snapshot {
	items := make([]ledger.LineItem, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, ledger.LineItem{
			Description: it.Description,
			ToothNumber: it.ToothNumber,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		})
	}
	return ledger.Snapshot{
		Items:          items,
		Subtotal:       inv.Subtotal,
		DiscountAmount: inv.DiscountAmount,
		TaxAmount:      inv.TaxAmount,
		TotalAmount:    inv.TotalAmount,
		AmountPaid:     inv.AmountPaid,
		Balance:        inv.Balance,
		Status:         inv.Status,
	}
}

func (inv *Invoice) applySnapshot(s ledger.Snapshot) {
	inv.Subtotal = s.Subtotal
	inv.DiscountAmount = s.DiscountAmount
	inv.TaxAmount = s.TaxAmount
	inv.TotalAmount = s.TotalAmount
	inv.AmountPaid = s.AmountPaid
	inv.Balance = s.Balance
	inv.Status = s.Status
}
