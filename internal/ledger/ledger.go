package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft   Status = "draft"
	StatusUnpaid  Status = "unpaid"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// LineItem is one charge on an invoice. LineTotal is derived, never
// caller-supplied.
type LineItem struct {
	Description string
	ToothNumber *int
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Snapshot is the monetary state of one invoice. All operations here are
// pure: they take a snapshot plus one event and return the next snapshot,
// never re-deriving from payment history. Persistence belongs to callers.
type Snapshot struct {
	Items          []LineItem
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	AmountPaid     decimal.Decimal
	Balance        decimal.Decimal
	Status         Status
}

// StatusFor derives invoice status from the money alone. Draft and overdue
// are set by outside collaborators, never produced here.
func StatusFor(balance, amountPaid decimal.Decimal) Status {
	switch {
	case balance.LessThanOrEqual(decimal.Zero):
		return StatusPaid
	case amountPaid.GreaterThan(decimal.Zero):
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// New builds the initial snapshot for a fresh invoice. Items with an empty
// description are dropped. Negative discount or tax are clamped to zero.
func New(items []LineItem, discountAmount, taxAmount decimal.Decimal) Snapshot {
	if discountAmount.IsNegative() {
		discountAmount = decimal.Zero
	}
	if taxAmount.IsNegative() {
		taxAmount = decimal.Zero
	}

	kept := make([]LineItem, 0, len(items))
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Description == "" {
			continue
		}
		it.LineTotal = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		kept = append(kept, it)
		subtotal = subtotal.Add(it.LineTotal)
	}

	total := subtotal.Sub(discountAmount).Add(taxAmount)

	return Snapshot{
		Items:          kept,
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		TotalAmount:    total,
		AmountPaid:     decimal.Zero,
		Balance:        maxZero(total),
		Status:         StatusUnpaid,
	}
}

// ApplyPayment records one payment against the snapshot. Overpayment is
// accepted: AmountPaid keeps the full collected sum even past TotalAmount,
// only Balance clamps at zero. Callers append the Payment record; this
// function only moves the money.
//
// Precondition (caller-validated): amount > 0.
func ApplyPayment(s Snapshot, amount decimal.Decimal) Snapshot {
	s.AmountPaid = s.AmountPaid.Add(amount)
	s.Balance = maxZero(s.TotalAmount.Sub(s.AmountPaid))
	s.Status = StatusFor(s.Balance, s.AmountPaid)
	return s
}

// ApplyDiscount replaces the discount and recomputes total, balance and
// status. Idempotent: applying the same discount twice is a no-op.
func ApplyDiscount(s Snapshot, newDiscount decimal.Decimal) Snapshot {
	if newDiscount.IsNegative() {
		newDiscount = decimal.Zero
	}
	s.DiscountAmount = newDiscount
	s.TotalAmount = s.Subtotal.Sub(newDiscount).Add(s.TaxAmount)
	s.Balance = maxZero(s.TotalAmount.Sub(s.AmountPaid))
	s.Status = StatusFor(s.Balance, s.AmountPaid)
	return s
}

// Overdue reports whether an invoice with the given due date should carry
// the overdue flag at time now. Paid and draft invoices are never overdue.
func Overdue(s Snapshot, dueDate, now time.Time) bool {
	if s.Status != StatusUnpaid && s.Status != StatusPartial {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, dueDate.Location())
	dy, dm, dd := dueDate.Date()
	due := time.Date(dy, dm, dd, 0, 0, 0, 0, dueDate.Location())
	return due.Before(today)
}

func maxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
