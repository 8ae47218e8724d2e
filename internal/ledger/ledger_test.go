package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestNew(t *testing.T) {
	items := []LineItem{
		{Description: "Root canal", Quantity: 2, UnitPrice: d(500)},
		{Description: "", Quantity: 1, UnitPrice: d(999)}, // dropped
	}

	s := New(items, d(100), d(50))

	assert.Len(t, s.Items, 1)
	assert.True(t, s.Subtotal.Equal(d(1000)), "subtotal %s", s.Subtotal)
	assert.True(t, s.TotalAmount.Equal(d(950)))
	assert.True(t, s.AmountPaid.IsZero())
	assert.True(t, s.Balance.Equal(d(950)))
	assert.Equal(t, StatusUnpaid, s.Status)
}

func TestNewClampsNegativeDiscount(t *testing.T) {
	s := New([]LineItem{{Description: "Scaling", Quantity: 1, UnitPrice: d(200)}}, d(-30), decimal.Zero)
	assert.True(t, s.DiscountAmount.IsZero())
	assert.True(t, s.TotalAmount.Equal(d(200)))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name        string
		total, paid int64
		wantStatus  Status
		wantBalance int64
	}{
		{"untouched", 1000, 0, StatusUnpaid, 1000},
		{"partially paid", 1000, 400, StatusPartial, 600},
		{"exactly paid", 1000, 1000, StatusPaid, 0},
		{"overpaid clamps balance", 1000, 1500, StatusPaid, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Snapshot{TotalAmount: d(tc.total), Balance: d(tc.total), Status: StatusUnpaid}
			if tc.paid > 0 {
				s = ApplyPayment(s, d(tc.paid))
			}
			assert.Equal(t, tc.wantStatus, StatusFor(s.Balance, s.AmountPaid))
			assert.True(t, s.Balance.Equal(d(tc.wantBalance)), "balance %s", s.Balance)
			// AmountPaid keeps the full collected sum even when overpaid.
			assert.True(t, s.AmountPaid.Equal(d(tc.paid)))
		})
	}
}

func TestApplyPaymentMonotonic(t *testing.T) {
	s := New([]LineItem{{Description: "Crown", Quantity: 1, UnitPrice: d(800)}}, decimal.Zero, decimal.Zero)

	prev := s
	for _, p := range []int64{100, 300, 250} {
		next := ApplyPayment(prev, d(p))
		assert.True(t, next.Balance.LessThanOrEqual(prev.Balance))
		assert.True(t, next.AmountPaid.Equal(prev.AmountPaid.Add(d(p))))
		prev = next
	}
	assert.Equal(t, StatusPartial, prev.Status)
	assert.True(t, prev.Balance.Equal(d(150)))
}

func TestApplyDiscountIdempotent(t *testing.T) {
	s := New([]LineItem{{Description: "Filling", Quantity: 3, UnitPrice: d(150)}}, d(20), d(10))
	s = ApplyPayment(s, d(100))

	once := ApplyDiscount(s, d(80))
	twice := ApplyDiscount(once, d(80))

	assert.True(t, once.TotalAmount.Equal(twice.TotalAmount))
	assert.True(t, once.Balance.Equal(twice.Balance))
	assert.Equal(t, once.Status, twice.Status)
}

func TestApplyDiscountRecomputesStatus(t *testing.T) {
	s := New([]LineItem{{Description: "Extraction", Quantity: 1, UnitPrice: d(500)}}, decimal.Zero, decimal.Zero)
	s = ApplyPayment(s, d(300))
	assert.Equal(t, StatusPartial, s.Status)

	// Discount deep enough that the 300 already collected covers everything.
	s = ApplyDiscount(s, d(250))
	assert.Equal(t, StatusPaid, s.Status)
	assert.True(t, s.Balance.IsZero())

	// Rolling the discount back reopens the balance.
	s = ApplyDiscount(s, decimal.Zero)
	assert.Equal(t, StatusPartial, s.Status)
	assert.True(t, s.Balance.Equal(d(200)))
}

func TestEndToEndInvoice(t *testing.T) {
	s := New([]LineItem{{Description: "Implant", Quantity: 2, UnitPrice: d(500)}}, d(100), d(50))

	assert.True(t, s.Subtotal.Equal(d(1000)))
	assert.True(t, s.TotalAmount.Equal(d(950)))
	assert.True(t, s.Balance.Equal(d(950)))
	assert.Equal(t, StatusUnpaid, s.Status)

	s = ApplyPayment(s, d(950))
	assert.True(t, s.Balance.IsZero())
	assert.Equal(t, StatusPaid, s.Status)
}

func TestOverdue(t *testing.T) {
	now := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
	due := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	unpaid := Snapshot{Status: StatusUnpaid}
	paid := Snapshot{Status: StatusPaid}
	draft := Snapshot{Status: StatusDraft}

	assert.True(t, Overdue(unpaid, due, now))
	assert.False(t, Overdue(paid, due, now))
	assert.False(t, Overdue(draft, due, now))
	assert.False(t, Overdue(unpaid, now, now), "due today is not overdue")
	assert.False(t, Overdue(unpaid, now.AddDate(0, 0, 7), now))
}
