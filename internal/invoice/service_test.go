package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalops/clinic-scheduling/internal/ledger"
)

// --- MOCKS ---

type mockRepo struct {
	patientOK bool
	invoices  map[uuid.UUID]*Invoice
	payments  []Payment
	createErr error
	appendErr error
	deleted   *uuid.UUID
	overdue   []uuid.UUID
	stale     *Invoice // when set, reads serve this snapshot instead of the stored row
}

func newMockRepo() *mockRepo {
	return &mockRepo{patientOK: true, invoices: map[uuid.UUID]*Invoice{}}
}

func (m *mockRepo) PatientExists(ctx context.Context, clinicID, patientID uuid.UUID) (bool, error) {
	return m.patientOK, nil
}

func (m *mockRepo) CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	inv.ID = uuid.New()
	m.invoices[inv.ID] = &inv
	return &inv, nil
}

func (m *mockRepo) GetInvoiceByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	if m.stale != nil && m.stale.ID == id {
		cp := *m.stale
		return &cp, nil
	}
	if inv, ok := m.invoices[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, ErrInvoiceNotFound
}

func (m *mockRepo) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	delete(m.invoices, id)
	m.deleted = &id
	return nil
}

func (m *mockRepo) UpdateInvoiceAmounts(ctx context.Context, inv Invoice) (*Invoice, error) {
	m.invoices[inv.ID] = &inv
	return &inv, nil
}

// AppendPayment reconciles against the stored row, mirroring the row lock
// the real repository takes inside its transaction.
func (m *mockRepo) AppendPayment(ctx context.Context, p Payment) (*Payment, *Invoice, error) {
	if m.appendErr != nil {
		return nil, nil, m.appendErr
	}
	inv, ok := m.invoices[p.InvoiceID]
	if !ok {
		return nil, nil, ErrInvoiceNotFound
	}

	p.ID = uuid.New()
	m.payments = append(m.payments, p)

	next := *inv
	next.applySnapshot(ledger.ApplyPayment(inv.Snapshot(), p.Amount))
	m.invoices[next.ID] = &next

	cp := next
	return &p, &cp, nil
}

func (m *mockRepo) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error) {
	return m.payments, nil
}

func (m *mockRepo) FindOverdueCandidates(ctx context.Context, asOf time.Time) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if (inv.Status == ledger.StatusUnpaid || inv.Status == ledger.StatusPartial) && inv.DueDate.Before(asOf) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *mockRepo) MarkOverdue(ctx context.Context, id uuid.UUID) error {
	m.invoices[id].Status = ledger.StatusOverdue
	m.overdue = append(m.overdue, id)
	return nil
}

func (m *mockRepo) RevenueReport(ctx context.Context, clinicID uuid.UUID, from, to time.Time) (*RevenueReport, error) {
	return &RevenueReport{ClinicID: clinicID, From: from, To: to}, nil
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newTestService(repo *mockRepo, now time.Time) *Service {
	svc := NewService(repo)
	svc.clock = func() time.Time { return now }
	return svc
}

func implantInvoice(t *testing.T, svc *Service) *Invoice {
	t.Helper()
	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		ClinicID:    uuid.New(),
		PatientID:   uuid.New(),
		InvoiceDate: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		Items: []ledger.LineItem{
			{Description: "Implant", Quantity: 2, UnitPrice: d(500)},
		},
		DiscountAmount: d(100),
		TaxAmount:      d(50),
	})
	require.NoError(t, err)
	return inv
}

func TestCreateInvoice(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	t.Run("computes amounts", func(t *testing.T) {
		svc := newTestService(newMockRepo(), now)
		inv := implantInvoice(t, svc)

		assert.True(t, inv.Subtotal.Equal(d(1000)))
		assert.True(t, inv.TotalAmount.Equal(d(950)))
		assert.True(t, inv.Balance.Equal(d(950)))
		assert.Equal(t, ledger.StatusUnpaid, inv.Status)
	})

	t.Run("rejects all-empty items", func(t *testing.T) {
		svc := newTestService(newMockRepo(), now)
		_, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
			ClinicID:  uuid.New(),
			PatientID: uuid.New(),
			Items:     []ledger.LineItem{{Description: "", Quantity: 1, UnitPrice: d(100)}},
		})
		assert.ErrorIs(t, err, ErrEmptyInvoice)
	})

	t.Run("rejects unknown patient", func(t *testing.T) {
		repo := newMockRepo()
		repo.patientOK = false
		svc := newTestService(repo, now)
		_, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
			ClinicID:  uuid.New(),
			PatientID: uuid.New(),
			Items:     []ledger.LineItem{{Description: "Checkup", Quantity: 1, UnitPrice: d(100)}},
		})
		assert.ErrorIs(t, err, ErrPatientNotFound)
	})
}

func TestRecordPayment(t *testing.T) {
	now := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)

	t.Run("full payment settles the invoice", func(t *testing.T) {
		repo := newMockRepo()
		svc := newTestService(repo, now)
		inv := implantInvoice(t, svc)

		payment, updated, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			InvoiceID: inv.ID,
			Amount:    d(950),
			Method:    MethodCash,
		})
		require.NoError(t, err)
		assert.True(t, payment.Amount.Equal(d(950)))
		assert.Equal(t, now, payment.Date)
		assert.True(t, updated.Balance.IsZero())
		assert.Equal(t, ledger.StatusPaid, updated.Status)
	})

	t.Run("partial then overpayment", func(t *testing.T) {
		repo := newMockRepo()
		svc := newTestService(repo, now)
		inv := implantInvoice(t, svc)

		_, updated, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			InvoiceID: inv.ID, Amount: d(400), Method: MethodCard,
		})
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusPartial, updated.Status)
		assert.True(t, updated.Balance.Equal(d(550)))

		_, updated, err = svc.RecordPayment(context.Background(), RecordPaymentRequest{
			InvoiceID: inv.ID, Amount: d(1100), Method: MethodCard,
		})
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusPaid, updated.Status)
		assert.True(t, updated.Balance.IsZero())
		// AmountPaid keeps the over-collected total.
		assert.True(t, updated.AmountPaid.Equal(d(1500)))
		assert.Len(t, repo.payments, 2)
	})

	t.Run("payments from a shared stale read still accumulate", func(t *testing.T) {
		repo := newMockRepo()
		svc := newTestService(repo, now)
		inv := implantInvoice(t, svc)

		// Two desks read the same unpaid snapshot before either records.
		// The reconciliation must come from the row at write time, not
		// from what either desk read.
		snapshot, err := repo.GetInvoiceByID(context.Background(), inv.ID)
		require.NoError(t, err)
		repo.stale = snapshot

		_, _, err = svc.RecordPayment(context.Background(), RecordPaymentRequest{
			InvoiceID: inv.ID, Amount: d(300), Method: MethodCash,
		})
		require.NoError(t, err)

		_, updated, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			InvoiceID: inv.ID, Amount: d(200), Method: MethodCard,
		})
		require.NoError(t, err)

		assert.True(t, updated.AmountPaid.Equal(d(500)), "second payment must not overwrite the first")
		assert.True(t, updated.Balance.Equal(d(450)))
		assert.Equal(t, ledger.StatusPartial, updated.Status)
		assert.Len(t, repo.payments, 2)

		repo.stale = nil
		stored, err := repo.GetInvoiceByID(context.Background(), inv.ID)
		require.NoError(t, err)
		assert.True(t, stored.AmountPaid.Equal(d(500)))
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		repo := newMockRepo()
		svc := newTestService(repo, now)
		inv := implantInvoice(t, svc)

		_, _, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			InvoiceID: inv.ID, Amount: decimal.Zero, Method: MethodCash,
		})
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Empty(t, repo.payments)
	})

	t.Run("rejects void invoice", func(t *testing.T) {
		repo := newMockRepo()
		svc := newTestService(repo, now)
		inv := implantInvoice(t, svc)
		repo.invoices[inv.ID].IsVoid = true

		_, _, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			InvoiceID: inv.ID, Amount: d(100), Method: MethodCash,
		})
		assert.ErrorIs(t, err, ErrInvoiceVoid)
	})

	t.Run("storage failure leaves prior snapshot alone", func(t *testing.T) {
		repo := newMockRepo()
		svc := newTestService(repo, now)
		inv := implantInvoice(t, svc)
		repo.appendErr = context.DeadlineExceeded

		_, _, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			InvoiceID: inv.ID, Amount: d(100), Method: MethodCash,
		})
		require.Error(t, err)

		stored, err := repo.GetInvoiceByID(context.Background(), inv.ID)
		require.NoError(t, err)
		assert.True(t, stored.AmountPaid.IsZero())
		assert.Equal(t, ledger.StatusUnpaid, stored.Status)
	})
}

func TestUpdateDiscount(t *testing.T) {
	now := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	repo := newMockRepo()
	svc := newTestService(repo, now)
	inv := implantInvoice(t, svc)

	once, err := svc.UpdateDiscount(context.Background(), inv.ID, d(200))
	require.NoError(t, err)
	assert.True(t, once.TotalAmount.Equal(d(850)))

	twice, err := svc.UpdateDiscount(context.Background(), inv.ID, d(200))
	require.NoError(t, err)
	assert.True(t, once.TotalAmount.Equal(twice.TotalAmount))
	assert.True(t, once.Balance.Equal(twice.Balance))
}

func TestDeleteInvoice(t *testing.T) {
	now := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)

	t.Run("unpaid invoice deletes", func(t *testing.T) {
		repo := newMockRepo()
		svc := newTestService(repo, now)
		inv := implantInvoice(t, svc)

		require.NoError(t, svc.DeleteInvoice(context.Background(), inv.ID))
		assert.Equal(t, inv.ID, *repo.deleted)
	})

	t.Run("paid-against invoice refuses", func(t *testing.T) {
		repo := newMockRepo()
		svc := newTestService(repo, now)
		inv := implantInvoice(t, svc)

		_, _, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
			InvoiceID: inv.ID, Amount: d(10), Method: MethodCash,
		})
		require.NoError(t, err)

		err = svc.DeleteInvoice(context.Background(), inv.ID)
		assert.ErrorIs(t, err, ErrInvoiceNotDeletable)
	})
}

func TestMarkOverdueInvoices(t *testing.T) {
	now := time.Date(2024, time.April, 15, 9, 0, 0, 0, time.UTC)
	repo := newMockRepo()
	svc := newTestService(repo, now)

	past := implantInvoice(t, svc) // due 2024-03-31, unpaid

	fresh, err := svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		ClinicID:    uuid.New(),
		PatientID:   uuid.New(),
		InvoiceDate: now,
		DueDate:     now.AddDate(0, 1, 0),
		Items:       []ledger.LineItem{{Description: "Checkup", Quantity: 1, UnitPrice: d(80)}},
	})
	require.NoError(t, err)

	marked, err := svc.MarkOverdueInvoices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, marked)
	assert.Equal(t, ledger.StatusOverdue, repo.invoices[past.ID].Status)
	assert.Equal(t, ledger.StatusUnpaid, repo.invoices[fresh.ID].Status)
}
