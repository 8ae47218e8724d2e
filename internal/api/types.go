package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Dates travel as "2006-01-02", clock times as "15:04".

type CreatePatientRequest struct {
	ClinicID string  `json:"clinic_id"`
	Name     string  `json:"name"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

type PatientResponse struct {
	ID       uuid.UUID `json:"id"`
	ClinicID uuid.UUID `json:"clinic_id"`
	Name     string    `json:"name"`
	Email    *string   `json:"email,omitempty"`
	Phone    *string   `json:"phone,omitempty"`
}

type BookAppointmentRequest struct {
	ClinicID  string `json:"clinic_id"`
	PatientID string `json:"patient_id"`
	DentistID string `json:"dentist_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Type      string `json:"type"`
	Reason    string `json:"reason,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	ClinicID  uuid.UUID `json:"clinic_id"`
	PatientID uuid.UUID `json:"patient_id"`
	DentistID uuid.UUID `json:"dentist_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

type SlotsResponse struct {
	DentistID uuid.UUID `json:"dentist_id"`
	Date      string    `json:"date"`
	SlotMin   int       `json:"slot_minutes"`
	Slots     []string  `json:"slots"`
}

type InvoiceItemPayload struct {
	Description string          `json:"description"`
	ToothNumber *int            `json:"tooth_number,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CreateInvoiceRequest struct {
	ClinicID       string               `json:"clinic_id"`
	PatientID      string               `json:"patient_id"`
	InvoiceDate    string               `json:"invoice_date"`
	DueDate        string               `json:"due_date"`
	Items          []InvoiceItemPayload `json:"items"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	TaxAmount      decimal.Decimal      `json:"tax_amount"`
}

type InvoiceItemResponse struct {
	Description string          `json:"description"`
	ToothNumber *int            `json:"tooth_number,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type InvoiceResponse struct {
	ID             uuid.UUID             `json:"id"`
	ClinicID       uuid.UUID             `json:"clinic_id"`
	PatientID      uuid.UUID             `json:"patient_id"`
	InvoiceDate    string                `json:"invoice_date"`
	DueDate        string                `json:"due_date"`
	Subtotal       decimal.Decimal       `json:"subtotal"`
	DiscountAmount decimal.Decimal       `json:"discount_amount"`
	TaxAmount      decimal.Decimal       `json:"tax_amount"`
	TotalAmount    decimal.Decimal       `json:"total_amount"`
	AmountPaid     decimal.Decimal       `json:"amount_paid"`
	Balance        decimal.Decimal       `json:"balance"`
	Status         string                `json:"status"`
	Items          []InvoiceItemResponse `json:"items,omitempty"`
}

type RecordPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	ReferenceNumber *string         `json:"reference_number,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

type PaymentResponse struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	PatientID       uuid.UUID       `json:"patient_id"`
	Date            time.Time       `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	ReferenceNumber *string         `json:"reference_number,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

type RecordPaymentResponse struct {
	Payment PaymentResponse `json:"payment"`
	Invoice InvoiceResponse `json:"invoice"`
}

type UpdateDiscountRequest struct {
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

type RevenueReportResponse struct {
	ClinicID     uuid.UUID       `json:"clinic_id"`
	From         string          `json:"from"`
	To           string          `json:"to"`
	InvoiceCount int             `json:"invoice_count"`
	Invoiced     decimal.Decimal `json:"invoiced"`
	Collected    decimal.Decimal `json:"collected"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	OverdueCount int             `json:"overdue_count"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
