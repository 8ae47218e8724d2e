package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dentalops/clinic-scheduling/internal/invoice"
	"github.com/dentalops/clinic-scheduling/internal/ledger"
)

func createInvoiceHandler(svc *invoice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateInvoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		clinicID, err := uuid.Parse(req.ClinicID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
			return
		}
		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}
		invoiceDate, err := parseDate(req.InvoiceDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_invoice_date", "invoice_date must be YYYY-MM-DD")
			return
		}
		dueDate, err := parseDate(req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_due_date", "due_date must be YYYY-MM-DD")
			return
		}

		items := make([]ledger.LineItem, 0, len(req.Items))
		for _, it := range req.Items {
			if it.Quantity < 0 || it.UnitPrice.IsNegative() {
				writeError(w, http.StatusBadRequest, "invalid_item", "quantity and unit_price must be non-negative")
				return
			}
			items = append(items, ledger.LineItem{
				Description: it.Description,
				ToothNumber: it.ToothNumber,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
			})
		}

		inv, err := svc.CreateInvoice(r.Context(), invoice.CreateInvoiceRequest{
			ClinicID:       clinicID,
			PatientID:      patientID,
			InvoiceDate:    invoiceDate,
			DueDate:        dueDate,
			Items:          items,
			DiscountAmount: req.DiscountAmount,
			TaxAmount:      req.TaxAmount,
		})
		if err != nil {
			handleInvoiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toInvoiceResponse(inv))
	}
}

func getInvoiceHandler(svc *invoice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_invoice_id", "id must be a valid UUID")
			return
		}

		inv, err := svc.GetInvoice(r.Context(), id)
		if err != nil {
			handleInvoiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
	}
}

func deleteInvoiceHandler(svc *invoice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_invoice_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeleteInvoice(r.Context(), id); err != nil {
			handleInvoiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func recordPaymentHandler(svc *invoice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_invoice_id", "id must be a valid UUID")
			return
		}

		var req RecordPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		payment, inv, err := svc.RecordPayment(r.Context(), invoice.RecordPaymentRequest{
			InvoiceID:       id,
			Amount:          req.Amount,
			Method:          invoice.PaymentMethod(req.Method),
			ReferenceNumber: req.ReferenceNumber,
			Notes:           req.Notes,
		})
		if err != nil {
			handleInvoiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, RecordPaymentResponse{
			Payment: toPaymentResponse(payment),
			Invoice: toInvoiceResponse(inv),
		})
	}
}

func listPaymentsHandler(svc *invoice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_invoice_id", "id must be a valid UUID")
			return
		}

		payments, err := svc.ListPayments(r.Context(), id)
		if err != nil {
			handleInvoiceError(w, err)
			return
		}

		out := make([]PaymentResponse, 0, len(payments))
		for i := range payments {
			out = append(out, toPaymentResponse(&payments[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updateDiscountHandler(svc *invoice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_invoice_id", "id must be a valid UUID")
			return
		}

		var req UpdateDiscountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		inv, err := svc.UpdateDiscount(r.Context(), id, req.DiscountAmount)
		if err != nil {
			handleInvoiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
	}
}

func revenueReportHandler(svc *invoice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		clinicID, err := uuid.Parse(q.Get("clinic_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
			return
		}
		from, err := parseDate(q.Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be YYYY-MM-DD")
			return
		}
		to, err := parseDate(q.Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to must be YYYY-MM-DD")
			return
		}

		rep, err := svc.RevenueReport(r.Context(), clinicID, from, to)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, RevenueReportResponse{
			ClinicID:     rep.ClinicID,
			From:         rep.From.Format(dateLayout),
			To:           rep.To.Format(dateLayout),
			InvoiceCount: rep.InvoiceCount,
			Invoiced:     rep.Invoiced,
			Collected:    rep.Collected,
			Outstanding:  rep.Outstanding,
			OverdueCount: rep.OverdueCount,
		})
	}
}

func handleInvoiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, invoice.ErrInvoiceNotFound):
		writeError(w, http.StatusNotFound, "invoice_not_found", err.Error())
	case errors.Is(err, invoice.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, invoice.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, invoice.ErrEmptyInvoice):
		writeError(w, http.StatusBadRequest, "empty_invoice", err.Error())
	case errors.Is(err, invoice.ErrInvoiceVoid):
		writeError(w, http.StatusConflict, "invoice_void", err.Error())
	case errors.Is(err, invoice.ErrInvoiceNotDeletable):
		writeError(w, http.StatusConflict, "invoice_not_deletable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func toInvoiceResponse(inv *invoice.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:             inv.ID,
		ClinicID:       inv.ClinicID,
		PatientID:      inv.PatientID,
		InvoiceDate:    inv.InvoiceDate.Format(dateLayout),
		DueDate:        inv.DueDate.Format(dateLayout),
		Subtotal:       inv.Subtotal,
		DiscountAmount: inv.DiscountAmount,
		TaxAmount:      inv.TaxAmount,
		TotalAmount:    inv.TotalAmount,
		AmountPaid:     inv.AmountPaid,
		Balance:        inv.Balance,
		Status:         string(inv.Status),
	}
	for _, it := range inv.Items {
		resp.Items = append(resp.Items, InvoiceItemResponse{
			Description: it.Description,
			ToothNumber: it.ToothNumber,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		})
	}
	return resp
}

func toPaymentResponse(p *invoice.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		InvoiceID:       p.InvoiceID,
		PatientID:       p.PatientID,
		Date:            p.Date,
		Amount:          p.Amount,
		Method:          string(p.Method),
		ReferenceNumber: p.ReferenceNumber,
		Notes:           p.Notes,
	}
}
