package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dentalops/clinic-scheduling/internal/booking"
	redisclient "github.com/dentalops/clinic-scheduling/internal/redis"
)

func bookAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
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
		dentistID, err := uuid.Parse(req.DentistID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_dentist_id", "dentist_id must be a valid UUID")
			return
		}
		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		startMin, err := parseClock(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be HH:MM")
			return
		}
		endMin, err := parseClock(req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_time", "end_time must be HH:MM")
			return
		}

		appt, err := svc.Book(r.Context(), booking.BookRequest{
			ClinicID:  clinicID,
			PatientID: patientID,
			DentistID: dentistID,
			Date:      date,
			StartMin:  startMin,
			EndMin:    endMin,
			Type:      booking.TreatmentType(req.Type),
			Reason:    req.Reason,
			Notes:     req.Notes,
		})
		if err != nil {
			handleBookError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func availableSlotsHandler(svc *booking.Service, slotMin int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dentistID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_dentist_id", "id must be a valid UUID")
			return
		}
		clinicID, err := uuid.Parse(r.URL.Query().Get("clinic_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
			return
		}
		date, err := parseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), clinicID, dentistID, date)
		if err != nil {
			if errors.Is(err, booking.ErrDentistNotFound) {
				writeError(w, http.StatusNotFound, "dentist_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := SlotsResponse{
			DentistID: dentistID,
			Date:      date.Format(dateLayout),
			SlotMin:   slotMin,
			Slots:     make([]string, 0, len(slots)),
		}
		for _, s := range slots {
			resp.Slots = append(resp.Slots, formatClock(s))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			if errors.Is(err, booking.ErrAppointmentNotFound) {
				writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		clinicID, err := uuid.Parse(q.Get("clinic_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
			return
		}
		dentistID, err := uuid.Parse(q.Get("dentist_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_dentist_id", "dentist_id must be a valid UUID")
			return
		}
		date, err := parseDate(q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		appts, err := svc.ListDay(r.Context(), clinicID, dentistID, date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			out = append(out, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listPatientAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		limit := queryInt(r.URL.Query().Get("limit"), 0)
		offset := queryInt(r.URL.Query().Get("offset"), 0)

		appts, err := svc.ListByPatient(r.Context(), patientID, limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			out = append(out, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func changeAppointmentStatusHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req ChangeStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.ChangeStatus(r.Context(), id, booking.AppointmentStatus(req.Status))
		if err != nil {
			handleStatusError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func handleBookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
	case errors.Is(err, booking.ErrPastSchedule):
		writeError(w, http.StatusUnprocessableEntity, "past_schedule", err.Error())
	case errors.Is(err, booking.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, booking.ErrDentistNotFound):
		writeError(w, http.StatusNotFound, "dentist_not_found", err.Error())
	case errors.Is(err, booking.ErrTimeConflict):
		writeError(w, http.StatusConflict, "time_conflict", err.Error())
	case errors.Is(err, booking.ErrTimeBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "time_being_booked", "time is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleStatusError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		ClinicID:  a.ClinicID,
		PatientID: a.PatientID,
		DentistID: a.DentistID,
		Date:      a.Date.Format(dateLayout),
		StartTime: formatClock(a.StartMin),
		EndTime:   formatClock(a.EndMin),
		Type:      string(a.Type),
		Status:    string(a.Status),
		Reason:    a.Reason,
		Notes:     a.Notes,
	}
}
