package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dentalops/clinic-scheduling/internal/patient"
)

func createPatientHandler(repo patient.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		clinicID, err := uuid.Parse(req.ClinicID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "missing_name", "name is required")
			return
		}

		p, err := repo.CreatePatient(r.Context(), patient.Patient{
			ClinicID: clinicID,
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func getPatientHandler(repo patient.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		p, err := repo.GetPatientByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, patient.ErrPatientNotFound) {
				writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func listPatientsHandler(repo patient.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		clinicID, err := uuid.Parse(q.Get("clinic_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinic_id must be a valid UUID")
			return
		}

		limit := queryInt(q.Get("limit"), 50)
		offset := queryInt(q.Get("offset"), 0)

		patients, err := repo.ListPatientsByClinic(r.Context(), clinicID, limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]PatientResponse, 0, len(patients))
		for i := range patients {
			out = append(out, toPatientResponse(&patients[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toPatientResponse(p *patient.Patient) PatientResponse {
	return PatientResponse{
		ID:       p.ID,
		ClinicID: p.ClinicID,
		Name:     p.Name,
		Email:    p.Email,
		Phone:    p.Phone,
	}
}
