package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDentistNotFound     = errors.New("dentist not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrTimeConflict        = errors.New("requested time conflicts with an existing appointment")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetDentistByID(ctx context.Context, clinicID, id uuid.UUID) (*Dentist, error)
	PatientExists(ctx context.Context, clinicID, patientID uuid.UUID) (bool, error)

	// Day listings feed the conflict/slot engine.
	ListDayAppointments(ctx context.Context, clinicID, dentistID uuid.UUID, date time.Time) ([]Appointment, error)

	// CreateAppointment returns ErrTimeConflict when the unique index on
	// (clinic_id, dentist_id, date, start_min) rejects the insert.
	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)
}
