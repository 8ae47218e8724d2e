package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/dentalops/clinic-scheduling/internal/schedule"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

// Terminal reports whether the status ends the appointment lifecycle.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// CanTransitionTo encodes the forward-only lifecycle: scheduled may move
// sideways to confirmed or to any terminal state, confirmed may only move
// to a terminal state, and terminal states never revert.
func (s AppointmentStatus) CanTransitionTo(to AppointmentStatus) bool {
	if s.Terminal() || to == s {
		return false
	}
	switch s {
	case StatusScheduled:
		return to == StatusConfirmed || to.Terminal()
	case StatusConfirmed:
		return to.Terminal()
	}
	return false
}

type TreatmentType string

const (
	TreatmentCheckup      TreatmentType = "checkup"
	TreatmentCleaning     TreatmentType = "cleaning"
	TreatmentFilling      TreatmentType = "filling"
	TreatmentRootCanal    TreatmentType = "root_canal"
	TreatmentExtraction   TreatmentType = "extraction"
	TreatmentCrown        TreatmentType = "crown"
	TreatmentOrthodontics TreatmentType = "orthodontics"
	TreatmentOther        TreatmentType = "other"
)

type Dentist struct {
	ID        uuid.UUID
	ClinicID  uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment is a dated interval on one dentist's calendar. Start and end
// are minutes since midnight, half-open, minute resolution.
type Appointment struct {
	ID        uuid.UUID
	ClinicID  uuid.UUID
	PatientID uuid.UUID
	DentistID uuid.UUID
	Date      time.Time
	StartMin  int
	EndMin    int
	Type      TreatmentType
	Status    AppointmentStatus
	Reason    string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AsBooked translates the row into the engine's boundary shape.
func (a Appointment) AsBooked() schedule.Booked {
	return schedule.Booked{
		Date:      a.Date,
		StartMin:  a.StartMin,
		EndMin:    a.EndMin,
		Cancelled: a.Status == StatusCancelled,
	}
}

func asBooked(appts []Appointment) []schedule.Booked {
	out := make([]schedule.Booked, 0, len(appts))
	for _, a := range appts {
		out = append(out, a.AsBooked())
	}
	return out
}
