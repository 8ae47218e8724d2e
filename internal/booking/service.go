package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dentalops/clinic-scheduling/internal/config"
	redisclient "github.com/dentalops/clinic-scheduling/internal/redis"
	"github.com/dentalops/clinic-scheduling/internal/schedule"
)

const minutesPerDay = 24 * 60

var (
	ErrInvalidInterval   = errors.New("appointment interval is invalid")
	ErrPastSchedule      = errors.New("appointment time is not strictly in the future")
	ErrTimeBeingBooked   = errors.New("time is currently being booked, please retry")
	ErrInvalidTransition = errors.New("invalid appointment status transition")
)

type BookRequest struct {
	ClinicID  uuid.UUID
	PatientID uuid.UUID
	DentistID uuid.UUID
	Date      time.Time
	StartMin  int
	EndMin    int
	Type      TreatmentType
	Reason    string
	Notes     string
}

type Service struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
	// clock allows tests to pin "now" for the past-cutoff checks
	clock func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		clock:  time.Now,
	}
}

// Book reserves an interval on a dentist's calendar for a patient.
// The per-dentist-day redis lock plus the re-check inside it keep two
// concurrent requests for overlapping times from both passing the conflict
// check; the unique index on (clinic_id, dentist_id, date, start_min) is
// the last line of defense, surfaced as the same retryable ErrTimeConflict.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	if req.StartMin >= req.EndMin || req.StartMin < 0 || req.EndMin > minutesPerDay {
		return nil, ErrInvalidInterval
	}
	if !schedule.CanScheduleAt(req.Date, req.StartMin, s.clock()) {
		return nil, ErrPastSchedule
	}

	ok, err := s.repo.PatientExists(ctx, req.ClinicID, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}
	if !ok {
		return nil, ErrPatientNotFound
	}

	if _, err := s.repo.GetDentistByID(ctx, req.ClinicID, req.DentistID); err != nil {
		if errors.Is(err, ErrDentistNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load dentist: %w", err)
	}

	var created *Appointment

	err = s.locker.WithBookingLock(ctx, req.DentistID, req.Date, func(lockCtx context.Context) error {
		day, err := s.repo.ListDayAppointments(lockCtx, req.ClinicID, req.DentistID, req.Date)
		if err != nil {
			return fmt.Errorf("list day appointments: %w", err)
		}

		if schedule.HasConflict(asBooked(day), req.Date, req.StartMin, req.EndMin) {
			return ErrTimeConflict
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			ClinicID:  req.ClinicID,
			PatientID: req.PatientID,
			DentistID: req.DentistID,
			Date:      req.Date,
			StartMin:  req.StartMin,
			EndMin:    req.EndMin,
			Type:      req.Type,
			Status:    StatusScheduled,
			Reason:    req.Reason,
			Notes:     req.Notes,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrTimeBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// AvailableSlots returns the free grid start minutes for one dentist-day.
// The grid spans the configured clinic hours; past days come back empty.
func (s *Service) AvailableSlots(ctx context.Context, clinicID, dentistID uuid.UUID, date time.Time) ([]int, error) {
	if _, err := s.repo.GetDentistByID(ctx, clinicID, dentistID); err != nil {
		return nil, err
	}

	day, err := s.repo.ListDayAppointments(ctx, clinicID, dentistID, date)
	if err != nil {
		return nil, fmt.Errorf("list day appointments: %w", err)
	}

	grid := schedule.Grid(s.cfg.ClinicOpenMin, s.cfg.ClinicCloseMin, s.cfg.SlotMinutes)

	slots := make([]int, 0, len(grid))
	for start := range schedule.AvailableSlots(asBooked(day), date, grid, s.cfg.SlotMinutes, s.clock()) {
		slots = append(slots, start)
	}
	return slots, nil
}

// ChangeStatus moves an appointment through its forward-only lifecycle.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, to AppointmentStatus) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !appt.Status.CanTransitionTo(to) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Status moved underneath us between the read and the CAS update.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	return updated, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

func (s *Service) ListDay(ctx context.Context, clinicID, dentistID uuid.UUID, date time.Time) ([]Appointment, error) {
	return s.repo.ListDayAppointments(ctx, clinicID, dentistID, date)
}

// ListByPatient retrieves a patient's appointment history, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListAppointmentsByPatient(ctx, patientID, limit, offset)
}
