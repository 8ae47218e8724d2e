package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrPatientNotFound = errors.New("patient not found")

type Patient struct {
	ID        uuid.UUID
	ClinicID  uuid.UUID
	Name      string
	Email     *string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	CreatePatient(ctx context.Context, p Patient) (*Patient, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListPatientsByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]Patient, error)
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var email, phone *string

	err := row.Scan(
		&p.ID,
		&p.ClinicID,
		&p.Name,
		&email,
		&phone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.Email = email
	p.Phone = phone
	return &p, nil
}

func (r *PgRepository) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, clinic_id, name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, clinic_id, name, email, phone, created_at, updated_at
	`, p.ID, p.ClinicID, p.Name, p.Email, p.Phone)

	return scanPatient(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, clinic_id, name, email, phone, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) ListPatientsByClinic(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]Patient, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, clinic_id, name, email, phone, created_at, updated_at
		FROM patients
		WHERE clinic_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`, clinicID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
