package reports

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reportCols = `id, patient_id, doctor_id, appointment_id, patient_name, doctor_name,
	diagnosis, prescription, notes, symptoms, treatment_plan, follow_up_date,
	report_type, blob_id, file_url, ai_summary, created_at, updated_at`

func scanReport(row pgx.Row) (*MedicalReport, error) {
	var m MedicalReport
	err := row.Scan(&m.ID, &m.PatientID, &m.DoctorID, &m.AppointmentID, &m.PatientName, &m.DoctorName,
		&m.Diagnosis, &m.Prescription, &m.Notes, &m.Symptoms, &m.TreatmentPlan, &m.FollowUpDate,
		&m.ReportType, &m.BlobID, &m.FileURL, &m.AISummary, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &m, err
}

func (r *repoPG) Create(ctx context.Context, m *MedicalReport) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_reports (id, patient_id, doctor_id, appointment_id, patient_name, doctor_name,
			diagnosis, prescription, notes, symptoms, treatment_plan, follow_up_date,
			report_type, blob_id, file_url, ai_summary)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at, updated_at`,
		m.ID, m.PatientID, m.DoctorID, m.AppointmentID, m.PatientName, m.DoctorName,
		m.Diagnosis, m.Prescription, m.Notes, m.Symptoms, m.TreatmentPlan, m.FollowUpDate,
		m.ReportType, m.BlobID, m.FileURL, m.AISummary,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalReport, error) {
	return scanReport(r.conn(ctx).QueryRow(ctx, `SELECT `+reportCols+` FROM medical_reports WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, m *MedicalReport) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE medical_reports SET diagnosis=$2, prescription=$3, notes=$4, symptoms=$5,
			treatment_plan=$6, follow_up_date=$7, ai_summary=$8, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		m.ID, m.Diagnosis, m.Prescription, m.Notes, m.Symptoms, m.TreatmentPlan, m.FollowUpDate, m.AISummary,
	).Scan(&m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*MedicalReport, int, error) {
	const where = ` WHERE ($1 = '00000000-0000-0000-0000-000000000000'::uuid OR patient_id = $1)
		AND ($2 = '00000000-0000-0000-0000-000000000000'::uuid OR doctor_id = $2)`
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_reports`+where,
		f.PatientID, f.DoctorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+reportCols+` FROM medical_reports`+where+`
		ORDER BY created_at DESC, id LIMIT NULLIF($3, 0) OFFSET $4`,
		f.PatientID, f.DoctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*MedicalReport
	for rows.Next() {
		m, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}
