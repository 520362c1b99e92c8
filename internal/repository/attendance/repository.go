package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"
)

// Ученики и тренеры хранятся в разных таблицах, у каждой UNIQUE(<subject>_id, date).
// Проекция приводит обе к одной форме models.AttendanceRecord.
type table struct {
	name       string
	projection string
	join       string
	insert     string
	update     string
}

var studentTable = table{
	name: "academy.student_attendance",
	projection: `a.id, 'student' AS subject_kind, a.student_id AS subject_id, a.date, a.status, a.notes,
		a.batch, NULL::jsonb AS entry_location, NULL::jsonb AS exit_location, NULL::numeric AS total_hours,
		a.created_at, a.updated_at,
		COALESCE(s.name, '') AS subject_name, COALESCE(s.sport, '') AS subject_sport`,
	join: `LEFT JOIN academy.students s ON s.id = a.student_id`,
	insert: `INSERT INTO academy.student_attendance (student_id, date, status, notes, batch)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`,
	update: `UPDATE academy.student_attendance
		SET status = $3,
			notes = COALESCE($4, notes),
			batch = COALESCE($5, batch),
			updated_at = CURRENT_TIMESTAMP
		WHERE student_id = $1 AND date = $2
		RETURNING *`,
}

var coachTable = table{
	name: "academy.coach_attendance",
	projection: `a.id, 'coach' AS subject_kind, a.coach_id AS subject_id, a.date, a.status, a.notes,
		NULL::text AS batch, a.entry_location, a.exit_location, a.total_hours,
		a.created_at, a.updated_at,
		COALESCE(c.name, '') AS subject_name, COALESCE(array_to_string(c.sports, ', '), '') AS subject_sport`,
	join: `LEFT JOIN academy.coaches c ON c.id = a.coach_id`,
	insert: `INSERT INTO academy.coach_attendance (coach_id, date, status, notes, entry_location, exit_location, total_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *`,
	update: `UPDATE academy.coach_attendance
		SET status = $3,
			notes = COALESCE($4, notes),
			entry_location = COALESCE($5, entry_location),
			exit_location = COALESCE($6, exit_location),
			total_hours = COALESCE($7, total_hours),
			updated_at = CURRENT_TIMESTAMP
		WHERE coach_id = $1 AND date = $2
		RETURNING *`,
}

func tableFor(kind models.SubjectKind) (table, error) {
	switch kind {
	case models.SubjectStudent:
		return studentTable, nil
	case models.SubjectCoach:
		return coachTable, nil
	}
	return table{}, apperrors.Invalid("unknown subject kind %q", kind)
}

// сначала пишем, потом в том же выражении джойним имя: одна атомарная команда
func (t table) writeQuery(write string) string {
	return fmt.Sprintf("WITH a AS (%s) SELECT %s FROM a %s", write, t.projection, t.join)
}

func (t table) args(record *models.AttendanceRecord) []any {
	args := []any{record.SubjectID, record.Date.Format(models.DateLayout), record.Status, record.Notes}
	if record.SubjectKind == models.SubjectStudent {
		return append(args, record.Batch)
	}
	return append(args, record.EntryLocation, record.ExitLocation, record.TotalHours)
}

type attendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) repository.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Find(ctx context.Context, key models.AttendanceKey) (*models.AttendanceRecord, error) {
	t, err := tableFor(key.Kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s a %s WHERE a.%s_id = $1 AND a.date = $2`,
		t.projection, t.name, t.join, key.Kind)

	record := &models.AttendanceRecord{}
	if err := r.db.GetContext(ctx, record, query, key.SubjectID, key.Date.Format(models.DateLayout)); err != nil {
		return nil, repository.Classify("find attendance "+key.String(), err)
	}
	return record, nil
}

func (r *attendanceRepository) Insert(ctx context.Context, record *models.AttendanceRecord) error {
	t, err := tableFor(record.SubjectKind)
	if err != nil {
		return err
	}

	if err := r.db.GetContext(ctx, record, t.writeQuery(t.insert), t.args(record)...); err != nil {
		return repository.Classify("insert attendance "+record.Key().String(), err)
	}
	return nil
}

func (r *attendanceRepository) Update(ctx context.Context, record *models.AttendanceRecord) error {
	t, err := tableFor(record.SubjectKind)
	if err != nil {
		return err
	}

	if err := r.db.GetContext(ctx, record, t.writeQuery(t.update), t.args(record)...); err != nil {
		return repository.Classify("update attendance "+record.Key().String(), err)
	}
	return nil
}

func (r *attendanceRepository) List(ctx context.Context, kind models.SubjectKind, period models.DateRange) ([]models.AttendanceRecord, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s a %s
		WHERE ($1::date IS NULL OR a.date >= $1::date)
		  AND ($2::date IS NULL OR a.date <= $2::date)
		ORDER BY a.date DESC, a.id DESC`,
		t.projection, t.name, t.join)

	records := []models.AttendanceRecord{}
	if err := r.db.SelectContext(ctx, &records, query, formatDate(period.From), formatDate(period.To)); err != nil {
		return nil, repository.Classify("list attendance", err)
	}
	return records, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(models.DateLayout)
	return &s
}
