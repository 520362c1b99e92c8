// Package memory хранилище в памяти процесса с теми же гарантиями, что и Postgres-схема:
// уникальность ключей посещаемости и пары заказ+платеж, внешние ключи на учеников и тренеров.
// Используется при STORAGE=memory и в тестах.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"
)

type Store struct {
	mu         sync.Mutex
	now        func() time.Time
	students   map[int64]models.Student
	coaches    map[int64]models.Coach
	attendance map[string]*models.AttendanceRecord
	payments   map[int64]*models.PaymentLog
	nextID     int64
}

func NewStore() *Store {
	return &Store{
		now:        func() time.Time { return time.Now().UTC() },
		students:   make(map[int64]models.Student),
		coaches:    make(map[int64]models.Coach),
		attendance: make(map[string]*models.AttendanceRecord),
		payments:   make(map[int64]*models.PaymentLog),
	}
}

// AddStudent заводит ученика в справочник
func (s *Store) AddStudent(student models.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[student.ID] = student
}

// AddCoach заводит тренера в справочник
func (s *Store) AddCoach(coach models.Coach) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coaches[coach.ID] = coach
}

func (s *Store) Students() repository.StudentRepository     { return studentRepo{s} }
func (s *Store) Attendance() repository.AttendanceRepository { return attendanceRepo{s} }
func (s *Store) Payments() repository.PaymentLogRepository   { return paymentRepo{s} }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

type studentRepo struct{ s *Store }

func (r studentRepo) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	st, ok := r.s.students[id]
	if !ok {
		return nil, apperrors.NotFound("student %d", id)
	}
	return &st, nil
}

type attendanceRepo struct{ s *Store }

// join заполняет отображаемые поля, вызывать под s.mu
func (r attendanceRepo) join(rec *models.AttendanceRecord) error {
	switch rec.SubjectKind {
	case models.SubjectStudent:
		st, ok := r.s.students[rec.SubjectID]
		if !ok {
			return apperrors.NotFound("student %d", rec.SubjectID)
		}
		rec.SubjectName, rec.SubjectSport = st.Name, st.Sport
	case models.SubjectCoach:
		c, ok := r.s.coaches[rec.SubjectID]
		if !ok {
			return apperrors.NotFound("coach %d", rec.SubjectID)
		}
		rec.SubjectName = c.Name
		rec.SubjectSport = joinSports(c.Sports)
	default:
		return apperrors.Invalid("unknown subject kind %q", rec.SubjectKind)
	}
	return nil
}

func (r attendanceRepo) Find(ctx context.Context, key models.AttendanceKey) (*models.AttendanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.attendance[key.String()]
	if !ok {
		return nil, apperrors.NotFound("attendance %s", key)
	}
	out := *rec
	if err := r.join(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r attendanceRepo) Insert(ctx context.Context, record *models.AttendanceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := record.Key().String()
	if _, ok := r.s.attendance[key]; ok {
		return fmt.Errorf("insert attendance %s: %w", key, apperrors.ErrConstraintViolation)
	}
	if err := r.join(record); err != nil {
		return err
	}

	now := r.s.now()
	record.ID = r.s.id()
	record.CreatedAt, record.UpdatedAt = now, now
	stored := *record
	r.s.attendance[key] = &stored
	return nil
}

func (r attendanceRepo) Update(ctx context.Context, record *models.AttendanceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := record.Key().String()
	stored, ok := r.s.attendance[key]
	if !ok {
		return apperrors.NotFound("attendance %s", key)
	}

	stored.Status = record.Status
	if record.Notes != nil {
		stored.Notes = record.Notes
	}
	if record.Batch != nil {
		stored.Batch = record.Batch
	}
	if record.EntryLocation != nil {
		stored.EntryLocation = record.EntryLocation
	}
	if record.ExitLocation != nil {
		stored.ExitLocation = record.ExitLocation
	}
	if record.TotalHours != nil {
		stored.TotalHours = record.TotalHours
	}
	stored.UpdatedAt = r.s.now()

	*record = *stored
	return r.join(record)
}

func (r attendanceRepo) List(ctx context.Context, kind models.SubjectKind, period models.DateRange) ([]models.AttendanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	records := []models.AttendanceRecord{}
	for _, rec := range r.s.attendance {
		if rec.SubjectKind != kind || !period.Contains(rec.Date) {
			continue
		}
		out := *rec
		if err := r.join(&out); err != nil {
			return nil, err
		}
		records = append(records, out)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

func joinSports(sports []string) string {
	out := ""
	for i, sp := range sports {
		if i > 0 {
			out += ", "
		}
		out += sp
	}
	return out
}
