package attendance_service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/keylock"
	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"
	"spectrum-academy/internal/service"
)

type attendanceService struct {
	attendanceRepo repository.AttendanceRepository
	locks          *keylock.Arena
	logger         *zap.Logger
}

func NewAttendanceService(attendanceRepo repository.AttendanceRepository, locks *keylock.Arena, logger *zap.Logger) service.AttendanceService {
	return &attendanceService{
		attendanceRepo: attendanceRepo,
		locks:          locks,
		logger:         logger,
	}
}

func (s *attendanceService) MarkStudent(ctx context.Context, m service.StudentMark) (*models.AttendanceRecord, error) {
	return s.Mark(ctx, m.Request())
}

func (s *attendanceService) MarkCoach(ctx context.Context, m service.CoachMark) (*models.AttendanceRecord, error) {
	return s.Mark(ctx, m.Request())
}

// Mark одна запись на (вид, id, дата): первая отметка создает запись,
// следующие перезаписывают статус и переданные поля. Побеждает последний пришедший.
func (s *attendanceService) Mark(ctx context.Context, req service.MarkRequest) (*models.AttendanceRecord, error) {
	record, err := buildRecord(req)
	if err != nil {
		return nil, err
	}

	key := record.Key()
	unlock, err := s.locks.Lock(ctx, key.String())
	if err != nil {
		return nil, fmt.Errorf("ожидание блокировки %s: %w", key, err)
	}
	defer unlock()

	created, err := s.upsert(ctx, record)
	if err != nil {
		s.logger.Error("attendance mark failed", zap.Stringer("subject", key), zap.Error(err))
		return nil, err
	}

	s.logger.Info("attendance marked",
		zap.Stringer("subject", key),
		zap.String("status", string(record.Status)),
		zap.Bool("created", created),
	)
	return record, nil
}

// buildRecord проверка ввода до любого обращения к хранилищу
func buildRecord(req service.MarkRequest) (*models.AttendanceRecord, error) {
	if err := service.Validate(req); err != nil {
		return nil, err
	}

	meta := req.Metadata
	switch req.Kind {
	case models.SubjectStudent:
		if meta.EntryLocation != nil || meta.ExitLocation != nil || meta.TotalHours != nil {
			return nil, apperrors.Invalid("entry/exit location and total hours apply to coaches only")
		}
	case models.SubjectCoach:
		if meta.Batch != nil {
			return nil, apperrors.Invalid("batch applies to students only")
		}
	}

	date, err := service.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	return &models.AttendanceRecord{
		SubjectKind:   req.Kind,
		SubjectID:     req.SubjectID,
		Date:          date,
		Status:        models.AttendanceStatus(req.Status),
		Notes:         meta.Notes,
		Batch:         meta.Batch,
		EntryLocation: meta.EntryLocation,
		ExitLocation:  meta.ExitLocation,
		TotalHours:    meta.TotalHours,
	}, nil
}

// upsert вызывается под блокировкой ключа. Блокировка защищает от гонки внутри процесса,
// уникальный индекс хранилища от гонки между процессами.
func (s *attendanceService) upsert(ctx context.Context, record *models.AttendanceRecord) (created bool, err error) {
	key := record.Key()

	_, err = s.attendanceRepo.Find(ctx, key)
	switch {
	case err == nil:
		if err := s.attendanceRepo.Update(ctx, record); err != nil {
			return false, fmt.Errorf("обновление посещаемости %s: %w", key, err)
		}
		return false, nil
	case errors.Is(err, apperrors.ErrNotFound):
	default:
		// ошибку чтения не считаем отсутствием записи
		return false, fmt.Errorf("проверка посещаемости %s: %w", key, err)
	}

	attempt := *record
	err = s.attendanceRepo.Insert(ctx, &attempt)
	if err == nil {
		*record = attempt
		return true, nil
	}
	if !errors.Is(err, apperrors.ErrConstraintViolation) {
		return false, fmt.Errorf("создание посещаемости %s: %w", key, err)
	}

	// запись появилась между Find и Insert, повторяем один раз как обновление
	s.logger.Warn("attendance insert lost race, retrying as update", zap.Stringer("subject", key))
	if err := s.attendanceRepo.Update(ctx, record); err != nil {
		return false, fmt.Errorf("%w: attendance %s: retry as update failed: %v", apperrors.ErrConflict, key, err)
	}
	return false, nil
}

func (s *attendanceService) List(ctx context.Context, kind models.SubjectKind, period models.DateRange) ([]models.AttendanceRecord, error) {
	if !kind.Valid() {
		return nil, apperrors.Invalid("unknown subject kind %q", kind)
	}
	if period.From != nil && period.To != nil && period.From.After(*period.To) {
		return nil, apperrors.Invalid("startDate is after endDate")
	}

	records, err := s.attendanceRepo.List(ctx, kind, period)
	if err != nil {
		return nil, fmt.Errorf("список посещаемости: %w", err)
	}
	return records, nil
}
