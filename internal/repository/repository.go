package repository

import (
	"context"
	"time"

	"spectrum-academy/internal/models"
)

// Все методы возвращают ошибки из apperrors:
// ErrNotFound, ErrConstraintViolation или ErrTransient (см. Classify).

type StudentRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Student, error)
}

type AttendanceRepository interface {
	// Find запись по ключу (вид, id, дата)
	Find(ctx context.Context, key models.AttendanceKey) (*models.AttendanceRecord, error)
	// Insert вставляет запись; ErrConstraintViolation, если ключ уже занят
	Insert(ctx context.Context, record *models.AttendanceRecord) error
	// Update обновляет запись по ключу, nil-метаданные не меняются; ErrNotFound, если записи нет
	Update(ctx context.Context, record *models.AttendanceRecord) error
	List(ctx context.Context, kind models.SubjectKind, period models.DateRange) ([]models.AttendanceRecord, error)
}

type PaymentLogRepository interface {
	Create(ctx context.Context, log *models.PaymentLog) error
	GetByID(ctx context.Context, id int64) (*models.PaymentLog, error)
	GetByGatewayPair(ctx context.Context, orderID, paymentID string) (*models.PaymentLog, error)
	UpdatePartial(ctx context.Context, id int64, patch models.PaymentLogPatch, updatedAt time.Time) (*models.PaymentLog, error)
	GetByStudentID(ctx context.Context, studentID int64) ([]models.PaymentLog, error)
	GetAll(ctx context.Context) ([]models.PaymentLog, error)
}
