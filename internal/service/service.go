package service

import (
	"context"

	"github.com/shopspring/decimal"

	"spectrum-academy/internal/models"
)

// ...............................
type AttendanceService interface {
	// Mark отметка для любого вида субъекта
	Mark(ctx context.Context, req MarkRequest) (*models.AttendanceRecord, error)
	MarkStudent(ctx context.Context, m StudentMark) (*models.AttendanceRecord, error)
	MarkCoach(ctx context.Context, m CoachMark) (*models.AttendanceRecord, error)
	List(ctx context.Context, kind models.SubjectKind, period models.DateRange) ([]models.AttendanceRecord, error)
}

// Журнал платежей
type LedgerService interface {
	Record(ctx context.Context, in PaymentLogInput) (*models.PaymentLog, error)
	Update(ctx context.Context, id int64, in PaymentLogUpdate) (*models.PaymentLog, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.PaymentLog, error)
	List(ctx context.Context) ([]models.PaymentLog, error)
	// RecordVerified пишет строку "paid" для пары заказ+платеж с уже проверенной подписью.
	// Повторный вызов для той же пары возвращает существующую строку и duplicate=true.
	RecordVerified(ctx context.Context, entry *models.PaymentLog) (log *models.PaymentLog, duplicate bool, err error)
}

// Заказы в платежном шлюзе
type PaymentService interface {
	CreateOrder(ctx context.Context, amountMajor decimal.Decimal, receiptID string, notes map[string]string) (*models.Order, error)
	VerifyCallback(ctx context.Context, orderID, paymentID, signature string) (*VerifyResult, error)
	FetchOrder(ctx context.Context, orderID string) (*models.Order, error)
	ConfirmPayment(ctx context.Context, req ConfirmRequest) (*Confirmation, error)
	PublicKey() string
}

// Notifier уведомления администраторам, ошибки доставки не влияют на операцию
type Notifier interface {
	PaymentConfirmed(ctx context.Context, log *models.PaymentLog)
}

// NopNotifier когда бот не настроен
type NopNotifier struct{}

func (NopNotifier) PaymentConfirmed(context.Context, *models.PaymentLog) {}
