package ledger_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"
	"spectrum-academy/internal/service"
)

type ledgerService struct {
	studentRepo repository.StudentRepository
	paymentRepo repository.PaymentLogRepository
	logger      *zap.Logger
	now         func() time.Time
}

func NewLedgerService(studentRepo repository.StudentRepository, paymentRepo repository.PaymentLogRepository, logger *zap.Logger) service.LedgerService {
	return &ledgerService{
		studentRepo: studentRepo,
		paymentRepo: paymentRepo,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *ledgerService) Record(ctx context.Context, in service.PaymentLogInput) (*models.PaymentLog, error) {
	if err := service.Validate(in); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, apperrors.Invalid("amount must be greater than 0")
	}
	// идентификатор платежа шлюза пишет только RecordVerified после проверки подписи
	if nonEmpty(in.GatewayPaymentID) {
		return nil, apperrors.Invalid("gateway payment ids are recorded only through payment confirmation")
	}
	date, err := service.ParseDate(in.PaymentDate)
	if err != nil {
		return nil, err
	}

	log := &models.PaymentLog{
		StudentID:      in.StudentID,
		Amount:         in.Amount,
		Status:         models.PaymentStatus(in.Status),
		PaymentDate:    date,
		Method:         in.Method,
		ReceiptID:      in.ReceiptID,
		GatewayOrderID: nilIfEmpty(in.GatewayOrderID),
	}
	if err := s.paymentRepo.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("запись платежа ученика %d: %w", in.StudentID, err)
	}

	s.logger.Info("payment log recorded",
		zap.Int64("id", log.ID),
		zap.Int64("student_id", log.StudentID),
		zap.String("status", string(log.Status)),
	)
	return log, nil
}

func (s *ledgerService) RecordVerified(ctx context.Context, entry *models.PaymentLog) (*models.PaymentLog, bool, error) {
	if !entry.HasGatewayPair() {
		return nil, false, apperrors.Invalid("gateway order and payment ids are required")
	}
	orderID, paymentID := *entry.GatewayOrderID, *entry.GatewayPaymentID

	existing, err := s.paymentRepo.GetByGatewayPair(ctx, orderID, paymentID)
	switch {
	case err == nil:
		if err := sameConfirmation(existing, entry); err != nil {
			return nil, false, err
		}
		return existing, true, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, false, fmt.Errorf("поиск платежа %s/%s: %w", orderID, paymentID, err)
	}

	log := *entry
	log.Status = models.PaymentPaid
	err = s.paymentRepo.Create(ctx, &log)
	if err == nil {
		s.logger.Info("verified payment recorded",
			zap.Int64("id", log.ID),
			zap.Int64("student_id", log.StudentID),
			zap.String("order_id", orderID),
		)
		return &log, false, nil
	}
	if !errors.Is(err, apperrors.ErrConstraintViolation) {
		return nil, false, fmt.Errorf("запись платежа %s/%s: %w", orderID, paymentID, err)
	}

	// параллельное подтверждение успело раньше
	winner, err := s.paymentRepo.GetByGatewayPair(ctx, orderID, paymentID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: payment %s/%s: re-read after race: %v", apperrors.ErrConflict, orderID, paymentID, err)
	}
	if err := sameConfirmation(winner, entry); err != nil {
		return nil, false, err
	}
	return winner, true, nil
}

// sameConfirmation дубликатом считается только оплаченная строка того же ученика
func sameConfirmation(existing, entry *models.PaymentLog) error {
	if existing.Status != models.PaymentPaid || existing.StudentID != entry.StudentID {
		return fmt.Errorf("%w: gateway pair %s/%s is already held by payment log %d",
			apperrors.ErrConflict, *entry.GatewayOrderID, *entry.GatewayPaymentID, existing.ID)
	}
	return nil
}

func (s *ledgerService) Update(ctx context.Context, id int64, in service.PaymentLogUpdate) (*models.PaymentLog, error) {
	if err := service.Validate(in); err != nil {
		return nil, err
	}

	var patch models.PaymentLogPatch
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return nil, apperrors.Invalid("amount must be greater than 0")
		}
		patch.Amount = in.Amount
	}
	if in.Status != nil {
		status := models.PaymentStatus(*in.Status)
		patch.Status = &status
	}
	if in.PaymentDate != nil {
		date, err := service.ParseDate(*in.PaymentDate)
		if err != nil {
			return nil, err
		}
		patch.PaymentDate = &date
	}
	patch.Method = in.Method
	patch.ReceiptID = in.ReceiptID
	if patch.Empty() {
		return nil, apperrors.Invalid("no fields to update")
	}

	current, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("платеж %d: %w", id, err)
	}
	if current.HasGatewayPair() && patch.Status != nil && *patch.Status != models.PaymentPaid {
		return nil, fmt.Errorf("%w: payment log %d is confirmed by the gateway and must stay paid", apperrors.ErrConflict, id)
	}

	updated, err := s.paymentRepo.UpdatePartial(ctx, id, patch, s.now())
	if err != nil {
		return nil, fmt.Errorf("обновление платежа %d: %w", id, err)
	}

	s.logger.Info("payment log updated", zap.Int64("id", id), zap.Int64("student_id", updated.StudentID))
	return updated, nil
}

func (s *ledgerService) ListByStudent(ctx context.Context, studentID int64) ([]models.PaymentLog, error) {
	if studentID <= 0 {
		return nil, apperrors.Invalid("student id must be greater than 0")
	}
	if _, err := s.studentRepo.GetByID(ctx, studentID); err != nil {
		return nil, fmt.Errorf("ученик %d: %w", studentID, err)
	}

	logs, err := s.paymentRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("платежи ученика %d: %w", studentID, err)
	}
	return logs, nil
}

func (s *ledgerService) List(ctx context.Context) ([]models.PaymentLog, error) {
	logs, err := s.paymentRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("журнал платежей: %w", err)
	}
	return logs, nil
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

func nilIfEmpty(s *string) *string {
	if !nonEmpty(s) {
		return nil
	}
	return s
}
