package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/models"
)

type paymentRepo struct{ s *Store }

func (r paymentRepo) joined(p *models.PaymentLog) *models.PaymentLog {
	out := *p
	out.StudentName = r.s.students[p.StudentID].Name
	return &out
}

func (r paymentRepo) Create(ctx context.Context, log *models.PaymentLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.students[log.StudentID]; !ok {
		return apperrors.NotFound("student %d", log.StudentID)
	}
	if log.HasGatewayPair() {
		for _, p := range r.s.payments {
			if p.HasGatewayPair() && *p.GatewayOrderID == *log.GatewayOrderID && *p.GatewayPaymentID == *log.GatewayPaymentID {
				return fmt.Errorf("create payment log: %w: payment_logs_gateway_pair_key", apperrors.ErrConstraintViolation)
			}
		}
	}

	now := r.s.now()
	stored := *log
	stored.ID = r.s.id()
	stored.PaymentDate = truncateDay(stored.PaymentDate)
	stored.CreatedAt, stored.UpdatedAt = now, now
	r.s.payments[stored.ID] = &stored

	*log = *r.joined(&stored)
	return nil
}

func (r paymentRepo) GetByID(ctx context.Context, id int64) (*models.PaymentLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payments[id]
	if !ok {
		return nil, apperrors.NotFound("payment log %d", id)
	}
	return r.joined(p), nil
}

func (r paymentRepo) GetByGatewayPair(ctx context.Context, orderID, paymentID string) (*models.PaymentLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.payments {
		if p.HasGatewayPair() && *p.GatewayOrderID == orderID && *p.GatewayPaymentID == paymentID {
			return r.joined(p), nil
		}
	}
	return nil, apperrors.NotFound("payment log for order %s / payment %s", orderID, paymentID)
}

func (r paymentRepo) UpdatePartial(ctx context.Context, id int64, patch models.PaymentLogPatch, updatedAt time.Time) (*models.PaymentLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, apperrors.Invalid("нет полей для обновления")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payments[id]
	if !ok {
		return nil, apperrors.NotFound("payment log %d", id)
	}
	if patch.Amount != nil {
		p.Amount = *patch.Amount
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.PaymentDate != nil {
		p.PaymentDate = truncateDay(*patch.PaymentDate)
	}
	if patch.Method != nil {
		p.Method = patch.Method
	}
	if patch.ReceiptID != nil {
		p.ReceiptID = patch.ReceiptID
	}
	p.UpdatedAt = updatedAt
	return r.joined(p), nil
}

func (r paymentRepo) GetByStudentID(ctx context.Context, studentID int64) ([]models.PaymentLog, error) {
	return r.list(ctx, func(p *models.PaymentLog) bool { return p.StudentID == studentID })
}

func (r paymentRepo) GetAll(ctx context.Context) ([]models.PaymentLog, error) {
	return r.list(ctx, func(*models.PaymentLog) bool { return true })
}

func (r paymentRepo) list(ctx context.Context, match func(*models.PaymentLog) bool) ([]models.PaymentLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	logs := []models.PaymentLog{}
	for _, p := range r.s.payments {
		if match(p) {
			logs = append(logs, *r.joined(p))
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		if !logs[i].PaymentDate.Equal(logs[j].PaymentDate) {
			return logs[i].PaymentDate.After(logs[j].PaymentDate)
		}
		return logs[i].ID > logs[j].ID
	})
	return logs, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
