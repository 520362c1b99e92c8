package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"
)

const columns = `p.id, p.student_id, p.amount, p.status, p.payment_date, p.method, p.receipt_id,
	p.gateway_order_id, p.gateway_payment_id, p.created_at, p.updated_at,
	COALESCE(s.name, '') AS student_name`

const join = `LEFT JOIN academy.students s ON s.id = p.student_id`

type paymentLogRepository struct {
	db *sqlx.DB
}

func NewPaymentLogRepository(db *sqlx.DB) repository.PaymentLogRepository {
	return &paymentLogRepository{db: db}
}

func (r *paymentLogRepository) Create(ctx context.Context, log *models.PaymentLog) error {
	query := fmt.Sprintf(`
		WITH p AS (
			INSERT INTO academy.payment_logs
			(student_id, amount, status, payment_date, method, receipt_id, gateway_order_id, gateway_payment_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING *
		)
		SELECT %s FROM p %s`, columns, join)

	err := r.db.GetContext(ctx, log, query,
		log.StudentID,
		log.Amount,
		log.Status,
		log.PaymentDate.Format(models.DateLayout),
		log.Method,
		log.ReceiptID,
		log.GatewayOrderID,
		log.GatewayPaymentID,
	)
	return repository.Classify("create payment log", err)
}

func (r *paymentLogRepository) GetByID(ctx context.Context, id int64) (*models.PaymentLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM academy.payment_logs p %s WHERE p.id = $1`, columns, join)

	log := &models.PaymentLog{}
	if err := r.db.GetContext(ctx, log, query, id); err != nil {
		return nil, repository.Classify("get payment log", err)
	}
	return log, nil
}

func (r *paymentLogRepository) GetByGatewayPair(ctx context.Context, orderID, paymentID string) (*models.PaymentLog, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM academy.payment_logs p %s
		WHERE p.gateway_order_id = $1 AND p.gateway_payment_id = $2`, columns, join)

	log := &models.PaymentLog{}
	if err := r.db.GetContext(ctx, log, query, orderID, paymentID); err != nil {
		return nil, repository.Classify("get payment log by gateway pair", err)
	}
	return log, nil
}

func (r *paymentLogRepository) UpdatePartial(ctx context.Context, id int64, patch models.PaymentLogPatch, updatedAt time.Time) (*models.PaymentLog, error) {
	if patch.Empty() {
		return nil, apperrors.Invalid("нет полей для обновления")
	}

	// Начинаем построение запроса, поля только из патча
	sets := []string{"updated_at = $1"}
	args := []any{updatedAt}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Amount != nil {
		add("amount", *patch.Amount)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.PaymentDate != nil {
		add("payment_date", patch.PaymentDate.Format(models.DateLayout))
	}
	if patch.Method != nil {
		add("method", *patch.Method)
	}
	if patch.ReceiptID != nil {
		add("receipt_id", *patch.ReceiptID)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		WITH p AS (
			UPDATE academy.payment_logs SET %s
			WHERE id = $%d
			RETURNING *
		)
		SELECT %s FROM p %s`, strings.Join(sets, ", "), len(args), columns, join)

	log := &models.PaymentLog{}
	if err := r.db.GetContext(ctx, log, query, args...); err != nil {
		return nil, repository.Classify("update payment log", err)
	}
	return log, nil
}

func (r *paymentLogRepository) GetByStudentID(ctx context.Context, studentID int64) ([]models.PaymentLog, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM academy.payment_logs p %s
		WHERE p.student_id = $1
		ORDER BY p.payment_date DESC, p.id DESC`, columns, join)

	logs := []models.PaymentLog{}
	if err := r.db.SelectContext(ctx, &logs, query, studentID); err != nil {
		return nil, repository.Classify("list payment logs by student", err)
	}
	return logs, nil
}

func (r *paymentLogRepository) GetAll(ctx context.Context) ([]models.PaymentLog, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM academy.payment_logs p %s
		ORDER BY p.payment_date DESC, p.id DESC`, columns, join)

	logs := []models.PaymentLog{}
	if err := r.db.SelectContext(ctx, &logs, query); err != nil {
		return nil, repository.Classify("list payment logs", err)
	}
	return logs, nil
}
