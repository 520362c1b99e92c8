package payment

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/models"
)

var logColumns = []string{
	"id", "student_id", "amount", "status", "payment_date", "method", "receipt_id",
	"gateway_order_id", "gateway_payment_id", "created_at", "updated_at", "student_name",
}

func newRepo(t *testing.T) (*paymentLogRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &paymentLogRepository{db: sqlx.NewDb(db, "postgres")}, mock
}

func TestCreateReturnsJoinedRow(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()
	date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	orderID, paymentID := "order_1", "pay_1"

	mock.ExpectQuery(`INSERT INTO academy.payment_logs`).
		WithArgs(int64(5), sqlmock.AnyArg(), models.PaymentPaid, "2024-02-01", nil, nil, &orderID, &paymentID).
		WillReturnRows(sqlmock.NewRows(logColumns).AddRow(
			11, 5, "500.00", "paid", date, nil, nil, orderID, paymentID, now, now, "Kavya",
		))

	log := &models.PaymentLog{
		StudentID: 5, Amount: decimal.NewFromInt(500), Status: models.PaymentPaid, PaymentDate: date,
		GatewayOrderID: &orderID, GatewayPaymentID: &paymentID,
	}
	require.NoError(t, repo.Create(context.Background(), log))
	assert.Equal(t, int64(11), log.ID)
	assert.Equal(t, "Kavya", log.StudentName)
	assert.True(t, log.Amount.Equal(decimal.NewFromInt(500)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicatePair(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`INSERT INTO academy.payment_logs`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "payment_logs_gateway_pair_key"})

	err := repo.Create(context.Background(), &models.PaymentLog{StudentID: 5, Amount: decimal.NewFromInt(1), Status: models.PaymentPaid})
	assert.ErrorIs(t, err, apperrors.ErrConstraintViolation)
}

func TestUpdatePartialBuildsSetList(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()
	status := models.PaymentPaid
	method := "cash"

	mock.ExpectQuery(`UPDATE academy.payment_logs SET updated_at = \$1, status = \$2, method = \$3\s+WHERE id = \$4`).
		WithArgs(now, models.PaymentPaid, "cash", int64(3)).
		WillReturnRows(sqlmock.NewRows(logColumns).AddRow(
			3, 5, "750", "paid", now, "cash", nil, nil, nil, now, now, "Kavya",
		))

	log, err := repo.UpdatePartial(context.Background(), 3, models.PaymentLogPatch{Status: &status, Method: &method}, now)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, log.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePartialMissing(t *testing.T) {
	repo, mock := newRepo(t)
	method := "upi"
	mock.ExpectQuery(`UPDATE academy.payment_logs`).WillReturnRows(sqlmock.NewRows(logColumns))

	_, err := repo.UpdatePartial(context.Background(), 42, models.PaymentLogPatch{Method: &method}, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdatePartialEmptyPatch(t *testing.T) {
	repo, _ := newRepo(t)
	_, err := repo.UpdatePartial(context.Background(), 1, models.PaymentLogPatch{}, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}
