package ledger_service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"
	"spectrum-academy/internal/repository/memory"
	"spectrum-academy/internal/service"
)

func strPtr(s string) *string { return &s }

func setup() (*memory.Store, service.LedgerService) {
	store := memory.NewStore()
	store.AddStudent(models.Student{ID: 7, Name: "Arjun", Sport: "Cricket"})
	store.AddStudent(models.Student{ID: 8, Name: "Diya", Sport: "Football"})
	return store, NewLedgerService(store.Students(), store.Payments(), zap.NewNop())
}

func input(studentID int64, amount, status, date string) service.PaymentLogInput {
	return service.PaymentLogInput{
		StudentID:   studentID,
		Amount:      decimal.RequireFromString(amount),
		Status:      status,
		PaymentDate: date,
		Method:      strPtr("cash"),
	}
}

func TestRecord(t *testing.T) {
	_, svc := setup()

	log, err := svc.Record(context.Background(), input(7, "1500.00", "paid", "2024-01-05"))
	require.NoError(t, err)
	assert.NotZero(t, log.ID)
	assert.Equal(t, "Arjun", log.StudentName)
	assert.True(t, log.Amount.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, models.PaymentPaid, log.Status)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), log.PaymentDate)
}

func TestRecordValidation(t *testing.T) {
	withGateway := input(7, "100", "paid", "2024-01-05")
	withGateway.GatewayOrderID = strPtr("order_1")
	withGateway.GatewayPaymentID = strPtr("pay_1")
	upcomingPair := input(7, "100", "upcoming", "2024-01-05")
	upcomingPair.GatewayOrderID = strPtr("order_1")
	upcomingPair.GatewayPaymentID = strPtr("pay_1")

	tests := []struct {
		name string
		in   service.PaymentLogInput
	}{
		{"missing student", input(0, "100", "paid", "2024-01-05")},
		{"zero amount", input(7, "0", "paid", "2024-01-05")},
		{"negative amount", input(7, "-5", "paid", "2024-01-05")},
		{"bad status", input(7, "100", "refunded", "2024-01-05")},
		{"bad date", input(7, "100", "paid", "05-01-2024")},
		{"missing date", input(7, "100", "paid", "")},
		{"unverified gateway pair", withGateway},
		{"gateway pair on unpaid entry", upcomingPair},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, svc := setup()
			_, err := svc.Record(context.Background(), tt.in)
			assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

			all, err := store.Payments().GetAll(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestRecordEmptyGatewayIDs(t *testing.T) {
	ctx := context.Background()
	store, svc := setup()

	for i := 0; i < 2; i++ {
		in := input(7, "100", "upcoming", "2024-01-05")
		in.GatewayOrderID = strPtr("")
		in.GatewayPaymentID = strPtr("")
		log, err := svc.Record(ctx, in)
		require.NoError(t, err)
		assert.Nil(t, log.GatewayOrderID)
		assert.Nil(t, log.GatewayPaymentID)
	}

	all, err := store.Payments().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestManualEntryCannotBecomeGatewayPayment(t *testing.T) {
	ctx := context.Background()
	_, svc := setup()

	forged := input(7, "500", "upcoming", "2024-03-01")
	forged.GatewayOrderID = strPtr("order_1")
	forged.GatewayPaymentID = strPtr("pay_1")
	_, err := svc.Record(ctx, forged)
	require.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	got, dup, err := svc.RecordVerified(ctx, verifiedEntry())
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, int64(7), got.StudentID)
}

func TestRecordUnknownStudent(t *testing.T) {
	_, svc := setup()
	_, err := svc.Record(context.Background(), input(99, "100", "upcoming", "2024-01-05"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	_, svc := setup()
	log, err := svc.Record(ctx, input(7, "1500", "upcoming", "2024-02-01"))
	require.NoError(t, err)

	amount := decimal.RequireFromString("1750.50")
	updated, err := svc.Update(ctx, log.ID, service.PaymentLogUpdate{Amount: &amount, Status: strPtr("paid")})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(amount))
	assert.Equal(t, models.PaymentPaid, updated.Status)
	assert.Equal(t, "cash", *updated.Method, "untouched fields keep their values")
	assert.Equal(t, log.PaymentDate, updated.PaymentDate)

	_, err = svc.Update(ctx, log.ID, service.PaymentLogUpdate{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = svc.Update(ctx, 404, service.PaymentLogUpdate{Status: strPtr("paid")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Update(ctx, log.ID, service.PaymentLogUpdate{PaymentDate: strPtr("tomorrow")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestVerifiedEntryStaysPaid(t *testing.T) {
	ctx := context.Background()
	_, svc := setup()

	log, dup, err := svc.RecordVerified(ctx, &models.PaymentLog{
		StudentID:        7,
		Amount:           decimal.NewFromInt(500),
		PaymentDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ReceiptID:        strPtr("R1"),
		GatewayOrderID:   strPtr("order_1"),
		GatewayPaymentID: strPtr("pay_1"),
	})
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, models.PaymentPaid, log.Status)

	_, err = svc.Update(ctx, log.ID, service.PaymentLogUpdate{Status: strPtr("not_paid")})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	updated, err := svc.Update(ctx, log.ID, service.PaymentLogUpdate{Method: strPtr("upi")})
	require.NoError(t, err)
	assert.Equal(t, "upi", *updated.Method)
	assert.Equal(t, models.PaymentPaid, updated.Status)
}

func verifiedEntry() *models.PaymentLog {
	return &models.PaymentLog{
		StudentID:        7,
		Amount:           decimal.NewFromInt(500),
		PaymentDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		GatewayOrderID:   strPtr("order_1"),
		GatewayPaymentID: strPtr("pay_1"),
	}
}

func TestRecordVerifiedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, svc := setup()

	first, dup, err := svc.RecordVerified(ctx, verifiedEntry())
	require.NoError(t, err)
	assert.False(t, dup)

	second, dup, err := svc.RecordVerified(ctx, verifiedEntry())
	require.NoError(t, err)
	assert.True(t, dup)
	assert.Equal(t, first.ID, second.ID)

	all, err := store.Payments().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRecordVerifiedConcurrent(t *testing.T) {
	store, svc := setup()

	var created atomic.Int32
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			_, dup, err := svc.RecordVerified(context.Background(), verifiedEntry())
			if err == nil && !dup {
				created.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), created.Load())

	all, err := store.Payments().GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// blindRepo не видит существующую пару при первом поиске
type blindRepo struct {
	repository.PaymentLogRepository
	lookups atomic.Int32
}

func (r *blindRepo) GetByGatewayPair(ctx context.Context, orderID, paymentID string) (*models.PaymentLog, error) {
	if r.lookups.Add(1) == 1 {
		return nil, apperrors.NotFound("payment log")
	}
	return r.PaymentLogRepository.GetByGatewayPair(ctx, orderID, paymentID)
}

func TestRecordVerifiedLostRaceReturnsWinner(t *testing.T) {
	ctx := context.Background()
	store, svc := setup()
	winner, _, err := svc.RecordVerified(ctx, verifiedEntry())
	require.NoError(t, err)

	blind := &blindRepo{PaymentLogRepository: store.Payments()}
	late := NewLedgerService(store.Students(), blind, zap.NewNop())

	got, dup, err := late.RecordVerified(ctx, verifiedEntry())
	require.NoError(t, err)
	assert.True(t, dup)
	assert.Equal(t, winner.ID, got.ID)
	assert.Equal(t, int32(2), blind.lookups.Load())
}

func TestRecordVerifiedRejectsForeignPair(t *testing.T) {
	ctx := context.Background()

	t.Run("other student", func(t *testing.T) {
		_, svc := setup()
		_, _, err := svc.RecordVerified(ctx, verifiedEntry())
		require.NoError(t, err)

		entry := verifiedEntry()
		entry.StudentID = 8
		got, dup, err := svc.RecordVerified(ctx, entry)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		assert.False(t, dup)
		assert.Nil(t, got)
	})

	t.Run("unpaid row holds the pair", func(t *testing.T) {
		store, svc := setup()
		held := verifiedEntry()
		held.Status = models.PaymentUpcoming
		require.NoError(t, store.Payments().Create(ctx, held))

		_, _, err := svc.RecordVerified(ctx, verifiedEntry())
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("lost race to other student", func(t *testing.T) {
		store, svc := setup()
		entry := verifiedEntry()
		entry.StudentID = 8
		_, _, err := svc.RecordVerified(ctx, entry)
		require.NoError(t, err)

		blind := &blindRepo{PaymentLogRepository: store.Payments()}
		late := NewLedgerService(store.Students(), blind, zap.NewNop())
		_, _, err = late.RecordVerified(ctx, verifiedEntry())
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		assert.Equal(t, int32(2), blind.lookups.Load())
	})
}

func TestRecordVerifiedRequiresPair(t *testing.T) {
	_, svc := setup()
	entry := verifiedEntry()
	entry.GatewayPaymentID = nil
	_, _, err := svc.RecordVerified(context.Background(), entry)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestListByStudent(t *testing.T) {
	ctx := context.Background()
	_, svc := setup()

	for _, date := range []string{"2024-01-05", "2024-03-05", "2024-02-05"} {
		_, err := svc.Record(ctx, input(7, "1000", "paid", date))
		require.NoError(t, err)
	}
	_, err := svc.Record(ctx, input(8, "900", "not_paid", "2024-04-01"))
	require.NoError(t, err)

	logs, err := svc.ListByStudent(ctx, 7)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "2024-03-05", logs[0].PaymentDate.Format(models.DateLayout))
	assert.Equal(t, "2024-02-05", logs[1].PaymentDate.Format(models.DateLayout))
	assert.Equal(t, "2024-01-05", logs[2].PaymentDate.Format(models.DateLayout))

	other, err := svc.ListByStudent(ctx, 8)
	require.NoError(t, err)
	assert.Len(t, other, 1)

	_, err = svc.ListByStudent(ctx, 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "Diya", all[0].StudentName)
}
