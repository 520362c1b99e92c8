package payment_service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/gateway"
	"spectrum-academy/internal/models"
	"spectrum-academy/internal/service"
	"spectrum-academy/internal/signature"
)

const (
	defaultMethod = "razorpay"
	notifyTimeout = 15 * time.Second
)

var hundred = decimal.NewFromInt(100)

type paymentService struct {
	gateway  gateway.Gateway
	verifier *signature.Verifier
	ledger   service.LedgerService
	notifier service.Notifier
	currency string
	logger   *zap.Logger
	now      func() time.Time

	// уведомления в фоне, ответ на confirm их не ждет
	notifying sync.WaitGroup
}

func NewPaymentService(
	gw gateway.Gateway,
	verifier *signature.Verifier,
	ledger service.LedgerService,
	notifier service.Notifier,
	currency string,
	logger *zap.Logger,
) service.PaymentService {
	if notifier == nil {
		notifier = service.NopNotifier{}
	}
	return &paymentService{
		gateway:  gw,
		verifier: verifier,
		ledger:   ledger,
		notifier: notifier,
		currency: currency,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ToMinorUnits сумму в рупиях в пайсы, половина округляется вверх
func ToMinorUnits(amountMajor decimal.Decimal) (int64, error) {
	if !amountMajor.IsPositive() {
		return 0, apperrors.Invalid("amount must be greater than 0")
	}
	minor := amountMajor.Mul(hundred).Round(0)
	if minor.LessThan(decimal.NewFromInt(1)) {
		return 0, apperrors.Invalid("amount %s is less than one minor unit", amountMajor)
	}
	if minor.GreaterThan(decimal.NewFromInt(1<<53)) {
		return 0, apperrors.Invalid("amount %s is out of range", amountMajor)
	}
	return minor.IntPart(), nil
}

func (s *paymentService) PublicKey() string {
	return s.gateway.KeyID()
}

func (s *paymentService) CreateOrder(ctx context.Context, amountMajor decimal.Decimal, receiptID string, notes map[string]string) (*models.Order, error) {
	if receiptID == "" {
		return nil, apperrors.Invalid("receiptId is required")
	}
	minor, err := ToMinorUnits(amountMajor)
	if err != nil {
		return nil, err
	}

	order, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		AmountMinor: minor,
		Currency:    s.currency,
		Receipt:     receiptID,
		Notes:       notes,
	})
	if err != nil {
		s.logger.Error("create order failed", zap.String("receipt", receiptID), zap.Error(err))
		return nil, fmt.Errorf("%w: create order %s: %w", apperrors.ErrGateway, receiptID, err)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("receipt", order.Receipt),
		zap.Int64("amount", order.Amount),
	)
	return order, nil
}

func (s *paymentService) VerifyCallback(ctx context.Context, orderID, paymentID, sig string) (*service.VerifyResult, error) {
	if orderID == "" || paymentID == "" || sig == "" {
		return nil, apperrors.Invalid("orderId, paymentId and signature are required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ok := s.verifier.Verify(orderID, paymentID, sig)
	if !ok {
		s.logger.Warn("payment signature mismatch", zap.String("order_id", orderID), zap.String("payment_id", paymentID))
	}
	return &service.VerifyResult{OrderID: orderID, PaymentID: paymentID, Verified: ok}, nil
}

func (s *paymentService) FetchOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if orderID == "" {
		return nil, apperrors.Invalid("orderId is required")
	}

	order, err := s.gateway.FetchOrder(ctx, orderID)
	switch {
	case err == nil:
		return order, nil
	case errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("заказ %s: %w", orderID, err)
	default:
		s.logger.Error("fetch order failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("%w: fetch order %s: %w", apperrors.ErrGateway, orderID, err)
	}
}

// ConfirmPayment единственный путь, которым пара заказ+платеж попадает в журнал как "paid"
func (s *paymentService) ConfirmPayment(ctx context.Context, req service.ConfirmRequest) (*service.Confirmation, error) {
	if err := service.Validate(req); err != nil {
		return nil, err
	}

	verified, err := s.VerifyCallback(ctx, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return nil, err
	}
	if !verified.Verified {
		return &service.Confirmation{Verified: false}, nil
	}

	order, err := s.FetchOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if owner, ok := order.Notes["student_id"]; ok && owner != strconv.FormatInt(req.StudentID, 10) {
		return nil, apperrors.Invalid("order %s belongs to student %s", order.ID, owner)
	}

	method := defaultMethod
	if req.Method != nil && *req.Method != "" {
		method = *req.Method
	}
	entry := &models.PaymentLog{
		StudentID:        req.StudentID,
		Amount:           decimal.New(order.Amount, -2),
		Status:           models.PaymentPaid,
		PaymentDate:      truncateDay(s.now()),
		Method:           &method,
		GatewayOrderID:   &req.OrderID,
		GatewayPaymentID: &req.PaymentID,
	}
	if order.Receipt != "" {
		receipt := order.Receipt
		entry.ReceiptID = &receipt
	}

	log, duplicate, err := s.ledger.RecordVerified(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("подтверждение платежа %s: %w", req.PaymentID, err)
	}

	if duplicate {
		s.logger.Info("payment already confirmed", zap.String("order_id", req.OrderID), zap.Int64("id", log.ID))
	} else {
		s.logger.Info("payment confirmed",
			zap.String("order_id", req.OrderID),
			zap.Int64("student_id", log.StudentID),
			zap.String("amount", log.Amount.StringFixed(2)),
		)
		s.notify(ctx, log)
	}
	return &service.Confirmation{Verified: true, Duplicate: duplicate, Log: log}, nil
}

func (s *paymentService) notify(ctx context.Context, log *models.PaymentLog) {
	entry := *log
	s.notifying.Add(1)
	go func() {
		defer s.notifying.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		s.notifier.PaymentConfirmed(ctx, &entry)
	}()
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
