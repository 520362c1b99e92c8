// Package sandbox шлюз в памяти для локальной разработки и тестов.
// Заказы хранятся в процессе, Pay имитирует оплату на стороне клиента и
// возвращает подпись так же, как ее прислал бы настоящий шлюз.
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/gateway"
	"spectrum-academy/internal/models"
	"spectrum-academy/internal/signature"
)

type Gateway struct {
	mu     sync.Mutex
	secret []byte
	orders map[string]*models.Order

	// FailNext если задан, следующий вызов вернет эту ошибку
	FailNext error
	Calls    int
}

func New(secret string) *Gateway {
	return &Gateway{secret: []byte(secret), orders: make(map[string]*models.Order)}
}

var _ gateway.Gateway = (*Gateway)(nil)

func (g *Gateway) KeyID() string { return "rzp_sandbox" }

func (g *Gateway) fail() error {
	g.Calls++
	if err := g.FailNext; err != nil {
		g.FailNext = nil
		return err
	}
	return nil
}

func newID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}

func (g *Gateway) CreateOrder(ctx context.Context, req gateway.OrderRequest) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.fail(); err != nil {
		return nil, err
	}
	if req.AmountMinor < 100 {
		return nil, fmt.Errorf("%w: order amount less than minimum amount allowed", apperrors.ErrRejected)
	}

	notes := make(map[string]string, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	order := &models.Order{
		ID:        newID("order_"),
		Amount:    req.AmountMinor,
		AmountDue: req.AmountMinor,
		Currency:  req.Currency,
		Receipt:   req.Receipt,
		Status:    "created",
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}
	g.orders[order.ID] = order

	out := *order
	return &out, nil
}

func (g *Gateway) FetchOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.fail(); err != nil {
		return nil, err
	}
	order, ok := g.orders[orderID]
	if !ok {
		return nil, apperrors.NotFound("order %s", orderID)
	}
	out := *order
	return &out, nil
}

// Pay отмечает заказ оплаченным и возвращает id платежа и подпись колбэка
func (g *Gateway) Pay(orderID string) (paymentID, sig string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	order, ok := g.orders[orderID]
	if !ok {
		return "", "", apperrors.NotFound("order %s", orderID)
	}
	order.Status = "paid"
	order.AmountPaid = order.Amount
	order.AmountDue = 0
	order.Attempts++

	paymentID = newID("pay_")
	sig, err = signature.Sign(orderID, paymentID, g.secret)
	return paymentID, sig, err
}
