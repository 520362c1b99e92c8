// Package razorpay адаптер gateway.Gateway поверх razorpay-go.
package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"go.uber.org/zap"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/gateway"
	"spectrum-academy/internal/models"
)

// orderAPI подмножество resources.Order из SDK
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type Client struct {
	keyID  string
	orders orderAPI
	logger *zap.Logger
}

func New(keyID, keySecret string, logger *zap.Logger) *Client {
	c := razorpay.NewClient(keyID, keySecret)
	return &Client{keyID: keyID, orders: c.Order, logger: logger}
}

var _ gateway.Gateway = (*Client)(nil)

func (c *Client) KeyID() string { return c.keyID }

// CreateOrder SDK не принимает context, поэтому проверяем его до вызова.
// Повторов здесь нет: лучше ошибка, чем два заказа.
func (c *Client) CreateOrder(ctx context.Context, req gateway.OrderRequest) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	notes := map[string]interface{}{}
	for k, v := range req.Notes {
		notes[k] = v
	}

	body, err := c.orders.Create(map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}, nil)
	if err != nil {
		c.logger.Error("razorpay order creation failed", zap.String("receipt", req.Receipt), zap.Error(err))
		return nil, fmt.Errorf("create order: %w", classify(err))
	}

	return parseOrder(body)
}

func (c *Client) FetchOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := c.orders.Fetch(orderID, nil, nil)
	if err != nil {
		c.logger.Warn("razorpay order fetch failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("fetch order %s: %w", orderID, classify(err))
	}

	return parseOrder(body)
}

// classify SDK отдает ошибки строками из тела ответа, сетевые ошибки как есть
func classify(err error) error {
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", apperrors.ErrTransient, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "does not exist"), strings.Contains(msg, "not found"):
		return fmt.Errorf("%w: %v", apperrors.ErrNotFound, err)
	case strings.Contains(msg, "server"), strings.Contains(msg, "gateway"), strings.Contains(msg, "timeout"):
		return fmt.Errorf("%w: %v", apperrors.ErrTransient, err)
	}
	return fmt.Errorf("%w: %v", apperrors.ErrRejected, err)
}

func parseOrder(body map[string]interface{}) (*models.Order, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: order response without id", apperrors.ErrRejected)
	}

	order := &models.Order{
		ID:         id,
		Amount:     toInt64(body["amount"]),
		AmountPaid: toInt64(body["amount_paid"]),
		AmountDue:  toInt64(body["amount_due"]),
		Currency:   toString(body["currency"]),
		Receipt:    toString(body["receipt"]),
		Status:     toString(body["status"]),
		Attempts:   int(toInt64(body["attempts"])),
		Notes:      map[string]string{},
	}
	if ts := toInt64(body["created_at"]); ts > 0 {
		order.CreatedAt = time.Unix(ts, 0).UTC()
	}

	// пустые notes приходят массивом []
	if notes, ok := body["notes"].(map[string]interface{}); ok {
		for k, v := range notes {
			order.Notes[k] = toString(v)
		}
	}
	return order, nil
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	case json.Number:
		i, _ := n.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	}
	return fmt.Sprint(v)
}
