// Package gateway контракт с платежным шлюзом. Сам шлюз внешний,
// здесь только создание и чтение заказов.
package gateway

import (
	"context"

	"spectrum-academy/internal/models"
)

// OrderRequest сумма уже в минимальных единицах
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Gateway ошибки: apperrors.ErrTransient (можно повторить), apperrors.ErrRejected,
// apperrors.ErrNotFound для FetchOrder.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*models.Order, error)
	FetchOrder(ctx context.Context, orderID string) (*models.Order, error)
	// KeyID публичный ключ для checkout на фронтенде
	KeyID() string
}
