// Package signature проверяет подпись колбэка платежного шлюза:
// hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"spectrum-academy/internal/apperrors"
)

func message(orderID, paymentID string) []byte {
	return []byte(orderID + "|" + paymentID)
}

// Sign вычисляет ожидаемую подпись
func Sign(orderID, paymentID string, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("%w: payment key secret is not set", apperrors.ErrConfiguration)
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(message(orderID, paymentID))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify несовпадение подписи это false без ошибки.
// Ошибка только при отсутствующем секрете.
func Verify(orderID, paymentID, signature string, secret []byte) (bool, error) {
	expected, err := Sign(orderID, paymentID, secret)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(expected), []byte(signature)), nil
}

// Verifier держит секрет, проверенный при создании
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: payment key secret is not set", apperrors.ErrConfiguration)
	}
	return &Verifier{secret: []byte(secret)}, nil
}

func (v *Verifier) Verify(orderID, paymentID, signature string) bool {
	ok, _ := Verify(orderID, paymentID, signature, v.secret)
	return ok
}

func (v *Verifier) Sign(orderID, paymentID string) string {
	s, _ := Sign(orderID, paymentID, v.secret)
	return s
}
