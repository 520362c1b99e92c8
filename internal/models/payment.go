package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "paid"
	PaymentNotPaid  PaymentStatus = "not_paid"
	PaymentUpcoming PaymentStatus = "upcoming"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPaid || s == PaymentNotPaid || s == PaymentUpcoming
}

// PaymentLog строка журнала платежей. Сумма в основных единицах (рупии).
type PaymentLog struct {
	ID               int64           `db:"id" json:"id"`
	StudentID        int64           `db:"student_id" json:"student_id"`
	Amount           decimal.Decimal `db:"amount" json:"amount"`
	Status           PaymentStatus   `db:"status" json:"status"`
	PaymentDate      time.Time       `db:"payment_date" json:"payment_date"`
	Method           *string         `db:"method" json:"method,omitempty"`
	ReceiptID        *string         `db:"receipt_id" json:"receipt_id,omitempty"`
	GatewayOrderID   *string         `db:"gateway_order_id" json:"razorpay_order_id,omitempty"`
	GatewayPaymentID *string         `db:"gateway_payment_id" json:"razorpay_payment_id,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`

	// Joined fields
	StudentName string `db:"student_name" json:"student_name,omitempty"`
}

// HasGatewayPair строка ссылается на подтвержденную пару заказ+платеж
func (p *PaymentLog) HasGatewayPair() bool {
	return p.GatewayOrderID != nil && *p.GatewayOrderID != "" &&
		p.GatewayPaymentID != nil && *p.GatewayPaymentID != ""
}

// PaymentLogPatch частичное обновление, nil-поля не трогаем
type PaymentLogPatch struct {
	Amount      *decimal.Decimal
	Status      *PaymentStatus
	PaymentDate *time.Time
	Method      *string
	ReceiptID   *string
}

func (p PaymentLogPatch) Empty() bool {
	return p.Amount == nil && p.Status == nil && p.PaymentDate == nil && p.Method == nil && p.ReceiptID == nil
}

// Order заказ на стороне платежного шлюза. Суммы в минимальных единицах (пайсы).
type Order struct {
	ID         string            `json:"id"`
	Amount     int64             `json:"amount"`
	AmountPaid int64             `json:"amount_paid"`
	AmountDue  int64             `json:"amount_due"`
	Currency   string            `json:"currency"`
	Receipt    string            `json:"receipt"`
	Status     string            `json:"status"`
	Attempts   int               `json:"attempts"`
	Notes      map[string]string `json:"notes"`
	CreatedAt  time.Time         `json:"created_at"`
}
