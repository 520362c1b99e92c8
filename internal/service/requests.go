package service

import (
	"github.com/shopspring/decimal"

	"spectrum-academy/internal/models"
)

// Metadata опциональные поля отметки, nil значит "не менять"
type Metadata struct {
	Notes         *string          `json:"notes"`
	Batch         *string          `json:"batch"`
	EntryLocation *models.Location `json:"entryLocation"`
	ExitLocation  *models.Location `json:"exitLocation"`
	TotalHours    *float64         `json:"totalHours" validate:"omitempty,gte=0,lte=24"`
}

type MarkRequest struct {
	Kind      models.SubjectKind `json:"subjectKind" validate:"required,oneof=student coach"`
	SubjectID int64              `json:"subjectId" validate:"required,gt=0"`
	Date      string             `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string             `json:"status" validate:"required,oneof=Present Absent Late Excused"`
	Metadata  Metadata           `json:"metadata"`
}

type StudentMark struct {
	StudentID int64   `json:"studentId"`
	Date      string  `json:"date"`
	Status    string  `json:"status"`
	Batch     *string `json:"batch"`
	Notes     *string `json:"notes"`
}

func (m StudentMark) Request() MarkRequest {
	return MarkRequest{
		Kind:      models.SubjectStudent,
		SubjectID: m.StudentID,
		Date:      m.Date,
		Status:    m.Status,
		Metadata:  Metadata{Batch: m.Batch, Notes: m.Notes},
	}
}

type CoachMark struct {
	CoachID       int64            `json:"coachId"`
	Date          string           `json:"date"`
	Status        string           `json:"status"`
	EntryLocation *models.Location `json:"entryLocation"`
	ExitLocation  *models.Location `json:"exitLocation"`
	TotalHours    *float64         `json:"totalHours"`
	Notes         *string          `json:"notes"`
}

func (m CoachMark) Request() MarkRequest {
	return MarkRequest{
		Kind:      models.SubjectCoach,
		SubjectID: m.CoachID,
		Date:      m.Date,
		Status:    m.Status,
		Metadata: Metadata{
			EntryLocation: m.EntryLocation,
			ExitLocation:  m.ExitLocation,
			TotalHours:    m.TotalHours,
			Notes:         m.Notes,
		},
	}
}

type PaymentLogInput struct {
	StudentID        int64           `json:"student_id" validate:"required,gt=0"`
	Amount           decimal.Decimal `json:"amount" validate:"-"`
	Status           string          `json:"status" validate:"required,oneof=paid not_paid upcoming"`
	PaymentDate      string          `json:"payment_date" validate:"required,datetime=2006-01-02"`
	Method           *string         `json:"method"`
	ReceiptID        *string         `json:"receipt_id"`
	GatewayOrderID   *string         `json:"razorpay_order_id"`
	GatewayPaymentID *string         `json:"razorpay_payment_id"`
}

type PaymentLogUpdate struct {
	Amount      *decimal.Decimal `json:"amount" validate:"-"`
	Status      *string          `json:"status" validate:"omitempty,oneof=paid not_paid upcoming"`
	PaymentDate *string          `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	Method      *string          `json:"method"`
	ReceiptID   *string          `json:"receipt_id"`
}

type VerifyResult struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Verified  bool   `json:"verified"`
}

// CallbackRequest поля колбэка checkout, которые фронтенд пересылает после оплаты
type CallbackRequest struct {
	OrderID   string `json:"orderId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type ConfirmRequest struct {
	OrderID   string  `json:"orderId" validate:"required"`
	PaymentID string  `json:"paymentId" validate:"required"`
	Signature string  `json:"signature" validate:"required"`
	StudentID int64   `json:"studentId" validate:"required,gt=0"`
	Method    *string `json:"method"`
}

type OrderRequest struct {
	Amount  decimal.Decimal   `json:"amount" validate:"-"`
	Receipt string            `json:"receiptId"`
	Notes   map[string]string `json:"notes"`
}

type Confirmation struct {
	Verified  bool               `json:"verified"`
	Duplicate bool               `json:"duplicate"`
	Log       *models.PaymentLog `json:"log,omitempty"`
}
