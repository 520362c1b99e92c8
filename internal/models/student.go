package models

import "time"

// Student ученик академии. Справочник ведется вне этого сервиса,
// здесь нужны только поля для отображения.
type Student struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Sport         string    `db:"sport" json:"sport"`
	GroupLevel    string    `db:"group_level" json:"group_level"`
	PaymentStatus string    `db:"payment_status" json:"payment_status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
