package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DateLayout формат дат посещаемости и платежей
const DateLayout = "2006-01-02"

// SubjectKind кого отмечаем: ученика или тренера
type SubjectKind string

const (
	SubjectStudent SubjectKind = "student"
	SubjectCoach   SubjectKind = "coach"
)

func (k SubjectKind) Valid() bool {
	return k == SubjectStudent || k == SubjectCoach
}

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "Present"
	StatusAbsent  AttendanceStatus = "Absent"
	StatusLate    AttendanceStatus = "Late"
	StatusExcused AttendanceStatus = "Excused"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// AttendanceKey составной ключ записи. На один ключ допускается ровно одна запись.
type AttendanceKey struct {
	Kind      SubjectKind
	SubjectID int64
	Date      time.Time
}

func (k AttendanceKey) String() string {
	return fmt.Sprintf("%s:%d:%s", k.Kind, k.SubjectID, k.Date.Format(DateLayout))
}

// Location точка входа/выхода тренера, хранится в jsonb
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

func (l Location) Value() (driver.Value, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *Location) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		return nil
	}
	return errors.New("location: unsupported source type")
}

// AttendanceRecord дневная отметка ученика или тренера.
// Поля метаданных опциональны: nil при обновлении означает "оставить как есть".
type AttendanceRecord struct {
	ID          int64            `db:"id" json:"id"`
	SubjectKind SubjectKind      `db:"subject_kind" json:"subject_kind"`
	SubjectID   int64            `db:"subject_id" json:"subject_id"`
	Date        time.Time        `db:"date" json:"date"`
	Status      AttendanceStatus `db:"status" json:"status"`
	Notes       *string          `db:"notes" json:"notes,omitempty"`

	// ученик
	Batch *string `db:"batch" json:"batch,omitempty"`

	// тренер
	EntryLocation *Location `db:"entry_location" json:"entry_location,omitempty"`
	ExitLocation  *Location `db:"exit_location" json:"exit_location,omitempty"`
	TotalHours    *float64  `db:"total_hours" json:"total_hours,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields
	SubjectName  string `db:"subject_name" json:"subject_name,omitempty"`
	SubjectSport string `db:"subject_sport" json:"subject_sport,omitempty"`
}

func (a *AttendanceRecord) Key() AttendanceKey {
	return AttendanceKey{Kind: a.SubjectKind, SubjectID: a.SubjectID, Date: a.Date}
}

// DateRange включительный диапазон дат, обе границы опциональны
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}
