package models

import (
	"time"

	"github.com/lib/pq"
)

type Coach struct {
	ID        int64          `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Email     string         `db:"email" json:"email"`
	Sports    pq.StringArray `db:"sports" json:"sports"`
	Status    string         `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}
