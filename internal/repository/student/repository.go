package student

import (
	"context"

	"github.com/jmoiron/sqlx"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"
)

type studentRepository struct {
	db *sqlx.DB
}

func NewStudentRepository(db *sqlx.DB) repository.StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	var student models.Student
	query := `
		SELECT id, name, sport, group_level, payment_status, created_at, updated_at
		FROM academy.students WHERE id = $1`
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, repository.Classify("get student", err)
	}
	return &student, nil
}
