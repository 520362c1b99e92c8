package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"spectrum-academy/internal/apperrors"
)

// Classify переводит ошибку драйвера в категорию из apperrors.
// op попадает в текст ошибки, исходная ошибка остается в цепочке.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Name() == "unique_violation":
			return fmt.Errorf("%s: %w: %s", op, apperrors.ErrConstraintViolation, pqErr.Constraint)
		case pqErr.Code.Name() == "foreign_key_violation":
			return fmt.Errorf("%s: %w: %s", op, apperrors.ErrNotFound, pqErr.Detail)
		case pqErr.Code.Name() == "invalid_text_representation",
			pqErr.Code.Name() == "check_violation",
			pqErr.Code.Name() == "not_null_violation":
			return fmt.Errorf("%s: %w: %s", op, apperrors.ErrInvalidArgument, pqErr.Message)
		}
		switch pqErr.Code.Class() {
		case "08", "40", "53", "57":
			return fmt.Errorf("%s: %w: %v", op, apperrors.ErrTransient, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %v", op, apperrors.ErrTransient, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
