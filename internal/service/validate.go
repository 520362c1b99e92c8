package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// в сообщениях имена полей как в JSON
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate проверяет теги validate и возвращает ErrInvalidArgument с перечнем полей
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.Invalid("%v", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return apperrors.Invalid("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in format %s", fe.Field(), fe.Param())
	case "gt", "gte", "lte":
		return fmt.Sprintf("%s must be %s %s", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

// ParseDate дата в формате YYYY-MM-DD, полночь UTC
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.Invalid("invalid date %q", s)
	}
	return t, nil
}
