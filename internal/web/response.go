package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"spectrum-academy/internal/apperrors"
)

// Response общий конверт ответа API
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func ok(c *fiber.Ctx, message string, data any) error {
	return reply(c, fiber.StatusOK, message, data)
}

func created(c *fiber.Ctx, message string, data any) error {
	return reply(c, fiber.StatusCreated, message, data)
}

func reply(c *fiber.Ctx, code int, message string, data any) error {
	return c.Status(code).JSON(Response{Success: true, Message: message, Data: data})
}

func fail(c *fiber.Ctx, code int, message string, data any) error {
	return c.Status(code).JSON(Response{Success: false, Message: message, Data: data})
}

// statusFor код ответа по категории ошибки
func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	switch apperrors.Kind(err) {
	case apperrors.ErrInvalidArgument:
		return fiber.StatusBadRequest
	case apperrors.ErrNotFound:
		return fiber.StatusNotFound
	case apperrors.ErrConflict, apperrors.ErrConstraintViolation:
		return fiber.StatusConflict
	case apperrors.ErrTransient:
		return fiber.StatusServiceUnavailable
	case apperrors.ErrRejected, apperrors.ErrGateway:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// errorHandler все ошибки обработчиков проходят здесь. Текст внутренних ошибок наружу не отдаем.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusFor(err)
		message := err.Error()
		if code >= fiber.StatusInternalServerError && code != fiber.StatusBadGateway && code != fiber.StatusServiceUnavailable {
			message = "internal server error"
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("request_id", requestID(c)),
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err),
			)
		}
		return fail(c, code, message, nil)
	}
}
