package web

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/service"
)

// orderCreated ответ create-order для checkout
type orderCreated struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	var body service.OrderRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.Invalid("invalid request body")
	}

	order, err := h.paymentService.CreateOrder(c.UserContext(), body.Amount, body.Receipt, body.Notes)
	if err != nil {
		return err
	}
	return created(c, "Order created successfully", orderCreated{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  order.Receipt,
		Status:   order.Status,
	})
}

func (h *Handler) VerifyPayment(c *fiber.Ctx) error {
	var body service.CallbackRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.Invalid("invalid request body")
	}
	if err := service.Validate(body); err != nil {
		return err
	}

	result, err := h.paymentService.VerifyCallback(c.UserContext(), body.OrderID, body.PaymentID, body.Signature)
	if err != nil {
		return err
	}
	if !result.Verified {
		return fail(c, fiber.StatusBadRequest, "Payment verification failed", result)
	}
	return ok(c, "Payment verified successfully", result)
}

func (h *Handler) ConfirmPayment(c *fiber.Ctx) error {
	var body service.ConfirmRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.Invalid("invalid request body")
	}

	conf, err := h.paymentService.ConfirmPayment(c.UserContext(), body)
	if err != nil {
		return err
	}

	switch {
	case !conf.Verified:
		h.logger.Warn("unverified payment confirmation",
			zap.String("request_id", requestID(c)),
			zap.String("order_id", body.OrderID),
		)
		return fail(c, fiber.StatusBadRequest, "Payment verification failed", conf)
	case conf.Duplicate:
		return ok(c, "Payment already recorded", conf)
	default:
		return created(c, "Payment recorded successfully", conf)
	}
}

func (h *Handler) GetOrder(c *fiber.Ctx) error {
	order, err := h.paymentService.FetchOrder(c.UserContext(), c.Params("orderId"))
	if err != nil {
		return err
	}
	return ok(c, "Order details retrieved successfully", order)
}

func (h *Handler) PublicKey(c *fiber.Ctx) error {
	return ok(c, "", fiber.Map{"key": h.paymentService.PublicKey()})
}

func (h *Handler) ListPaymentLogs(c *fiber.Ctx) error {
	logs, err := h.ledgerService.List(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, "", logs)
}

func (h *Handler) RecordPaymentLog(c *fiber.Ctx) error {
	var body service.PaymentLogInput
	if err := c.BodyParser(&body); err != nil {
		return apperrors.Invalid("invalid request body")
	}

	log, err := h.ledgerService.Record(c.UserContext(), body)
	if err != nil {
		return err
	}
	return created(c, "Payment log recorded successfully", log)
}

func (h *Handler) UpdatePaymentLog(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var body service.PaymentLogUpdate
	if err := c.BodyParser(&body); err != nil {
		return apperrors.Invalid("invalid request body")
	}

	log, err := h.ledgerService.Update(c.UserContext(), id, body)
	if err != nil {
		return err
	}
	return ok(c, "Payment log updated successfully", log)
}

func (h *Handler) ListStudentPaymentLogs(c *fiber.Ctx) error {
	id, err := pathID(c, "studentId")
	if err != nil {
		return err
	}

	logs, err := h.ledgerService.ListByStudent(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, "", logs)
}

func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Invalid("invalid %s", name)
	}
	return id, nil
}
