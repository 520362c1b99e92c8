package web

import (
	"github.com/gofiber/fiber/v2"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/models"
	"spectrum-academy/internal/service"
)

func (h *Handler) MarkStudentAttendance(c *fiber.Ctx) error {
	var body service.StudentMark
	if err := c.BodyParser(&body); err != nil {
		return apperrors.Invalid("invalid request body")
	}

	record, err := h.attendanceService.MarkStudent(c.UserContext(), body)
	if err != nil {
		return err
	}
	return created(c, "Attendance marked successfully", record)
}

func (h *Handler) MarkCoachAttendance(c *fiber.Ctx) error {
	var body service.CoachMark
	if err := c.BodyParser(&body); err != nil {
		return apperrors.Invalid("invalid request body")
	}

	record, err := h.attendanceService.MarkCoach(c.UserContext(), body)
	if err != nil {
		return err
	}
	return created(c, "Attendance marked successfully", record)
}

func (h *Handler) ListStudentAttendance(c *fiber.Ctx) error {
	return h.listAttendance(c, models.SubjectStudent)
}

func (h *Handler) ListCoachAttendance(c *fiber.Ctx) error {
	return h.listAttendance(c, models.SubjectCoach)
}

// ?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD, обе границы включительно и опциональны
func (h *Handler) listAttendance(c *fiber.Ctx, kind models.SubjectKind) error {
	var period models.DateRange
	if s := c.Query("startDate"); s != "" {
		from, err := service.ParseDate(s)
		if err != nil {
			return err
		}
		period.From = &from
	}
	if s := c.Query("endDate"); s != "" {
		to, err := service.ParseDate(s)
		if err != nil {
			return err
		}
		period.To = &to
	}

	records, err := h.attendanceService.List(c.UserContext(), kind, period)
	if err != nil {
		return err
	}
	return ok(c, "", records)
}
