package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"spectrum-academy/internal/service"
)

type Handler struct {
	attendanceService service.AttendanceService
	ledgerService     service.LedgerService
	paymentService    service.PaymentService
	logger            *zap.Logger
}

func NewHandler(
	attendanceService service.AttendanceService,
	ledgerService service.LedgerService,
	paymentService service.PaymentService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		attendanceService: attendanceService,
		ledgerService:     ledgerService,
		paymentService:    paymentService,
		logger:            logger,
	}
}

// NewApp fiber-приложение со всеми маршрутами API
func NewApp(h *Handler, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "spectrum-academy",
		ErrorHandler:          errorHandler(logger),
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(withRequestID())
	app.Use(accessLog(logger))
	app.Use(cors.New(cors.Config{
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, " + headerRequestID,
	}))

	h.Register(app)
	return app
}

func (h *Handler) Register(app *fiber.App) {
	api := app.Group("/api")

	attendance := api.Group("/attendance")
	attendance.Get("/students", h.ListStudentAttendance)
	attendance.Post("/students", h.MarkStudentAttendance)
	attendance.Get("/coaches", h.ListCoachAttendance)
	attendance.Post("/coaches", h.MarkCoachAttendance)

	payment := api.Group("/payment")
	payment.Post("/create-order", h.CreateOrder)
	payment.Post("/verify", h.VerifyPayment)
	payment.Post("/confirm", h.ConfirmPayment)
	payment.Get("/order/:orderId", h.GetOrder)
	payment.Get("/key", h.PublicKey)
	payment.Get("/logs", h.ListPaymentLogs)
	payment.Post("/logs", h.RecordPaymentLog)
	payment.Put("/logs/:id", h.UpdatePaymentLog)
	payment.Get("/logs/student/:studentId", h.ListStudentPaymentLogs)
}
