package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/gateway/sandbox"
	"spectrum-academy/internal/keylock"
	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository/memory"
	"spectrum-academy/internal/service"
	attendance_service "spectrum-academy/internal/service/attendance"
	ledger_service "spectrum-academy/internal/service/ledger"
	payment_service "spectrum-academy/internal/service/payment"
	"spectrum-academy/internal/signature"
)

const secret = "web_secret"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	app *fiber.App
	gw  *sandbox.Gateway
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()

	store := memory.NewStore()
	store.AddStudent(models.Student{ID: 7, Name: "Arjun", Sport: "Cricket"})
	store.AddCoach(models.Coach{ID: 3, Name: "Meera", Sports: []string{"Football", "Athletics"}})

	verifier, err := signature.NewVerifier(secret)
	require.NoError(t, err)
	gw := sandbox.New(secret)

	attendance := attendance_service.NewAttendanceService(store.Attendance(), keylock.New(), logger)
	ledger := ledger_service.NewLedgerService(store.Students(), store.Payments(), logger)
	payment := payment_service.NewPaymentService(gw, verifier, ledger, service.NopNotifier{}, "INR", logger)

	return &testServer{app: NewApp(NewHandler(attendance, ledger, payment, logger), logger), gw: gw}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*http.Response, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestStudentAttendanceRoutes(t *testing.T) {
	s := newServer(t)

	resp, env := s.do(t, http.MethodPost, "/api/attendance/students", map[string]any{
		"studentId": 7, "date": "2024-01-10", "status": "Present", "batch": "U14",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, env.Success)
	assert.NotEmpty(t, resp.Header.Get(headerRequestID))

	resp, _ = s.do(t, http.MethodPost, "/api/attendance/students", map[string]any{
		"studentId": 7, "date": "2024-01-10", "status": "Late",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env = s.do(t, http.MethodGet, "/api/attendance/students?startDate=2024-01-01&endDate=2024-01-31", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	records := decode[[]models.AttendanceRecord](t, env.Data)
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusLate, records[0].Status)
	assert.Equal(t, "U14", *records[0].Batch)
	assert.Equal(t, "Arjun", records[0].SubjectName)

	_, env = s.do(t, http.MethodGet, "/api/attendance/students?startDate=2024-02-01", nil)
	assert.Empty(t, decode[[]models.AttendanceRecord](t, env.Data))
}

func TestCoachAttendanceRoutes(t *testing.T) {
	s := newServer(t)

	resp, env := s.do(t, http.MethodPost, "/api/attendance/coaches", map[string]any{
		"coachId": 3, "date": "2024-01-10", "status": "Present",
		"entryLocation": map[string]any{"latitude": 12.9, "longitude": 77.6, "address": "Ground A"},
		"totalHours":    3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	rec := decode[models.AttendanceRecord](t, env.Data)
	assert.Equal(t, "Football, Athletics", rec.SubjectSport)
	assert.Equal(t, "Ground A", rec.EntryLocation.Address)

	_, env = s.do(t, http.MethodGet, "/api/attendance/coaches", nil)
	assert.Len(t, decode[[]models.AttendanceRecord](t, env.Data), 1)
}

func TestAttendanceErrors(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"bad status", http.MethodPost, "/api/attendance/students", map[string]any{"studentId": 7, "date": "2024-01-10", "status": "Asleep"}, http.StatusBadRequest},
		{"bad date", http.MethodPost, "/api/attendance/students", map[string]any{"studentId": 7, "date": "Jan 10", "status": "Present"}, http.StatusBadRequest},
		{"unknown student", http.MethodPost, "/api/attendance/students", map[string]any{"studentId": 99, "date": "2024-01-10", "status": "Present"}, http.StatusNotFound},
		{"negative hours", http.MethodPost, "/api/attendance/coaches", map[string]any{"coachId": 3, "date": "2024-01-10", "status": "Present", "totalHours": -2}, http.StatusBadRequest},
		{"reversed range", http.MethodGet, "/api/attendance/students?startDate=2024-02-01&endDate=2024-01-01", nil, http.StatusBadRequest},
		{"bad query date", http.MethodGet, "/api/attendance/coaches?startDate=yesterday", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestPaymentFlow(t *testing.T) {
	s := newServer(t)

	resp, env := s.do(t, http.MethodGet, "/api/payment/key", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "rzp_sandbox", decode[map[string]string](t, env.Data)["key"])

	resp, env = s.do(t, http.MethodPost, "/api/payment/create-order", map[string]any{
		"amount": "500.00", "receiptId": "R1", "notes": map[string]string{"student_id": "7"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	order := decode[map[string]any](t, env.Data)
	orderID, _ := order["orderId"].(string)
	require.NotEmpty(t, orderID)
	assert.EqualValues(t, 50000, order["amount"])
	assert.Equal(t, "INR", order["currency"])
	assert.Equal(t, "R1", order["receipt"])
	assert.Equal(t, "created", order["status"])

	resp, env = s.do(t, http.MethodGet, "/api/payment/order/"+orderID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, orderID, decode[models.Order](t, env.Data).ID)

	paymentID, sig, err := s.gw.Pay(orderID)
	require.NoError(t, err)
	callback := map[string]any{"orderId": orderID, "paymentId": paymentID, "signature": sig}

	resp, env = s.do(t, http.MethodPost, "/api/payment/verify", callback)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[service.VerifyResult](t, env.Data).Verified)

	callback["studentId"] = 7
	resp, env = s.do(t, http.MethodPost, "/api/payment/confirm", callback)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	conf := decode[service.Confirmation](t, env.Data)
	assert.True(t, conf.Log.Amount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "R1", *conf.Log.ReceiptID)

	resp, env = s.do(t, http.MethodPost, "/api/payment/confirm", callback)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[service.Confirmation](t, env.Data).Duplicate)

	resp, env = s.do(t, http.MethodGet, "/api/payment/logs/student/7", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	logs := decode[[]map[string]any](t, env.Data)
	require.Len(t, logs, 1)
	assert.Equal(t, orderID, logs[0]["razorpay_order_id"])
	assert.Equal(t, paymentID, logs[0]["razorpay_payment_id"])
}

func TestPaymentVerificationFailure(t *testing.T) {
	s := newServer(t)
	callback := map[string]any{"orderId": "order_1", "paymentId": "pay_1", "signature": "deadbeef", "studentId": 7}

	resp, env := s.do(t, http.MethodPost, "/api/payment/verify", callback)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
	assert.False(t, decode[service.VerifyResult](t, env.Data).Verified)

	resp, _ = s.do(t, http.MethodPost, "/api/payment/confirm", callback)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, env = s.do(t, http.MethodGet, "/api/payment/logs", nil)
	assert.Empty(t, decode[[]models.PaymentLog](t, env.Data))

	resp, _ = s.do(t, http.MethodPost, "/api/payment/verify", map[string]any{"orderId": "order_1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPaymentGatewayErrors(t *testing.T) {
	s := newServer(t)

	resp, _ := s.do(t, http.MethodGet, "/api/payment/order/order_missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	s.gw.FailNext = fmt.Errorf("gateway down: %w", apperrors.ErrTransient)
	resp, _ = s.do(t, http.MethodPost, "/api/payment/create-order", map[string]any{"amount": 500, "receiptId": "R1"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/payment/create-order", map[string]any{"amount": 0.5, "receiptId": "R1"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/payment/create-order", map[string]any{"amount": 500})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPaymentLogRoutes(t *testing.T) {
	s := newServer(t)

	resp, env := s.do(t, http.MethodPost, "/api/payment/logs", map[string]any{
		"student_id": 7, "amount": 1500, "status": "upcoming", "payment_date": "2024-02-01", "method": "cash",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	log := decode[models.PaymentLog](t, env.Data)
	assert.Equal(t, "Arjun", log.StudentName)

	resp, env = s.do(t, http.MethodPut, fmt.Sprintf("/api/payment/logs/%d", log.ID), map[string]any{"status": "paid"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.PaymentPaid, decode[models.PaymentLog](t, env.Data).Status)

	resp, _ = s.do(t, http.MethodPut, fmt.Sprintf("/api/payment/logs/%d", log.ID), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPut, "/api/payment/logs/999", map[string]any{"status": "paid"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPut, "/api/payment/logs/abc", map[string]any{"status": "paid"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/payment/logs/student/99", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/payment/logs", map[string]any{
		"student_id": 7, "amount": 500, "status": "paid", "payment_date": "2024-02-01",
		"razorpay_order_id": "order_1", "razorpay_payment_id": "pay_1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/payment/logs", map[string]any{
		"student_id": 7, "amount": 500, "status": "upcoming", "payment_date": "2024-02-01",
		"razorpay_order_id": "order_1", "razorpay_payment_id": "pay_1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = s.do(t, http.MethodPost, "/api/payment/logs", map[string]any{
		"student_id": 7, "amount": 500, "status": "upcoming", "payment_date": "2024-02-01",
		"razorpay_order_id": "order_9",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	assert.Equal(t, "order_9", decode[map[string]any](t, env.Data)["razorpay_order_id"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/payment/key", nil)
	req.Header.Set(headerRequestID, "req-123")

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "req-123", resp.Header.Get(headerRequestID))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.Invalid("x"), http.StatusBadRequest},
		{apperrors.NotFound("x"), http.StatusNotFound},
		{fmt.Errorf("%w: x", apperrors.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: %w", apperrors.ErrGateway, apperrors.ErrRejected), http.StatusBadGateway},
		{fmt.Errorf("%w: %w", apperrors.ErrGateway, apperrors.ErrTransient), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
		{fiber.ErrMethodNotAllowed, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
