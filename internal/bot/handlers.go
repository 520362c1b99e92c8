package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"

	"spectrum-academy/internal/apperrors"
	"spectrum-academy/internal/models"
	"spectrum-academy/internal/service"
)

const paymentsShown = 5

// Обработка сообщения здесь
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	b.logger.Debug("message", zap.String("from", message.From.UserName), zap.String("text", message.Text))

	if !message.IsCommand() {
		b.sendHelp(message.Chat.ID)
		return
	}
	b.handleCommand(ctx, message.Chat.ID, int64(message.From.ID), message.Command(), message.CommandArguments())
}

func (b *Bot) handleCommand(ctx context.Context, chatID, fromID int64, command, args string) {
	switch command {
	case "start", "help":
		b.sendHelp(chatID)
		return
	}

	if !b.admins[fromID] {
		b.sendMessage(chatID, "❌ Команда доступна только администраторам")
		return
	}

	fields := strings.Fields(args)
	switch command {
	case "mark_student":
		b.handleMarkStudent(ctx, chatID, fields)
	case "mark_coach":
		b.handleMarkCoach(ctx, chatID, fields)
	case "payments":
		b.handlePayments(ctx, chatID, fields)
	default:
		b.sendHelp(chatID)
	}
}

// /mark_student <id> <status> [batch]
func (b *Bot) handleMarkStudent(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 || len(args) > 3 {
		b.sendMessage(chatID, "Использование: /mark_student <id> <status> [batch]")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.sendMessage(chatID, "❌ Неверный ID ученика")
		return
	}

	mark := service.StudentMark{
		StudentID: id,
		Date:      b.today(),
		Status:    normalizeStatus(args[1]),
	}
	if len(args) == 3 {
		mark.Batch = &args[2]
	}

	record, err := b.AttendanceService.MarkStudent(ctx, mark)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.sendMessage(chatID, formatRecord(record))
}

// /mark_coach <id> <status> [hours]
func (b *Bot) handleMarkCoach(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 || len(args) > 3 {
		b.sendMessage(chatID, "Использование: /mark_coach <id> <status> [hours]")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.sendMessage(chatID, "❌ Неверный ID тренера")
		return
	}

	mark := service.CoachMark{
		CoachID: id,
		Date:    b.today(),
		Status:  normalizeStatus(args[1]),
	}
	if len(args) == 3 {
		hours, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			b.sendMessage(chatID, "❌ Часы должны быть числом")
			return
		}
		mark.TotalHours = &hours
	}

	record, err := b.AttendanceService.MarkCoach(ctx, mark)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.sendMessage(chatID, formatRecord(record))
}

// /payments <student_id>
func (b *Bot) handlePayments(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		b.sendMessage(chatID, "Использование: /payments <student_id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.sendMessage(chatID, "❌ Неверный ID ученика")
		return
	}

	logs, err := b.LedgerService.ListByStudent(ctx, id)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if len(logs) == 0 {
		b.sendMessage(chatID, "📭 Платежей пока нет")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "💳 Платежи: %s\n", logs[0].StudentName)
	for i, log := range logs {
		if i == paymentsShown {
			fmt.Fprintf(&sb, "… и еще %d", len(logs)-paymentsShown)
			break
		}
		fmt.Fprintf(&sb, "%s  %s ₹  %s\n", log.PaymentDate.Format(models.DateLayout), log.Amount.StringFixed(2), statusIcon(log.Status))
	}
	b.sendMessage(chatID, sb.String())
}

func (b *Bot) today() string {
	return b.now().Format(models.DateLayout)
}

func (b *Bot) sendHelp(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, `🏏 Spectrum Academy

/mark_student <id> <status> [batch] - отметить ученика за сегодня
/mark_coach <id> <status> [hours] - отметить тренера за сегодня
/payments <student_id> - последние платежи

Статусы: Present, Absent, Late, Excused`)
	msg.ReplyMarkup = createAdminKeyboard()
	b.send(msg)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendError(chatID int64, err error) {
	var text string
	switch {
	case errors.Is(err, apperrors.ErrInvalidArgument):
		text = "❌ " + err.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		text = "❌ Не найдено"
	case errors.Is(err, apperrors.ErrConflict):
		text = "⚠️ Запись изменилась параллельно, повторите команду"
	default:
		b.logger.Error("bot command failed", zap.Error(err))
		text = "❌ Внутренняя ошибка, попробуйте позже"
	}
	b.sendMessage(chatID, text)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.sender.Send(c); err != nil {
		b.logger.Warn("telegram send failed", zap.Error(err))
	}
}

// normalizeStatus "late" -> "Late", неизвестные значения отдаем как есть на валидацию
func normalizeStatus(s string) string {
	for _, st := range []models.AttendanceStatus{models.StatusPresent, models.StatusAbsent, models.StatusLate, models.StatusExcused} {
		if strings.EqualFold(s, string(st)) {
			return string(st)
		}
	}
	return s
}

func formatRecord(r *models.AttendanceRecord) string {
	text := fmt.Sprintf("✅ %s (%s) %s: %s", r.SubjectName, r.SubjectKind, r.Date.Format(models.DateLayout), r.Status)
	if r.Batch != nil {
		text += ", batch " + *r.Batch
	}
	if r.TotalHours != nil {
		text += fmt.Sprintf(", %.1f ч", *r.TotalHours)
	}
	return text
}

func statusIcon(s models.PaymentStatus) string {
	switch s {
	case models.PaymentPaid:
		return "✅ paid"
	case models.PaymentUpcoming:
		return "🕒 upcoming"
	default:
		return "❌ not paid"
	}
}
