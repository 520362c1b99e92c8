package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/service"
)

// Notifier рассылает администраторам подтвержденные платежи.
// В личном чате chat id совпадает с user id.
type Notifier struct {
	sender   sender
	adminIDs []int64
	logger   *zap.Logger
}

var _ service.Notifier = (*Notifier)(nil)

func NewNotifier(api *tgbotapi.BotAPI, adminIDs []int64, logger *zap.Logger) *Notifier {
	return newNotifier(api, adminIDs, logger)
}

func newNotifier(s sender, adminIDs []int64, logger *zap.Logger) *Notifier {
	return &Notifier{sender: s, adminIDs: adminIDs, logger: logger}
}

func (n *Notifier) PaymentConfirmed(ctx context.Context, log *models.PaymentLog) {
	text := fmt.Sprintf("💰 Оплата подтверждена\n👤 %s (id %d)\n💵 %s ₹\n📅 %s",
		log.StudentName, log.StudentID, log.Amount.StringFixed(2), log.PaymentDate.Format(models.DateLayout))
	if log.ReceiptID != nil {
		text += "\n🧾 " + *log.ReceiptID
	}

	for _, id := range n.adminIDs {
		if ctx.Err() != nil {
			return
		}
		if _, err := n.sender.Send(tgbotapi.NewMessage(id, text)); err != nil {
			n.logger.Warn("payment notification failed", zap.Int64("admin_id", id), zap.Error(err))
		}
	}
}
