package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"

	"spectrum-academy/internal/models/config"
	"spectrum-academy/internal/service"
)

// sender часть BotAPI, которой пользуются обработчики и уведомления
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api    *tgbotapi.BotAPI
	sender sender

	AttendanceService service.AttendanceService
	LedgerService     service.LedgerService

	admins map[int64]bool
	logger *zap.Logger
	now    func() time.Time
}

// NewAPI подключение к Telegram, токен обязателен
func NewAPI(cfg config.BotConfig, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("BOT_TOKEN не установлен в конфигурации")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = cfg.Debug

	logger.Info("🤖 Бот инициализирован",
		zap.String("username", api.Self.UserName),
		zap.Bool("debug", cfg.Debug),
		zap.Int64s("admins", cfg.AdminIDs),
	)
	return api, nil
}

func NewBot(
	api *tgbotapi.BotAPI,
	cfg config.BotConfig,
	attendanceService service.AttendanceService,
	ledgerService service.LedgerService,
	logger *zap.Logger,
) *Bot {
	b := newBot(api, cfg.AdminIDs, attendanceService, ledgerService, logger)
	b.api = api
	return b
}

func newBot(s sender, adminIDs []int64, attendanceService service.AttendanceService, ledgerService service.LedgerService, logger *zap.Logger) *Bot {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Bot{
		sender:            s,
		AttendanceService: attendanceService,
		LedgerService:     ledgerService,
		admins:            admins,
		logger:            logger,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// Start long polling до отмены ctx
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Авторизован", zap.String("username", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}

			go b.handleMessage(ctx, update.Message)
		}
	}
}
