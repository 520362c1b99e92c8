package main

import (
	"context"
	"errors"
	"net"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"spectrum-academy/internal/bot"
	"spectrum-academy/internal/gateway"
	"spectrum-academy/internal/gateway/razorpay"
	"spectrum-academy/internal/gateway/sandbox"
	"spectrum-academy/internal/keylock"
	"spectrum-academy/internal/logger"
	"spectrum-academy/internal/models"
	"spectrum-academy/internal/models/config"
	"spectrum-academy/internal/repository"
	"spectrum-academy/internal/repository/attendance"
	"spectrum-academy/internal/repository/memory"
	"spectrum-academy/internal/repository/payment"
	"spectrum-academy/internal/repository/student"
	"spectrum-academy/internal/service"
	attendance_service "spectrum-academy/internal/service/attendance"
	ledger_service "spectrum-academy/internal/service/ledger"
	payment_service "spectrum-academy/internal/service/payment"
	"spectrum-academy/internal/signature"
	"spectrum-academy/internal/web"
	database "spectrum-academy/pkg"
)

func main() {
	fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(
			config.Load,
			logger.New,
			newRepositories,
			newGateway,
			newVerifier,
			newTelegramAPI,
			newNotifier,
			newPaymentService,
			keylock.New,
			attendance_service.NewAttendanceService,
			ledger_service.NewLedgerService,
			web.NewHandler,
			web.NewApp,
		),
		fx.Invoke(runHTTP, runBot),
	).Run()
}

type repositories struct {
	fx.Out

	Students   repository.StudentRepository
	Attendance repository.AttendanceRepository
	Payments   repository.PaymentLogRepository
}

func newRepositories(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (repositories, error) {
	log.Info("🚀 Запуск", zap.String("env", cfg.Environment), zap.String("storage", cfg.Storage))

	if cfg.Storage == "memory" {
		log.Warn("⚠️ Хранилище в памяти, данные пропадут при перезапуске")
		store := memory.NewStore()
		seedDemo(store)
		return repositories{
			Students:   store.Students(),
			Attendance: store.Attendance(),
			Payments:   store.Payments(),
		}, nil
	}

	db, err := database.NewPostgres(context.Background(), cfg.Database, log)
	if err != nil {
		return repositories{}, err
	}
	lc.Append(fx.StopHook(db.Close))

	return repositories{
		Students:   student.NewStudentRepository(db),
		Attendance: attendance.NewAttendanceRepository(db),
		Payments:   payment.NewPaymentLogRepository(db),
	}, nil
}

// seedDemo справочник для локального режима без БД
func seedDemo(store *memory.Store) {
	store.AddStudent(models.Student{ID: 1, Name: "Demo Student", Sport: "Cricket", GroupLevel: "U14", PaymentStatus: string(models.PaymentUpcoming)})
	store.AddCoach(models.Coach{ID: 1, Name: "Demo Coach", Sports: []string{"Cricket"}, Status: "active"})
}

func newGateway(cfg *config.Config, log *zap.Logger) gateway.Gateway {
	if cfg.Payment.Gateway == "sandbox" {
		log.Warn("⚠️ Платежный шлюз sandbox, реальные платежи не проводятся")
		return sandbox.New(cfg.Payment.KeySecret)
	}
	return razorpay.New(cfg.Payment.KeyID, cfg.Payment.KeySecret, log)
}

func newVerifier(cfg *config.Config) (*signature.Verifier, error) {
	return signature.NewVerifier(cfg.Payment.KeySecret)
}

// newTelegramAPI nil без BOT_TOKEN, бот тогда не запускается
func newTelegramAPI(cfg *config.Config, log *zap.Logger) (*tgbotapi.BotAPI, error) {
	if cfg.Bot.Token == "" {
		log.Info("🤖 BOT_TOKEN не задан, бот отключен")
		return nil, nil
	}
	return bot.NewAPI(cfg.Bot, log)
}

func newNotifier(api *tgbotapi.BotAPI, cfg *config.Config, log *zap.Logger) service.Notifier {
	if api == nil {
		return service.NopNotifier{}
	}
	return bot.NewNotifier(api, cfg.Bot.AdminIDs, log)
}

func newPaymentService(
	gw gateway.Gateway,
	verifier *signature.Verifier,
	ledger service.LedgerService,
	notifier service.Notifier,
	cfg *config.Config,
	log *zap.Logger,
) service.PaymentService {
	return payment_service.NewPaymentService(gw, verifier, ledger, notifier, cfg.Payment.Currency, log)
}

func runHTTP(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, log *zap.Logger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", ":"+cfg.HTTPPort)
			if err != nil {
				return err
			}
			log.Info("🌐 HTTP сервер запущен", zap.String("addr", ln.Addr().String()))

			go func() {
				if err := app.Listener(ln); err != nil && !errors.Is(err, net.ErrClosed) {
					log.Error("❌ HTTP сервер остановлен с ошибкой", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("🛑 Останавливаем HTTP сервер")
			return app.ShutdownWithContext(ctx)
		},
	})
}

func runBot(
	lc fx.Lifecycle,
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	attendanceService service.AttendanceService,
	ledgerService service.LedgerService,
	log *zap.Logger,
) {
	if api == nil {
		return
	}
	telegramBot := bot.NewBot(api, cfg.Bot, attendanceService, ledgerService, log)
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := telegramBot.Start(ctx); err != nil {
					log.Error("❌ Ошибка запуска бота", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			log.Info("👋 Бот остановлен")
			return nil
		},
	})
}
