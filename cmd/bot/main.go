package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edukzn/telegram-college-bot/internal/app"
	"github.com/edukzn/telegram-college-bot/internal/config"
	"github.com/edukzn/telegram-college-bot/internal/core"
	"github.com/edukzn/telegram-college-bot/internal/db"
	"github.com/edukzn/telegram-college-bot/internal/jobs"
	"github.com/edukzn/telegram-college-bot/internal/logging"
	"github.com/edukzn/telegram-college-bot/internal/models"
	"github.com/edukzn/telegram-college-bot/internal/notify"
	"github.com/edukzn/telegram-college-bot/internal/observability"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}
	time.Local = cfg.Location

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Ошибка логгера: %v", err)
	}
	defer lg.Closer()

	if cfg.SentryDSN != "" {
		flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, "collegebot")
		if err != nil {
			lg.Sugar.Warnw("sentry init failed", "err", err)
		} else {
			defer flush()
		}
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		lg.Sugar.Fatalw("bot init failed", "err", err)
	}
	lg.Sugar.Infow("бот запущен", "username", bot.Self.UserName)

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		lg.Sugar.Fatalw("db open failed", "err", err)
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(database); err != nil {
		lg.Sugar.Fatalw("migrate failed", "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// глобальный админ заводится заранее: к его суррогатному id
	// привязываются все регистрирующиеся студенты
	adminUserID, err := db.EnsureUser(ctx, database, cfg.AdminID, "Администратор", models.Admin)
	if err != nil {
		lg.Sugar.Fatalw("ensure admin failed", "err", err)
	}

	c := core.New(database, lg.Sugar, notify.NewTelegram(bot, lg.Sugar), adminUserID)

	app.StartHTTP(ctx, cfg.HTTPAddr, database)

	r := jobs.New(ctx)
	r.Every(time.Minute, "db_ping", jobs.DBPing(c))
	r.Every(10*time.Minute, "bonus_rescan", jobs.BonusRescan(c))

	app.Run(ctx, bot, c)
	lg.Sugar.Infow("остановка бота")
}
