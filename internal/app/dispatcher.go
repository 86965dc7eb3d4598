package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edukzn/telegram-college-bot/internal/bot/handlers"
	"github.com/edukzn/telegram-college-bot/internal/core"
	"github.com/edukzn/telegram-college-bot/internal/ctxutil"
	"github.com/edukzn/telegram-college-bot/internal/metrics"
	"github.com/edukzn/telegram-college-bot/internal/models"
	"github.com/edukzn/telegram-college-bot/internal/observability"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Run читает long-polling обновления и раздаёт их обработчикам. Каждое
// обновление обрабатывается в своей горутине; лимитер не даёт двум
// сценариям одного чата исполняться одновременно.
func Run(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core) {
	limiter := NewChatLimiter()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go dispatch(ctx, bot, c, limiter, update)
		}
	}
}

func dispatch(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, limiter *ChatLimiter, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			metrics.HandlerErrors.Inc()
			chatID, _ := ctxutil.ChatID(ctx)
			observability.CaptureErr(fmt.Errorf("panic in dispatch (chat %d): %v", chatID, r))
		}
	}()

	// одно обновление не должно висеть дольше 30 секунд
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch {
	case update.CallbackQuery != nil:
		ctx = ctxutil.WithChatID(ctx, update.CallbackQuery.From.ID)
		unlock := limiter.lock(update.CallbackQuery.From.ID)
		defer unlock()
		HandleCallback(ctx, bot, c, update.CallbackQuery)
	case update.Message != nil:
		ctx = ctxutil.WithChatID(ctx, update.Message.Chat.ID)
		unlock := limiter.lock(update.Message.Chat.ID)
		defer unlock()
		HandleMessage(ctx, bot, c, update.Message)
	}
}

func HandleMessage(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := msg.Text
	metrics.BotUpdates.Inc()

	// /start доступен без регистрации
	if text == "/start" {
		handlers.HandleStart(ctx, bot, c, msg)
		return
	}

	user, err := c.StudentByTelegramID(ctx, chatID)
	registered := err == nil && user != nil

	if !registered {
		// незарегистрированный либо в процессе регистрации, либо отправляем на /start
		if handlers.GetAuthState(chatID) != nil {
			handlers.HandleAuthText(ctx, bot, c, msg)
			return
		}
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "⚠️ Вы не зарегистрированы. Пожалуйста, нажмите /start для начала."))
		return
	}

	// активные FSM имеют приоритет над пунктами меню
	if handlers.GetGradeState(chatID) != nil {
		handlers.HandleGradeText(ctx, bot, c, msg)
		return
	}
	if handlers.GetKTPState(chatID) != nil {
		handlers.HandleKTPText(ctx, bot, c, msg)
		return
	}
	if handlers.GetRewardState(chatID) != nil {
		handlers.HandleRewardText(ctx, bot, c, msg)
		return
	}
	if handlers.GetRosterState(chatID) != nil {
		handlers.HandleRosterText(ctx, bot, c, msg)
		return
	}
	if handlers.GetReserveState(chatID) != nil {
		handlers.HandleReserveText(ctx, bot, c, msg)
		return
	}
	if handlers.GetSettingsState(chatID) != nil {
		handlers.HandleSettingsText(ctx, bot, c, msg)
		return
	}

	isTeacher := user.Role == models.Teacher || user.Role == models.Admin

	switch text {
	case "📊 Мои оценки":
		handlers.HandleMyGrades(ctx, bot, c, msg)
	case "💰 Мои жетоны":
		handlers.HandleMyTokens(ctx, bot, c, msg)
	case "🎁 Магазин наград":
		handlers.HandleShop(ctx, bot, c, msg)
	case "📥 Выгрузка оценок":
		handlers.HandleGradesExport(ctx, bot, c, msg)
	case "✏️ Выставить оценку":
		if isTeacher {
			handlers.StartGradeFSM(ctx, bot, c, msg)
		}
	case "📚 Дисциплины и КТП":
		if isTeacher {
			handlers.StartKTPFSM(bot, msg)
		}
	case "🎁 Награды":
		if isTeacher {
			handlers.StartRewardsFSM(bot, msg)
		}
	case "💎 Жетоны за посещение":
		if isTeacher {
			handlers.StartSettingsFSM(ctx, bot, c, msg)
		}
	case "✅ Проверить сдачу практик":
		if isTeacher {
			handlers.StartRescan(ctx, bot, c, msg)
		}
	case "➕ Студент в группу":
		if isTeacher {
			handlers.StartRosterFSM(bot, msg)
		}
	case "💸 Зарезервировать жетоны":
		if isTeacher {
			handlers.StartReserveFSM(ctx, bot, c, msg)
		}
	case "📥 Выгрузка журнала":
		if isTeacher {
			handlers.StartGradebookExport(ctx, bot, c, msg)
		}
	default:
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "⚠️ Неизвестная команда. Используйте /start"))
	}
}

func HandleCallback(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	metrics.BotUpdates.Inc()

	// всегда отвечаем на колбэк, чтобы Telegram "разморозил" кнопку
	_, _ = bot.Request(tgbotapi.NewCallback(cb.ID, ""))

	switch {
	case strings.HasPrefix(data, "reg_"):
		handlers.HandleRegCallback(bot, cb)
	case strings.HasPrefix(data, "grade_"):
		handlers.HandleGradeCallback(ctx, bot, c, cb)
	case strings.HasPrefix(data, "ktp_"):
		handlers.HandleKTPCallback(ctx, bot, c, cb)
	case strings.HasPrefix(data, "rw_"):
		handlers.HandleRewardCallback(ctx, bot, c, cb)
	case strings.HasPrefix(data, "buy_reward_"):
		handlers.HandleBuyCallback(ctx, bot, c, cb)
	case strings.HasPrefix(data, "rsv_"):
		handlers.HandleReserveCallback(ctx, bot, c, cb)
	case strings.HasPrefix(data, "rescan_"):
		handlers.HandleRescanCallback(ctx, bot, c, cb)
	case strings.HasPrefix(data, "gbk_"):
		handlers.HandleGradebookCallback(ctx, bot, c, cb)
	default:
		_, _ = bot.Send(tgbotapi.NewMessage(cb.From.ID, "⚠️ Неизвестная команда. Используйте /start"))
	}
}
