package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/edukzn/telegram-college-bot/internal/bot/shared/fsmutil"
	"github.com/edukzn/telegram-college-bot/internal/core"
	"github.com/edukzn/telegram-college-bot/internal/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type SettingsFSMState struct {
	Step int
}

var settingsStates = make(map[int64]*SettingsFSMState)

func GetSettingsState(chatID int64) *SettingsFSMState { return settingsStates[chatID] }

// StartSettingsFSM — настройка ставки "жетонов за посещение" преподавателя.
func StartSettingsFSM(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	teacherID := teacherIDFor(ctx, c, chatID)
	if teacherID == 0 {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Вы не зарегистрированы как преподаватель."))
		return
	}

	current, err := c.TokensPerAttendance(ctx, teacherID)
	if err != nil {
		metrics.HandlerErrors.Inc()
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось прочитать настройки."))
		return
	}

	settingsStates[chatID] = &SettingsFSMState{Step: 1}
	_, _ = bot.Send(tgbotapi.NewMessage(chatID,
		fmt.Sprintf("Сейчас за посещение начисляется %d жет. Введите новое значение (0 — отключить):", current)))
}

func HandleSettingsText(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	state := settingsStates[chatID]
	if state == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if fsmutil.IsCancelText(text) {
		delete(settingsStates, chatID)
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "🚫 Отменено."))
		return
	}

	tokens, err := strconv.Atoi(text)
	if err != nil || tokens < 0 {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Введите целое число от 0."))
		return
	}

	delete(settingsStates, chatID)
	if err := c.SetTokensPerAttendance(ctx, teacherIDFor(ctx, c, chatID), tokens); err != nil {
		metrics.HandlerErrors.Inc()
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось сохранить."))
		return
	}
	_, _ = bot.Send(tgbotapi.NewMessage(chatID,
		fmt.Sprintf("Готово: за посещение теперь %d жет.", tokens)))
}
