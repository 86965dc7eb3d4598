package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/edukzn/telegram-college-bot/internal/bot/shared/fsmutil"
	"github.com/edukzn/telegram-college-bot/internal/core"
	"github.com/edukzn/telegram-college-bot/internal/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandleShop — магазин наград для студента: включённые награды его
// преподавателей с кнопкой покупки.
func HandleShop(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	student, err := c.StudentByTelegramID(ctx, chatID)
	if err != nil || student == nil {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "⚠️ Вы не зарегистрированы. Нажмите /start."))
		return
	}

	rewards, err := c.RewardsForStudent(ctx, student.ID)
	if err != nil {
		metrics.HandlerErrors.Inc()
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось загрузить магазин."))
		return
	}
	if len(rewards) == 0 {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "В магазине пока пусто."))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range rewards {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("Купить: %s — %d жет.", r.Name, r.Price),
				fmt.Sprintf("buy_reward_%d", r.ID)),
		))
	}
	out := tgbotapi.NewMessage(chatID, "Доступные награды:")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, _ = bot.Send(out)
}

// HandleBuyCallback — покупка: списание и чек атомарны, при нехватке жетонов
// баланс не меняется.
func HandleBuyCallback(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, cq *tgbotapi.CallbackQuery) {
	chatID := cq.From.ID
	rewardID, err := strconv.ParseInt(strings.TrimPrefix(cq.Data, "buy_reward_"), 10, 64)
	if err != nil {
		return
	}
	fsmutil.DisableMarkup(bot, chatID, cq.Message.MessageID)

	student, err := c.StudentByTelegramID(ctx, chatID)
	if err != nil || student == nil {
		return
	}

	_, err = c.Purchase(ctx, student.ID, rewardID, time.Now())
	switch {
	case errors.Is(err, core.ErrInsufficientTokens):
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Недостаточно жетонов для этой награды."))
	case errors.Is(err, core.ErrRewardNotFound):
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Награда больше недоступна."))
	case err != nil:
		metrics.HandlerErrors.Inc()
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Покупка не удалась, попробуйте позже."))
	default:
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "🎉 Покупка оформлена! Преподаватель выдаст награду на занятии."))
	}
}
