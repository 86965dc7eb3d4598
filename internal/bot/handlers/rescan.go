package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/edukzn/telegram-college-bot/internal/bot/shared/fsmutil"
	"github.com/edukzn/telegram-college-bot/internal/core"
	"github.com/edukzn/telegram-college-bot/internal/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// StartRescan — ручная проверка "кто первым сдал все практики" по дисциплине.
// Нужна, когда оценки выставлялись задним числом и бонус не сработал на лету.
func StartRescan(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	disciplines, err := c.TeacherDisciplines(ctx, teacherIDFor(ctx, c, chatID))
	if err != nil || len(disciplines) == 0 {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "У вас нет дисциплин."))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, d := range disciplines {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s (%s)", d.Name, d.GroupName),
				fmt.Sprintf("rescan_%d", d.ID)),
		))
	}
	out := tgbotapi.NewMessage(chatID, "По какой дисциплине проверить сдачу практик?")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, _ = bot.Send(out)
}

func HandleRescanCallback(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, cq *tgbotapi.CallbackQuery) {
	chatID := cq.From.ID
	data := cq.Data
	if !strings.HasPrefix(data, "rescan_") {
		return
	}
	fsmutil.DisableMarkup(bot, chatID, cq.Message.MessageID)

	disciplineID, _ := strconv.ParseInt(strings.TrimPrefix(data, "rescan_"), 10, 64)
	awarded, err := c.EvaluateDiscipline(ctx, disciplineID, time.Now())
	if err != nil {
		metrics.HandlerErrors.Inc()
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось выполнить проверку."))
		return
	}
	if awarded {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "🏆 Бонус за первую полную сдачу начислен."))
		return
	}
	_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Бонус не начислен: либо уже выдан, либо никто не сдал все практики вовремя."))
}
