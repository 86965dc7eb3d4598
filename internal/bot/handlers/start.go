package handlers

import (
	"context"

	"github.com/edukzn/telegram-college-bot/internal/bot/menu"
	"github.com/edukzn/telegram-college-bot/internal/core"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandleStart — вход в бота: зарегистрированным показываем меню роли,
// остальным — выбор роли для регистрации.
func HandleStart(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	user, err := c.StudentByTelegramID(ctx, chatID)
	if err == nil && user != nil {
		out := tgbotapi.NewMessage(chatID, "Добро пожаловать! Выберите действие:")
		out.ReplyMarkup = menu.GetRoleMenu(string(user.Role))
		_, _ = bot.Send(out)
		return
	}

	out := tgbotapi.NewMessage(chatID, "Выберите роль для регистрации:")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Студент", "reg_student"),
			tgbotapi.NewInlineKeyboardButtonData("Преподаватель", "reg_teacher"),
		),
	)
	_, _ = bot.Send(out)
}
