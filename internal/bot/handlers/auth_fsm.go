package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/edukzn/telegram-college-bot/internal/bot/menu"
	"github.com/edukzn/telegram-college-bot/internal/bot/shared/fsmutil"
	"github.com/edukzn/telegram-college-bot/internal/core"
	"github.com/edukzn/telegram-college-bot/internal/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type AuthFSMState struct {
	Step     int
	Role     string // student|teacher
	FullName string
}

var authStates = make(map[int64]*AuthFSMState)

func GetAuthState(chatID int64) *AuthFSMState { return authStates[chatID] }

// HandleRegCallback — выбор роли на /start.
func HandleRegCallback(bot *tgbotapi.BotAPI, cq *tgbotapi.CallbackQuery) {
	chatID := cq.From.ID
	fsmutil.DisableMarkup(bot, chatID, cq.Message.MessageID)

	switch cq.Data {
	case "reg_student":
		authStates[chatID] = &AuthFSMState{Step: 1, Role: "student"}
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Введите ваше ФИО:"))
	case "reg_teacher":
		authStates[chatID] = &AuthFSMState{Step: 1, Role: "teacher"}
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Введите ваше ФИО:"))
	}
}

// HandleAuthText — шаги регистрации: ФИО, для студента ещё группа.
// Привязка студента идёт через ядро: заготовка с его историей подхватывается,
// отложенные жетоны начисляются там же.
func HandleAuthText(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	state := authStates[chatID]
	if state == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if fsmutil.IsCancelText(text) {
		delete(authStates, chatID)
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "🚫 Регистрация отменена."))
		return
	}

	switch {
	case state.Step == 1 && state.Role == "teacher":
		delete(authStates, chatID)
		if _, err := c.RegisterTeacher(ctx, chatID, text); err != nil {
			metrics.HandlerErrors.Inc()
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Ошибка регистрации, попробуйте ещё раз."))
			return
		}
		out := tgbotapi.NewMessage(chatID, "Регистрация завершена.")
		out.ReplyMarkup = menu.GetRoleMenu("teacher")
		_, _ = bot.Send(out)

	case state.Step == 1 && state.Role == "student":
		state.FullName = text
		state.Step = 2
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Введите вашу группу:"))

	case state.Step == 2 && state.Role == "student":
		delete(authStates, chatID)
		_, err := c.Bind(ctx, chatID, state.FullName, text)
		switch {
		case errors.Is(err, core.ErrIdentityConflict):
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "⚠️ Эти ФИО и группа уже заняты другим аккаунтом. Обратитесь к преподавателю."))
			return
		case errors.Is(err, core.ErrInvalidIdentity):
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "⚠️ ФИО и группа не могут быть пустыми."))
			return
		case err != nil:
			metrics.HandlerErrors.Inc()
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Ошибка регистрации, попробуйте ещё раз."))
			return
		}
		out := tgbotapi.NewMessage(chatID, "Регистрация завершена. Вы связаны с преподавателями вашей группы.")
		out.ReplyMarkup = menu.GetRoleMenu("student")
		_, _ = bot.Send(out)
	}
}
