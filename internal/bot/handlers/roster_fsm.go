package handlers

import (
	"context"
	"strings"

	"github.com/edukzn/telegram-college-bot/internal/bot/shared/fsmutil"
	"github.com/edukzn/telegram-college-bot/internal/core"
	"github.com/edukzn/telegram-college-bot/internal/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type RosterFSMState struct {
	Step     int
	FullName string
}

var rosterStates = make(map[int64]*RosterFSMState)

func GetRosterState(chatID int64) *RosterFSMState { return rosterStates[chatID] }

// StartRosterFSM — «➕ Студент в группу»: студент попадает в список группы по
// ФИО ещё до того, как откроет бота; оценки можно ставить сразу.
func StartRosterFSM(bot *tgbotapi.BotAPI, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	delete(rosterStates, chatID)
	rosterStates[chatID] = &RosterFSMState{Step: 1}
	_, _ = bot.Send(tgbotapi.NewMessage(chatID, "ФИО студента:"))
}

func HandleRosterText(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	state := rosterStates[chatID]
	if state == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if fsmutil.IsCancelText(text) {
		delete(rosterStates, chatID)
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "🚫 Отменено."))
		return
	}

	switch state.Step {
	case 1:
		state.FullName = text
		state.Step = 2
		prompt := "Группа студента:"
		if groups, err := c.TeacherGroups(ctx, teacherIDFor(ctx, c, chatID)); err == nil && len(groups) > 0 {
			names := make([]string, 0, len(groups))
			for _, g := range groups {
				names = append(names, g.GroupName)
			}
			prompt = "Группа студента (ваши группы: " + strings.Join(names, ", ") + "):"
		}
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, prompt))
	case 2:
		delete(rosterStates, chatID)
		if _, err := c.AddStudentToRoster(ctx, teacherIDFor(ctx, c, chatID), state.FullName, text); err != nil {
			metrics.HandlerErrors.Inc()
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось добавить студента."))
			return
		}
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Студент добавлен в группу."))
	}
}
