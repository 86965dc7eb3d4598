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

type ReserveFSMState struct {
	Step         int
	DisciplineID int64
	StudentID    int64
}

var reserveStates = make(map[int64]*ReserveFSMState)

func GetReserveState(chatID int64) *ReserveFSMState { return reserveStates[chatID] }

// StartReserveFSM — ручное резервирование жетонов для незарегистрированного
// студента: он получит их при привязке аккаунта.
func StartReserveFSM(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	delete(reserveStates, chatID)

	disciplines, err := c.TeacherDisciplines(ctx, teacherIDFor(ctx, c, chatID))
	if err != nil || len(disciplines) == 0 {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "У вас нет дисциплин."))
		return
	}

	reserveStates[chatID] = &ReserveFSMState{Step: 1}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, d := range disciplines {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s (%s)", d.Name, d.GroupName),
				fmt.Sprintf("rsv_disc_%d", d.ID)),
		))
	}
	rows = append(rows, fsmutil.CancelRow("rsv_cancel"))
	out := tgbotapi.NewMessage(chatID, "По какой дисциплине резервируем жетоны?")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, _ = bot.Send(out)
}

func HandleReserveCallback(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, cq *tgbotapi.CallbackQuery) {
	chatID := cq.From.ID
	state := reserveStates[chatID]
	if state == nil {
		return
	}
	data := cq.Data
	fsmutil.DisableMarkup(bot, chatID, cq.Message.MessageID)

	if data == "rsv_cancel" {
		delete(reserveStates, chatID)
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "🚫 Отменено."))
		return
	}

	switch {
	case strings.HasPrefix(data, "rsv_disc_"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(data, "rsv_disc_"), 10, 64)
		state.DisciplineID = id
		state.Step = 2

		teacherID := teacherIDFor(ctx, c, chatID)
		disc, err := disciplineByID(ctx, c, teacherID, id)
		if err != nil {
			delete(reserveStates, chatID)
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Дисциплина не найдена."))
			return
		}
		students, err := c.GroupStudents(ctx, teacherID, disc.GroupName)
		if err != nil || len(students) == 0 {
			delete(reserveStates, chatID)
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "В группе нет студентов."))
			return
		}
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, s := range students {
			if s.Bound() {
				continue // для привязанных жетоны начисляются напрямую
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(s.FullName, fmt.Sprintf("rsv_student_%d", s.ID)),
			))
		}
		if len(rows) == 0 {
			delete(reserveStates, chatID)
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Все студенты группы уже зарегистрированы."))
			return
		}
		rows = append(rows, fsmutil.CancelRow("rsv_cancel"))
		out := tgbotapi.NewMessage(chatID, "Кому зарезервировать жетоны?")
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		_, _ = bot.Send(out)

	case strings.HasPrefix(data, "rsv_student_"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(data, "rsv_student_"), 10, 64)
		state.StudentID = id
		state.Step = 3
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Сколько жетонов зарезервировать? (повторный ввод заменит прежний резерв)"))
	}
}

func HandleReserveText(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	state := reserveStates[chatID]
	if state == nil || state.Step != 3 {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if fsmutil.IsCancelText(text) {
		delete(reserveStates, chatID)
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "🚫 Отменено."))
		return
	}

	tokens, err := strconv.Atoi(text)
	if err != nil || tokens < 1 {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Введите целое число от 1."))
		return
	}

	delete(reserveStates, chatID)
	err = c.Reserve(ctx, state.StudentID, teacherIDFor(ctx, c, chatID), state.DisciplineID, tokens,
		fmt.Sprintf("Вам начислено %d жетончиков от преподавателя.", tokens))
	if err != nil {
		metrics.HandlerErrors.Inc()
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось зарезервировать жетоны."))
		return
	}
	_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Жетоны зарезервированы: студент получит их после регистрации."))
}
