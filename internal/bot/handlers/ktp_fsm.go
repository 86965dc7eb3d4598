package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/edukzn/telegram-college-bot/internal/bot/shared/fsmutil"
	"github.com/edukzn/telegram-college-bot/internal/core"
	"github.com/edukzn/telegram-college-bot/internal/metrics"
	"github.com/edukzn/telegram-college-bot/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type KTPFSMState struct {
	Step           int
	Mode           string // disc|item|del
	DisciplineID   int64
	Name           string
	Required       int
	Kind           models.KTPKind
	PracticeNumber int
	Description    string
}

var ktpStates = make(map[int64]*KTPFSMState)

func GetKTPState(chatID int64) *KTPFSMState { return ktpStates[chatID] }

func StartKTPFSM(bot *tgbotapi.BotAPI, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	delete(ktpStates, chatID)
	ktpStates[chatID] = &KTPFSMState{}

	out := tgbotapi.NewMessage(chatID, "Дисциплины и КТП:")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Дисциплина", "ktp_new_disc"),
			tgbotapi.NewInlineKeyboardButtonData("➕ Пункт КТП", "ktp_new_item"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить пункт", "ktp_del_item"),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить дисциплину", "ktp_del_disc"),
		),
		fsmutil.CancelRow("ktp_cancel"),
	)
	_, _ = bot.Send(out)
}

func HandleKTPCallback(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, cq *tgbotapi.CallbackQuery) {
	chatID := cq.From.ID
	state := ktpStates[chatID]
	if state == nil {
		return
	}
	data := cq.Data
	fsmutil.DisableMarkup(bot, chatID, cq.Message.MessageID)

	if data == "ktp_cancel" {
		delete(ktpStates, chatID)
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "🚫 Отменено."))
		return
	}

	switch {
	case data == "ktp_new_disc":
		state.Mode = "disc"
		state.Step = 1
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Название дисциплины:"))

	case data == "ktp_new_item" || data == "ktp_del_item" || data == "ktp_del_disc":
		switch data {
		case "ktp_new_item":
			state.Mode = "item"
		case "ktp_del_item":
			state.Mode = "del"
		default:
			state.Mode = "deldisc"
		}
		state.Step = 1
		disciplines, err := c.TeacherDisciplines(ctx, teacherIDFor(ctx, c, chatID))
		if err != nil || len(disciplines) == 0 {
			delete(ktpStates, chatID)
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Сначала создайте дисциплину."))
			return
		}
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, d := range disciplines {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("%s (%s)", d.Name, d.GroupName),
					fmt.Sprintf("ktp_disc_%d", d.ID)),
			))
		}
		rows = append(rows, fsmutil.CancelRow("ktp_cancel"))
		prompt := "Выберите дисциплину:"
		if state.Mode == "deldisc" {
			prompt = "Какую дисциплину удалить? КТП и оценки по ней тоже удалятся."
		}
		out := tgbotapi.NewMessage(chatID, prompt)
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		_, _ = bot.Send(out)

	case strings.HasPrefix(data, "ktp_disc_"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(data, "ktp_disc_"), 10, 64)
		state.DisciplineID = id
		if state.Mode == "deldisc" {
			delete(ktpStates, chatID)
			if err := c.DeleteDiscipline(ctx, id); err != nil {
				metrics.HandlerErrors.Inc()
				_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось удалить дисциплину."))
				return
			}
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Дисциплина удалена вместе с КТП и оценками."))
			return
		}
		if state.Mode == "item" {
			state.Step = 2
			out := tgbotapi.NewMessage(chatID, "Тип пункта:")
			out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("Лекция", "ktp_kind_lecture"),
					tgbotapi.NewInlineKeyboardButtonData("Практика", "ktp_kind_practice"),
				),
				fsmutil.CancelRow("ktp_cancel"),
			)
			_, _ = bot.Send(out)
			return
		}
		// удаление: показываем пункты
		items, err := c.KTPByDiscipline(ctx, id, "")
		if err != nil || len(items) == 0 {
			delete(ktpStates, chatID)
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Пунктов нет."))
			return
		}
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, it := range items {
			title := it.Description
			if it.Kind == models.Practice && it.PracticeNumber != nil {
				title = fmt.Sprintf("Пр.%d %s", *it.PracticeNumber, it.Description)
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(title, fmt.Sprintf("ktp_del_%d", it.ID)),
			))
		}
		rows = append(rows, fsmutil.CancelRow("ktp_cancel"))
		out := tgbotapi.NewMessage(chatID, "Какой пункт удалить? Оценки по нему тоже удалятся.")
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		_, _ = bot.Send(out)

	case strings.HasPrefix(data, "ktp_kind_"):
		if strings.TrimPrefix(data, "ktp_kind_") == "practice" {
			state.Kind = models.Practice
			state.Step = 3
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Номер практики:"))
		} else {
			state.Kind = models.Lecture
			state.Step = 4
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Тема занятия:"))
		}

	case strings.HasPrefix(data, "ktp_del_"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(data, "ktp_del_"), 10, 64)
		delete(ktpStates, chatID)
		if err := c.DeleteKTPItem(ctx, id); err != nil {
			metrics.HandlerErrors.Inc()
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось удалить пункт."))
			return
		}
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Пункт КТП удалён вместе с оценками."))
	}
}

func HandleKTPText(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	state := ktpStates[chatID]
	if state == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if fsmutil.IsCancelText(text) {
		delete(ktpStates, chatID)
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "🚫 Отменено."))
		return
	}

	switch {
	case state.Mode == "disc" && state.Step == 1:
		state.Name = text
		state.Step = 2
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Сколько обязательных практик в дисциплине? (0 — без бонуса)"))

	case state.Mode == "disc" && state.Step == 2:
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 {
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Введите целое число не меньше 0."))
			return
		}
		state.Required = n
		state.Step = 3
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Группа, которой читается дисциплина:"))

	case state.Mode == "disc" && state.Step == 3:
		delete(ktpStates, chatID)
		_, err := c.CreateDiscipline(ctx, models.Discipline{
			TeacherID:         teacherIDFor(ctx, c, chatID),
			Name:              state.Name,
			GroupName:         text,
			RequiredPractices: state.Required,
		})
		if err != nil {
			metrics.HandlerErrors.Inc()
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось создать дисциплину."))
			return
		}
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Дисциплина создана."))

	case state.Mode == "item" && state.Step == 3:
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 {
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Номер практики — целое число от 1."))
			return
		}
		state.PracticeNumber = n
		state.Step = 4
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Тема занятия:"))

	case state.Mode == "item" && state.Step == 4:
		state.Description = text
		state.Step = 5
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Домашнее задание («-», если нет):"))

	case state.Mode == "item" && state.Step == 5:
		delete(ktpStates, chatID)
		teacherID := teacherIDFor(ctx, c, chatID)
		disc, err := disciplineByID(ctx, c, teacherID, state.DisciplineID)
		if err != nil {
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Дисциплина не найдена."))
			return
		}
		item := models.KTPItem{
			TeacherID:    teacherID,
			DisciplineID: state.DisciplineID,
			GroupName:    disc.GroupName,
			Kind:         state.Kind,
			Description:  state.Description,
		}
		if state.Kind == models.Practice {
			n := state.PracticeNumber
			item.PracticeNumber = &n
		}
		if text != "-" {
			hw := text
			item.Homework = &hw
		}
		if _, err := c.CreateKTPItem(ctx, item); err != nil {
			metrics.HandlerErrors.Inc()
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось добавить пункт КТП."))
			return
		}
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Пункт КТП добавлен."))
	}
}
