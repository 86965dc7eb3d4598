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
	"github.com/edukzn/telegram-college-bot/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type GradeFSMState struct {
	Step         int
	DisciplineID int64
	GroupName    string
	KTPID        int64
	StudentID    int64
	StudentName  string
}

var gradeStates = make(map[int64]*GradeFSMState)

func GetGradeState(chatID int64) *GradeFSMState { return gradeStates[chatID] }

// StartGradeFSM — сценарий «выставить оценку»: дисциплина → пункт КТП →
// студент → значение.
func StartGradeFSM(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	delete(gradeStates, chatID)

	disciplines, err := c.TeacherDisciplines(ctx, teacherIDFor(ctx, c, chatID))
	if err != nil || len(disciplines) == 0 {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "У вас нет дисциплин. Сначала создайте дисциплину и КТП."))
		return
	}

	gradeStates[chatID] = &GradeFSMState{Step: 1}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, d := range disciplines {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s (%s)", d.Name, d.GroupName),
				fmt.Sprintf("grade_disc_%d", d.ID)),
		))
	}
	rows = append(rows, fsmutil.CancelRow("grade_cancel"))

	out := tgbotapi.NewMessage(chatID, "Выберите дисциплину:")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, _ = bot.Send(out)
}

func HandleGradeCallback(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, cq *tgbotapi.CallbackQuery) {
	chatID := cq.From.ID
	state := gradeStates[chatID]
	if state == nil {
		return
	}
	data := cq.Data
	fsmutil.DisableMarkup(bot, chatID, cq.Message.MessageID)

	if data == "grade_cancel" {
		delete(gradeStates, chatID)
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "🚫 Выставление оценки отменено."))
		return
	}

	switch {
	case strings.HasPrefix(data, "grade_disc_"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(data, "grade_disc_"), 10, 64)
		state.DisciplineID = id
		state.Step = 2

		items, err := c.KTPByDiscipline(ctx, id, "")
		if err != nil || len(items) == 0 {
			delete(gradeStates, chatID)
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "В КТП дисциплины нет пунктов."))
			return
		}
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, it := range items {
			title := it.Description
			if it.Kind == models.Practice && it.PracticeNumber != nil {
				title = fmt.Sprintf("Пр.%d %s", *it.PracticeNumber, it.Description)
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(title, fmt.Sprintf("grade_ktp_%d", it.ID)),
			))
		}
		rows = append(rows, fsmutil.CancelRow("grade_cancel"))
		out := tgbotapi.NewMessage(chatID, "Выберите пункт КТП:")
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		_, _ = bot.Send(out)

	case strings.HasPrefix(data, "grade_ktp_"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(data, "grade_ktp_"), 10, 64)
		state.KTPID = id
		state.Step = 3
		showGradeStudents(ctx, bot, c, chatID, state)

	case strings.HasPrefix(data, "grade_student_"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(data, "grade_student_"), 10, 64)
		state.StudentID = id
		state.Step = 4
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Введите оценку (0–5) или «н», если студента не было:"))
	}
}

func showGradeStudents(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, chatID int64, state *GradeFSMState) {
	teacherID := teacherIDFor(ctx, c, chatID)
	disc, err := disciplineByID(ctx, c, teacherID, state.DisciplineID)
	if err != nil {
		delete(gradeStates, chatID)
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Дисциплина не найдена."))
		return
	}
	state.GroupName = disc.GroupName

	students, err := c.GroupStudents(ctx, teacherID, disc.GroupName)
	if err != nil || len(students) == 0 {
		delete(gradeStates, chatID)
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "В группе нет студентов. Добавьте их через «➕ Студент в группу»."))
		return
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, s := range students {
		name := s.FullName
		if !s.Bound() {
			name += " (не зарегистрирован)"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(name, fmt.Sprintf("grade_student_%d", s.ID)),
		))
	}
	rows = append(rows, fsmutil.CancelRow("grade_cancel"))
	out := tgbotapi.NewMessage(chatID, "Выберите студента:")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, _ = bot.Send(out)
}

// HandleGradeText — последний шаг: значение оценки. После записи ядро само
// проводит жетоны и проверяет бонус «первый сдал».
func HandleGradeText(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	state := gradeStates[chatID]
	if state == nil || state.Step != 4 {
		return
	}
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	if fsmutil.IsCancelText(text) {
		delete(gradeStates, chatID)
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "🚫 Выставление оценки отменено."))
		return
	}

	value := models.GradeAbsent
	if text != "н" {
		v, err := strconv.Atoi(text)
		if err != nil {
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Введите число 0–5 или «н»."))
			return
		}
		value = v
	}

	teacherID := teacherIDFor(ctx, c, chatID)
	now := time.Now()
	created, err := c.SetGrade(ctx, core.SetGradeInput{
		StudentID:    state.StudentID,
		TeacherID:    teacherID,
		DisciplineID: state.DisciplineID,
		KTPID:        state.KTPID,
		Value:        value,
		Date:         now,
	})
	if errors.Is(err, core.ErrInvalidGrade) {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Такой оценки не бывает. Введите 0–5 или «н»."))
		return
	}
	if err != nil {
		metrics.HandlerErrors.Inc()
		delete(gradeStates, chatID)
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось сохранить оценку."))
		return
	}

	// после каждой записи пробуем бонус: повторные вызовы безвредны
	if _, err := c.Evaluate(ctx, state.StudentID, state.DisciplineID, teacherID, now); err != nil {
		metrics.HandlerErrors.Inc()
	}

	delete(gradeStates, chatID)
	verb := "выставлена"
	if !created {
		verb = "изменена"
	}
	_, _ = bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Оценка %s: %s.", verb, models.GradeLabel(value))))
}
