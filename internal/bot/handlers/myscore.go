package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/edukzn/telegram-college-bot/internal/core"
	"github.com/edukzn/telegram-college-bot/internal/export"
	"github.com/edukzn/telegram-college-bot/internal/metrics"
	"github.com/edukzn/telegram-college-bot/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandleMyGrades — последние оценки студента.
func HandleMyGrades(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	student, err := c.StudentByTelegramID(ctx, chatID)
	if err != nil || student == nil {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "⚠️ Вы не зарегистрированы. Нажмите /start."))
		return
	}

	grades, err := c.GradesForStudent(ctx, student.ID)
	if err != nil {
		metrics.HandlerErrors.Inc()
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось получить оценки."))
		return
	}
	if len(grades) == 0 {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Оценок пока нет."))
		return
	}

	var b strings.Builder
	b.WriteString("Последние оценки:\n")
	shown := grades
	if len(shown) > 15 {
		shown = shown[:15]
	}
	for _, g := range shown {
		fmt.Fprintf(&b, "%s — %s, %s (%s)\n",
			models.GradeLabel(g.Value), g.DisciplineName, g.KTPDescription, g.Date.Format("02.01.2006"))
	}

	b.WriteString("\nПо дисциплинам:\n")
	seen := make(map[int64]bool)
	for _, g := range grades {
		if seen[g.DisciplineID] {
			continue
		}
		seen[g.DisciplineID] = true
		avg, attendance, err := c.AverageAndAttendance(ctx, student.ID, g.DisciplineID)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "• %s: средний балл %.2f, посещаемость %.0f%%\n",
			g.DisciplineName, avg, attendance)
	}
	_, _ = bot.Send(tgbotapi.NewMessage(chatID, b.String()))
}

// HandleMyTokens — балансы по преподавателям и история покупок.
func HandleMyTokens(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	student, err := c.StudentByTelegramID(ctx, chatID)
	if err != nil || student == nil {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "⚠️ Вы не зарегистрированы. Нажмите /start."))
		return
	}

	balances, err := c.BalancesForStudent(ctx, student.ID)
	if err != nil {
		metrics.HandlerErrors.Inc()
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось получить балансы."))
		return
	}
	if len(balances) == 0 {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Жетонов пока нет."))
		return
	}

	var b strings.Builder
	b.WriteString("Ваши жетоны:\n")
	for _, bal := range balances {
		fmt.Fprintf(&b, "• %s: %d\n", bal.TeacherName, bal.Tokens)
	}
	_, _ = bot.Send(tgbotapi.NewMessage(chatID, b.String()))
}

// HandleGradesExport — выгрузка журнала студента в xlsx.
func HandleGradesExport(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	student, err := c.StudentByTelegramID(ctx, chatID)
	if err != nil || student == nil {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "⚠️ Вы не зарегистрированы. Нажмите /start."))
		return
	}

	grades, err := c.GradesForStudent(ctx, student.ID)
	if err != nil {
		metrics.HandlerErrors.Inc()
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось получить оценки."))
		return
	}
	if len(grades) == 0 {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Оценок пока нет — выгружать нечего."))
		return
	}

	f, err := export.NewWorkbook([]export.SheetSpec{export.StudentGradesSheet(grades)})
	if err != nil {
		metrics.HandlerErrors.Inc()
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось собрать файл."))
		return
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		metrics.HandlerErrors.Inc()
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось собрать файл."))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "Оценки — " + student.FullName + ".xlsx",
		Bytes: buf.Bytes(),
	})
	if _, err := bot.Send(doc); err != nil {
		metrics.HandlerErrors.Inc()
	}
}
