package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/edukzn/telegram-college-bot/internal/bot/shared/fsmutil"
	"github.com/edukzn/telegram-college-bot/internal/core"
	"github.com/edukzn/telegram-college-bot/internal/export"
	"github.com/edukzn/telegram-college-bot/internal/metrics"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// StartGradebookExport — выбор дисциплины для выгрузки журнала группы в xlsx.
func StartGradebookExport(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
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
				fmt.Sprintf("gbk_%d", d.ID)),
		))
	}
	out := tgbotapi.NewMessage(chatID, "Журнал какой дисциплины выгрузить?")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, _ = bot.Send(out)
}

func HandleGradebookCallback(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, cq *tgbotapi.CallbackQuery) {
	chatID := cq.From.ID
	data := cq.Data
	if !strings.HasPrefix(data, "gbk_") {
		return
	}
	fsmutil.DisableMarkup(bot, chatID, cq.Message.MessageID)

	disciplineID, _ := strconv.ParseInt(strings.TrimPrefix(data, "gbk_"), 10, 64)
	d, items, students, cells, err := c.Gradebook(ctx, disciplineID)
	if err != nil {
		metrics.HandlerErrors.Inc()
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось собрать журнал."))
		return
	}
	if len(students) == 0 {
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "В группе пока нет студентов."))
		return
	}

	f, err := export.NewWorkbook([]export.SheetSpec{
		export.GradebookSheet(d.Name, items, students, cells),
	})
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
		Name:  fmt.Sprintf("Журнал — %s (%s).xlsx", d.Name, d.GroupName),
		Bytes: buf.Bytes(),
	})
	if _, err := bot.Send(doc); err != nil {
		metrics.HandlerErrors.Inc()
	}
}
