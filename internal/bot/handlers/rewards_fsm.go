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

type RewardFSMState struct {
	Step         int
	Mode         string // add|price|toggle|del
	DisciplineID int64
	RewardID     int64
	Name         string
	Description  string
}

var rewardStates = make(map[int64]*RewardFSMState)

func GetRewardState(chatID int64) *RewardFSMState { return rewardStates[chatID] }

func StartRewardsFSM(bot *tgbotapi.BotAPI, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	delete(rewardStates, chatID)
	rewardStates[chatID] = &RewardFSMState{}

	out := tgbotapi.NewMessage(chatID, "Награды:")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Список", "rw_list"),
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить", "rw_add"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Цена", "rw_price"),
			tgbotapi.NewInlineKeyboardButtonData("🔁 Вкл/выкл", "rw_toggle"),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", "rw_del"),
		),
		fsmutil.CancelRow("rw_cancel"),
	)
	_, _ = bot.Send(out)
}

func HandleRewardCallback(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, cq *tgbotapi.CallbackQuery) {
	chatID := cq.From.ID
	state := rewardStates[chatID]
	if state == nil {
		return
	}
	data := cq.Data
	fsmutil.DisableMarkup(bot, chatID, cq.Message.MessageID)

	if data == "rw_cancel" {
		delete(rewardStates, chatID)
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "🚫 Отменено."))
		return
	}

	teacherID := teacherIDFor(ctx, c, chatID)

	switch {
	case data == "rw_list":
		delete(rewardStates, chatID)
		rewards, err := c.TeacherRewards(ctx, teacherID)
		if err != nil || len(rewards) == 0 {
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Наград пока нет."))
			return
		}
		var b strings.Builder
		for _, r := range rewards {
			status := "вкл"
			if !r.IsEnabled {
				status = "выкл"
			}
			fmt.Fprintf(&b, "• %s — %d жет. (%s)\n", r.Name, r.Price, status)
		}
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, b.String()))

	case data == "rw_add":
		state.Mode = "add"
		state.Step = 1
		disciplines, err := c.TeacherDisciplines(ctx, teacherID)
		if err != nil || len(disciplines) == 0 {
			delete(rewardStates, chatID)
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Сначала создайте дисциплину."))
			return
		}
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, d := range disciplines {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(d.Name, fmt.Sprintf("rw_disc_%d", d.ID)),
			))
		}
		rows = append(rows, fsmutil.CancelRow("rw_cancel"))
		out := tgbotapi.NewMessage(chatID, "К какой дисциплине относится награда?")
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		_, _ = bot.Send(out)

	case data == "rw_price" || data == "rw_toggle" || data == "rw_del":
		state.Mode = strings.TrimPrefix(data, "rw_")
		state.Step = 1
		rewards, err := c.TeacherRewards(ctx, teacherID)
		if err != nil || len(rewards) == 0 {
			delete(rewardStates, chatID)
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Наград пока нет."))
			return
		}
		var rows [][]tgbotapi.InlineKeyboardButton
		for _, r := range rewards {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("%s (%d жет.)", r.Name, r.Price),
					fmt.Sprintf("rw_pick_%d", r.ID)),
			))
		}
		rows = append(rows, fsmutil.CancelRow("rw_cancel"))
		out := tgbotapi.NewMessage(chatID, "Выберите награду:")
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		_, _ = bot.Send(out)

	case strings.HasPrefix(data, "rw_disc_"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(data, "rw_disc_"), 10, 64)
		state.DisciplineID = id
		state.Step = 2
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Название награды:"))

	case strings.HasPrefix(data, "rw_pick_"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(data, "rw_pick_"), 10, 64)
		state.RewardID = id
		switch state.Mode {
		case "price":
			state.Step = 2
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Новая цена:"))
		case "toggle":
			delete(rewardStates, chatID)
			toggleReward(ctx, bot, c, chatID, id)
		case "del":
			delete(rewardStates, chatID)
			if err := c.DeleteReward(ctx, id); err != nil {
				metrics.HandlerErrors.Inc()
				_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось удалить награду."))
				return
			}
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Награда удалена вместе с историей покупок."))
		}
	}
}

func toggleReward(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, chatID, rewardID int64) {
	rewards, err := c.TeacherRewards(ctx, teacherIDFor(ctx, c, chatID))
	if err != nil {
		metrics.HandlerErrors.Inc()
		return
	}
	for _, r := range rewards {
		if r.ID == rewardID {
			if err := c.SetRewardEnabled(ctx, rewardID, !r.IsEnabled); err != nil {
				metrics.HandlerErrors.Inc()
				_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось переключить награду."))
				return
			}
			status := "включена"
			if r.IsEnabled {
				status = "выключена"
			}
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Награда "+status+"."))
			return
		}
	}
}

func HandleRewardText(ctx context.Context, bot *tgbotapi.BotAPI, c *core.Core, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	state := rewardStates[chatID]
	if state == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if fsmutil.IsCancelText(text) {
		delete(rewardStates, chatID)
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "🚫 Отменено."))
		return
	}

	switch {
	case state.Mode == "add" && state.Step == 2:
		state.Name = text
		state.Step = 3
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Описание награды («-», если нет):"))

	case state.Mode == "add" && state.Step == 3:
		if text != "-" {
			state.Description = text
		}
		state.Step = 4
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Цена в жетонах:"))

	case state.Mode == "add" && state.Step == 4:
		price, err := strconv.Atoi(text)
		if err != nil || price < 1 {
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Цена — целое число от 1."))
			return
		}
		delete(rewardStates, chatID)
		_, err = c.CreateReward(ctx, models.Reward{
			TeacherID:    teacherIDFor(ctx, c, chatID),
			DisciplineID: state.DisciplineID,
			Name:         state.Name,
			Description:  state.Description,
			Price:        price,
		})
		if err != nil {
			metrics.HandlerErrors.Inc()
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось создать награду."))
			return
		}
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Награда добавлена."))

	case state.Mode == "price" && state.Step == 2:
		price, err := strconv.Atoi(text)
		if err != nil || price < 1 {
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Цена — целое число от 1."))
			return
		}
		delete(rewardStates, chatID)
		if err := c.SetRewardPrice(ctx, state.RewardID, price); err != nil {
			metrics.HandlerErrors.Inc()
			_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Не удалось изменить цену."))
			return
		}
		_, _ = bot.Send(tgbotapi.NewMessage(chatID, "Цена обновлена."))
	}
}
