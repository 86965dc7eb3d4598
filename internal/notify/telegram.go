package notify

import (
	"context"
	"strings"

	"github.com/edukzn/telegram-college-bot/internal/observability"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramNotifier — best-effort доставка сообщений ядра. Ошибка отправки
// логируется (системные — ещё и в Sentry) и никогда не возвращается наверх:
// закоммиченные оценки и балансы от неё не откатываются.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
	log *zap.SugaredLogger
}

func NewTelegram(bot *tgbotapi.BotAPI, log *zap.SugaredLogger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, log: log}
}

func (n *TelegramNotifier) Notify(_ context.Context, telegramID int64, text string) {
	if _, err := n.bot.Send(tgbotapi.NewMessage(telegramID, text)); err != nil {
		n.log.Warnw("уведомление не доставлено", "chat_id", telegramID, "err", err)
		if isSystemErr(err) {
			observability.CaptureErr(err)
		}
	}
}

// Считаем системными: 5xx, 429, timeout. 400-ки и типичные телеграм-валидации в Sentry не шлём.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	if strings.Contains(s, "429") || strings.Contains(s, "502") || strings.Contains(s, "503") || strings.Contains(s, "timeout") {
		return true
	}
	return false
}
