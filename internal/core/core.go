// Package core — движок согласованности журнала оценок и жетонной экономики:
// реестр личностей с заготовками, upsert оценок, правила начисления жетонов,
// каталог наград, очередь отложенных жетонов и разовый бонус «первый сдал».
// Каждая операция — одна транзакция; уведомления уходят после коммита.
package core

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
)

// BonusTokens — фиксированный размер бонуса за первую своевременную сдачу
// всех практик дисциплины.
const BonusTokens = 15

// Notifier доставляет сообщение человеку. Доставка — best effort: ошибки
// логируются получателем интерфейса и никогда не откатывают уже
// закоммиченное состояние.
type Notifier interface {
	Notify(ctx context.Context, telegramID int64, text string)
}

// NopNotifier — заглушка для тестов и офлайн-прогонов.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, int64, string) {}

// Core держит явное соединение с хранилищем: никакого глобального стейта,
// транзакционные гарантии выражаются настоящими транзакциями.
type Core struct {
	db          *sql.DB
	log         *zap.SugaredLogger
	notifier    Notifier
	adminUserID int64 // суррогатный id глобального админа
}

func New(database *sql.DB, log *zap.SugaredLogger, notifier Notifier, adminUserID int64) *Core {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Core{db: database, log: log, notifier: notifier, adminUserID: adminUserID}
}

// DB отдаёт хэндл хранилища для читающих запросов границы (выгрузки, меню).
func (c *Core) DB() *sql.DB { return c.db }
