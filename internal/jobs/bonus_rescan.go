package jobs

import (
	"context"
	"time"

	"github.com/edukzn/telegram-college-bot/internal/core"
	"github.com/edukzn/telegram-college-bot/internal/ctxutil"
	"github.com/edukzn/telegram-college-bot/internal/db"
	"github.com/edukzn/telegram-college-bot/internal/metrics"
	"github.com/edukzn/telegram-college-bot/internal/observability"
)

// BonusRescan периодически перепроверяет дисциплины без выданного бонуса:
// оценка могла быть выставлена задним числом, и проверка "на лету" её не видела.
func BonusRescan(c *core.Core) Job {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		ids, err := db.ListUnawardedDisciplineIDs(ctx, c.DB())
		if err != nil {
			observability.CaptureErr(err)
			return err
		}
		now := time.Now()
		for _, id := range ids {
			if _, err := c.EvaluateDiscipline(ctx, id, now); err != nil {
				observability.CaptureErr(err)
			}
		}
		return nil
	}
}

// DBPing снимает метрику доступности базы.
func DBPing(c *core.Core) Job {
	return func(ctx context.Context) error {
		ctx, cancel := ctxutil.WithDBTimeout(ctx)
		defer cancel()

		start := time.Now()
		err := c.DB().PingContext(ctx)
		metrics.ObserveDBPing(time.Since(start))
		return err
	}
}
