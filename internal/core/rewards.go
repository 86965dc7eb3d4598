package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/edukzn/telegram-college-bot/internal/db"
	"github.com/edukzn/telegram-college-bot/internal/metrics"
	"github.com/edukzn/telegram-college-bot/internal/models"
)

// Purchase списывает цену награды с баланса и пишет чек — одной транзакцией,
// частичного эффекта не бывает. Списание условное (tokens >= price в самом
// UPDATE), так что две параллельные покупки не проскочат мимо проверки и в
// минус баланс не уйдёт.
func (c *Core) Purchase(ctx context.Context, studentID, rewardID int64, now time.Time) (*models.Purchase, error) {
	var receipt models.Purchase
	err := db.InTx(ctx, c.db, func(tx *sql.Tx) error {
		reward, err := db.GetRewardByID(ctx, tx, rewardID)
		if err != nil {
			return err
		}
		if reward == nil || !reward.IsEnabled {
			return fmt.Errorf("%w: id=%d", ErrRewardNotFound, rewardID)
		}

		ok, err := db.DebitTokens(ctx, tx, studentID, reward.TeacherID, reward.Price)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: нужно %d", ErrInsufficientTokens, reward.Price)
		}

		id, err := db.InsertPurchase(ctx, tx, studentID, rewardID, reward.TeacherID, now)
		if err != nil {
			return err
		}
		receipt = models.Purchase{
			ID:        id,
			StudentID: studentID,
			RewardID:  rewardID,
			TeacherID: reward.TeacherID,
			Date:      now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.Purchases.Inc()
	return &receipt, nil
}

// Каталог: административные мутации, тонкие обёртки над хранилищем.

func (c *Core) CreateReward(ctx context.Context, r models.Reward) (int64, error) {
	if r.Price < 1 {
		return 0, errors.New("цена награды должна быть положительной")
	}
	r.IsEnabled = true
	return db.CreateReward(ctx, c.db, r)
}

func (c *Core) SetRewardPrice(ctx context.Context, rewardID int64, price int) error {
	return db.SetRewardPrice(ctx, c.db, rewardID, price)
}

func (c *Core) SetRewardEnabled(ctx context.Context, rewardID int64, enabled bool) error {
	return db.SetRewardEnabled(ctx, c.db, rewardID, enabled)
}

// DeleteReward удаляет награду вместе с историей её покупок.
func (c *Core) DeleteReward(ctx context.Context, rewardID int64) error {
	return db.DeleteReward(ctx, c.db, rewardID)
}

func (c *Core) TeacherRewards(ctx context.Context, teacherID int64) ([]models.Reward, error) {
	return db.ListTeacherRewards(ctx, c.db, teacherID)
}

func (c *Core) RewardsForStudent(ctx context.Context, studentID int64) ([]models.Reward, error) {
	return db.ListRewardsForStudent(ctx, c.db, studentID)
}

func (c *Core) PurchasesForStudent(ctx context.Context, studentID int64) ([]db.PurchaseHistoryRow, error) {
	return db.ListPurchasesForStudent(ctx, c.db, studentID)
}
