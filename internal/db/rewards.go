package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/edukzn/telegram-college-bot/internal/models"
)

const rewardCols = "id, teacher_id, discipline_id, name, description, price, is_enabled"

func CreateReward(ctx context.Context, q Queryer, r models.Reward) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO rewards (teacher_id, discipline_id, name, description, price, is_enabled)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		r.TeacherID, r.DisciplineID, r.Name, r.Description, r.Price, r.IsEnabled).Scan(&id)
	return id, err
}

// GetRewardByID — (nil, nil), если награды нет.
func GetRewardByID(ctx context.Context, q Queryer, id int64) (*models.Reward, error) {
	var r models.Reward
	err := q.QueryRowContext(ctx,
		`SELECT `+rewardCols+` FROM rewards WHERE id = $1`, id).
		Scan(&r.ID, &r.TeacherID, &r.DisciplineID, &r.Name, &r.Description, &r.Price, &r.IsEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func ListTeacherRewards(ctx context.Context, q Queryer, teacherID int64) ([]models.Reward, error) {
	return listRewards(ctx, q,
		`SELECT `+rewardCols+` FROM rewards WHERE teacher_id = $1 ORDER BY id`, teacherID)
}

// ListRewardsForStudent — включённые награды преподавателей студента.
func ListRewardsForStudent(ctx context.Context, q Queryer, studentID int64) ([]models.Reward, error) {
	return listRewards(ctx, q, `
		SELECT r.id, r.teacher_id, r.discipline_id, r.name, r.description, r.price, r.is_enabled
		FROM rewards r
		JOIN student_teacher st ON st.teacher_id = r.teacher_id AND st.student_id = $1
		WHERE r.is_enabled
		ORDER BY r.price, r.id`, studentID)
}

func listRewards(ctx context.Context, q Queryer, query string, args ...any) ([]models.Reward, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Reward
	for rows.Next() {
		var r models.Reward
		if err := rows.Scan(&r.ID, &r.TeacherID, &r.DisciplineID, &r.Name, &r.Description, &r.Price, &r.IsEnabled); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func SetRewardPrice(ctx context.Context, q Queryer, id int64, price int) error {
	if price < 1 {
		return errors.New("цена должна быть положительной")
	}
	return execOnReward(ctx, q, `UPDATE rewards SET price = $1 WHERE id = $2`, price, id)
}

func SetRewardEnabled(ctx context.Context, q Queryer, id int64, enabled bool) error {
	return execOnReward(ctx, q, `UPDATE rewards SET is_enabled = $1 WHERE id = $2`, enabled, id)
}

// DeleteReward удаляет награду вместе с историей покупок (каскад, задокументированная потеря).
func DeleteReward(ctx context.Context, q Queryer, id int64) error {
	return execOnReward(ctx, q, `DELETE FROM rewards WHERE id = $1`, id)
}

func execOnReward(ctx context.Context, q Queryer, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return errors.New("награда не найдена")
	}
	return nil
}

// InsertPurchase пишет чек; баланс к этому моменту уже списан в той же транзакции.
func InsertPurchase(ctx context.Context, q Queryer, studentID, rewardID, teacherID int64, date time.Time) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO purchased_rewards (student_id, reward_id, teacher_id, purchase_date)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		studentID, rewardID, teacherID, date).Scan(&id)
	return id, err
}

// PurchaseHistoryRow — чек с названием награды для показа.
type PurchaseHistoryRow struct {
	models.Purchase
	RewardName string
	Price      int
}

func ListPurchasesForStudent(ctx context.Context, q Queryer, studentID int64) ([]PurchaseHistoryRow, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT p.id, p.student_id, p.reward_id, p.teacher_id, p.purchase_date, r.name, r.price
		FROM purchased_rewards p
		JOIN rewards r ON r.id = p.reward_id
		WHERE p.student_id = $1
		ORDER BY p.purchase_date DESC, p.id DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []PurchaseHistoryRow
	for rows.Next() {
		var p PurchaseHistoryRow
		if err := rows.Scan(&p.ID, &p.StudentID, &p.RewardID, &p.TeacherID, &p.Date, &p.RewardName, &p.Price); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
