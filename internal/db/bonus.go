package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/edukzn/telegram-college-bot/internal/models"
)

// GetFirstCompletion — (nil, nil), если по дисциплине ещё никто не награждён.
func GetFirstCompletion(ctx context.Context, q Queryer, disciplineID int64) (*models.FirstCompletion, error) {
	var fc models.FirstCompletion
	err := q.QueryRowContext(ctx, `
		SELECT discipline_id, student_id, tokens, awarded_date
		FROM first_practice_completions
		WHERE discipline_id = $1`, disciplineID).
		Scan(&fc.DisciplineID, &fc.StudentID, &fc.Tokens, &fc.AwardedDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fc, nil
}

// InsertFirstCompletion пишет отметку «первый сдал». Уникальный ключ по
// дисциплине — единственная защита от двойного награждения: проигравший
// гонку получает false и трактует это как «уже награждено».
func InsertFirstCompletion(ctx context.Context, q Queryer, disciplineID, studentID int64, tokens int, date time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO first_practice_completions (discipline_id, student_id, tokens, awarded_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (discipline_id) DO NOTHING`,
		disciplineID, studentID, tokens, date)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}
