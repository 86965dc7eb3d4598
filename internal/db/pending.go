package db

import (
	"context"

	"github.com/edukzn/telegram-college-bot/internal/models"
)

// ReserveTokens откладывает жетоны для ещё не привязанного студента.
// Повторное резервирование по тому же ключу замещает прежнее, не суммирует.
func ReserveTokens(ctx context.Context, q Queryer, r models.ReservedTokens) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO reserved_tokens (student_id, teacher_id, discipline_id, tokens, notification_message)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id, teacher_id, discipline_id)
		DO UPDATE SET tokens = excluded.tokens, notification_message = excluded.notification_message`,
		r.StudentID, r.TeacherID, r.DisciplineID, r.Tokens, r.Message)
	return err
}

func ListReservedForStudent(ctx context.Context, q Queryer, studentID int64) ([]models.ReservedTokens, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT student_id, teacher_id, discipline_id, tokens, notification_message
		FROM reserved_tokens
		WHERE student_id = $1`, studentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ReservedTokens
	for rows.Next() {
		var r models.ReservedTokens
		if err := rows.Scan(&r.StudentID, &r.TeacherID, &r.DisciplineID, &r.Tokens, &r.Message); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func DeleteReservedForStudent(ctx context.Context, q Queryer, studentID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM reserved_tokens WHERE student_id = $1`, studentID)
	return err
}
