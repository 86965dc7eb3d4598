package db

import (
	"context"
	"errors"

	"github.com/edukzn/telegram-college-bot/internal/models"
)

// EnsureTeacher заводит профиль преподавателя (tokens_per_attendance = 1 по умолчанию).
func EnsureTeacher(ctx context.Context, q Queryer, teacherID int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO teachers (teacher_id) VALUES ($1)
		ON CONFLICT (teacher_id) DO NOTHING`, teacherID)
	return err
}

func GetTeacherProfile(ctx context.Context, q Queryer, teacherID int64) (*models.TeacherProfile, error) {
	var p models.TeacherProfile
	err := q.QueryRowContext(ctx,
		`SELECT teacher_id, tokens_per_attendance FROM teachers WHERE teacher_id = $1`,
		teacherID).Scan(&p.TeacherID, &p.TokensPerAttendance)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetTokensPerAttendance — сколько жетонов даёт одно посещение у этого
// преподавателя; 0 отключает начисление.
func SetTokensPerAttendance(ctx context.Context, q Queryer, teacherID int64, tokens int) error {
	if tokens < 0 {
		return errors.New("жетонов за посещение не может быть меньше 0")
	}
	res, err := q.ExecContext(ctx,
		`UPDATE teachers SET tokens_per_attendance = $1 WHERE teacher_id = $2`, tokens, teacherID)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return errors.New("преподаватель не найден")
	}
	return nil
}
