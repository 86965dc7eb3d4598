package db

import (
	"context"
	"database/sql"
	"errors"
)

// EnsureBinding заводит связку студент—преподаватель с нулевым балансом.
func EnsureBinding(ctx context.Context, q Queryer, studentID, teacherID int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO student_teacher (student_id, teacher_id, tokens)
		VALUES ($1, $2, 0)
		ON CONFLICT (student_id, teacher_id) DO NOTHING`,
		studentID, teacherID)
	return err
}

// TokenBalance — баланс жетонов; 0, если связки ещё нет.
func TokenBalance(ctx context.Context, q Queryer, studentID, teacherID int64) (int, error) {
	var tokens int
	err := q.QueryRowContext(ctx,
		`SELECT tokens FROM student_teacher WHERE student_id = $1 AND teacher_id = $2`,
		studentID, teacherID).Scan(&tokens)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return tokens, err
}

// AddTokens прибавляет delta к балансу (delta может быть отрицательной).
// Связка должна существовать: начисления идут только привязанным студентам.
func AddTokens(ctx context.Context, q Queryer, studentID, teacherID int64, delta int) error {
	res, err := q.ExecContext(ctx, `
		UPDATE student_teacher SET tokens = tokens + $1
		WHERE student_id = $2 AND teacher_id = $3`,
		delta, studentID, teacherID)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return errors.New("связка студент—преподаватель не найдена")
	}
	return nil
}

// DebitTokens списывает price, только если баланса хватает.
// Возвращает false при недостатке жетонов (сравнение и списание — одним UPDATE,
// две параллельные покупки не пройдут мимо проверки).
func DebitTokens(ctx context.Context, q Queryer, studentID, teacherID int64, price int) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE student_teacher SET tokens = tokens - $1
		WHERE student_id = $2 AND teacher_id = $3 AND tokens >= $1`,
		price, studentID, teacherID)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

// TeacherBalance — строка баланса для показа студенту.
type TeacherBalance struct {
	TeacherID   int64
	TeacherName string
	Tokens      int
}

func ListBalancesForStudent(ctx context.Context, q Queryer, studentID int64) ([]TeacherBalance, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT st.teacher_id, u.full_name, st.tokens
		FROM student_teacher st
		JOIN users u ON u.id = st.teacher_id
		WHERE st.student_id = $1
		ORDER BY u.full_name`, studentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []TeacherBalance
	for rows.Next() {
		var b TeacherBalance
		if err := rows.Scan(&b.TeacherID, &b.TeacherName, &b.Tokens); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
