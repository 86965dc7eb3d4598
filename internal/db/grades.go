package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/edukzn/telegram-college-bot/internal/models"
)

// GetGradeValue возвращает текущее значение оценки по уникальному ключу
// (студент, дисциплина, пункт КТП); (nil, nil) если строки ещё нет.
func GetGradeValue(ctx context.Context, q Queryer, studentID, disciplineID, ktpID int64) (*int, error) {
	var v int
	err := q.QueryRowContext(ctx,
		`SELECT grade FROM grades WHERE student_id = $1 AND discipline_id = $2 AND ktp_id = $3`,
		studentID, disciplineID, ktpID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UpsertGrade пишет оценку поверх существующей либо вставляет новую.
// Возвращает true, если строка создана.
func UpsertGrade(ctx context.Context, q Queryer, g models.Grade) (bool, error) {
	var inserted bool
	err := q.QueryRowContext(ctx, `
		INSERT INTO grades (student_id, teacher_id, discipline_id, ktp_id, grade, date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id, discipline_id, ktp_id)
		DO UPDATE SET grade = excluded.grade, date = excluded.date
		RETURNING (xmax = 0)`,
		g.StudentID, g.TeacherID, g.DisciplineID, g.KTPID, g.Value, g.Date).Scan(&inserted)
	return inserted, err
}

// ListGradesForStudent — журнал студента, свежие записи первыми.
func ListGradesForStudent(ctx context.Context, q Queryer, studentID int64) ([]models.GradeWithContext, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT g.id, g.student_id, g.teacher_id, g.discipline_id, g.ktp_id, g.grade, g.date,
		       d.name, u.full_name, k.description, k.homework
		FROM grades g
		JOIN disciplines d ON d.id = g.discipline_id
		JOIN users u ON u.id = g.teacher_id
		JOIN ktp k ON k.id = g.ktp_id
		WHERE g.student_id = $1
		ORDER BY g.date DESC, g.id DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.GradeWithContext
	for rows.Next() {
		var g models.GradeWithContext
		if err := rows.Scan(&g.ID, &g.StudentID, &g.TeacherID, &g.DisciplineID, &g.KTPID, &g.Value, &g.Date,
			&g.DisciplineName, &g.TeacherName, &g.KTPDescription, &g.Homework); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// AverageAndAttendance считает средний балл (без «н») и процент посещаемости.
// Посещаемость при пустом журнале — 0.
func AverageAndAttendance(ctx context.Context, q Queryer, studentID, disciplineID int64) (avg float64, attendance float64, err error) {
	var average sql.NullFloat64
	var present, total int
	err = q.QueryRowContext(ctx, `
		SELECT AVG(grade) FILTER (WHERE grade != -1),
		       COUNT(*) FILTER (WHERE grade != -1),
		       COUNT(*)
		FROM grades
		WHERE student_id = $1 AND discipline_id = $2`,
		studentID, disciplineID).Scan(&average, &present, &total)
	if err != nil {
		return 0, 0, err
	}
	if average.Valid {
		avg = average.Float64
	}
	if total > 0 {
		attendance = float64(present) / float64(total) * 100
	}
	return avg, attendance, nil
}

// CountDistinctCompletedPractices — сколько разных номеров практик студент
// закрыл на положительную оценку по дисциплине.
func CountDistinctCompletedPractices(ctx context.Context, q Queryer, studentID, disciplineID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT k.practice_number)
		FROM grades g
		JOIN ktp k ON k.id = g.ktp_id
		WHERE g.student_id = $1 AND g.discipline_id = $2
		  AND k.type = 'practice' AND g.grade >= 1`,
		studentID, disciplineID).Scan(&n)
	return n, err
}

// LastCompletedPractice — дата последней зачтённой практики и её номер.
// (nil, 0, nil) если зачтённых практик нет.
func LastCompletedPractice(ctx context.Context, q Queryer, studentID, disciplineID int64) (*time.Time, int, error) {
	var date time.Time
	var number int
	err := q.QueryRowContext(ctx, `
		SELECT g.date, k.practice_number
		FROM grades g
		JOIN ktp k ON k.id = g.ktp_id
		WHERE g.student_id = $1 AND g.discipline_id = $2
		  AND k.type = 'practice' AND g.grade >= 1
		ORDER BY g.date DESC, g.id DESC
		LIMIT 1`,
		studentID, disciplineID).Scan(&date, &number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return &date, number, nil
}

// PracticeScheduledDate — «дата проведения» практики с данным номером:
// дата самой первой оценки, выставленной по этому пункту КТП. Отдельной
// колонки с расписанием в КТП нет, первая запись журнала и есть дата пары.
func PracticeScheduledDate(ctx context.Context, q Queryer, disciplineID int64, practiceNumber int) (*time.Time, error) {
	var date time.Time
	err := q.QueryRowContext(ctx, `
		SELECT g.date
		FROM grades g
		JOIN ktp k ON k.id = g.ktp_id
		WHERE g.discipline_id = $1 AND k.type = 'practice' AND k.practice_number = $2
		ORDER BY g.id
		LIMIT 1`,
		disciplineID, practiceNumber).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &date, nil
}
