package db

import (
	"context"

	"github.com/edukzn/telegram-college-bot/internal/models"
)

const disciplineCols = "id, teacher_id, name, group_name, required_practices"

func CreateDiscipline(ctx context.Context, q Queryer, d models.Discipline) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO disciplines (teacher_id, name, group_name, required_practices)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		d.TeacherID, d.Name, d.GroupName, d.RequiredPractices).Scan(&id)
	return id, err
}

func GetDisciplineByID(ctx context.Context, q Queryer, id int64) (*models.Discipline, error) {
	var d models.Discipline
	err := q.QueryRowContext(ctx,
		`SELECT `+disciplineCols+` FROM disciplines WHERE id = $1`, id).
		Scan(&d.ID, &d.TeacherID, &d.Name, &d.GroupName, &d.RequiredPractices)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func ListTeacherDisciplines(ctx context.Context, q Queryer, teacherID int64) ([]models.Discipline, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+disciplineCols+` FROM disciplines WHERE teacher_id = $1 ORDER BY name`, teacherID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Discipline
	for rows.Next() {
		var d models.Discipline
		if err := rows.Scan(&d.ID, &d.TeacherID, &d.Name, &d.GroupName, &d.RequiredPractices); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListUnawardedDisciplineIDs — дисциплины, по которым бонус за первую полную
// сдачу ещё не выдан. Используется фоновым пересканом.
func ListUnawardedDisciplineIDs(ctx context.Context, q Queryer) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT d.id FROM disciplines d
		LEFT JOIN first_practice_completions f ON f.discipline_id = d.id
		WHERE d.required_practices > 0 AND f.discipline_id IS NULL
		ORDER BY d.id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DeleteDiscipline удаляет дисциплину; КТП, оценки и награды уходят каскадом.
func DeleteDiscipline(ctx context.Context, q Queryer, id int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM disciplines WHERE id = $1`, id)
	return err
}
