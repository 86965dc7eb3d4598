package db

import (
	"context"

	"github.com/edukzn/telegram-college-bot/internal/models"
)

const ktpCols = "id, teacher_id, discipline_id, group_name, type, description, practice_number, homework"

func CreateKTPItem(ctx context.Context, q Queryer, it models.KTPItem) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO ktp (teacher_id, discipline_id, group_name, type, description, practice_number, homework)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		it.TeacherID, it.DisciplineID, it.GroupName, string(it.Kind), it.Description, it.PracticeNumber, it.Homework).Scan(&id)
	return id, err
}

func GetKTPItemByID(ctx context.Context, q Queryer, id int64) (*models.KTPItem, error) {
	var it models.KTPItem
	err := q.QueryRowContext(ctx,
		`SELECT `+ktpCols+` FROM ktp WHERE id = $1`, id).
		Scan(&it.ID, &it.TeacherID, &it.DisciplineID, &it.GroupName, &it.Kind, &it.Description, &it.PracticeNumber, &it.Homework)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// ListKTPByDiscipline — пункты плана дисциплины; kind == "" — все типы.
func ListKTPByDiscipline(ctx context.Context, q Queryer, disciplineID int64, kind models.KTPKind) ([]models.KTPItem, error) {
	query := `SELECT ` + ktpCols + ` FROM ktp WHERE discipline_id = $1`
	args := []any{disciplineID}
	if kind != "" {
		query += ` AND type = $2`
		args = append(args, string(kind))
	}
	query += ` ORDER BY practice_number NULLS FIRST, description`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.KTPItem
	for rows.Next() {
		var it models.KTPItem
		if err := rows.Scan(&it.ID, &it.TeacherID, &it.DisciplineID, &it.GroupName, &it.Kind, &it.Description, &it.PracticeNumber, &it.Homework); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// DeleteKTPItem удаляет пункт плана; его оценки уходят каскадом.
func DeleteKTPItem(ctx context.Context, q Queryer, id int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM ktp WHERE id = $1`, id)
	return err
}
