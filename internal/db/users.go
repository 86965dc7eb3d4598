package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/edukzn/telegram-college-bot/internal/models"
)

const userCols = "id, telegram_id, full_name, group_name, role, created_at"

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.TelegramID, &u.FullName, &u.GroupName, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByTelegramID ищет привязанную запись; (nil, nil) если её нет.
func GetUserByTelegramID(ctx context.Context, q Queryer, telegramID int64) (*models.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE telegram_id = $1`, telegramID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func GetUserByID(ctx context.Context, q Queryer, id int64) (*models.User, error) {
	return scanUser(q.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

// GetStudentByNameAndGroup ищет запись студента по (ФИО, группа); (nil, nil) если нет.
func GetStudentByNameAndGroup(ctx context.Context, q Queryer, fullName, groupName string) (*models.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE role = 'student' AND full_name = $1 AND group_name = $2`,
		fullName, groupName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// GetStudentByName — запасной поиск только по ФИО (студент мог сменить группу).
// Если таких записей несколько — считаем, что совпадения нет.
func GetStudentByName(ctx context.Context, q Queryer, fullName string) (*models.User, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+userCols+` FROM users WHERE role = 'student' AND full_name = $1`, fullName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var found []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.TelegramID, &u.FullName, &u.GroupName, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		found = append(found, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(found) != 1 {
		return nil, nil
	}
	return &found[0], nil
}

// CreatePlaceholderStudent создаёт заготовку студента без telegram_id.
func CreatePlaceholderStudent(ctx context.Context, q Queryer, fullName, groupName string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO users (full_name, group_name, role) VALUES ($1, $2, 'student') RETURNING id`,
		fullName, groupName).Scan(&id)
	return id, err
}

// CreateBoundStudent создаёт запись студента сразу с telegram_id.
func CreateBoundStudent(ctx context.Context, q Queryer, telegramID int64, fullName, groupName string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO users (telegram_id, full_name, group_name, role) VALUES ($1, $2, $3, 'student') RETURNING id`,
		telegramID, fullName, groupName).Scan(&id)
	return id, err
}

// BindStudent привязывает аккаунт к записи: единственная точка, где меняется
// telegram_id. Суррогатный id остаётся прежним, внешние ключи не трогаем.
func BindStudent(ctx context.Context, q Queryer, id, telegramID int64, groupName string) error {
	res, err := q.ExecContext(ctx,
		`UPDATE users SET telegram_id = $1, group_name = $2 WHERE id = $3`,
		telegramID, groupName, id)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// EnsureUser создаёт запись с заданной ролью, если её ещё нет (учителя, админ).
func EnsureUser(ctx context.Context, q Queryer, telegramID int64, fullName string, role models.Role) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO users (telegram_id, full_name, role) VALUES ($1, $2, $3)
		ON CONFLICT (telegram_id) DO UPDATE SET full_name = excluded.full_name
		RETURNING id`,
		telegramID, fullName, string(role)).Scan(&id)
	return id, err
}
