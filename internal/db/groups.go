package db

import (
	"context"

	"github.com/edukzn/telegram-college-bot/internal/models"
)

// EnsureGroup заводит группу преподавателя (идемпотентно) и возвращает её id.
func EnsureGroup(ctx context.Context, q Queryer, teacherID int64, groupName string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO student_groups (teacher_id, group_name)
		VALUES ($1, $2)
		ON CONFLICT (teacher_id, group_name) DO UPDATE SET group_name = excluded.group_name
		RETURNING id`,
		teacherID, groupName).Scan(&id)
	return id, err
}

func ListTeacherGroups(ctx context.Context, q Queryer, teacherID int64) ([]models.StudentGroup, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, teacher_id, group_name FROM student_groups WHERE teacher_id = $1 ORDER BY group_name`, teacherID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.StudentGroup
	for rows.Next() {
		var g models.StudentGroup
		if err := rows.Scan(&g.ID, &g.TeacherID, &g.GroupName); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// TeachersOfGroup — преподаватели, у которых заведена группа с таким именем.
func TeachersOfGroup(ctx context.Context, q Queryer, groupName string) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT DISTINCT teacher_id FROM student_groups WHERE group_name = $1`, groupName)
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

func AddStudentToGroup(ctx context.Context, q Queryer, groupID, studentID int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO group_students (group_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, groupID, studentID)
	return err
}

// ListGroupStudents — студенты группы преподавателя, по алфавиту.
func ListGroupStudents(ctx context.Context, q Queryer, teacherID int64, groupName string) ([]models.User, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT u.id, u.telegram_id, u.full_name, u.group_name, u.role, u.created_at
		FROM users u
		JOIN group_students gs ON gs.student_id = u.id
		JOIN student_groups sg ON sg.id = gs.group_id
		WHERE sg.teacher_id = $1 AND sg.group_name = $2
		ORDER BY u.full_name`, teacherID, groupName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.TelegramID, &u.FullName, &u.GroupName, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// LinkStudentToAdmin — студент виден глобальному админу.
func LinkStudentToAdmin(ctx context.Context, q Queryer, adminID, studentID int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO admin_student (admin_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, adminID, studentID)
	return err
}
