package models

import "time"

type Role string

const (
	Student Role = "student"
	Teacher Role = "teacher"
	Admin   Role = "admin"
)

// User — внутренняя запись личности. ID — суррогатный ключ, на него ссылаются
// все остальные таблицы. TelegramID появляется только после привязки аккаунта:
// пока он NULL, запись считается заготовкой (placeholder), созданной
// преподавателем по ФИО и группе.
type User struct {
	ID         int64
	TelegramID *int64
	FullName   string
	GroupName  *string
	Role       Role
	CreatedAt  time.Time
}

// Bound сообщает, привязан ли к записи реальный аккаунт.
func (u *User) Bound() bool { return u.TelegramID != nil }

type TeacherProfile struct {
	TeacherID           int64
	TokensPerAttendance int
}
