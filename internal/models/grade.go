package models

import "time"

// GradeAbsent — сентинел «не был на занятии». Хранится в БД как -1,
// на границе (бот, выгрузки) показывается как "н". В средний балл и в
// посещаемость «присутствовал» не входит.
const GradeAbsent = -1

type Grade struct {
	ID           int64
	StudentID    int64
	TeacherID    int64
	DisciplineID int64
	KTPID        int64
	Value        int
	Date         time.Time
}

// GradeWithContext — строка журнала, развёрнутая для показа студенту.
type GradeWithContext struct {
	Grade
	DisciplineName string
	TeacherName    string
	KTPDescription string
	Homework       *string
}

// GradeLabel — представление оценки на границе: число либо "н".
func GradeLabel(value int) string {
	if value == GradeAbsent {
		return "н"
	}
	return string(rune('0' + value))
}
