package models

import "time"

type Reward struct {
	ID           int64
	TeacherID    int64
	DisciplineID int64
	Name         string
	Description  string
	Price        int
	IsEnabled    bool
}

// Purchase — чек о покупке. Баланс уже списан к моменту появления записи.
type Purchase struct {
	ID        int64
	StudentID int64
	RewardID  int64
	TeacherID int64
	Date      time.Time
}

// ReservedTokens — жетоны, отложенные для ещё не привязанной записи студента.
// Ключ (student, teacher, discipline); повторное резервирование по тому же
// ключу замещает прежнее.
type ReservedTokens struct {
	StudentID    int64
	TeacherID    int64
	DisciplineID int64
	Tokens       int
	Message      string
}

// FirstCompletion — отметка «первый сдал все практики вовремя».
// Одна на дисциплину, обратного перехода нет.
type FirstCompletion struct {
	DisciplineID int64
	StudentID    int64
	Tokens       int
	AwardedDate  time.Time
}
