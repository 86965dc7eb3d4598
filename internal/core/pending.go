package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/edukzn/telegram-college-bot/internal/db"
	"github.com/edukzn/telegram-college-bot/internal/models"
)

// Reserve откладывает жетоны для ещё не привязанного студента. Ключ —
// (студент, преподаватель, дисциплина): повторное резервирование замещает
// прежнее, не суммируется. Резерв применяется один раз — при Bind.
func (c *Core) Reserve(ctx context.Context, studentID, teacherID, disciplineID int64, tokens int, message string) error {
	if tokens < 1 {
		return fmt.Errorf("резервировать можно только положительное число жетонов, получено %d", tokens)
	}
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("Вам начислено %d жетончиков.", tokens)
	}
	return db.ReserveTokens(ctx, c.db, models.ReservedTokens{
		StudentID:    studentID,
		TeacherID:    teacherID,
		DisciplineID: disciplineID,
		Tokens:       tokens,
		Message:      message,
	})
}

// ReservedFor — текущие резервы студента (для показа преподавателю).
func (c *Core) ReservedFor(ctx context.Context, studentID int64) ([]models.ReservedTokens, error) {
	return db.ListReservedForStudent(ctx, c.db, studentID)
}
