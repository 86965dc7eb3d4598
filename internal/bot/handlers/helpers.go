package handlers

import (
	"context"
	"errors"

	"github.com/edukzn/telegram-college-bot/internal/core"
	"github.com/edukzn/telegram-college-bot/internal/models"
)

// teacherIDFor — суррогатный id пользователя по chatID; 0, если не зарегистрирован.
func teacherIDFor(ctx context.Context, c *core.Core, chatID int64) int64 {
	u, err := c.StudentByTelegramID(ctx, chatID)
	if err != nil || u == nil {
		return 0
	}
	return u.ID
}

func disciplineByID(ctx context.Context, c *core.Core, teacherID, disciplineID int64) (*models.Discipline, error) {
	disciplines, err := c.TeacherDisciplines(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	for i := range disciplines {
		if disciplines[i].ID == disciplineID {
			return &disciplines[i], nil
		}
	}
	return nil, errors.New("дисциплина не найдена")
}
