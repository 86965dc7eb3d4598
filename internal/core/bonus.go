package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/edukzn/telegram-college-bot/internal/db"
	"github.com/edukzn/telegram-college-bot/internal/metrics"
	"github.com/edukzn/telegram-college-bot/internal/models"
)

// Evaluate проверяет, стал ли студент первым, кто закрыл все практики
// дисциплины строго в день их проведения, и разово начисляет BonusTokens.
// Состояние дисциплины одно: «никто не награждён» → «награждён», обратно
// не возвращается. Проверка существующей отметки идёт до всех вычислений,
// но настоящая защита от двойного награждения — уникальный ключ по
// дисциплине: проигравший гонку INSERT трактуется как «уже награждено».
// Возвращает true, если бонус начислен этим вызовом.
func (c *Core) Evaluate(ctx context.Context, studentID, disciplineID, teacherID int64, now time.Time) (bool, error) {
	var (
		awarded      bool
		student      *models.User
		discipline   *models.Discipline
		bonusMessage string
	)
	err := db.InTx(ctx, c.db, func(tx *sql.Tx) error {
		existing, err := db.GetFirstCompletion(ctx, tx, disciplineID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		discipline, err = db.GetDisciplineByID(ctx, tx, disciplineID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: дисциплина %d", ErrNotFound, disciplineID)
			}
			return err
		}
		if discipline.RequiredPractices < 1 {
			return nil
		}

		completed, err := db.CountDistinctCompletedPractices(ctx, tx, studentID, disciplineID)
		if err != nil {
			return err
		}
		if completed < discipline.RequiredPractices {
			return nil
		}

		lastDate, lastNumber, err := db.LastCompletedPractice(ctx, tx, studentID, disciplineID)
		if err != nil {
			return err
		}
		if lastDate == nil {
			return nil
		}
		scheduled, err := db.PracticeScheduledDate(ctx, tx, disciplineID, lastNumber)
		if err != nil {
			return err
		}
		// сравниваем только календарные дни
		if scheduled == nil || !sameDay(*lastDate, *scheduled) {
			return nil
		}

		inserted, err := db.InsertFirstCompletion(ctx, tx, disciplineID, studentID, BonusTokens, now)
		if err != nil {
			return err
		}
		if !inserted {
			// параллельный вызов успел первым — уже награждено
			return nil
		}

		student, err = db.GetUserByID(ctx, tx, studentID)
		if err != nil {
			return err
		}
		bonusMessage = fmt.Sprintf(
			"Поздравляем! Вы сдали все практики по дисциплине «%s» первыми и вовремя. Вам начислено %d жетончиков.",
			discipline.Name, BonusTokens)

		if student.Bound() {
			if err := db.EnsureBinding(ctx, tx, studentID, teacherID); err != nil {
				return err
			}
			if err := db.AddTokens(ctx, tx, studentID, teacherID, BonusTokens); err != nil {
				return err
			}
		} else {
			// заготовка без аккаунта: жетоны уедут в резерв и применятся при Bind
			if err := db.ReserveTokens(ctx, tx, models.ReservedTokens{
				StudentID:    studentID,
				TeacherID:    teacherID,
				DisciplineID: disciplineID,
				Tokens:       BonusTokens,
				Message:      bonusMessage,
			}); err != nil {
				return err
			}
		}
		awarded = true
		return nil
	})
	if err != nil || !awarded {
		return false, err
	}

	metrics.BonusesAwarded.Inc()
	if student.Bound() {
		c.notifier.Notify(ctx, *student.TelegramID, bonusMessage)
	}
	if teacher, err := db.GetUserByID(ctx, c.db, teacherID); err == nil && teacher.Bound() {
		c.notifier.Notify(ctx, *teacher.TelegramID, fmt.Sprintf(
			"Студент %s сдал все практики по «%s» первым и вовремя, получил %d жетончиков.",
			student.FullName, discipline.Name, BonusTokens))
	}
	return true, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// EvaluateDiscipline прогоняет Evaluate по всем студентам группы дисциплины —
// ручной перезапуск преподавателем или фоновое сканирование. Благодаря
// уникальному ключу прогон идемпотентен.
func (c *Core) EvaluateDiscipline(ctx context.Context, disciplineID int64, now time.Time) (bool, error) {
	discipline, err := db.GetDisciplineByID(ctx, c.db, disciplineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("%w: дисциплина %d", ErrNotFound, disciplineID)
		}
		return false, err
	}
	students, err := db.ListGroupStudents(ctx, c.db, discipline.TeacherID, discipline.GroupName)
	if err != nil {
		return false, err
	}
	for _, s := range students {
		awarded, err := c.Evaluate(ctx, s.ID, disciplineID, discipline.TeacherID, now)
		if err != nil {
			return false, err
		}
		if awarded {
			return true, nil
		}
	}
	return false, nil
}
