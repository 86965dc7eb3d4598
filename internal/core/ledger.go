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

// SetGradeInput — аргументы записи оценки. Value: 0..5 либо models.GradeAbsent.
type SetGradeInput struct {
	StudentID    int64
	TeacherID    int64
	DisciplineID int64
	KTPID        int64
	Value        int
	Date         time.Time
}

// SetGrade — единственная точка записи в журнал. Повторная запись по ключу
// (студент, дисциплина, пункт КТП) обновляет значение и дату, второй строки
// не бывает. Оценка и дельта жетонов проводятся одной транзакцией: снаружи
// нельзя увидеть обновлённый журнал при незатронутом балансе.
// Возвращает true, если строка создана, а не обновлена.
func (c *Core) SetGrade(ctx context.Context, in SetGradeInput) (created bool, err error) {
	if in.Value != models.GradeAbsent && (in.Value < 0 || in.Value > 5) {
		return false, fmt.Errorf("%w: %d", ErrInvalidGrade, in.Value)
	}

	var oldValue *int
	err = db.InTx(ctx, c.db, func(tx *sql.Tx) error {
		if _, err := db.GetKTPItemByID(ctx, tx, in.KTPID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: пункт КТП %d", ErrNotFound, in.KTPID)
			}
			return err
		}

		oldValue, err = db.GetGradeValue(ctx, tx, in.StudentID, in.DisciplineID, in.KTPID)
		if err != nil {
			return err
		}

		created, err = db.UpsertGrade(ctx, tx, models.Grade{
			StudentID:    in.StudentID,
			TeacherID:    in.TeacherID,
			DisciplineID: in.DisciplineID,
			KTPID:        in.KTPID,
			Value:        in.Value,
			Date:         in.Date,
		})
		if err != nil {
			return err
		}

		return c.applyAttendanceDelta(ctx, tx, in.StudentID, in.TeacherID, oldValue, in.Value)
	})
	if err != nil {
		return false, err
	}

	if created {
		metrics.GradesSet.WithLabelValues("insert").Inc()
	} else {
		metrics.GradesSet.WithLabelValues("update").Inc()
	}
	c.notifyGrade(ctx, in, created)
	return created, nil
}

// notifyGrade — уведомление студенту после коммита; ошибки не всплывают.
func (c *Core) notifyGrade(ctx context.Context, in SetGradeInput, created bool) {
	student, err := db.GetUserByID(ctx, c.db, in.StudentID)
	if err != nil || !student.Bound() {
		return
	}
	item, err := db.GetKTPItemByID(ctx, c.db, in.KTPID)
	if err != nil {
		c.log.Warnw("уведомление об оценке не собрано", "err", err)
		return
	}
	disc, err := db.GetDisciplineByID(ctx, c.db, in.DisciplineID)
	if err != nil {
		c.log.Warnw("уведомление об оценке не собрано", "err", err)
		return
	}
	teacher, err := db.GetUserByID(ctx, c.db, in.TeacherID)
	if err != nil {
		c.log.Warnw("уведомление об оценке не собрано", "err", err)
		return
	}

	verb := "выставлена"
	if !created {
		verb = "изменена"
	}
	text := fmt.Sprintf("Оценка %s: %s по «%s» (%s), тема: %s. Преподаватель: %s.",
		verb, models.GradeLabel(in.Value), disc.Name, in.Date.Format("02.01.2006"), item.Description, teacher.FullName)
	if item.Homework != nil && *item.Homework != "" {
		text += " Домашнее задание: " + *item.Homework
	}
	c.notifier.Notify(ctx, *student.TelegramID, text)
}

// GradesForStudent — журнал студента, свежие записи первыми.
func (c *Core) GradesForStudent(ctx context.Context, studentID int64) ([]models.GradeWithContext, error) {
	return db.ListGradesForStudent(ctx, c.db, studentID)
}

// AverageAndAttendance — средний балл (без «н») и процент посещаемости
// по дисциплине; при пустом журнале обе величины нулевые.
func (c *Core) AverageAndAttendance(ctx context.Context, studentID, disciplineID int64) (avg, attendance float64, err error) {
	return db.AverageAndAttendance(ctx, c.db, studentID, disciplineID)
}
