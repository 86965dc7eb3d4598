package core

import (
	"context"

	"github.com/edukzn/telegram-college-bot/internal/db"
	"github.com/edukzn/telegram-college-bot/internal/metrics"
	"github.com/edukzn/telegram-college-bot/internal/models"
)

// AttendanceDelta — таблица переходов посещаемости. oldValue == nil — строки
// ещё не было. Изменение самой оценки без смены статуса (3 → 5) жетонов
// не двигает; «н» → оценка возвращает ровно то, что ушло бы при прямом
// посещении, поэтому баланс этим путём в минус не уходит.
func AttendanceDelta(oldValue *int, newValue, perAttendance int) int {
	oldPresent := oldValue != nil && *oldValue != models.GradeAbsent
	newPresent := newValue != models.GradeAbsent

	switch {
	case !oldPresent && newPresent:
		return perAttendance
	case oldPresent && !newPresent:
		return -perAttendance
	default:
		return 0
	}
}

// applyAttendanceDelta проводит дельту по балансу внутри транзакции оценки.
// Для заготовки (незавязанный студент) обычные дельты посещаемости не
// копятся нигде — осознанное решение: не тащить в будущий привязанный
// баланс неотслеженную историю. Сама оценка в журнал попадает всегда.
func (c *Core) applyAttendanceDelta(ctx context.Context, q db.Queryer, studentID, teacherID int64, oldValue *int, newValue int) error {
	profile, err := db.GetTeacherProfile(ctx, q, teacherID)
	if err != nil {
		return err
	}
	delta := AttendanceDelta(oldValue, newValue, profile.TokensPerAttendance)
	if delta == 0 {
		return nil
	}

	student, err := db.GetUserByID(ctx, q, studentID)
	if err != nil {
		return err
	}
	if !student.Bound() {
		c.log.Infow("пропуск начисления: студент ещё не привязан",
			"student_id", studentID, "teacher_id", teacherID, "delta", delta)
		return nil
	}

	if err := db.EnsureBinding(ctx, q, studentID, teacherID); err != nil {
		return err
	}
	if err := db.AddTokens(ctx, q, studentID, teacherID, delta); err != nil {
		return err
	}
	if delta < 0 {
		delta = -delta
	}
	metrics.TokensAccrued.Add(float64(delta))
	return nil
}

// BalanceOf — текущий баланс жетонов студента у преподавателя.
func (c *Core) BalanceOf(ctx context.Context, studentID, teacherID int64) (int, error) {
	return db.TokenBalance(ctx, c.db, studentID, teacherID)
}

// BalancesForStudent — балансы у всех преподавателей студента.
func (c *Core) BalancesForStudent(ctx context.Context, studentID int64) ([]db.TeacherBalance, error) {
	return db.ListBalancesForStudent(ctx, c.db, studentID)
}
