package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/edukzn/telegram-college-bot/internal/db"
	"github.com/edukzn/telegram-college-bot/internal/models"
)

// RegisterTeacher заводит (или обновляет) преподавателя с привязанным аккаунтом.
func (c *Core) RegisterTeacher(ctx context.Context, telegramID int64, fullName string) (int64, error) {
	var id int64
	err := db.InTx(ctx, c.db, func(tx *sql.Tx) error {
		var err error
		id, err = db.EnsureUser(ctx, tx, telegramID, fullName, models.Teacher)
		if err != nil {
			return err
		}
		return db.EnsureTeacher(ctx, tx, id)
	})
	return id, err
}

// SetTokensPerAttendance — сколько жетонов у этого преподавателя стоит посещение.
func (c *Core) SetTokensPerAttendance(ctx context.Context, teacherID int64, tokens int) error {
	return db.SetTokensPerAttendance(ctx, c.db, teacherID, tokens)
}

func (c *Core) TokensPerAttendance(ctx context.Context, teacherID int64) (int, error) {
	p, err := db.GetTeacherProfile(ctx, c.db, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: преподаватель %d", ErrNotFound, teacherID)
		}
		return 0, err
	}
	return p.TokensPerAttendance, nil
}

func (c *Core) CreateDiscipline(ctx context.Context, d models.Discipline) (int64, error) {
	if d.RequiredPractices < 0 {
		return 0, errors.New("число обязательных практик не может быть отрицательным")
	}
	var id int64
	err := db.InTx(ctx, c.db, func(tx *sql.Tx) error {
		var err error
		id, err = db.CreateDiscipline(ctx, tx, d)
		if err != nil {
			return err
		}
		// группа дисциплины сразу появляется у преподавателя
		_, err = db.EnsureGroup(ctx, tx, d.TeacherID, d.GroupName)
		return err
	})
	return id, err
}

func (c *Core) TeacherDisciplines(ctx context.Context, teacherID int64) ([]models.Discipline, error) {
	return db.ListTeacherDisciplines(ctx, c.db, teacherID)
}

// CreateKTPItem добавляет пункт плана. Номер практики обязателен для практик
// и недопустим для лекций.
func (c *Core) CreateKTPItem(ctx context.Context, it models.KTPItem) (int64, error) {
	switch it.Kind {
	case models.Practice:
		if it.PracticeNumber == nil || *it.PracticeNumber < 1 {
			return 0, errors.New("для практики нужен положительный номер")
		}
	case models.Lecture:
		if it.PracticeNumber != nil {
			return 0, errors.New("у лекции не бывает номера практики")
		}
	default:
		return 0, fmt.Errorf("неизвестный тип пункта КТП: %q", it.Kind)
	}
	return db.CreateKTPItem(ctx, c.db, it)
}

func (c *Core) KTPByDiscipline(ctx context.Context, disciplineID int64, kind models.KTPKind) ([]models.KTPItem, error) {
	return db.ListKTPByDiscipline(ctx, c.db, disciplineID, kind)
}

// DeleteDiscipline удаляет дисциплину вместе с КТП и оценками.
func (c *Core) DeleteDiscipline(ctx context.Context, disciplineID int64) error {
	return db.DeleteDiscipline(ctx, c.db, disciplineID)
}

// DeleteKTPItem удаляет пункт плана; оценки по нему уходят каскадом.
func (c *Core) DeleteKTPItem(ctx context.Context, ktpID int64) error {
	return db.DeleteKTPItem(ctx, c.db, ktpID)
}

// AddStudentToRoster вносит студента в список группы преподавателя по ФИО:
// запись студента находится или создаётся заготовкой, попадает в группу,
// и, если аккаунт уже привязан, сразу получает связку с балансом.
func (c *Core) AddStudentToRoster(ctx context.Context, teacherID int64, fullName, groupName string) (int64, error) {
	studentID, err := c.ResolveOrCreatePlaceholder(ctx, fullName, groupName)
	if err != nil {
		return 0, err
	}
	err = db.InTx(ctx, c.db, func(tx *sql.Tx) error {
		groupID, err := db.EnsureGroup(ctx, tx, teacherID, groupName)
		if err != nil {
			return err
		}
		if err := db.AddStudentToGroup(ctx, tx, groupID, studentID); err != nil {
			return err
		}
		student, err := db.GetUserByID(ctx, tx, studentID)
		if err != nil {
			return err
		}
		if student.Bound() {
			return db.EnsureBinding(ctx, tx, studentID, teacherID)
		}
		return nil
	})
	return studentID, err
}

func (c *Core) GroupStudents(ctx context.Context, teacherID int64, groupName string) ([]models.User, error) {
	return db.ListGroupStudents(ctx, c.db, teacherID, groupName)
}

func (c *Core) TeacherGroups(ctx context.Context, teacherID int64) ([]models.StudentGroup, error) {
	return db.ListTeacherGroups(ctx, c.db, teacherID)
}

// Gradebook — срез журнала дисциплины: пункты КТП по столбцам, студенты
// группы по строкам. Пустая ячейка значит, что оценка не выставлена.
func (c *Core) Gradebook(ctx context.Context, disciplineID int64) (*models.Discipline, []models.KTPItem, []string, [][]string, error) {
	d, err := db.GetDisciplineByID(ctx, c.db, disciplineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, nil, fmt.Errorf("%w: дисциплина %d", ErrNotFound, disciplineID)
		}
		return nil, nil, nil, nil, err
	}
	items, err := db.ListKTPByDiscipline(ctx, c.db, disciplineID, "")
	if err != nil {
		return nil, nil, nil, nil, err
	}
	students, err := db.ListGroupStudents(ctx, c.db, d.TeacherID, d.GroupName)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	names := make([]string, 0, len(students))
	cells := make([][]string, 0, len(students))
	for _, s := range students {
		row := make([]string, len(items))
		for i, it := range items {
			v, err := db.GetGradeValue(ctx, c.db, s.ID, disciplineID, it.ID)
			if err != nil {
				return nil, nil, nil, nil, err
			}
			if v != nil {
				row[i] = models.GradeLabel(*v)
			}
		}
		names = append(names, s.FullName)
		cells = append(cells, row)
	}
	return d, items, names, cells, nil
}
