package core

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/edukzn/telegram-college-bot/internal/db"
	"github.com/edukzn/telegram-college-bot/internal/models"
)

// ResolveOrCreatePlaceholder возвращает запись студента по (ФИО, группа),
// создавая заготовку без аккаунта, если её ещё нет. Так преподаватель может
// вести журнал по студенту, который бота ещё не открывал.
func (c *Core) ResolveOrCreatePlaceholder(ctx context.Context, fullName, groupName string) (int64, error) {
	fullName = strings.TrimSpace(fullName)
	groupName = strings.TrimSpace(groupName)
	if fullName == "" || groupName == "" {
		return 0, fmt.Errorf("%w: пустое ФИО или группа", ErrInvalidIdentity)
	}

	var id int64
	err := db.InTx(ctx, c.db, func(tx *sql.Tx) error {
		existing, err := db.GetStudentByNameAndGroup(ctx, tx, fullName, groupName)
		if err != nil {
			return err
		}
		if existing != nil {
			id = existing.ID
			return nil
		}
		id, err = db.CreatePlaceholderStudent(ctx, tx, fullName, groupName)
		return err
	})
	return id, err
}

type drainedNotice struct {
	studentTG int64
	teacherID int64
	tokens    int
	message   string
}

// Bind привязывает телеграм-аккаунт к записи студента. Порядок разрешения:
//  1. этот telegram_id уже привязан — при совпадении ФИО запись переиспользуется,
//     при несовпадении возвращается ErrIdentityConflict (привязанная запись главнее);
//  2. по (ФИО, группа) есть заготовка — к ней подвязывается telegram_id:
//     суррогатный id не меняется, вся история (оценки, покупки, резервы) остаётся;
//  3. по одному ФИО находится единственная заготовка — студент сменил группу,
//     запись переносится в новую группу и привязывается;
//  4. иначе создаётся новая привязанная запись.
//
// В той же транзакции студент подвязывается к админу, к преподавателям его
// группы (баланс 0) и разово получает все отложенные жетоны: проводка по
// балансу и удаление резерва атомарны, повторный Bind ничего не доначислит.
func (c *Core) Bind(ctx context.Context, telegramID int64, fullName, groupName string) (int64, error) {
	fullName = strings.TrimSpace(fullName)
	groupName = strings.TrimSpace(groupName)
	if fullName == "" || groupName == "" {
		return 0, fmt.Errorf("%w: пустое ФИО или группа", ErrInvalidIdentity)
	}

	var studentID int64
	var notices []drainedNotice
	err := db.InTx(ctx, c.db, func(tx *sql.Tx) error {
		id, err := c.resolveBindTarget(ctx, tx, telegramID, fullName, groupName)
		if err != nil {
			return err
		}
		studentID = id

		if err := db.LinkStudentToAdmin(ctx, tx, c.adminUserID, studentID); err != nil {
			return err
		}

		teacherIDs, err := db.TeachersOfGroup(ctx, tx, groupName)
		if err != nil {
			return err
		}
		for _, teacherID := range teacherIDs {
			if err := db.EnsureBinding(ctx, tx, studentID, teacherID); err != nil {
				return err
			}
			groupID, err := db.EnsureGroup(ctx, tx, teacherID, groupName)
			if err != nil {
				return err
			}
			if err := db.AddStudentToGroup(ctx, tx, groupID, studentID); err != nil {
				return err
			}
		}

		notices, err = c.drainReserved(ctx, tx, studentID, telegramID)
		return err
	})
	if err != nil {
		return 0, err
	}

	for _, n := range notices {
		c.notifier.Notify(ctx, n.studentTG, n.message)
		if teacher, err := db.GetUserByID(ctx, c.db, n.teacherID); err == nil && teacher.Bound() {
			c.notifier.Notify(ctx, *teacher.TelegramID,
				fmt.Sprintf("Студент зарегистрировался и получил зарезервированные %d жетончиков.", n.tokens))
		}
	}
	return studentID, nil
}

func (c *Core) resolveBindTarget(ctx context.Context, tx *sql.Tx, telegramID int64, fullName, groupName string) (int64, error) {
	// 1: аккаунт уже привязан.
	bound, err := db.GetUserByTelegramID(ctx, tx, telegramID)
	if err != nil {
		return 0, err
	}
	if bound != nil {
		if bound.FullName != fullName {
			return 0, fmt.Errorf("%w: аккаунт закреплён за «%s»", ErrIdentityConflict, bound.FullName)
		}
		return bound.ID, nil
	}

	// 2: точное совпадение (ФИО, группа).
	match, err := db.GetStudentByNameAndGroup(ctx, tx, fullName, groupName)
	if err != nil {
		return 0, err
	}
	if match != nil && match.Bound() {
		// та же пара (ФИО, группа) уже занята другим аккаунтом
		return 0, fmt.Errorf("%w: «%s» уже привязан", ErrIdentityConflict, fullName)
	}
	// 3: единственная незанятая запись с таким ФИО — студент перешёл в другую
	// группу; полный тёзка с привязанным аккаунтом совпадением не считается.
	if match == nil {
		byName, err := db.GetStudentByName(ctx, tx, fullName)
		if err != nil {
			return 0, err
		}
		if byName != nil && !byName.Bound() {
			match = byName
		}
	}
	if match != nil {
		if err := db.BindStudent(ctx, tx, match.ID, telegramID, groupName); err != nil {
			return 0, err
		}
		return match.ID, nil
	}

	// 4: новая запись сразу с аккаунтом.
	return db.CreateBoundStudent(ctx, tx, telegramID, fullName, groupName)
}

// drainReserved проводит отложенные жетоны по балансам и удаляет резерв.
// Выполняется только внутри транзакции Bind: после неё строк резерва нет,
// поэтому повторный вызов — no-op.
func (c *Core) drainReserved(ctx context.Context, tx *sql.Tx, studentID, telegramID int64) ([]drainedNotice, error) {
	reserved, err := db.ListReservedForStudent(ctx, tx, studentID)
	if err != nil {
		return nil, err
	}
	if len(reserved) == 0 {
		return nil, nil
	}

	notices := make([]drainedNotice, 0, len(reserved))
	for _, r := range reserved {
		if err := db.EnsureBinding(ctx, tx, studentID, r.TeacherID); err != nil {
			return nil, err
		}
		if err := db.AddTokens(ctx, tx, studentID, r.TeacherID, r.Tokens); err != nil {
			return nil, err
		}
		notices = append(notices, drainedNotice{
			studentTG: telegramID,
			teacherID: r.TeacherID,
			tokens:    r.Tokens,
			message:   r.Message,
		})
	}
	if err := db.DeleteReservedForStudent(ctx, tx, studentID); err != nil {
		return nil, err
	}
	return notices, nil
}

// StudentByTelegramID — чтение для границы (меню, выгрузки).
func (c *Core) StudentByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return db.GetUserByTelegramID(ctx, c.db, telegramID)
}
