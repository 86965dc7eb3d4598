//go:build testutil
// +build testutil

package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/edukzn/telegram-college-bot/internal/core"
	"github.com/edukzn/telegram-college-bot/internal/db"
	"github.com/edukzn/telegram-college-bot/internal/models"
	"github.com/edukzn/telegram-college-bot/internal/testutil/testdb"
)

type fixture struct {
	h            *testdb.DBHandle
	c            *core.Core
	teacherID    int64
	disciplineID int64
	practices    []int64 // id пунктов КТП по номерам практик 1..n
}

// newFixture поднимает контейнер с БД и заводит преподавателя с дисциплиной
// на requiredPractices практик в группе "ИС-21".
func newFixture(ctx context.Context, t *testing.T, requiredPractices, tokensPerAttendance int) *fixture {
	t.Helper()

	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)

	adminID, err := db.EnsureUser(ctx, h.DB, 1, "Администратор", models.Admin)
	if err != nil {
		t.Fatal(err)
	}

	c := core.New(h.DB, zap.NewNop().Sugar(), core.NopNotifier{}, adminID)

	teacherID, err := c.RegisterTeacher(ctx, 100, "Иванова Мария Петровна")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetTokensPerAttendance(ctx, teacherID, tokensPerAttendance); err != nil {
		t.Fatal(err)
	}

	disciplineID, err := c.CreateDiscipline(ctx, models.Discipline{
		TeacherID:         teacherID,
		Name:              "Базы данных",
		GroupName:         "ИС-21",
		RequiredPractices: requiredPractices,
	})
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{h: h, c: c, teacherID: teacherID, disciplineID: disciplineID}
	for n := 1; n <= requiredPractices; n++ {
		num := n
		id, err := c.CreateKTPItem(ctx, models.KTPItem{
			TeacherID:      teacherID,
			DisciplineID:   disciplineID,
			GroupName:      "ИС-21",
			Kind:           models.Practice,
			Description:    "Практическая работа",
			PracticeNumber: &num,
		})
		if err != nil {
			t.Fatal(err)
		}
		f.practices = append(f.practices, id)
	}
	return f
}

func (f *fixture) setGrade(ctx context.Context, t *testing.T, studentID, ktpID int64, value int, date time.Time) bool {
	t.Helper()
	created, err := f.c.SetGrade(ctx, core.SetGradeInput{
		StudentID:    studentID,
		TeacherID:    f.teacherID,
		DisciplineID: f.disciplineID,
		KTPID:        ktpID,
		Value:        value,
		Date:         date,
	})
	if err != nil {
		t.Fatal(err)
	}
	return created
}

func TestSetGrade_UpsertKeepsSingleRow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(ctx, t, 1, 2)

	studentID, err := f.c.Bind(ctx, 200, "Петров Олег Сергеевич", "ИС-21")
	if err != nil {
		t.Fatal(err)
	}

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if created := f.setGrade(ctx, t, studentID, f.practices[0], 4, day); !created {
		t.Fatal("первая запись должна создать строку")
	}
	if created := f.setGrade(ctx, t, studentID, f.practices[0], 5, day); created {
		t.Fatal("повторная запись по тому же ключу должна обновить строку")
	}

	grades, err := f.c.GradesForStudent(ctx, studentID)
	if err != nil {
		t.Fatal(err)
	}
	if len(grades) != 1 {
		t.Fatalf("в журнале %d строк, ожидали 1", len(grades))
	}
	if grades[0].Value != 5 {
		t.Fatalf("значение %d, ожидали 5", grades[0].Value)
	}

	// статус «присутствовал» не менялся, жетоны начислены один раз
	balance, err := f.c.BalanceOf(ctx, studentID, f.teacherID)
	if err != nil {
		t.Fatal(err)
	}
	if balance != 2 {
		t.Fatalf("баланс %d, ожидали 2", balance)
	}
}

func TestSetGrade_AbsentTakesTokensBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(ctx, t, 1, 3)

	studentID, err := f.c.Bind(ctx, 200, "Петров Олег Сергеевич", "ИС-21")
	if err != nil {
		t.Fatal(err)
	}

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f.setGrade(ctx, t, studentID, f.practices[0], 4, day)
	f.setGrade(ctx, t, studentID, f.practices[0], models.GradeAbsent, day)

	balance, err := f.c.BalanceOf(ctx, studentID, f.teacherID)
	if err != nil {
		t.Fatal(err)
	}
	if balance != 0 {
		t.Fatalf("баланс %d, ожидали 0 после исправления на «н»", balance)
	}
}

func TestPurchase_InsufficientTokensLeavesNoTrace(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(ctx, t, 1, 5)

	studentID, err := f.c.Bind(ctx, 200, "Петров Олег Сергеевич", "ИС-21")
	if err != nil {
		t.Fatal(err)
	}
	// одно посещение: баланс 5
	f.setGrade(ctx, t, studentID, f.practices[0], 3, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	rewardID, err := f.c.CreateReward(ctx, models.Reward{
		TeacherID:    f.teacherID,
		DisciplineID: f.disciplineID,
		Name:         "Автомат по лекции",
		Price:        10,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.c.Purchase(ctx, studentID, rewardID, time.Now())
	if !errors.Is(err, core.ErrInsufficientTokens) {
		t.Fatalf("ожидали ErrInsufficientTokens, получили %v", err)
	}

	balance, err := f.c.BalanceOf(ctx, studentID, f.teacherID)
	if err != nil {
		t.Fatal(err)
	}
	if balance != 5 {
		t.Fatalf("неудачная покупка тронула баланс: %d", balance)
	}
	history, err := f.c.PurchasesForStudent(ctx, studentID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 0 {
		t.Fatalf("неудачная покупка оставила чек: %d", len(history))
	}

	// снизим цену — покупка проходит и списывает ровно цену
	if err := f.c.SetRewardPrice(ctx, rewardID, 5); err != nil {
		t.Fatal(err)
	}
	receipt, err := f.c.Purchase(ctx, studentID, rewardID, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if receipt.TeacherID != f.teacherID {
		t.Fatalf("чек ссылается на преподавателя %d", receipt.TeacherID)
	}
	balance, _ = f.c.BalanceOf(ctx, studentID, f.teacherID)
	if balance != 0 {
		t.Fatalf("баланс после покупки %d, ожидали 0", balance)
	}
}

func TestBind_MergesPlaceholderHistoryAndDrainsReserve(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(ctx, t, 3, 0) // ставка 0: дельты посещаемости не мешают проверке резерва

	placeholderID, err := f.c.AddStudentToRoster(ctx, f.teacherID, "Сидорова Анна Ивановна", "ИС-21")
	if err != nil {
		t.Fatal(err)
	}

	day := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	for i, ktpID := range f.practices {
		f.setGrade(ctx, t, placeholderID, ktpID, 4, day.AddDate(0, 0, i))
	}
	if err := f.c.Reserve(ctx, placeholderID, f.teacherID, f.disciplineID, 10, ""); err != nil {
		t.Fatal(err)
	}

	boundID, err := f.c.Bind(ctx, 300, "Сидорова Анна Ивановна", "ИС-21")
	if err != nil {
		t.Fatal(err)
	}
	if boundID != placeholderID {
		t.Fatalf("привязка создала новую запись %d вместо заготовки %d", boundID, placeholderID)
	}

	grades, err := f.c.GradesForStudent(ctx, boundID)
	if err != nil {
		t.Fatal(err)
	}
	if len(grades) != 3 {
		t.Fatalf("после привязки в журнале %d строк, ожидали 3", len(grades))
	}

	balance, err := f.c.BalanceOf(ctx, boundID, f.teacherID)
	if err != nil {
		t.Fatal(err)
	}
	if balance != 10 {
		t.Fatalf("резерв не доехал: баланс %d, ожидали 10", balance)
	}

	// повторная привязка того же аккаунта ничего не доначисляет
	againID, err := f.c.Bind(ctx, 300, "Сидорова Анна Ивановна", "ИС-21")
	if err != nil {
		t.Fatal(err)
	}
	if againID != boundID {
		t.Fatalf("повторная привязка вернула %d вместо %d", againID, boundID)
	}
	balance, _ = f.c.BalanceOf(ctx, boundID, f.teacherID)
	if balance != 10 {
		t.Fatalf("повторная привязка изменила баланс: %d", balance)
	}
}

func TestBind_TakenIdentityConflicts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(ctx, t, 1, 1)

	if _, err := f.c.Bind(ctx, 300, "Сидорова Анна Ивановна", "ИС-21"); err != nil {
		t.Fatal(err)
	}
	// другой аккаунт на ту же пару (ФИО, группа)
	_, err := f.c.Bind(ctx, 301, "Сидорова Анна Ивановна", "ИС-21")
	if !errors.Is(err, core.ErrIdentityConflict) {
		t.Fatalf("ожидали ErrIdentityConflict, получили %v", err)
	}
	// тот же аккаунт под чужим ФИО
	_, err = f.c.Bind(ctx, 300, "Другое Имя Совсем", "ИС-21")
	if !errors.Is(err, core.ErrIdentityConflict) {
		t.Fatalf("ожидали ErrIdentityConflict, получили %v", err)
	}
}

func TestEvaluate_FirstOnTimeCompletionPaysOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(ctx, t, 2, 1)

	studentID, err := f.c.Bind(ctx, 200, "Петров Олег Сергеевич", "ИС-21")
	if err != nil {
		t.Fatal(err)
	}

	day1 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
	f.setGrade(ctx, t, studentID, f.practices[0], 5, day1)
	f.setGrade(ctx, t, studentID, f.practices[1], 5, day2)

	awarded, err := f.c.Evaluate(ctx, studentID, f.disciplineID, f.teacherID, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !awarded {
		t.Fatal("сдавший все практики в день проведения должен получить бонус")
	}

	// два посещения по 1 жетону + бонус
	balance, err := f.c.BalanceOf(ctx, studentID, f.teacherID)
	if err != nil {
		t.Fatal(err)
	}
	if want := 2 + core.BonusTokens; balance != want {
		t.Fatalf("баланс %d, ожидали %d", balance, want)
	}

	// второй раз по той же дисциплине бонус не выдаётся никому
	awarded, err = f.c.Evaluate(ctx, studentID, f.disciplineID, f.teacherID, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if awarded {
		t.Fatal("повторная проверка выдала бонус второй раз")
	}
}

func TestEvaluate_LateCompletionGetsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(ctx, t, 2, 1)

	early, err := f.c.Bind(ctx, 200, "Петров Олег Сергеевич", "ИС-21")
	if err != nil {
		t.Fatal(err)
	}
	late, err := f.c.Bind(ctx, 201, "Кузнецов Дмитрий Андреевич", "ИС-21")
	if err != nil {
		t.Fatal(err)
	}

	day1 := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
	// первый студент задаёт даты проведения, но сдал только первую практику
	f.setGrade(ctx, t, early, f.practices[0], 4, day1)
	f.setGrade(ctx, t, early, f.practices[1], models.GradeAbsent, day2)
	// второй сдал всё, но последнюю — неделей позже дня проведения
	f.setGrade(ctx, t, late, f.practices[0], 4, day1)
	f.setGrade(ctx, t, late, f.practices[1], 4, day2.AddDate(0, 0, 7))

	awarded, err := f.c.EvaluateDiscipline(ctx, f.disciplineID, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if awarded {
		t.Fatal("бонус выдан, хотя вовремя все практики никто не закрыл")
	}
}

func TestEvaluate_PlaceholderBonusGoesToReserve(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(ctx, t, 1, 0)

	placeholderID, err := f.c.AddStudentToRoster(ctx, f.teacherID, "Сидорова Анна Ивановна", "ИС-21")
	if err != nil {
		t.Fatal(err)
	}
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f.setGrade(ctx, t, placeholderID, f.practices[0], 5, day)

	awarded, err := f.c.Evaluate(ctx, placeholderID, f.disciplineID, f.teacherID, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !awarded {
		t.Fatal("заготовка тоже может выиграть бонус")
	}

	reserved, err := f.c.ReservedFor(ctx, placeholderID)
	if err != nil {
		t.Fatal(err)
	}
	if len(reserved) != 1 || reserved[0].Tokens != core.BonusTokens {
		t.Fatalf("бонус заготовки должен лежать в резерве: %#v", reserved)
	}

	// после привязки резерв превращается в баланс
	boundID, err := f.c.Bind(ctx, 300, "Сидорова Анна Ивановна", "ИС-21")
	if err != nil {
		t.Fatal(err)
	}
	balance, err := f.c.BalanceOf(ctx, boundID, f.teacherID)
	if err != nil {
		t.Fatal(err)
	}
	if balance != core.BonusTokens {
		t.Fatalf("баланс %d, ожидали %d", balance, core.BonusTokens)
	}
}
