//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"testing"

	"github.com/edukzn/telegram-college-bot/internal/db"
	"github.com/edukzn/telegram-college-bot/internal/models"
	"github.com/edukzn/telegram-college-bot/internal/testutil/testdb"
)

func TestTokens_ConditionalDebit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	teacherID, err := db.EnsureUser(ctx, h.DB, 100, "Иванова Мария Петровна", models.Teacher)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.EnsureTeacher(ctx, h.DB, teacherID); err != nil {
		t.Fatal(err)
	}
	studentID, err := db.CreatePlaceholderStudent(ctx, h.DB, "Петров Олег Сергеевич", "ИС-21")
	if err != nil {
		t.Fatal(err)
	}

	// несуществующая связка читается как нулевой баланс
	balance, err := db.TokenBalance(ctx, h.DB, studentID, teacherID)
	if err != nil {
		t.Fatal(err)
	}
	if balance != 0 {
		t.Fatalf("баланс без связки %d, ожидали 0", balance)
	}

	if err := db.EnsureBinding(ctx, h.DB, studentID, teacherID); err != nil {
		t.Fatal(err)
	}
	if err := db.AddTokens(ctx, h.DB, studentID, teacherID, 5); err != nil {
		t.Fatal(err)
	}

	ok, err := db.DebitTokens(ctx, h.DB, studentID, teacherID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("списание больше баланса прошло")
	}
	balance, _ = db.TokenBalance(ctx, h.DB, studentID, teacherID)
	if balance != 5 {
		t.Fatalf("неудачное списание изменило баланс: %d", balance)
	}

	ok, err = db.DebitTokens(ctx, h.DB, studentID, teacherID, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("списание в пределах баланса не прошло")
	}
	balance, _ = db.TokenBalance(ctx, h.DB, studentID, teacherID)
	if balance != 0 {
		t.Fatalf("после списания баланс %d, ожидали 0", balance)
	}
}

func TestReservedTokens_LastWriteWins(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	teacherID, err := db.EnsureUser(ctx, h.DB, 100, "Иванова Мария Петровна", models.Teacher)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.EnsureTeacher(ctx, h.DB, teacherID); err != nil {
		t.Fatal(err)
	}
	studentID, err := db.CreatePlaceholderStudent(ctx, h.DB, "Сидорова Анна Ивановна", "ИС-21")
	if err != nil {
		t.Fatal(err)
	}
	disciplineID, err := db.CreateDiscipline(ctx, h.DB, models.Discipline{
		TeacherID: teacherID, Name: "Базы данных", GroupName: "ИС-21", RequiredPractices: 2,
	})
	if err != nil {
		t.Fatal(err)
	}

	r := models.ReservedTokens{
		StudentID: studentID, TeacherID: teacherID, DisciplineID: disciplineID,
		Tokens: 5, Message: "первое",
	}
	if err := db.ReserveTokens(ctx, h.DB, r); err != nil {
		t.Fatal(err)
	}
	r.Tokens, r.Message = 7, "второе"
	if err := db.ReserveTokens(ctx, h.DB, r); err != nil {
		t.Fatal(err)
	}

	rows, err := db.ListReservedForStudent(ctx, h.DB, studentID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("строк резерва %d, ожидали 1", len(rows))
	}
	if rows[0].Tokens != 7 || rows[0].Message != "второе" {
		t.Fatalf("повторный резерв не заместил прежний: %#v", rows[0])
	}
}
