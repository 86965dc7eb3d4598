package export

import (
	"testing"
	"time"

	"github.com/edukzn/telegram-college-bot/internal/models"
)

func TestStudentGradesSheet(t *testing.T) {
	hw := "повторить нормальные формы"
	grades := []models.GradeWithContext{
		{
			Grade: models.Grade{
				Value: 5,
				Date:  time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			},
			DisciplineName: "Базы данных",
			TeacherName:    "Иванова Мария Петровна",
			KTPDescription: "Нормализация",
			Homework:       &hw,
		},
		{
			Grade: models.Grade{
				Value: models.GradeAbsent,
				Date:  time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC),
			},
			DisciplineName: "Базы данных",
			TeacherName:    "Иванова Мария Петровна",
			KTPDescription: "Транзакции",
		},
	}

	s := StudentGradesSheet(grades)
	if len(s.Rows) != 2 {
		t.Fatalf("строк %d, ожидали 2", len(s.Rows))
	}
	if s.Rows[0][0] != "5" || s.Rows[0][1] != "10.03.2026" {
		t.Fatalf("первая строка: %v", s.Rows[0])
	}
	if s.Rows[1][0] != "н" {
		t.Fatalf("пропуск должен показываться как «н», получили %q", s.Rows[1][0])
	}
	if s.Rows[1][5] != "" {
		t.Fatalf("пустое домашнее задание должно давать пустую ячейку")
	}
}

func TestGradebookSheetHeader(t *testing.T) {
	n := 2
	items := []models.KTPItem{
		{Kind: models.Lecture, Description: "Введение"},
		{Kind: models.Practice, Description: "ER-модель", PracticeNumber: &n},
	}
	s := GradebookSheet("Базы данных", items, []string{"Петров Олег"}, [][]string{{"4", "н"}})
	if len(s.Header) != 3 {
		t.Fatalf("колонок %d, ожидали 3", len(s.Header))
	}
	if s.Header[2] != "Пр.2 ER-модель" {
		t.Fatalf("заголовок практики: %q", s.Header[2])
	}
}

func TestColName(t *testing.T) {
	for n, want := range map[int]string{1: "A", 26: "Z", 27: "AA", 52: "AZ", 53: "BA"} {
		if got := colName(n); got != want {
			t.Errorf("colName(%d) = %q, ожидали %q", n, got, want)
		}
	}
}

func TestNewWorkbook(t *testing.T) {
	f, err := NewWorkbook([]SheetSpec{
		{Title: "Оценки", Header: []string{"Оценка", "Дата"}, Rows: [][]string{{"5", "10.03.2026"}}},
		{Title: "Журнал", Header: []string{"Студент"}, Rows: nil},
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := f.GetCellValue("Оценки", "A2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "5" {
		t.Fatalf("A2 = %q, ожидали \"5\"", got)
	}
	if _, err := f.GetSheetIndex("Журнал"); err != nil {
		t.Fatal(err)
	}
}
