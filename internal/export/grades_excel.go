package export

import (
	"fmt"

	"github.com/edukzn/telegram-college-bot/internal/models"
	"github.com/xuri/excelize/v2"
)

// SheetSpec — данные одного листа: заголовок и строки как есть.
type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
}

// NewWorkbook собирает книгу из листов: жирная шапка, автофильтр,
// эвристическая ширина колонок.
func NewWorkbook(sheets []SheetSpec) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for i, s := range sheets {
		name := s.Title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("new sheet: %w", err)
			}
		}
		for col, h := range s.Header {
			cell := fmt.Sprintf("%s1", colName(col+1))
			if err := f.SetCellStr(name, cell, h); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		end := colName(len(s.Header)) + "1"
		_ = f.SetCellStyle(name, "A1", end, bold)
		_ = f.AutoFilter(name, "A1:"+end, nil)

		for r, row := range s.Rows {
			for c, val := range row {
				cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
				if err := f.SetCellStr(name, cell, val); err != nil {
					return nil, fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}
		// эвристическая ширина: по длине заголовка и первых строк
		for c := 1; c <= len(s.Header); c++ {
			maxim := len(s.Header[c-1])
			for r := 0; r < minim(50, len(s.Rows)); r++ {
				if l := len(s.Rows[r][c-1]); l > maxim {
					maxim = l
				}
			}
			w := float64(maxim) * 0.9
			if w < 12 {
				w = 12
			}
			if w > 40 {
				w = 40
			}
			_ = f.SetColWidth(name, colName(c), colName(c), w)
		}
	}
	return f, nil
}

// StudentGradesSheet — журнал студента для выгрузки; «н» вместо -1.
func StudentGradesSheet(grades []models.GradeWithContext) SheetSpec {
	s := SheetSpec{
		Title:  "Оценки",
		Header: []string{"Оценка", "Дата", "Дисциплина", "Преподаватель", "Тема", "Домашнее задание"},
	}
	for _, g := range grades {
		hw := ""
		if g.Homework != nil {
			hw = *g.Homework
		}
		s.Rows = append(s.Rows, []string{
			models.GradeLabel(g.Value),
			g.Date.Format("02.01.2006"),
			g.DisciplineName,
			g.TeacherName,
			g.KTPDescription,
			hw,
		})
	}
	return s
}

// GradebookSheet — журнал дисциплины: студенты по строкам, пункты КТП по
// колонкам. Значения в матрице уже отформатированы вызывающей стороной.
func GradebookSheet(disciplineName string, items []models.KTPItem, students []string, cells [][]string) SheetSpec {
	header := []string{"Студент"}
	for _, it := range items {
		title := it.Description
		if it.Kind == models.Practice && it.PracticeNumber != nil {
			title = fmt.Sprintf("Пр.%d %s", *it.PracticeNumber, it.Description)
		}
		header = append(header, title)
	}
	s := SheetSpec{Title: disciplineName, Header: header}
	for i, name := range students {
		row := append([]string{name}, cells[i]...)
		s.Rows = append(s.Rows, row)
	}
	return s
}

func colName(n int) string {
	// 1 -> A; 27 -> AA
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

func minim(a, b int) int {
	if a < b {
		return a
	}
	return b
}
