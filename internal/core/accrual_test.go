package core_test

import (
	"testing"

	"github.com/edukzn/telegram-college-bot/internal/core"
	"github.com/edukzn/telegram-college-bot/internal/models"
)

func TestAttendanceDelta(t *testing.T) {
	p := func(v int) *int { return &v }

	cases := []struct {
		name     string
		oldValue *int
		newValue int
		per      int
		want     int
	}{
		{"нет строки → оценка", nil, 4, 2, 2},
		{"нет строки → ноль тоже присутствие", nil, 0, 2, 2},
		{"нет строки → н", nil, models.GradeAbsent, 2, 0},
		{"оценка → н", p(3), models.GradeAbsent, 2, -2},
		{"н → оценка", p(models.GradeAbsent), 5, 2, 2},
		{"оценка → другая оценка", p(3), 5, 2, 0},
		{"н → н", p(models.GradeAbsent), models.GradeAbsent, 2, 0},
		{"ставка ноль", nil, 5, 0, 0},
	}

	for _, tc := range cases {
		got := core.AttendanceDelta(tc.oldValue, tc.newValue, tc.per)
		if got != tc.want {
			t.Errorf("%s: получили %d, ожидали %d", tc.name, got, tc.want)
		}
	}
}

func TestAttendanceDeltaRoundTrip(t *testing.T) {
	// н → оценка → н не должно увести баланс в минус относительно старта
	p := func(v int) *int { return &v }
	per := 3

	sum := core.AttendanceDelta(nil, models.GradeAbsent, per) // строки не было, «н»
	sum += core.AttendanceDelta(p(models.GradeAbsent), 4, per)
	sum += core.AttendanceDelta(p(4), models.GradeAbsent, per)
	if sum != 0 {
		t.Fatalf("цикл н→4→н: суммарная дельта %d, ожидали 0", sum)
	}
}
