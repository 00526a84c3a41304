package tracking

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/habitbot/habit-bot/pkg/timeutil"
)

// DefaultNegativeKeyword - подстрока ответа, означающая «срыва не было».
const DefaultNegativeKeyword = "нет"

// WeekWindowDays - глубина недельного окна: запись ровно 7 дней назад входит в окно.
const WeekWindowDays = 7

// Stats - агрегированная статистика по журналу.
type Stats struct {
	// Total - всего записей.
	Total int

	// NoFails - записей, содержащих отрицательный ответ (без учёта регистра).
	NoFails int

	// LastWeek - записей с датой не раньше, чем WeekWindowDays дней назад.
	LastWeek int

	// ThisMonth - записей за текущий календарный месяц.
	ThisMonth int
}

// ComputeStats считает статистику на дату today.
// Записи с неразборчивой датой учитываются только в Total и NoFails.
func ComputeStats(r *Record, today time.Time, negativeKeyword string) Stats {
	if negativeKeyword == "" {
		negativeKeyword = DefaultNegativeKeyword
	}

	lower := cases.Lower(language.Und)
	keyword := lower.String(negativeKeyword)
	weekStart := timeutil.AddDays(today, -WeekWindowDays)

	var s Stats
	for _, day := range r.Days {
		s.Total++
		if strings.Contains(lower.String(day.Response), keyword) {
			s.NoFails++
		}

		date, err := day.ParsedDate()
		if err != nil {
			continue
		}
		if !date.Before(weekStart) {
			s.LastWeek++
		}
		if timeutil.IsSameMonth(date, today) {
			s.ThisMonth++
		}
	}
	return s
}
