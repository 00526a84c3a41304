// Package tracking содержит доменную модель трекера привычки:
// запись отслеживания (дата начала + журнал ответов), счётчик дней
// и агрегированную статистику.
package tracking

import (
	"encoding/json"
	"time"

	"github.com/habitbot/habit-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK-IN
// ══════════════════════════════════════════════════════════════════════════════

// CheckIn - один ответ пользователя за день.
// Несколько записей с одной датой допустимы: ничего не дедуплицируется.
type CheckIn struct {
	// Date - календарная дата ответа в формате YYYY-MM-DD.
	Date string `json:"date"`

	// Response - текст сообщения как есть, без валидации.
	Response string `json:"response"`
}

// ParsedDate разбирает дату записи.
func (c CheckIn) ParsedDate() (time.Time, error) {
	d, err := timeutil.ParseDate(c.Date)
	if err != nil {
		return time.Time{}, WrapError("CheckIn", ErrInvalidDate, c.Date, err)
	}
	return d, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record - единственная сохраняемая сущность.
//
// Инварианты:
//   - StartDate устанавливается один раз и больше не меняется;
//   - Days только дополняется, записи не удаляются и не редактируются.
type Record struct {
	// StartDate - дата начала отсчёта (nil, пока отсчёт не начат).
	StartDate *string `json:"start_date"`

	// Days - журнал ответов в порядке записи.
	Days []CheckIn `json:"days"`
}

// NewRecord возвращает пустую запись: отсчёт не начат, журнал пуст.
func NewRecord() *Record {
	return &Record{Days: []CheckIn{}}
}

// MarshalJSON гарантирует "days": [] вместо null для пустого журнала.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	if r.Days == nil {
		r.Days = []CheckIn{}
	}
	return json.Marshal(plain(r))
}

// HasStarted сообщает, начат ли отсчёт.
func (r *Record) HasStarted() bool {
	return r.StartDate != nil && *r.StartDate != ""
}

// Begin начинает отсчёт с указанной даты.
// Возвращает ErrAlreadyStarted, если дата начала уже установлена.
func (r *Record) Begin(today time.Time) error {
	if r.HasStarted() {
		return ErrAlreadyStarted
	}
	start := timeutil.FormatDateStr(today)
	r.StartDate = &start
	return nil
}

// StartedOn возвращает дату начала отсчёта.
func (r *Record) StartedOn() (time.Time, error) {
	if !r.HasStarted() {
		return time.Time{}, ErrNotStarted
	}
	d, err := timeutil.ParseDate(*r.StartDate)
	if err != nil {
		return time.Time{}, WrapError("StartedOn", ErrInvalidDate, *r.StartDate, err)
	}
	return d, nil
}

// AddCheckIn добавляет ответ за указанный день в конец журнала.
func (r *Record) AddCheckIn(today time.Time, response string) CheckIn {
	entry := CheckIn{
		Date:     timeutil.FormatDateStr(today),
		Response: response,
	}
	r.Days = append(r.Days, entry)
	return entry
}

// Clone возвращает глубокую копию записи.
func (r *Record) Clone() *Record {
	out := &Record{Days: make([]CheckIn, len(r.Days))}
	copy(out.Days, r.Days)
	if r.StartDate != nil {
		start := *r.StartDate
		out.StartDate = &start
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// DAY COUNTER
// ══════════════════════════════════════════════════════════════════════════════

// DayNumber возвращает номер дня отсчёта: день начала - это день 1.
func DayNumber(start, today time.Time) int {
	return timeutil.DaysBetween(start, today) + 1
}

// CurrentDay возвращает номер текущего дня для записи.
func (r *Record) CurrentDay(today time.Time) (int, error) {
	start, err := r.StartedOn()
	if err != nil {
		return 0, err
	}
	return DayNumber(start, today), nil
}
