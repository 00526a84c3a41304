// Package presenter formats user-facing bot messages.
package presenter

import (
	"fmt"
	"strings"

	"github.com/habitbot/habit-bot/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// ТЕКСТЫ
// ══════════════════════════════════════════════════════════════════════════════

const (
	// TrackingStarted - ответ на первый /start.
	TrackingStarted = "📅 Отсчёт начат с сегодняшнего дня."

	// TrackingAlreadyStarted - ответ на повторный /start.
	TrackingAlreadyStarted = "📅 Отсчёт уже начат."

	// CheckInSaved - подтверждение сохранённого ответа.
	CheckInSaved = "✅ Ответ сохранён."
)

// DefaultMotivations - список мотивационных фраз по умолчанию.
var DefaultMotivations = []string{
	"Ты сильнее, чем кажется.",
	"Каждый день — новый шанс стать лучше.",
	"Ты не один в этом пути.",
	"Сегодня — идеальный день не сдаваться.",
	"Ты управляешь своей жизнью.",
	"Срыв — это не поражение, а урок.",
}

// Подписи полей в вечернем запросе.
const (
	DefaultRelapseLabel = "Срыв"
	DefaultSleepLabel   = "Сон до 23:30"
)

// Messages - настраиваемые части сообщений.
type Messages struct {
	Motivations  []string
	RelapseLabel string
	SleepLabel   string
}

// DefaultMessages возвращает тексты по умолчанию.
func DefaultMessages() Messages {
	return Messages{
		Motivations:  append([]string(nil), DefaultMotivations...),
		RelapseLabel: DefaultRelapseLabel,
		SleepLabel:   DefaultSleepLabel,
	}
}

// WithDefaults подставляет значения по умолчанию вместо пустых.
func (m Messages) WithDefaults() Messages {
	d := DefaultMessages()
	if len(m.Motivations) == 0 {
		m.Motivations = d.Motivations
	}
	if strings.TrimSpace(m.RelapseLabel) == "" {
		m.RelapseLabel = d.RelapseLabel
	}
	if strings.TrimSpace(m.SleepLabel) == "" {
		m.SleepLabel = d.SleepLabel
	}
	return m
}

// ══════════════════════════════════════════════════════════════════════════════
// ФОРМАТИРОВАНИЕ
// ══════════════════════════════════════════════════════════════════════════════

// FormatStats форматирует ответ на /stats.
func FormatStats(s query.StatsDTO) string {
	return fmt.Sprintf(
		"📊 Всего дней: %d\n✅ Без срывов: %d\n📆 За неделю: %d\n📅 За месяц: %d",
		s.Total, s.NoFails, s.LastWeek, s.ThisMonth,
	)
}

// FormatMotivation форматирует мотивационное сообщение.
func FormatMotivation(text string) string {
	return "💪 " + text
}

// FormatStatsRequest форматирует вечерний запрос ответа за день.
func (m Messages) FormatStatsRequest(day int) string {
	return fmt.Sprintf("📅 День: %d\n🧠 %s: (да/нет)\n🛏 %s: (да/нет)", day, m.RelapseLabel, m.SleepLabel)
}

// Motivation выбирает фразу из списка с помощью intn (как rand.IntN)
// и форматирует её. Пустой список даёт пустую строку.
func (m Messages) Motivation(intn func(n int) int) string {
	if len(m.Motivations) == 0 {
		return ""
	}
	return FormatMotivation(m.Motivations[intn(len(m.Motivations))])
}
