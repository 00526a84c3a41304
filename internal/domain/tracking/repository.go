package tracking

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Контракт хранилища записи. Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository читает и пишет запись целиком.
type Repository interface {
	// Load читает запись. Отсутствие данных - это пустая запись без ошибки;
	// повреждённые данные и ошибки ввода-вывода возвращаются как ошибка,
	// а решение о подстановке пустой записи принимает вызывающий код.
	Load(ctx context.Context) (*Record, error)

	// Save полностью заменяет сохранённую запись.
	Save(ctx context.Context, r *Record) error
}

// Pinger - необязательная проверка доступности хранилища для /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}
