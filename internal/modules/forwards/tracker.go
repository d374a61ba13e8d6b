package forwards

import (
	"sync"
	"time"
)

// Decision — результат классификации пересланного сообщения.
type Decision int

const (
	// DecisionProcess — это первое сообщение логического поста, нужны реакция и комментарий.
	DecisionProcess Decision = iota
	// DecisionSkip — продолжение уже обработанного альбома, молча пропускаем.
	DecisionSkip
)

func (d Decision) String() string {
	if d == DecisionProcess {
		return "process"
	}
	return "skip"
}

// albumRecord — состояние одного альбома (media group).
type albumRecord struct {
	withCaption bool
	updatedAt   time.Time
}

// Tracker дедуплицирует сообщения альбомов.
// Русский комментарий: Альбом приходит от Telegram как N отдельных сообщений с
// общим media_group_id в течение короткого всплеска. Бот должен отреагировать
// ровно один раз. Правило простое: первое сообщение свежего media_group_id —
// авторитетное, все последующие — продолжения. Подпись, пришедшая позже,
// повышает классификацию записи, но повторной обработки не вызывает.
// Записи старше retention вычищаются при каждом Admit и планировщиком —
// это ограничивает память и позволяет повторно использованному id (маловероятно,
// но возможно) начать с чистого листа.
type Tracker struct {
	mu        sync.Mutex
	records   map[string]*albumRecord
	retention time.Duration
	now       func() time.Time // подменяется в тестах
}

// NewTracker создаёт трекер с заданным временем жизни записей.
func NewTracker(retention time.Duration) *Tracker {
	return &Tracker{
		records:   make(map[string]*albumRecord),
		retention: retention,
		now:       time.Now,
	}
}

// Admit решает судьбу пересланного сообщения.
// Пустой groupID означает одиночное сообщение — оно всегда обрабатывается.
func (t *Tracker) Admit(groupID, caption string) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.sweepLocked(now)

	if groupID == "" {
		return DecisionProcess
	}

	rec, ok := t.records[groupID]
	if !ok {
		t.records[groupID] = &albumRecord{
			withCaption: caption != "",
			updatedAt:   now,
		}
		return DecisionProcess
	}

	rec.updatedAt = now
	if caption != "" {
		// Подпись обычно приходит ровно на одном элементе альбома, не всегда
		// на первом. Запоминаем её наличие, но пост уже обработан.
		rec.withCaption = true
	}
	return DecisionSkip
}

// Sweep удаляет устаревшие записи. Вызывается планировщиком; Admit делает
// то же самое лениво.
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sweepLocked(t.now())
}

// Len возвращает текущее число записей (для логов планировщика).
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

func (t *Tracker) sweepLocked(now time.Time) int {
	removed := 0
	for id, rec := range t.records {
		if now.Sub(rec.updatedAt) > t.retention {
			delete(t.records, id)
			removed++
		}
	}
	return removed
}
