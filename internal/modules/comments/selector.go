package comments

import (
	"fmt"
	"math/rand"
	"regexp"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// Generators — реестр генераторов подстановок.
// Русский комментарий: Шаблон комментария может содержать токены вида {name},
// {address}, {phone}, {company}. При выборе комментария каждый токен заменяется
// свежим синтетическим значением, каждое вхождение — независимо (без кеша).
type Generators map[string]func() string

// DefaultGenerators возвращает реестр на базе gofakeit.
func DefaultGenerators() Generators {
	faker := gofakeit.New(0)
	return Generators{
		"name":    faker.Name,
		"address": func() string { return faker.Address().Address },
		"phone":   faker.Phone,
		"company": faker.Company,
	}
}

// tokenRe — фиксированный синтаксис токена-подстановки.
var tokenRe = regexp.MustCompile(`\{([a-z]+)\}`)

// Selector выбирает случайный комментарий из пула.
// Русский комментарий: Состояние (пулы и последний выбранный шаблон) закрыто
// мьютексом, который держится только на время выбора — сетевые вызовы
// происходят снаружи. Защита от повтора сравнивает шаблоны до подстановки:
// два разных расширения одного шаблона всё равно считаются повтором.
type Selector struct {
	mu    sync.Mutex
	text  []string
	photo []string
	last  string
	gens  Generators
	rng   *rand.Rand
}

// maxRedraws — защитный предел перебора при совпадении с прошлым шаблоном.
// При размере пула больше единицы цикл завершается почти сразу, предел нужен
// только против патологий.
const maxRedraws = 100

// NewSelector создаёт селектор с начальным содержимым пулов.
func NewSelector(text, photo []string, gens Generators) *Selector {
	if gens == nil {
		gens = DefaultGenerators()
	}
	s := &Selector{
		text:  append([]string(nil), text...),
		photo: append([]string(nil), photo...),
		gens:  gens,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	return s
}

// Pick выбирает комментарий: photo == true — из фото-пула, иначе из текстового.
// Возвращает готовый текст с раскрытыми токенами; пустая строка — пул пуст.
func (s *Selector) Pick(photo bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool := s.text
	if photo {
		pool = s.photo
	}
	if len(pool) == 0 {
		return ""
	}

	template := pool[s.rng.Intn(len(pool))]
	if len(pool) > 1 {
		for i := 0; template == s.last && i < maxRedraws; i++ {
			template = pool[s.rng.Intn(len(pool))]
		}
	}
	s.last = template

	return s.expand(template)
}

// expand раскрывает токены-подстановки; каждое вхождение получает своё значение.
// Неизвестные токены остаются как есть.
func (s *Selector) expand(template string) string {
	return tokenRe.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		gen, ok := s.gens[name]
		if !ok {
			return token
		}
		return gen()
	})
}

// Templates возвращает копию пула в текущем порядке.
func (s *Selector) Templates(photo bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if photo {
		return append([]string(nil), s.photo...)
	}
	return append([]string(nil), s.text...)
}

// AddTemplate добавляет шаблон в конец пула и возвращает его 1-based номер.
func (s *Selector) AddTemplate(photo bool, template string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if photo {
		s.photo = append(s.photo, template)
		return len(s.photo)
	}
	s.text = append(s.text, template)
	return len(s.text)
}

// DeleteTemplate удаляет шаблон по 1-based номеру и возвращает его текст.
// Номер валидируется против текущей длины пула.
func (s *Selector) DeleteTemplate(photo bool, position int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool := &s.text
	if photo {
		pool = &s.photo
	}
	if position < 1 || position > len(*pool) {
		return "", fmt.Errorf("position %d out of range, pool has %d entries", position, len(*pool))
	}

	removed := (*pool)[position-1]
	*pool = append((*pool)[:position-1], (*pool)[position:]...)
	return removed, nil
}
