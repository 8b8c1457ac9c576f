package events

import (
	"fmt"
	"sync"
	"time"
)

// Ring хранит фиксированное число последних событий, новые записи в начале.
// Старые записи вытесняются при переполнении. Безопасен для конкурентного доступа.
type Ring struct {
	mu       sync.Mutex
	capacity int
	entries  []string
}

// NewRing создает буфер событий на capacity записей
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{
		capacity: capacity,
		entries:  make([]string, 0, capacity),
	}
}

// Push добавляет событие с временной меткой в начало списка
func (r *Ring) Push(message string) {
	r.PushRaw(fmt.Sprintf("%s %s", time.Now().UTC().Format("15:04:05"), message))
}

// PushRaw добавляет уже отформатированную запись в начало списка
func (r *Ring) PushRaw(entry string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append([]string{entry}, r.entries...)
	if len(r.entries) > r.capacity {
		r.entries = r.entries[:r.capacity]
	}
}

// Items возвращает копию списка событий, новые первыми
func (r *Ring) Items() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len возвращает текущее число записей
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
