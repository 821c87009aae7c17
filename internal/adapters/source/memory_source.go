package source

import (
	"errors"

	"telegram-chat-resolver/internal/ports"
)

// ErrEmptySource возвращается, если данные не переданы.
var ErrEmptySource = errors.New("данные не установлены")

// MemorySource реализует интерфейс DataSource для данных, уже прочитанных в память
// (stdin CLI, тело запроса).
type MemorySource struct {
	data []byte
}

// NewMemorySource создает новый экземпляр MemorySource.
func NewMemorySource(data []byte) ports.DataSource {
	return &MemorySource{data: data}
}

// Fetch возвращает данные из памяти.
func (s *MemorySource) Fetch() ([]byte, error) {
	if len(s.data) == 0 {
		return nil, ErrEmptySource
	}

	// Возвращаем копию данных, чтобы избежать изменений оригинальных данных
	dataCopy := make([]byte, len(s.data))
	copy(dataCopy, s.data)

	return dataCopy, nil
}
