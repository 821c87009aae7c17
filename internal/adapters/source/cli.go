package source

import (
	"fmt"
	"io"
	"os"

	"telegram-chat-resolver/internal/ports"
)

// StdinPath — путь, при котором сообщение читается со стандартного ввода.
const StdinPath = "-"

// CliSource реализует интерфейс DataSource для чтения сообщения из файла,
// указанного в командной строке, или из stdin.
type CliSource struct {
	filePath string
	stdin    io.Reader
}

// NewCliSource создает новый экземпляр CliSource.
func NewCliSource(filePath string) ports.DataSource {
	return &CliSource{filePath: filePath, stdin: os.Stdin}
}

// Fetch читает файл по указанному пути и возвращает его содержимое.
func (s *CliSource) Fetch() ([]byte, error) {
	if s.filePath == "" {
		return nil, fmt.Errorf("не указан путь к файлу")
	}

	if s.filePath == StdinPath {
		data, err := io.ReadAll(s.stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return NewMemorySource(data).Fetch()
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", s.filePath, err)
	}

	return data, nil
}
