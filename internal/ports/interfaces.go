package ports

import (
	"context"

	"telegram-chat-resolver/internal/domain"
)

// Responder определяет интерфейс отправки ответов в чат.
type Responder interface {
	// SendText отправляет простой текст в ответ на сообщение.
	SendText(ctx context.Context, to domain.MessageRef, text string) error
	// SendRich отправляет HTML-размеченный текст.
	SendRich(ctx context.Context, to domain.MessageRef, html string) error
	// React ставит эмодзи-реакцию на сообщение.
	React(ctx context.Context, to domain.MessageRef, emoji string) error
}

// Directory определяет интерфейс справочника публичных чатов.
type Directory interface {
	// LookupChat принимает хендл вида @username.
	LookupChat(ctx context.Context, handle string) (domain.ChatInfo, error)
}

// PageFetcher загружает публичную страницу t.me.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// Resolver превращает хендл в результат. Ошибки не возвращаются,
// любой сбой становится неуспешным Outcome.
type Resolver interface {
	Resolve(ctx context.Context, h domain.Handle) domain.Outcome
}

// Extractor извлекает ссылки на чаты из сообщения.
type Extractor interface {
	Extract(msg *domain.Message) domain.Extraction
}

// DataSource определяет интерфейс для получения исходных данных сообщения.
type DataSource interface {
	// Fetch загружает данные из источника и возвращает их в виде байтового среза.
	Fetch() ([]byte, error)
}

// Parser определяет интерфейс для разбора сообщения.
type Parser interface {
	// Parse преобразует сырые данные в сообщение.
	Parse(data []byte) (*domain.Message, error)
}

// Exporter определяет интерфейс для вывода отчета.
type Exporter interface {
	Export(report domain.Report) error
}
