package domain

// EntityType — тип форматирующей сущности сообщения в терминах Bot API.
type EntityType string

const (
	EntityMention  EntityType = "mention"
	EntityURL      EntityType = "url"
	EntityTextLink EntityType = "text_link"
)

// Message представляет входящее сообщение Telegram.
// JSON-теги совпадают с Bot API, поэтому сообщение можно разобрать
// прямо из выгрузки апдейта.
type Message struct {
	Text            string         `json:"text,omitempty"`
	Entities        []Entity       `json:"entities,omitempty"`
	Caption         string         `json:"caption,omitempty"`
	CaptionEntities []Entity       `json:"caption_entities,omitempty"`
	ForwardOrigin   *ForwardOrigin `json:"forward_origin,omitempty"`
	ReplyTo         *Message       `json:"reply_to_message,omitempty"`
}

// Entity описывает размеченный фрагмент текста.
// Offset и Length измеряются в UTF-16 code units, как в Bot API.
type Entity struct {
	Type   EntityType `json:"type"`
	Offset int        `json:"offset"`
	Length int        `json:"length"`
	URL    string     `json:"url,omitempty"`
}

// ForwardOriginChannel — единственный тип источника пересылки, который нас интересует.
const ForwardOriginChannel = "channel"

// ForwardOrigin описывает источник пересланного сообщения.
type ForwardOrigin struct {
	Type string     `json:"type"`
	Chat OriginChat `json:"chat"`
}

// OriginChat — чат, из которого было переслано сообщение.
type OriginChat struct {
	Title    string `json:"title"`
	Username string `json:"username,omitempty"`
}

// Body возвращает текст и сущности, которые нужно сканировать.
// Для медиа-постов текст лежит в подписи.
func (m *Message) Body() (string, []Entity) {
	if m.Text == "" && m.Caption != "" {
		return m.Caption, m.CaptionEntities
	}
	return m.Text, m.Entities
}

// MessageRef адресует сообщение, на которое отвечает бот.
type MessageRef struct {
	ChatID    int64
	MessageID int
	Private   bool
}
