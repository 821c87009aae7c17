package botapi

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-chat-resolver/internal/domain"
)

// FromTelegram переводит сообщение библиотеки в доменное.
// Пересылка учитывается только из каналов, ответ разворачивается на один уровень.
func FromTelegram(m *tgbotapi.Message) *domain.Message {
	if m == nil {
		return nil
	}

	msg := &domain.Message{
		Text:            m.Text,
		Entities:        entities(m.Entities),
		Caption:         m.Caption,
		CaptionEntities: entities(m.CaptionEntities),
	}
	if fwd := m.ForwardFromChat; fwd != nil && fwd.Type == domain.ForwardOriginChannel {
		msg.ForwardOrigin = &domain.ForwardOrigin{
			Type: domain.ForwardOriginChannel,
			Chat: domain.OriginChat{Title: fwd.Title, Username: fwd.UserName},
		}
	}
	if m.ReplyToMessage != nil {
		inner := *m.ReplyToMessage
		inner.ReplyToMessage = nil
		msg.ReplyTo = FromTelegram(&inner)
	}
	return msg
}

// Ref возвращает адрес сообщения для ответа.
func Ref(m *tgbotapi.Message) domain.MessageRef {
	ref := domain.MessageRef{MessageID: m.MessageID}
	if m.Chat != nil {
		ref.ChatID = m.Chat.ID
		ref.Private = m.Chat.IsPrivate()
	}
	return ref
}

func entities(in []tgbotapi.MessageEntity) []domain.Entity {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Entity, 0, len(in))
	for _, e := range in {
		out = append(out, domain.Entity{
			Type:   domain.EntityType(e.Type),
			Offset: e.Offset,
			Length: e.Length,
			URL:    e.URL,
		})
	}
	return out
}
