package parser

import (
	"encoding/json"
	"errors"
	"fmt"

	"telegram-chat-resolver/internal/domain"
	"telegram-chat-resolver/internal/ports"
)

// ErrNoMessage возвращается, если в апдейте нет ни одного сообщения.
var ErrNoMessage = errors.New("no message in update")

// JsonParser реализует интерфейс Parser для разбора JSON сообщения Bot API.
type JsonParser struct{}

// NewJsonParser создает новый экземпляр JsonParser.
func NewJsonParser() ports.Parser {
	return &JsonParser{}
}

// update — обертка апдейта Bot API. Поддерживаются обычные и канальные посты.
type update struct {
	UpdateID          *int            `json:"update_id"`
	Message           *domain.Message `json:"message"`
	EditedMessage     *domain.Message `json:"edited_message"`
	ChannelPost       *domain.Message `json:"channel_post"`
	EditedChannelPost *domain.Message `json:"edited_channel_post"`
}

// Parse принимает как отдельное сообщение, так и целый апдейт.
func (p *JsonParser) Parse(data []byte) (*domain.Message, error) {
	var u update
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json: %w", err)
	}

	if u.UpdateID != nil {
		for _, msg := range []*domain.Message{u.Message, u.EditedMessage, u.ChannelPost, u.EditedChannelPost} {
			if msg != nil {
				return msg, nil
			}
		}
		return nil, ErrNoMessage
	}

	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json: %w", err)
	}
	return &msg, nil
}
