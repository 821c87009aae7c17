package botapi

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-chat-resolver/internal/domain"
	"telegram-chat-resolver/internal/ports"
)

// Directory разрешает @username через getChat. Ошибки Bot API
// ("Bad Request: chat not found" и т.п.) возвращаются как есть.
type Directory struct {
	api API
}

var _ ports.Directory = (*Directory)(nil)

func NewDirectory(api API) *Directory {
	return &Directory{api: api}
}

func (d *Directory) LookupChat(ctx context.Context, handle string) (domain.ChatInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.ChatInfo{}, err
	}
	if !strings.HasPrefix(handle, "@") {
		handle = "@" + handle
	}

	chat, err := d.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{SuperGroupUsername: handle},
	})
	if err != nil {
		return domain.ChatInfo{}, err
	}

	title := chat.Title
	if title == "" {
		title = strings.TrimSpace(chat.FirstName + " " + chat.LastName)
	}
	return domain.ChatInfo{Title: title, Kind: domain.ParseChatKind(chat.Type)}, nil
}
