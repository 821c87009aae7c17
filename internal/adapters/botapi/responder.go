package botapi

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-chat-resolver/internal/domain"
	"telegram-chat-resolver/internal/ports"
)

const setMessageReaction = "setMessageReaction"

// reactionType — ReactionTypeEmoji из Bot API.
type reactionType struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

// Responder отправляет ответы реплаем на исходное сообщение.
type Responder struct {
	api API
	log *slog.Logger
}

var _ ports.Responder = (*Responder)(nil)

func NewResponder(api API, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{api: api, log: logger.With("component", "botapi_responder")}
}

func (r *Responder) SendText(ctx context.Context, to domain.MessageRef, text string) error {
	return r.send(ctx, to, text, "")
}

// SendRich отправляет текст с parse_mode=HTML.
func (r *Responder) SendRich(ctx context.Context, to domain.MessageRef, html string) error {
	return r.send(ctx, to, html, tgbotapi.ModeHTML)
}

// React ставит одну эмодзи-реакцию, заменяя предыдущие реакции бота.
func (r *Responder) React(ctx context.Context, to domain.MessageRef, emoji string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := tgbotapi.Params{}
	params["chat_id"] = strconv.FormatInt(to.ChatID, 10)
	params.AddNonZero("message_id", to.MessageID)
	if err := params.AddInterface("reaction", []reactionType{{Type: "emoji", Emoji: emoji}}); err != nil {
		return fmt.Errorf("failed to encode reaction: %w", err)
	}

	if _, err := r.api.MakeRequest(setMessageReaction, params); err != nil {
		return err
	}
	r.log.DebugContext(ctx, "Reaction set", "chat_id", to.ChatID, "message_id", to.MessageID, "emoji", emoji)
	return nil
}

func (r *Responder) send(ctx context.Context, to domain.MessageRef, text, parseMode string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(to.ChatID, text)
	msg.ReplyToMessageID = to.MessageID
	msg.ParseMode = parseMode
	msg.DisableWebPagePreview = true

	if _, err := r.api.Send(msg); err != nil {
		return err
	}
	r.log.DebugContext(ctx, "Reply sent", "chat_id", to.ChatID, "reply_to", to.MessageID, "parse_mode", parseMode)
	return nil
}
