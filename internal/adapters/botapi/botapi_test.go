package botapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-chat-resolver/internal/domain"
)

type fakeAPI struct {
	sent     []tgbotapi.MessageConfig
	requests []string
	params   []tgbotapi.Params
	chats    map[string]tgbotapi.Chat
	err      error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, endpoint)
	f.params = append(f.params, params)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error) {
	chat, ok := f.chats[config.SuperGroupUsername]
	if !ok {
		return tgbotapi.Chat{}, &tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}
	}
	return chat, nil
}

var ref = domain.MessageRef{ChatID: -1001, MessageID: 77}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResponder_SendText(t *testing.T) {
	api := &fakeAPI{}
	r := NewResponder(api, discard())

	require.NoError(t, r.SendText(context.Background(), ref, "@x is private"))
	require.Len(t, api.sent, 1)

	msg := api.sent[0]
	assert.Equal(t, int64(-1001), msg.ChatID)
	assert.Equal(t, 77, msg.ReplyToMessageID)
	assert.Equal(t, "@x is private", msg.Text)
	assert.Empty(t, msg.ParseMode)
	assert.True(t, msg.DisableWebPagePreview)
}

func TestResponder_SendRich(t *testing.T) {
	api := &fakeAPI{}
	r := NewResponder(api, discard())

	require.NoError(t, r.SendRich(context.Background(), ref, "@news News &amp; more"))
	require.Len(t, api.sent, 1)
	assert.Equal(t, tgbotapi.ModeHTML, api.sent[0].ParseMode)
}

func TestResponder_React(t *testing.T) {
	api := &fakeAPI{}
	r := NewResponder(api, discard())

	require.NoError(t, r.React(context.Background(), ref, "🤨"))
	require.Equal(t, []string{"setMessageReaction"}, api.requests)

	params := api.params[0]
	assert.Equal(t, "-1001", params["chat_id"])
	assert.Equal(t, "77", params["message_id"])
	assert.JSONEq(t, `[{"type":"emoji","emoji":"🤨"}]`, params["reaction"])
}

func TestResponder_Errors(t *testing.T) {
	apiErr := &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was kicked from the supergroup chat"}
	r := NewResponder(&fakeAPI{err: apiErr}, discard())

	err := r.SendText(context.Background(), ref, "text")
	require.Error(t, err)
	assert.Equal(t, "Forbidden: bot was kicked from the supergroup chat", err.Error())

	err = r.React(context.Background(), ref, "🤔")
	var tgErr *tgbotapi.Error
	require.True(t, errors.As(err, &tgErr))
	assert.Equal(t, 403, tgErr.Code)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewResponder(&fakeAPI{}, discard()).SendRich(ctx, ref, "x"), context.Canceled)
}

func TestDirectory_LookupChat(t *testing.T) {
	api := &fakeAPI{chats: map[string]tgbotapi.Chat{
		"@news_channel": {Type: "channel", Title: "News"},
		"@talks":        {Type: "supergroup", Title: "Talks"},
		"@someone":      {Type: "private", FirstName: "Ivan", LastName: "Petrov"},
	}}
	d := NewDirectory(api)
	ctx := context.Background()

	info, err := d.LookupChat(ctx, "@news_channel")
	require.NoError(t, err)
	assert.Equal(t, domain.ChatInfo{Title: "News", Kind: domain.KindChannel}, info)

	info, err = d.LookupChat(ctx, "talks")
	require.NoError(t, err)
	assert.Equal(t, domain.KindSupergroup, info.Kind)

	info, err = d.LookupChat(ctx, "@someone")
	require.NoError(t, err)
	assert.Equal(t, domain.ChatInfo{Title: "Ivan Petrov", Kind: domain.KindOther}, info)

	_, err = d.LookupChat(ctx, "@missing_chat")
	assert.EqualError(t, err, "Bad Request: chat not found")
}

func TestFromTelegram(t *testing.T) {
	in := &tgbotapi.Message{
		MessageID: 5,
		Chat:      &tgbotapi.Chat{ID: 42, Type: "private"},
		Caption:   "see @news_channel",
		CaptionEntities: []tgbotapi.MessageEntity{
			{Type: "mention", Offset: 4, Length: 13},
		},
		ForwardFromChat: &tgbotapi.Chat{Type: "channel", Title: "Secret Club"},
		ReplyToMessage: &tgbotapi.Message{
			Text:     "https://t.me/abcde",
			Entities: []tgbotapi.MessageEntity{{Type: "url", Offset: 0, Length: 18}},
			ReplyToMessage: &tgbotapi.Message{
				Text: "too deep",
			},
		},
	}

	msg := FromTelegram(in)
	require.NotNil(t, msg)
	assert.Equal(t, "see @news_channel", msg.Caption)
	assert.Equal(t, []domain.Entity{{Type: domain.EntityMention, Offset: 4, Length: 13}}, msg.CaptionEntities)
	assert.Nil(t, msg.Entities)

	require.NotNil(t, msg.ForwardOrigin)
	assert.Equal(t, domain.OriginChat{Title: "Secret Club"}, msg.ForwardOrigin.Chat)

	require.NotNil(t, msg.ReplyTo)
	assert.Equal(t, "https://t.me/abcde", msg.ReplyTo.Text)
	assert.Nil(t, msg.ReplyTo.ReplyTo)
	assert.NotNil(t, in.ReplyToMessage.ReplyToMessage, "input is not mutated")

	assert.Equal(t, domain.MessageRef{ChatID: 42, MessageID: 5, Private: true}, Ref(in))
}

func TestFromTelegram_IgnoresNonChannelForward(t *testing.T) {
	msg := FromTelegram(&tgbotapi.Message{
		Text:            "hi",
		ForwardFromChat: &tgbotapi.Chat{Type: "supergroup", Title: "Group", UserName: "group_chat"},
	})
	assert.Nil(t, msg.ForwardOrigin)
	assert.Nil(t, FromTelegram(nil))
}
