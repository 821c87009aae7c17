package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-chat-resolver/internal/domain"
)

func resolvedChannel(ch tg.ChatClass) *tg.ContactsResolvedPeer {
	return &tg.ContactsResolvedPeer{
		Peer:  &tg.PeerChannel{ChannelID: ch.GetID()},
		Chats: []tg.ChatClass{&tg.Channel{ID: 999, Title: "Unrelated", Broadcast: true}, ch},
	}
}

func TestClient_ResolveChat(t *testing.T) {
	tests := []struct {
		name    string
		res     *tg.ContactsResolvedPeer
		apiErr  error
		want    domain.ChatInfo
		wantErr error
	}{
		{
			name: "BroadcastChannel",
			res:  resolvedChannel(&tg.Channel{ID: 1, Title: "News", Broadcast: true}),
			want: domain.ChatInfo{Title: "News", Kind: domain.KindChannel},
		},
		{
			name: "Megagroup",
			res:  resolvedChannel(&tg.Channel{ID: 2, Title: "Go Chat", Megagroup: true}),
			want: domain.ChatInfo{Title: "Go Chat", Kind: domain.KindSupergroup},
		},
		{
			name: "Gigagroup",
			res:  resolvedChannel(&tg.Channel{ID: 3, Title: "Huge", Gigagroup: true}),
			want: domain.ChatInfo{Title: "Huge", Kind: domain.KindSupergroup},
		},
		{
			name:    "ForbiddenChannel",
			res:     resolvedChannel(&tg.ChannelForbidden{ID: 4, Title: "Closed"}),
			wantErr: ErrChatPrivate,
		},
		{
			name: "BasicGroup",
			res: &tg.ContactsResolvedPeer{
				Peer:  &tg.PeerChat{ChatID: 5},
				Chats: []tg.ChatClass{&tg.Chat{ID: 5, Title: "Old Group"}},
			},
			want: domain.ChatInfo{Title: "Old Group", Kind: domain.KindGroup},
		},
		{
			name: "ForbiddenGroup",
			res: &tg.ContactsResolvedPeer{
				Peer:  &tg.PeerChat{ChatID: 6},
				Chats: []tg.ChatClass{&tg.ChatForbidden{ID: 6, Title: "Kicked"}},
			},
			wantErr: ErrChatPrivate,
		},
		{
			name: "User",
			res: &tg.ContactsResolvedPeer{
				Peer:  &tg.PeerUser{UserID: 7},
				Users: []tg.UserClass{&tg.User{ID: 7, FirstName: "Jane", LastName: "Doe"}},
			},
			want: domain.ChatInfo{Title: "Jane Doe", Kind: domain.KindOther},
		},
		{
			name:    "PeerMissingFromResponse",
			res:     &tg.ContactsResolvedPeer{Peer: &tg.PeerChannel{ChannelID: 8}},
			wantErr: ErrChatNotFound,
		},
		{
			name:    "UsernameNotOccupied",
			apiErr:  tgerr.New(400, "USERNAME_NOT_OCCUPIED"),
			wantErr: ErrChatNotFound,
		},
		{
			name:    "UsernameInvalid",
			apiErr:  tgerr.New(400, "USERNAME_INVALID"),
			wantErr: ErrChatNotFound,
		},
		{
			name:    "ChannelPrivate",
			apiErr:  tgerr.New(400, "CHANNEL_PRIVATE"),
			wantErr: ErrChatPrivate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, api, _ := startedClient(t)
			api.On("ContactsResolveUsername", "news_channel").Return(tt.res, tt.apiErr)

			got, err := c.ResolveChat(context.Background(), "@news_channel")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_ResolveChatErrors(t *testing.T) {
	t.Run("OtherErrorPassesThrough", func(t *testing.T) {
		c, api, _ := startedClient(t)
		rpcErr := tgerr.New(500, "INTERNAL")
		api.On("ContactsResolveUsername", "news_channel").Return(nil, rpcErr)

		_, err := c.ResolveChat(context.Background(), "news_channel")
		require.ErrorIs(t, err, rpcErr)
		assert.False(t, errors.Is(err, ErrChatNotFound))
	})

	t.Run("FloodWaitBlocksNextLookup", func(t *testing.T) {
		c, api, clock := startedClient(t)
		api.On("ContactsResolveUsername", "news_channel").Return(nil, tgerr.New(420, "FLOOD_WAIT_42")).Once()

		_, err := c.ResolveChat(context.Background(), "news_channel")
		require.Error(t, err)
		assert.Equal(t, clock.Now().Add(42*time.Second), c.GetRecoveryTime())

		_, err = c.ResolveChat(context.Background(), "other_channel")
		require.ErrorIs(t, err, ErrFloodWaitActive)
		api.AssertNumberOfCalls(t, "ContactsResolveUsername", 1)
	})

	t.Run("NotStarted", func(t *testing.T) {
		c, _, _, _ := newTestClient(true)
		_, err := c.ResolveChat(context.Background(), "news_channel")
		require.ErrorIs(t, err, ErrClientNotStarted)
	})
}
