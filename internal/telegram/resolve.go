package telegram

import (
	"context"
	"errors"
	"strings"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"telegram-chat-resolver/internal/domain"
)

var (
	// ErrChatNotFound возвращается, когда username никому не принадлежит.
	ErrChatNotFound = errors.New("chat not found")
	// ErrChatPrivate возвращается для чатов, закрытых для аккаунта.
	ErrChatPrivate = errors.New("chat is private")
)

// ResolveChat резолвит username через contacts.resolveUsername и определяет тип пира.
func (c *Client) ResolveChat(ctx context.Context, username string) (domain.ChatInfo, error) {
	username = strings.TrimPrefix(username, "@")

	var res *tg.ContactsResolvedPeer
	err := c.call(ctx, func(ctx context.Context, api telegramAPI) error {
		var err error
		res, err = api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
		return err
	})

	switch {
	case tgerr.Is(err, tg.ErrUsernameNotOccupied, tg.ErrUsernameInvalid):
		return domain.ChatInfo{}, ErrChatNotFound
	case tgerr.Is(err, tg.ErrChannelPrivate):
		return domain.ChatInfo{}, ErrChatPrivate
	case err != nil:
		c.log.DebugContext(ctx, "contacts.resolveUsername failed", "client_id", c.id, "username", username, "error", err)
		return domain.ChatInfo{}, err
	case res == nil:
		return domain.ChatInfo{}, ErrChatNotFound
	}
	return peerInfo(res)
}

// peerInfo находит резолвнутый пир среди чатов и пользователей ответа.
func peerInfo(res *tg.ContactsResolvedPeer) (domain.ChatInfo, error) {
	var id int64
	switch peer := res.Peer.(type) {
	case *tg.PeerChannel:
		id = peer.ChannelID
	case *tg.PeerChat:
		id = peer.ChatID
	case *tg.PeerUser:
		for _, u := range res.Users {
			if user, ok := u.(*tg.User); ok && user.ID == peer.UserID {
				name := strings.TrimSpace(user.FirstName + " " + user.LastName)
				return domain.ChatInfo{Title: name, Kind: domain.KindOther}, nil
			}
		}
		return domain.ChatInfo{}, ErrChatNotFound
	default:
		return domain.ChatInfo{}, ErrChatNotFound
	}

	for _, chat := range res.Chats {
		if chat.GetID() != id {
			continue
		}
		switch ch := chat.(type) {
		case *tg.Channel:
			return domain.ChatInfo{Title: ch.Title, Kind: channelKind(ch)}, nil
		case *tg.Chat:
			return domain.ChatInfo{Title: ch.Title, Kind: domain.KindGroup}, nil
		case *tg.ChannelForbidden, *tg.ChatForbidden:
			return domain.ChatInfo{}, ErrChatPrivate
		}
	}
	return domain.ChatInfo{}, ErrChatNotFound
}

func channelKind(ch *tg.Channel) domain.ChatKind {
	switch {
	case ch.Broadcast:
		return domain.KindChannel
	case ch.Megagroup, ch.Gigagroup:
		return domain.KindSupergroup
	default:
		return domain.KindOther
	}
}
