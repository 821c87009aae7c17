package ports

import (
	"context"
	"time"

	"telegram-chat-resolver/internal/domain"
)

// TelegramClient — MTProto-аккаунт, через который справочник резолвит username.
type TelegramClient interface {
	// ResolveChat принимает "@username" или "username".
	ResolveChat(ctx context.Context, username string) (domain.ChatInfo, error)
	Health(ctx context.Context) error
	ID() string
	Start(ctx context.Context)
	// GetRecoveryTime возвращает момент окончания FLOOD_WAIT или нулевое время.
	GetRecoveryTime() time.Time
}

// Router выдает здоровый аккаунт из пула.
type Router interface {
	GetClient(ctx context.Context) (TelegramClient, error)
	Stop()
	NextRecoveryTime() time.Time
}

// Strategy выбирает аккаунт среди здоровых.
type Strategy interface {
	Next(clients []TelegramClient) (TelegramClient, error)
}
