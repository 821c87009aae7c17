// Package mtproto реализует справочник чатов поверх пула MTProto-аккаунтов.
package mtproto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"telegram-chat-resolver/internal/domain"
	"telegram-chat-resolver/internal/ports"
)

// ErrDirectoryUnavailable возвращается, когда за отведенное время не нашлось свободного аккаунта.
var ErrDirectoryUnavailable = errors.New("directory is temporarily unavailable")

// Config задает таймауты справочника.
type Config struct {
	// OperationTimeout ограничивает один вызов API и ожидание свободного аккаунта.
	OperationTimeout time.Duration
	// ClientRetryPause — пауза между попытками получить аккаунт у роутера.
	ClientRetryPause time.Duration
}

// Option настраивает Directory.
type Option func(*Directory)

func WithLogger(l *slog.Logger) Option {
	return func(d *Directory) {
		if l != nil {
			d.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Directory) {
		if now != nil {
			d.now = now
		}
	}
}

// Directory разрешает username через contacts.resolveUsername.
type Directory struct {
	router ports.Router
	cfg    Config
	log    *slog.Logger
	now    func() time.Time
}

var _ ports.Directory = (*Directory)(nil)

// NewDirectory создает справочник. Нулевые таймауты заменяются значениями по умолчанию.
func NewDirectory(router ports.Router, cfg Config, opts ...Option) *Directory {
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 10 * time.Second
	}
	if cfg.ClientRetryPause <= 0 {
		cfg.ClientRetryPause = time.Second
	}
	d := &Directory{
		router: router,
		cfg:    cfg,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// LookupChat принимает "@username" или "username". Ошибки аккаунта
// (telegram.ErrChatNotFound, telegram.ErrChatPrivate и прочие) возвращаются как есть.
func (d *Directory) LookupChat(ctx context.Context, handle string) (domain.ChatInfo, error) {
	username := strings.TrimPrefix(handle, "@")
	deadline := d.now().Add(d.cfg.OperationTimeout)

	for {
		if err := ctx.Err(); err != nil {
			return domain.ChatInfo{}, err
		}

		client, err := d.router.GetClient(ctx)
		if err != nil {
			if !d.now().Add(d.cfg.ClientRetryPause).Before(deadline) {
				return domain.ChatInfo{}, d.unavailable(err)
			}
			d.log.DebugContext(ctx, "No MTProto account available, will retry", "username", username, "error", err, "pause", d.cfg.ClientRetryPause)
			select {
			case <-time.After(d.cfg.ClientRetryPause):
				continue
			case <-ctx.Done():
				return domain.ChatInfo{}, fmt.Errorf("waiting for mtproto client: %w", ctx.Err())
			}
		}

		opCtx, cancel := context.WithTimeout(ctx, d.cfg.OperationTimeout)
		info, err := client.ResolveChat(opCtx, username)
		cancel()

		d.log.DebugContext(ctx, "MTProto lookup finished", "username", username, "client_id", client.ID(), "error", err)
		return info, err
	}
}

func (d *Directory) unavailable(cause error) error {
	next := d.router.NextRecoveryTime()
	if next.IsZero() {
		return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, cause)
	}
	wait := next.Sub(d.now()).Round(time.Second)
	if wait < time.Second {
		wait = time.Second
	}
	return fmt.Errorf("%w, retry in %s", ErrDirectoryUnavailable, wait)
}
