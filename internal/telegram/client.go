// Package telegram содержит MTProto-аккаунт справочника чатов поверх gotd.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"golang.org/x/term"

	trm "telegram-chat-resolver/internal/pkg/term"
)

var (
	// ErrClientNotStarted возвращается при вызове API до Start.
	ErrClientNotStarted = errors.New("mtproto client is not started")
	// ErrClientStopped возвращается после завершения фонового соединения.
	ErrClientStopped = errors.New("mtproto client is stopped")
	// ErrInteractiveAuthUnavailable — сессии нет, а спросить код негде.
	ErrInteractiveAuthUnavailable = errors.New("session is not authorized and stdin is not a terminal")

	errConnectionClosed = errors.New("connection closed")
)

// telegramAPI — методы tg.Client, которыми пользуется аккаунт.
type telegramAPI interface {
	ContactsResolveUsername(ctx context.Context, req *tg.ContactsResolveUsernameRequest) (*tg.ContactsResolvedPeer, error)
	HelpGetConfig(ctx context.Context) (*tg.Config, error)
}

// telegramAuth — *auth.Client: проверка сессии и шаги входа.
type telegramAuth interface {
	auth.FlowClient
	Status(ctx context.Context) (*auth.Status, error)
}

// connection — соединение gotd. Run держит его открытым, пока работает f.
type connection interface {
	Run(ctx context.Context, f func(ctx context.Context) error) error
	API() telegramAPI
	Auth() telegramAuth
}

type gotdConnection struct {
	*telegram.Client
}

func (g gotdConnection) API() telegramAPI   { return g.Client.API() }
func (g gotdConnection) Auth() telegramAuth { return g.Client.Auth() }

type loginFlow interface {
	Run(ctx context.Context, client auth.FlowClient) error
}

// Config описывает один аккаунт.
type Config struct {
	APIID       int
	APIHash     string
	PhoneNumber string
	SessionPath string
}

// ClientOption настраивает Client.
type ClientOption func(*Client)

// WithLogger устанавливает логгер для клиента.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// Client — один MTProto-аккаунт справочника. Безопасен для конкурентного использования.
type Client struct {
	id      string
	conn    connection
	login   loginFlow
	canAsk  func() bool
	gate    *floodGate
	log     *slog.Logger
	started sync.Once

	mu      sync.RWMutex
	running bool
	exitErr error
}

// NewClient создает аккаунт с файловой сессией и входом через терминал.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	tgClient := telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionPath},
	})
	c := newClient(
		gotdConnection{Client: tgClient},
		auth.NewFlow(trm.NewTerminal(cfg.PhoneNumber), auth.SendCodeOptions{}),
		time.Now,
	)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newClient(conn connection, login loginFlow, now func() time.Time) *Client {
	return &Client{
		id:     uuid.NewString(),
		conn:   conn,
		login:  login,
		canAsk: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		gate:   &floodGate{now: now},
		log:    slog.Default(),
	}
}

// ID возвращает уникальный идентификатор клиента.
func (c *Client) ID() string {
	return c.id
}

// Start открывает соединение в фоне. Повторные вызовы ничего не делают.
func (c *Client) Start(ctx context.Context) {
	c.started.Do(func() {
		c.mu.Lock()
		c.running = true
		c.mu.Unlock()
		go c.serve(ctx)
	})
}

func (c *Client) serve(ctx context.Context) {
	log := c.log.With("client_id", c.id)
	log.InfoContext(ctx, "MTProto connection starting")

	err := c.conn.Run(ctx, func(ctx context.Context) error {
		if err := c.authorize(ctx); err != nil {
			return err
		}
		log.InfoContext(ctx, "MTProto client authorized")
		<-ctx.Done()
		return ctx.Err()
	})

	c.mu.Lock()
	c.running = false
	c.exitErr = err
	if err == nil {
		c.exitErr = errConnectionClosed
	}
	c.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		log.ErrorContext(ctx, "MTProto connection stopped with error", "error", err)
		return
	}
	log.InfoContext(ctx, "MTProto connection stopped")
}

// authorize проходит интерактивный вход, если сохраненная сессия не авторизована.
func (c *Client) authorize(ctx context.Context) error {
	status, err := c.conn.Auth().Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to check auth status: %w", err)
	}
	if status.Authorized {
		return nil
	}

	if !c.canAsk() {
		return ErrInteractiveAuthUnavailable
	}
	c.log.WarnContext(ctx, "Session is not authorized, starting interactive login", "client_id", c.id)
	if err := c.login.Run(ctx, c.conn.Auth()); err != nil {
		return fmt.Errorf("interactive auth failed: %w", err)
	}
	return nil
}

// Health не ходит в сеть во время FLOOD_WAIT, иначе пингует help.getConfig.
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, func(ctx context.Context, api telegramAPI) error {
		_, err := api.HelpGetConfig(ctx)
		return err
	})
}

func (c *Client) GetRecoveryTime() time.Time {
	return c.gate.recovery()
}

// call выполняет f поверх открытого соединения и следит за FLOOD_WAIT.
func (c *Client) call(ctx context.Context, f func(ctx context.Context, api telegramAPI) error) error {
	if err := c.state(); err != nil {
		return err
	}
	if err := c.gate.check(); err != nil {
		return err
	}

	err := f(ctx, c.conn.API())
	if until, ok := c.gate.trip(err); ok {
		c.log.WarnContext(ctx, "Client got FLOOD_WAIT", "client_id", c.id, "until", until)
	}
	return err
}

func (c *Client) state() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch {
	case c.running:
		return nil
	case c.exitErr != nil:
		return fmt.Errorf("%w: %w", ErrClientStopped, c.exitErr)
	default:
		return ErrClientNotStarted
	}
}
