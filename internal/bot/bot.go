// Package bot принимает апдейты Telegram и направляет сообщения в конвейер резолва.
package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"telegram-chat-resolver/internal/adapters/botapi"
	"telegram-chat-resolver/internal/domain"
	"telegram-chat-resolver/internal/observability"
	"telegram-chat-resolver/internal/ports"
)

const (
	startCommand   = "start"
	helpCommand    = "help"
	resolveCommand = "resolve"
	collectCommand = "collect"
)

const usageText = "Reply to a message with a command:\n" +
	"/resolve - look up every public channel or group the message links to\n" +
	"/collect - list the links without looking them up\n\n" +
	"Private links and bots are reported but never looked up."

// MessageHandler — операции конвейера над одним сообщением.
type MessageHandler interface {
	Resolve(ctx context.Context, to domain.MessageRef, msg *domain.Message) error
	Collect(ctx context.Context, to domain.MessageRef, msg *domain.Message) error
	Acknowledge(ctx context.Context, to domain.MessageRef) error
	Confused(ctx context.Context, to domain.MessageRef) error
}

// UpdatesAPI покрывает long polling из *tgbotapi.BotAPI.
type UpdatesAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Config задает поведение бота.
type Config struct {
	PollingTimeoutSeconds int
	AutoResolvePrivate    bool
	// HandlerTimeout ограничивает один апдейт вместо контекста приложения.
	HandlerTimeout time.Duration
}

// Bot разбирает команды и отвечает текстом ошибки, если обработка сорвалась.
type Bot struct {
	api       UpdatesAPI
	handler   MessageHandler
	responder ports.Responder
	cfg       Config
	logger    *slog.Logger

	wg sync.WaitGroup
}

// NewBot создает бота. api нужен только для режима polling и может быть nil при вебхуке.
func NewBot(api UpdatesAPI, handler MessageHandler, responder ports.Responder, cfg Config, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollingTimeoutSeconds <= 0 {
		cfg.PollingTimeoutSeconds = 60
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 2 * time.Minute
	}
	return &Bot{
		api:       api,
		handler:   handler,
		responder: responder,
		cfg:       cfg,
		logger:    logger.With("component", "bot"),
	}
}

// Start читает апдейты до отмены контекста. Каждый апдейт обрабатывается
// в своей горутине, перед выходом Start дожидается всех.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.PollingTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)
	b.logger.InfoContext(ctx, "Polling started", "timeout", u.Timeout)

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Context cancelled, stopping bot")
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				b.logger.Info("Updates channel closed")
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate обрабатывает один апдейт синхронно. Отмена ctx не обрывает
// начатую обработку: ответ дописывается в пределах HandlerTimeout.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.cfg.HandlerTimeout)
	defer cancel()

	to := botapi.Ref(msg)
	logger := b.logger.With(
		"update_id", update.UpdateID,
		"chat_id", to.ChatID,
		"request_id", uuid.NewString(),
	)

	if err := b.route(ctx, logger, to, msg); err != nil {
		observability.MessagesHandled.WithLabelValues(observability.ResultFailed).Inc()
		logger.ErrorContext(ctx, "Failed to handle message", "error", err)
		if replyErr := b.responder.SendText(ctx, to, err.Error()); replyErr != nil {
			logger.ErrorContext(ctx, "Failed to report error to chat", "error", replyErr)
		}
	}
}

func (b *Bot) route(ctx context.Context, logger *slog.Logger, to domain.MessageRef, msg *tgbotapi.Message) error {
	if !msg.IsCommand() {
		if to.Private && b.cfg.AutoResolvePrivate {
			logger.DebugContext(ctx, "Resolving private message")
			return b.handler.Resolve(ctx, to, botapi.FromTelegram(msg))
		}
		return b.handler.Acknowledge(ctx, to)
	}

	cmd := msg.Command()
	logger.DebugContext(ctx, "Command received", "command", cmd)

	switch cmd {
	case startCommand, helpCommand:
		return b.responder.SendText(ctx, to, usageText)
	case resolveCommand, collectCommand:
		if msg.ReplyToMessage == nil {
			return b.handler.Confused(ctx, to)
		}
		target := botapi.FromTelegram(msg).ReplyTo
		if cmd == resolveCommand {
			return b.handler.Resolve(ctx, to, target)
		}
		return b.handler.Collect(ctx, to, target)
	default:
		return b.handler.Acknowledge(ctx, to)
	}
}
