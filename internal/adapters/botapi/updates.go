package botapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-chat-resolver/internal/domain"
)

// forwardOrigin — поле forward_origin из Bot API 7.0. tgbotapi v5 его не знает
// и видит только устаревший forward_from_chat.
type forwardOrigin struct {
	Type string         `json:"type"`
	Chat *tgbotapi.Chat `json:"chat"`
}

type rawMessage struct {
	ForwardOrigin  *forwardOrigin `json:"forward_origin"`
	ReplyToMessage *rawMessage    `json:"reply_to_message"`
}

type rawUpdate struct {
	Message *rawMessage `json:"message"`
}

// DecodeUpdate разбирает апдейт и переносит канал из forward_origin в
// ForwardFromChat, если сервер не прислал устаревшее поле.
func DecodeUpdate(data []byte) (tgbotapi.Update, error) {
	var update tgbotapi.Update
	if err := json.Unmarshal(data, &update); err != nil {
		return tgbotapi.Update{}, err
	}

	var raw rawUpdate
	if err := json.Unmarshal(data, &raw); err != nil {
		return tgbotapi.Update{}, err
	}
	applyForwardOrigin(update.Message, raw.Message)
	return update, nil
}

func applyForwardOrigin(m *tgbotapi.Message, raw *rawMessage) {
	for m != nil && raw != nil {
		origin := raw.ForwardOrigin
		if m.ForwardFromChat == nil && origin != nil && origin.Type == domain.ForwardOriginChannel {
			m.ForwardFromChat = origin.Chat
		}
		m, raw = m.ReplyToMessage, raw.ReplyToMessage
	}
}

// Poller — long polling через getUpdates с разбором апдейтов через DecodeUpdate.
// Реализует ту же пару методов, что и *tgbotapi.BotAPI.
type Poller struct {
	api    API
	logger *slog.Logger
	retry  time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewPoller создает поллер поверх клиента Bot API.
func NewPoller(api API, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		api:    api,
		logger: logger.With("component", "poller"),
		retry:  3 * time.Second,
		stop:   make(chan struct{}),
	}
}

// GetUpdatesChan запускает опрос. Канал закрывается после StopReceivingUpdates.
func (p *Poller) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update, 100)

	go func() {
		defer close(ch)
		for {
			select {
			case <-p.stop:
				return
			default:
			}

			updates, err := p.getUpdates(config)
			if err != nil {
				p.logger.Error("Failed to get updates, retrying", "error", err, "pause", p.retry)
				select {
				case <-p.stop:
					return
				case <-time.After(p.retry):
				}
				continue
			}

			for _, update := range updates {
				if update.UpdateID < config.Offset {
					continue
				}
				config.Offset = update.UpdateID + 1
				select {
				case ch <- update:
				case <-p.stop:
					return
				}
			}
		}
	}()

	return ch
}

// StopReceivingUpdates останавливает опрос. Повторный вызов безопасен.
func (p *Poller) StopReceivingUpdates() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *Poller) getUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	params := make(tgbotapi.Params)
	params.AddNonZero("offset", config.Offset)
	params.AddNonZero("limit", config.Limit)
	params.AddNonZero("timeout", config.Timeout)
	if len(config.AllowedUpdates) > 0 {
		if err := params.AddInterface("allowed_updates", config.AllowedUpdates); err != nil {
			return nil, fmt.Errorf("failed to encode allowed_updates: %w", err)
		}
	}

	resp, err := p.api.MakeRequest("getUpdates", params)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(resp.Result, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode updates: %w", err)
	}
	updates := make([]tgbotapi.Update, 0, len(raw))
	for _, data := range raw {
		update, err := DecodeUpdate(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode update: %w", err)
		}
		updates = append(updates, update)
	}
	return updates, nil
}
