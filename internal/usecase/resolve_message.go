package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"telegram-chat-resolver/internal/core/services"
	"telegram-chat-resolver/internal/domain"
	"telegram-chat-resolver/internal/observability"
	"telegram-chat-resolver/internal/ports"
)

// Реакции, которыми бот сигнализирует о состоянии обработки.
const (
	ReactionConfused    = "🤨"
	ReactionOverloaded  = "🤯"
	ReactionNeutral     = "🤔"
	ReactionAcknowledge = "🥰"
)

// BatchRunner резолвит извлеченные хендлы пачкой.
type BatchRunner interface {
	Run(ctx context.Context, ex domain.Extraction) domain.Report
}

// ResolveMessageUseCase инкапсулирует обработку одного сообщения:
// извлечение, отсечение по лимиту, резолв и отправку ответов.
// Состояние между сообщениями не хранится.
type ResolveMessageUseCase struct {
	extractor ports.Extractor
	batch     BatchRunner
	responder ports.Responder
	log       *slog.Logger
}

// NewResolveMessageUseCase создает новый экземпляр ResolveMessageUseCase.
func NewResolveMessageUseCase(
	extractor ports.Extractor,
	batch BatchRunner,
	responder ports.Responder,
	logger *slog.Logger,
) *ResolveMessageUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolveMessageUseCase{
		extractor: extractor,
		batch:     batch,
		responder: responder,
		log:       logger.With("component", "resolve_message"),
	}
}

// Resolve прогоняет сообщение через весь конвейер. Порядок ответов фиксирован:
// реакция о перегрузке, блок ошибок, блок заголовков (или нейтральная реакция),
// блок переполнения. Сообщение без единой ссылки получает только реакцию недоумения.
// Ошибка возвращается только при сбое отправки.
func (uc *ResolveMessageUseCase) Resolve(ctx context.Context, to domain.MessageRef, msg *domain.Message) error {
	ex := uc.extract(msg)
	if ex.Empty() {
		uc.log.InfoContext(ctx, "No chat references found", "chat_id", to.ChatID)
		observability.MessagesHandled.WithLabelValues(observability.ResultEmpty).Inc()
		return uc.react(ctx, to, ReactionConfused)
	}

	report := uc.batch.Run(ctx, ex)
	blocks := services.RenderReport(report)

	if report.Overloaded {
		if err := uc.react(ctx, to, ReactionOverloaded); err != nil {
			return err
		}
	}
	if err := uc.sendAll(ctx, to, blocks.Errors, uc.responder.SendText); err != nil {
		return err
	}
	if len(report.Resolved) == 0 {
		if err := uc.react(ctx, to, ReactionNeutral); err != nil {
			return err
		}
	} else if err := uc.sendAll(ctx, to, blocks.Titles, uc.responder.SendRich); err != nil {
		return err
	}
	if err := uc.sendAll(ctx, to, blocks.Overflow, uc.responder.SendText); err != nil {
		return err
	}

	observability.MessagesHandled.WithLabelValues(observability.ResultResolved).Inc()
	uc.log.InfoContext(ctx, "Message resolved",
		"chat_id", to.ChatID,
		"resolved", len(report.Resolved),
		"failed", len(report.Failures),
		"skipped", len(report.Skips),
		"overflow", len(report.Overflow),
	)
	return nil
}

// Collect отвечает списком канонических ссылок без обращения к справочнику.
func (uc *ResolveMessageUseCase) Collect(ctx context.Context, to domain.MessageRef, msg *domain.Message) error {
	ex := uc.extract(msg)
	if ex.Empty() {
		observability.MessagesHandled.WithLabelValues(observability.ResultEmpty).Inc()
		return uc.react(ctx, to, ReactionConfused)
	}

	if err := uc.sendAll(ctx, to, services.RenderCollected(ex), uc.responder.SendText); err != nil {
		return err
	}

	observability.MessagesHandled.WithLabelValues(observability.ResultCollected).Inc()
	uc.log.InfoContext(ctx, "References collected", "chat_id", to.ChatID, "handles", len(ex.Handles), "skips", len(ex.Skips))
	return nil
}

// Acknowledge ставит реакцию на сообщение, не требующее обработки.
func (uc *ResolveMessageUseCase) Acknowledge(ctx context.Context, to domain.MessageRef) error {
	observability.MessagesHandled.WithLabelValues(observability.ResultAcknowledged).Inc()
	return uc.react(ctx, to, ReactionAcknowledge)
}

// Confused ставит реакцию недоумения, например на команду без ответа на сообщение.
func (uc *ResolveMessageUseCase) Confused(ctx context.Context, to domain.MessageRef) error {
	observability.MessagesHandled.WithLabelValues(observability.ResultEmpty).Inc()
	return uc.react(ctx, to, ReactionConfused)
}

func (uc *ResolveMessageUseCase) extract(msg *domain.Message) domain.Extraction {
	ex := uc.extractor.Extract(msg)
	for _, skip := range ex.Skips {
		observability.ReferencesSkipped.WithLabelValues(string(skip.Cause)).Inc()
	}
	return ex
}

func (uc *ResolveMessageUseCase) react(ctx context.Context, to domain.MessageRef, emoji string) error {
	if err := uc.responder.React(ctx, to, emoji); err != nil {
		return fmt.Errorf("failed to set reaction %s: %w", emoji, err)
	}
	return nil
}

func (uc *ResolveMessageUseCase) sendAll(
	ctx context.Context,
	to domain.MessageRef,
	chunks []string,
	send func(context.Context, domain.MessageRef, string) error,
) error {
	for _, chunk := range chunks {
		if err := send(ctx, to, chunk); err != nil {
			return fmt.Errorf("failed to send reply: %w", err)
		}
	}
	return nil
}
