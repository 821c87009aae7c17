package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"telegram-chat-resolver/internal/domain"
	"telegram-chat-resolver/internal/observability"
	"telegram-chat-resolver/internal/ports"
)

// DefaultMaxBatch — максимальное число хендлов, резолвящихся за одно сообщение.
const DefaultMaxBatch = 30

// BatchOption — функциональная опция для настройки BatchService.
type BatchOption func(*BatchService)

// WithMaxBatch устанавливает лимит пачки.
func WithMaxBatch(n int) BatchOption {
	return func(s *BatchService) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// WithBatchLogger устанавливает логгер для сервиса.
func WithBatchLogger(l *slog.Logger) BatchOption {
	return func(s *BatchService) {
		if l != nil {
			s.log = l
		}
	}
}

// BatchService отсекает пачку по лимиту и резолвит ее параллельно.
// Сервис не хранит состояние между вызовами и безопасен для одновременного использования.
type BatchService struct {
	resolver ports.Resolver
	maxBatch int
	log      *slog.Logger
}

// NewBatchService создает новый BatchService с использованием функциональных опций.
func NewBatchService(resolver ports.Resolver, opts ...BatchOption) *BatchService {
	s := &BatchService{
		resolver: resolver,
		maxBatch: DefaultMaxBatch,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxBatch возвращает действующий лимит пачки.
func (s *BatchService) MaxBatch() int {
	return s.maxBatch
}

// Run резолвит первые MaxBatch хендлов одновременно и ждет все до одного.
// Сбой одного хендла не отменяет остальные. Успехи и ошибки раскладываются
// в порядке хендлов, а не в порядке завершения.
func (s *BatchService) Run(ctx context.Context, ex domain.Extraction) domain.Report {
	report := domain.Report{Skips: ex.Skips}

	head := ex.Handles
	if len(head) > s.maxBatch {
		head, report.Overflow = head[:s.maxBatch], head[s.maxBatch:]
		report.Overloaded = true
		observability.BatchOverflows.Inc()
		s.log.InfoContext(ctx, "Batch cap exceeded, truncating",
			"handles", len(ex.Handles),
			"max_batch", s.maxBatch,
			"overflow", len(report.Overflow),
		)
	}
	if len(head) == 0 {
		return report
	}
	observability.BatchSize.Observe(float64(len(head)))

	// Каждая горутина пишет только в свою ячейку, поэтому блокировки не нужны.
	outcomes := make([]domain.Outcome, len(head))
	var wg sync.WaitGroup
	for i, h := range head {
		wg.Add(1)
		go s.resolveOne(ctx, &wg, h, &outcomes[i])
	}
	wg.Wait()

	for _, o := range outcomes {
		observability.ResolveOutcomes.WithLabelValues(o.Status.String()).Inc()
		switch o.Status {
		case domain.OutcomeSuccess:
			report.Resolved = append(report.Resolved, o.Chat)
		case domain.OutcomeFailure:
			report.Failures = append(report.Failures, o)
		default:
			report.Failures = append(report.Failures, domain.Failure(o.Handle, fmt.Sprintf("%s: unknown outcome", o.Handle)))
		}
	}

	s.log.InfoContext(ctx, "Batch resolved",
		"resolved", len(report.Resolved),
		"failed", len(report.Failures),
		"skipped", len(report.Skips),
	)
	return report
}

func (s *BatchService) resolveOne(ctx context.Context, wg *sync.WaitGroup, h domain.Handle, slot *domain.Outcome) {
	defer wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorContext(ctx, "Resolver panicked", "handle", h.String(), "panic", r)
			*slot = domain.Failure(h, fmt.Sprintf("%s: %v", h, r))
		}
	}()
	*slot = s.resolver.Resolve(ctx, h)
}
