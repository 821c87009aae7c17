// Package app собирает конвейер резолва из конфигурации.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"telegram-chat-resolver/internal/adapters/botapi"
	"telegram-chat-resolver/internal/adapters/mtproto"
	"telegram-chat-resolver/internal/adapters/web"
	"telegram-chat-resolver/internal/core/services"
	"telegram-chat-resolver/internal/pkg/config"
	"telegram-chat-resolver/internal/ports"
	"telegram-chat-resolver/internal/telegram/router"
)

// ErrNoBotAPI возвращается, когда бэкенду botapi не передан клиент Bot API.
var ErrNoBotAPI = errors.New("botapi directory backend requires a bot token")

// Pipeline — извлечение и пакетный резолв, готовые к использованию.
type Pipeline struct {
	Extractor *services.ExtractionService
	Batch     *services.BatchService
	Resolver  ports.Resolver

	closers []func()
}

// NewPipeline выбирает справочник по directory.backend.
// api нужен только бэкенду botapi. Close освобождает ресурсы справочника.
func NewPipeline(ctx context.Context, cfg *config.Config, api botapi.API, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{}

	resolver, err := p.newResolver(ctx, cfg, api, logger)
	if err != nil {
		p.Close()
		return nil, err
	}

	policy := services.Policy{
		RejectBotsEarly:      cfg.Pipeline.RejectBotsEarly,
		ReportHiddenForwards: cfg.Pipeline.ReportHiddenForwards,
	}
	p.Resolver = resolver
	p.Extractor = services.NewExtractionService(policy, services.WithExtractionLogger(logger.With("component", "extractor")))
	p.Batch = services.NewBatchService(resolver,
		services.WithMaxBatch(cfg.Pipeline.MaxBatch),
		services.WithBatchLogger(logger.With("component", "batch")),
	)

	logger.InfoContext(ctx, "Pipeline ready",
		"backend", cfg.Directory.Backend,
		"max_batch", p.Batch.MaxBatch(),
		"reject_bots_early", policy.RejectBotsEarly,
	)
	return p, nil
}

func (p *Pipeline) newResolver(ctx context.Context, cfg *config.Config, api botapi.API, logger *slog.Logger) (ports.Resolver, error) {
	opts := []services.ResolverOption{
		services.WithResolverLogger(logger.With("component", "resolver")),
		services.WithBackendName(cfg.Directory.Backend),
		services.WithPrivacyFirstMessages(cfg.Pipeline.PrivacyFirstMessages),
	}

	switch cfg.Directory.Backend {
	case config.BackendBotAPI:
		if api == nil {
			return nil, ErrNoBotAPI
		}
		return services.NewDirectoryResolver(botapi.NewDirectory(api), opts...), nil

	case config.BackendMTProto:
		tgRouter, err := router.NewRouter(ctx,
			router.WithLogger(logger.With("component", "router")),
			router.WithServerConfigs(cfg.GetTelegramServers()),
			router.WithHealthCheckInterval(cfg.TelegramAPI.HealthCheckInterval),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram router: %w", err)
		}
		p.closers = append(p.closers, tgRouter.Stop)

		directory := mtproto.NewDirectory(tgRouter, mtproto.Config{
			OperationTimeout: cfg.Directory.OperationTimeout,
			ClientRetryPause: cfg.Directory.ClientRetryPause,
		}, mtproto.WithLogger(logger.With("component", "mtproto_directory")))
		return services.NewDirectoryResolver(directory, opts...), nil

	case config.BackendWeb:
		fetcher := web.NewFetcher(web.Config{
			UserAgent:    cfg.Directory.WebUserAgent,
			Timeout:      cfg.Directory.WebTimeout,
			MaxBodyBytes: cfg.Directory.WebMaxBodyBytes,
		})
		return services.NewPageResolver(fetcher, opts...), nil

	default:
		return nil, fmt.Errorf("unknown directory backend %q", cfg.Directory.Backend)
	}
}

// Close останавливает фоновые процессы справочника. Повторный вызов безопасен.
func (p *Pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
	p.closers = nil
}
