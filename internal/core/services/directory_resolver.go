package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"telegram-chat-resolver/internal/domain"
	"telegram-chat-resolver/internal/observability"
	"telegram-chat-resolver/internal/ports"
)

// ResolverOption — функциональная опция для настройки резолверов.
type ResolverOption func(*resolverConfig)

type resolverConfig struct {
	log          *slog.Logger
	backend      string
	privacyFirst bool
}

// WithResolverLogger устанавливает логгер для резолвера.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(c *resolverConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// WithBackendName задает имя бэкенда справочника для метрик.
func WithBackendName(name string) ResolverOption {
	return func(c *resolverConfig) {
		if name != "" {
			c.backend = name
		}
	}
}

// WithPrivacyFirstMessages включает формулировку "<handle> is private"
// для сущностей, которые не являются каналом или группой.
func WithPrivacyFirstMessages(enabled bool) ResolverOption {
	return func(c *resolverConfig) {
		c.privacyFirst = enabled
	}
}

func newResolverConfig(backend string, opts []ResolverOption) resolverConfig {
	cfg := resolverConfig{log: slog.Default(), backend: backend}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// notResolvableMessage — текст ошибки для найденной сущности, которая не является каналом или группой.
func (c resolverConfig) notResolvableMessage(h domain.Handle) string {
	if c.privacyFirst {
		return fmt.Sprintf("%s is private", h)
	}
	return fmt.Sprintf("%s is not a channel or group", h)
}

// DirectoryResolver разрешает хендлы через авторизованный справочник.
// Каждый хендл запрашивается ровно один раз, без повторов.
type DirectoryResolver struct {
	directory ports.Directory
	cfg       resolverConfig
}

// NewDirectoryResolver создает резолвер поверх справочника.
func NewDirectoryResolver(directory ports.Directory, opts ...ResolverOption) *DirectoryResolver {
	return &DirectoryResolver{
		directory: directory,
		cfg:       newResolverConfig("directory", opts),
	}
}

// Resolve запрашивает справочник по username без пути. Ошибка справочника
// возвращается как текст неуспешного Outcome без изменений: "не найдено" и
// временный сбой на этом уровне не различаются.
func (r *DirectoryResolver) Resolve(ctx context.Context, h domain.Handle) domain.Outcome {
	bare := h.Bare()

	start := time.Now()
	info, err := r.directory.LookupChat(ctx, bare.String())
	observability.DirectoryLookupDuration.WithLabelValues(r.cfg.backend).Observe(time.Since(start).Seconds())

	if err != nil {
		r.cfg.log.DebugContext(ctx, "Directory lookup failed", "handle", h.String(), "error", err)
		return domain.Failure(h, err.Error())
	}
	if !info.Kind.Resolvable() {
		r.cfg.log.DebugContext(ctx, "Resolved entity is not a chat", "handle", h.String(), "kind", info.Kind)
		return domain.Failure(h, r.cfg.notResolvableMessage(h))
	}

	return domain.Success(domain.ResolvedChat{Handle: h, Title: info.Title, Kind: info.Kind})
}
