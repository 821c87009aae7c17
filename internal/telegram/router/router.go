// Package router распределяет запросы справочника между несколькими MTProto-аккаунтами.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"telegram-chat-resolver/internal/domain"
	"telegram-chat-resolver/internal/pkg/config"
	"telegram-chat-resolver/internal/ports"
	"telegram-chat-resolver/internal/telegram"
)

var (
	// ErrNoHealthyClients возвращается, когда все аккаунты в FLOOD_WAIT или недоступны.
	ErrNoHealthyClients = errors.New("no healthy clients available")
	// ErrNoServers возвращается, когда в конфигурации нет ни одного аккаунта.
	ErrNoServers = errors.New("no server configs provided to router")
)

// Option настраивает Router.
type Option func(*Router)

// WithServerConfigs создает по клиенту на каждый аккаунт из конфигурации.
func WithServerConfigs(serverConfigs []config.TelegramAPIServer) Option {
	return func(r *Router) {
		clients := make([]ports.TelegramClient, 0, len(serverConfigs))
		for _, srv := range serverConfigs {
			clients = append(clients, telegram.NewClient(telegram.Config{
				APIID:       srv.APIID,
				APIHash:     srv.APIHash,
				PhoneNumber: srv.PhoneNumber,
				SessionPath: srv.SessionFile,
			}, telegram.WithLogger(r.log.With("client_phone", srv.PhoneNumber))))
		}
		r.clients = clients
	}
}

// WithClients передает готовых клиентов.
func WithClients(clients ...ports.TelegramClient) Option {
	return func(r *Router) {
		r.clients = append(r.clients, clients...)
	}
}

func WithHealthCheckInterval(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.healthCheckInterval = d
		}
	}
}

func WithStrategy(s ports.Strategy) Option {
	return func(r *Router) {
		if s != nil {
			r.strategy = s
		}
	}
}

// WithLogger должен идти раньше WithServerConfigs, чтобы клиенты получили тот же логгер.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// Router держит пулы здоровых и нездоровых клиентов и периодически
// возвращает восстановившихся в работу.
type Router struct {
	mu        sync.RWMutex
	healthy   map[string]ports.TelegramClient
	unhealthy map[string]ports.TelegramClient
	strategy  ports.Strategy
	log       *slog.Logger

	clients             []ports.TelegramClient
	healthCheckInterval time.Duration
	ticker              *time.Ticker
	done                chan struct{}
	stopOnce            sync.Once
	wg                  sync.WaitGroup
}

// NewRouter запускает всех клиентов и фоновую проверку здоровья.
func NewRouter(ctx context.Context, opts ...Option) (*Router, error) {
	r := &Router{
		healthy:             make(map[string]ports.TelegramClient),
		unhealthy:           make(map[string]ports.TelegramClient),
		strategy:            NewRoundRobinStrategy(),
		healthCheckInterval: 30 * time.Second,
		done:                make(chan struct{}),
		log:                 slog.Default().With("component", "router"),
	}

	for _, opt := range opts {
		opt(r)
	}

	if len(r.clients) == 0 {
		return nil, ErrNoServers
	}

	for _, c := range r.clients {
		c.Start(ctx)
		r.healthy[c.ID()] = c
	}
	r.clients = nil

	r.ticker = time.NewTicker(r.healthCheckInterval)
	r.wg.Add(1)
	go r.healthCheckLoop()

	r.log.InfoContext(ctx, "Router started", "clients", len(r.healthy), "health_check_interval", r.healthCheckInterval)
	return r, nil
}

// GetClient выбирает здорового клиента по стратегии.
// Ошибки вызовов через возвращенного клиента запускают его внеплановую проверку.
func (r *Router) GetClient(ctx context.Context) (ports.TelegramClient, error) {
	r.mu.RLock()
	clients := make([]ports.TelegramClient, 0, len(r.healthy))
	for _, c := range r.healthy {
		clients = append(clients, c)
	}
	strategy := r.strategy
	r.mu.RUnlock()

	// Порядок map случаен, а round robin нужен стабильный.
	sort.Slice(clients, func(i, j int) bool { return clients[i].ID() < clients[j].ID() })

	client, err := strategy.Next(clients)
	if err != nil {
		r.log.WarnContext(ctx, "Strategy failed to get next client", "error", err)
		return nil, fmt.Errorf("strategy failed to get next client: %w", err)
	}

	r.log.DebugContext(ctx, "Client selected by strategy", "client_id", client.ID())
	return &clientWrapper{TelegramClient: client, router: r}, nil
}

// NextRecoveryTime возвращает ближайший момент окончания FLOOD_WAIT среди
// нездоровых клиентов или нулевое время, если ждать нечего.
func (r *Router) NextRecoveryTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var next time.Time
	for _, c := range r.unhealthy {
		t := c.GetRecoveryTime()
		if t.IsZero() {
			continue
		}
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	return next
}

// SetStrategy меняет стратегию выбора на лету.
func (r *Router) SetStrategy(s ports.Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategy = s
	r.log.Info("Router strategy updated")
}

// Stop останавливает фоновую проверку. Повторный вызов безопасен.
func (r *Router) Stop() {
	r.stopOnce.Do(func() {
		r.log.Info("Stopping router")
		r.ticker.Stop()
		close(r.done)
		r.wg.Wait()
		r.log.Info("Router stopped")
	})
}

func (r *Router) healthCheckLoop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ticker.C:
			r.checkUnhealthyClients()
		case <-r.done:
			return
		}
	}
}

// checkUnhealthyClients возвращает в пул клиентов, прошедших Health.
func (r *Router) checkUnhealthyClients() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.unhealthy))
	for id := range r.unhealthy {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	if len(ids) == 0 {
		return
	}
	r.log.Debug("Checking unhealthy clients", "count", len(ids))

	for _, id := range ids {
		r.mu.RLock()
		client, ok := r.unhealthy[id]
		r.mu.RUnlock()
		if !ok {
			continue
		}

		if err := client.Health(context.Background()); err != nil {
			r.log.Debug("Client remains unhealthy", "client_id", id, "reason", err)
			continue
		}
		r.setClientHealthy(id)
	}
}

// forceHealthCheck убирает клиента из пула, если он не проходит Health.
func (r *Router) forceHealthCheck(client ports.TelegramClient) {
	if err := client.Health(context.Background()); err != nil {
		r.log.Warn("Client failed health check after call error", "client_id", client.ID(), "reason", err)
		r.setClientUnhealthy(client.ID())
	}
}

func (r *Router) setClientUnhealthy(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.healthy[id]
	if !ok {
		return
	}
	delete(r.healthy, id)
	r.unhealthy[id] = client

	r.log.Warn("Client moved to unhealthy pool", "client_id", id, "healthy_count", len(r.healthy), "unhealthy_count", len(r.unhealthy))
}

func (r *Router) setClientHealthy(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.unhealthy[id]
	if !ok {
		return
	}
	delete(r.unhealthy, id)
	r.healthy[id] = client

	r.log.Info("Client moved back to healthy pool", "client_id", id, "healthy_count", len(r.healthy), "unhealthy_count", len(r.unhealthy))
}

// clientWrapper отправляет аккаунт на внеплановую проверку после сбоя запроса.
// Ответ "чат не найден" или "чат закрыт" сбоем аккаунта не считается.
type clientWrapper struct {
	ports.TelegramClient
	router *Router
}

func (w *clientWrapper) ResolveChat(ctx context.Context, username string) (domain.ChatInfo, error) {
	info, err := w.TelegramClient.ResolveChat(ctx, username)
	if err != nil && !errors.Is(err, telegram.ErrChatNotFound) && !errors.Is(err, telegram.ErrChatPrivate) {
		w.router.log.DebugContext(ctx, "Lookup failed, scheduling health check", "client_id", w.ID(), "username", username, "error", err)
		go w.router.forceHealthCheck(w.TelegramClient)
	}
	return info, err
}
