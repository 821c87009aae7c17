// Package server принимает апдейты Telegram через вебхук и отдает служебные эндпоинты.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telegram-chat-resolver/internal/adapters/botapi"
	"telegram-chat-resolver/internal/pkg/config"
)

const (
	// SecretTokenHeader — заголовок, которым Telegram подписывает запросы вебхука.
	SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

	maxUpdateBytes = 1 << 20
)

// ErrUnauthorizedWebhook возвращается для запроса с неверным секретом.
var ErrUnauthorizedWebhook = errors.New("webhook secret token mismatch")

// UpdateHandler обрабатывает один апдейт синхронно.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// Requester — вызов произвольного метода Bot API.
type Requester interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	handler    UpdateHandler
	log        *slog.Logger
}

// New собирает роутер: POST {webhook.path}, GET /health, GET /metrics.
func New(cfg *config.Config, handler UpdateHandler, logger *slog.Logger) (*Server, error) {
	if cfg.Webhook.Path == "" || cfg.Webhook.Path[0] != '/' {
		return nil, fmt.Errorf("invalid webhook path %q", cfg.Webhook.Path)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		handler: handler,
		log:     logger.With("component", "server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post(cfg.Webhook.Path, s.handleWebhook)

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if err := s.verifySecret(r); err != nil {
		s.log.WarnContext(r.Context(), "Rejected webhook request", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpdateBytes))
	if err != nil {
		s.log.WarnContext(r.Context(), "Failed to read update", "error", err)
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	update, err := botapi.DecodeUpdate(body)
	if err != nil {
		s.log.WarnContext(r.Context(), "Failed to decode update", "error", err)
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}

	s.handler.HandleUpdate(r.Context(), update)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) verifySecret(r *http.Request) error {
	if s.cfg.Webhook.Secret == "" {
		return nil
	}
	got := r.Header.Get(SecretTokenHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.Webhook.Secret)) != 1 {
		return ErrUnauthorizedWebhook
	}
	return nil
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown дожидается активных запросов не дольше времени жизни ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")
	return s.HTTPServer.Shutdown(ctx)
}

// RegisterWebhook регистрирует адрес вебхука и секрет через setWebhook.
func RegisterWebhook(api Requester, cfg config.Webhook, endpoint string) error {
	params := tgbotapi.Params{"url": endpoint}
	params.AddNonEmpty("secret_token", cfg.Secret)
	params.AddBool("drop_pending_updates", cfg.DropPendingUpdates)
	if err := params.AddInterface("allowed_updates", []string{"message"}); err != nil {
		return err
	}

	if _, err := api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	return nil
}

// DeleteWebhook снимает вебхук, иначе getUpdates вернет 409.
func DeleteWebhook(api Requester, dropPending bool) error {
	params := tgbotapi.Params{"drop_pending_updates": strconv.FormatBool(dropPending)}
	if _, err := api.MakeRequest("deleteWebhook", params); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}
