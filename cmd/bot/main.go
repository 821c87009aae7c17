package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sevlyar/go-daemon"

	"telegram-chat-resolver/internal/adapters/botapi"
	"telegram-chat-resolver/internal/app"
	"telegram-chat-resolver/internal/bot"
	"telegram-chat-resolver/internal/log"
	"telegram-chat-resolver/internal/pkg/config"
	"telegram-chat-resolver/internal/server"
	"telegram-chat-resolver/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска бота.
func run() error {
	configPath := flag.String("config", config.DefaultConfigFile, "path to YAML config")
	detach := flag.Bool("detach", false, "run in background")
	flag.Parse()

	// 1. Загрузка и валидация конфигурации
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *detach {
		cfg.Daemon.Detach = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// 2. Уход в фон
	if cfg.Daemon.Detach {
		dctx := &daemon.Context{
			PidFileName: cfg.Daemon.PIDFile,
			PidFilePerm: 0o644,
			LogFileName: cfg.Daemon.LogFile,
			LogFilePerm: 0o640,
			WorkDir:     cfg.Daemon.WorkDir,
			Umask:       0o027,
			Args:        os.Args,
		}
		child, err := dctx.Reborn()
		if err != nil {
			return fmt.Errorf("failed to daemonize: %w", err)
		}
		if child != nil {
			fmt.Printf("Bot started in background, pid %d\n", child.Pid)
			return nil
		}
		defer func() { _ = dctx.Release() }()
	}

	// 3. Логгер с маскировкой секретов
	logger := log.NewLogger(os.Stdout, cfg.Logging.Level, cfg.Logging.Format, cfg.Secrets()...)
	slog.SetDefault(logger)
	if err := tgbotapi.SetLogger(&log.TGBotAPIAdapter{Logger: logger.With("component", "tgbotapi")}); err != nil {
		return fmt.Errorf("failed to set bot api logger: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("failed to create bot api client: %w", err)
	}
	api.Debug = cfg.Bot.Debug
	logger.Info("Authorized on account", "username", api.Self.UserName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Инициализация зависимостей
	pipeline, err := app.NewPipeline(ctx, cfg, api, logger)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer pipeline.Close()

	responder := botapi.NewResponder(api, logger)
	handler := usecase.NewResolveMessageUseCase(pipeline.Extractor, pipeline.Batch, responder, logger)
	b := bot.NewBot(botapi.NewPoller(api, logger), handler, responder, bot.Config{
		PollingTimeoutSeconds: int(cfg.Bot.PollingTimeout.Seconds()),
		AutoResolvePrivate:    cfg.Bot.AutoResolvePrivate,
		HandlerTimeout:        cfg.Bot.HandlerTimeout,
	}, logger)

	// 5. Запуск в выбранном режиме
	if cfg.Bot.Mode == config.ModePolling {
		if err := server.DeleteWebhook(api, false); err != nil {
			return fmt.Errorf("failed to delete webhook: %w", err)
		}
		logger.Info("Starting long polling")
		b.Start(ctx)
		logger.Info("Bot stopped gracefully")
		return nil
	}

	return serveWebhook(ctx, cfg, api, b, logger)
}

func serveWebhook(ctx context.Context, cfg *config.Config, api *tgbotapi.BotAPI, b *bot.Bot, logger *slog.Logger) error {
	srv, err := server.New(cfg, b, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		defer close(serverErr)
		logger.Info("Starting server", "addr", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if err := server.RegisterWebhook(api, cfg.Webhook, cfg.WebhookEndpoint()); err != nil {
		return fmt.Errorf("failed to register webhook: %w", err)
	}
	logger.Info("Webhook registered", "path", cfg.Webhook.Path)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Signal received, shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	<-serverErr

	logger.Info("Bot stopped gracefully")
	return nil
}
