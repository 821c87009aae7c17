package config

import "time"

// Default values for configuration.
const (
	DefaultConfigFile = "config.yml"

	// Bot defaults
	DefaultBotMode        = ModePolling
	DefaultPollingTimeout = 60 * time.Second
	DefaultHandlerTimeout = 2 * time.Minute

	// Webhook defaults
	DefaultWebhookPath = "/telegram/webhook"

	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Pipeline defaults
	DefaultMaxBatch = 30

	// Directory defaults
	DefaultDirectoryBackend = BackendBotAPI
	DefaultOperationTimeout = 10 * time.Second
	DefaultClientRetryPause = 1 * time.Second
	DefaultWebUserAgent     = "Mozilla/5.0 (compatible; TelegramChatResolver/1.0)"
	DefaultWebTimeout       = 15 * time.Second
	DefaultWebMaxBodyBytes  = 2 << 20

	// Telegram API defaults
	DefaultHealthCheckInterval = 30 * time.Second
	DefaultSessionFile         = "tg.session"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Daemon defaults
	DefaultPIDFile = "chat-resolver.pid"
	DefaultLogFile = "chat-resolver.log"
)

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	return &Config{
		Bot: Bot{
			Mode:           DefaultBotMode,
			PollingTimeout: DefaultPollingTimeout,
			HandlerTimeout: DefaultHandlerTimeout,
		},
		Webhook: Webhook{
			Path: DefaultWebhookPath,
		},
		Server: Server{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Pipeline: Pipeline{
			MaxBatch:             DefaultMaxBatch,
			RejectBotsEarly:      true,
			ReportHiddenForwards: true,
		},
		Directory: Directory{
			Backend:          DefaultDirectoryBackend,
			OperationTimeout: DefaultOperationTimeout,
			ClientRetryPause: DefaultClientRetryPause,
			WebUserAgent:     DefaultWebUserAgent,
			WebTimeout:       DefaultWebTimeout,
			WebMaxBodyBytes:  DefaultWebMaxBodyBytes,
		},
		TelegramAPI: TelegramAPI{
			SessionFile:         DefaultSessionFile,
			HealthCheckInterval: DefaultHealthCheckInterval,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Daemon: Daemon{
			PIDFile: DefaultPIDFile,
			LogFile: DefaultLogFile,
		},
	}
}
