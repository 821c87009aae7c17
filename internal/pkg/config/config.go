// Package config предоставляет управление конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Режимы получения апдейтов.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Бэкенды справочника чатов.
const (
	BackendBotAPI  = "botapi"
	BackendMTProto = "mtproto"
	BackendWeb     = "web"
)

// Bot содержит конфигурацию Telegram-бота
type Bot struct {
	Token          string        `yaml:"token" env:"BOT_TOKEN"`
	Mode           string        `yaml:"mode" env:"BOT_MODE"` // polling, webhook
	PollingTimeout time.Duration `yaml:"polling_timeout" env:"BOT_POLLING_TIMEOUT"`
	// HandlerTimeout ограничивает обработку одного апдейта. Отмена приложения
	// ее не прерывает: начатый ответ дописывается.
	HandlerTimeout time.Duration `yaml:"handler_timeout" env:"BOT_HANDLER_TIMEOUT"`
	// AutoResolvePrivate — в личном чате любое сообщение резолвится без команды.
	AutoResolvePrivate bool `yaml:"auto_resolve_private" env:"BOT_AUTO_RESOLVE_PRIVATE"`
	Debug              bool `yaml:"debug" env:"BOT_DEBUG"`
}

// Webhook содержит конфигурацию вебхука
type Webhook struct {
	// URL — публичный адрес, который регистрируется через setWebhook. Путь берется из Path.
	URL                string `yaml:"url" env:"WEBHOOK_URL"`
	Path               string `yaml:"path" env:"WEBHOOK_PATH"`
	Secret             string `yaml:"secret" env:"WEBHOOK_SECRET"`
	DropPendingUpdates bool   `yaml:"drop_pending_updates" env:"WEBHOOK_DROP_PENDING_UPDATES"`
}

// Server содержит конфигурацию HTTP-сервера
type Server struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// Pipeline содержит политику извлечения и резолва
type Pipeline struct {
	MaxBatch             int  `yaml:"max_batch" env:"PIPELINE_MAX_BATCH"`
	RejectBotsEarly      bool `yaml:"reject_bots_early" env:"PIPELINE_REJECT_BOTS_EARLY"`
	ReportHiddenForwards bool `yaml:"report_hidden_forwards" env:"PIPELINE_REPORT_HIDDEN_FORWARDS"`
	PrivacyFirstMessages bool `yaml:"privacy_first_messages" env:"PIPELINE_PRIVACY_FIRST_MESSAGES"`
}

// Directory содержит конфигурацию справочника чатов
type Directory struct {
	Backend          string        `yaml:"backend" env:"DIRECTORY_BACKEND"` // botapi, mtproto, web
	OperationTimeout time.Duration `yaml:"operation_timeout" env:"DIRECTORY_OPERATION_TIMEOUT"`
	ClientRetryPause time.Duration `yaml:"client_retry_pause" env:"DIRECTORY_CLIENT_RETRY_PAUSE"`
	WebUserAgent     string        `yaml:"web_user_agent" env:"DIRECTORY_WEB_USER_AGENT"`
	WebTimeout       time.Duration `yaml:"web_timeout" env:"DIRECTORY_WEB_TIMEOUT"`
	WebMaxBodyBytes  int64         `yaml:"web_max_body_bytes" env:"DIRECTORY_WEB_MAX_BODY_BYTES"`
}

// TelegramAPIServer содержит конфигурацию одного MTProto-аккаунта
type TelegramAPIServer struct {
	APIID       int    `yaml:"api_id"`
	APIHash     string `yaml:"api_hash"`
	PhoneNumber string `yaml:"phone_number"`
	SessionFile string `yaml:"session_file"`
}

// TelegramAPI содержит конфигурацию MTProto-клиентов
type TelegramAPI struct {
	// Для обратной совместимости. Используйте Servers.
	APIID       int    `yaml:"api_id,omitempty" env:"API_ID"`
	APIHash     string `yaml:"api_hash,omitempty" env:"API_HASH"`
	PhoneNumber string `yaml:"phone_number,omitempty" env:"PHONE_NUMBER"`
	SessionFile string `yaml:"session_file,omitempty" env:"SESSION_FILE"`

	Servers []TelegramAPIServer `yaml:"servers"`

	HealthCheckInterval time.Duration `yaml:"health_check_interval" env:"TELEGRAM_HEALTH_CHECK_INTERVAL"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"LOG_FORMAT"` // text, json
}

// Daemon содержит конфигурацию фонового режима
type Daemon struct {
	Detach  bool   `yaml:"detach" env:"DAEMON_DETACH"`
	PIDFile string `yaml:"pid_file" env:"DAEMON_PID_FILE"`
	LogFile string `yaml:"log_file" env:"DAEMON_LOG_FILE"`
	WorkDir string `yaml:"work_dir" env:"DAEMON_WORK_DIR"`
}

// Config содержит конфигурацию приложения
type Config struct {
	Bot         Bot         `yaml:"bot"`
	Webhook     Webhook     `yaml:"webhook"`
	Server      Server      `yaml:"server"`
	Pipeline    Pipeline    `yaml:"pipeline"`
	Directory   Directory   `yaml:"directory"`
	TelegramAPI TelegramAPI `yaml:"telegram_api"`
	Logging     Logging     `yaml:"logging"`
	Daemon      Daemon      `yaml:"daemon"`
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем YAML-файл
// (если он есть), затем .env и переменные окружения поверх.
func LoadConfig(filename string) (*Config, error) {
	// Отсутствие .env не ошибка, полагаемся на окружение и YAML.
	_ = godotenv.Load()

	cfg := Default()
	if err := loadFromYAML(filename, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
	}

	return cfg, nil
}

// loadFromYAML накладывает YAML-файл на cfg
func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}

	return nil
}

// GetTelegramServers возвращает список MTProto-аккаунтов,
// обеспечивая обратную совместимость со старым форматом.
func (c *Config) GetTelegramServers() []TelegramAPIServer {
	if len(c.TelegramAPI.Servers) > 0 {
		return c.TelegramAPI.Servers
	}
	// Поддержка старого формата из корневого объекта telegram_api
	if c.TelegramAPI.APIID != 0 && c.TelegramAPI.APIHash != "" {
		return []TelegramAPIServer{
			{
				APIID:       c.TelegramAPI.APIID,
				APIHash:     c.TelegramAPI.APIHash,
				PhoneNumber: c.TelegramAPI.PhoneNumber,
				SessionFile: c.TelegramAPI.SessionFile,
			},
		}
	}
	return nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// WebhookEndpoint возвращает полный адрес вебхука для setWebhook.
func (c *Config) WebhookEndpoint() string {
	return strings.TrimRight(c.Webhook.URL, "/") + c.Webhook.Path
}

// Secrets возвращает значения, которые нельзя писать в логи.
func (c *Config) Secrets() []string {
	secrets := []string{c.Bot.Token, c.Webhook.Secret}
	for _, s := range c.GetTelegramServers() {
		secrets = append(secrets, s.APIHash)
	}
	return secrets
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Bot.Token == "" || c.Bot.Token == "YOUR_TELEGRAM_BOT_TOKEN" {
		return fmt.Errorf("bot.token не задан")
	}

	if c.Bot.HandlerTimeout <= 0 {
		return fmt.Errorf("bot.handler_timeout должно быть положительным")
	}

	switch c.Bot.Mode {
	case ModePolling:
		if c.Bot.PollingTimeout <= 0 {
			return fmt.Errorf("bot.polling_timeout должно быть положительным")
		}
	case ModeWebhook:
		if err := c.validateWebhook(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("bot.mode должен быть одним из: polling, webhook")
	}

	if c.Pipeline.MaxBatch <= 0 {
		return fmt.Errorf("pipeline.max_batch должно быть положительным")
	}

	switch c.Directory.Backend {
	case BackendBotAPI:
	case BackendWeb:
		if c.Directory.WebTimeout <= 0 {
			return fmt.Errorf("directory.web_timeout должно быть положительным")
		}
		if c.Directory.WebMaxBodyBytes <= 0 {
			return fmt.Errorf("directory.web_max_body_bytes должно быть положительным")
		}
	case BackendMTProto:
		if err := c.validateTelegramAPI(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("directory.backend должен быть одним из: botapi, mtproto, web")
	}

	if c.Directory.OperationTimeout <= 0 {
		return fmt.Errorf("directory.operation_timeout должно быть положительным")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format должен быть одним из: text, json")
	}

	if c.Daemon.Detach && c.Daemon.PIDFile == "" {
		return fmt.Errorf("daemon.pid_file не может быть пустым в фоновом режиме")
	}

	return nil
}

func (c *Config) validateWebhook() error {
	u, err := url.Parse(c.Webhook.URL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("webhook.url должен быть абсолютным https-адресом")
	}
	if !strings.HasPrefix(c.Webhook.Path, "/") {
		return fmt.Errorf("webhook.path должен начинаться с /")
	}
	if c.Webhook.Secret == "" {
		return fmt.Errorf("webhook.secret не может быть пустым")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout должно быть положительным")
	}
	return nil
}

func (c *Config) validateTelegramAPI() error {
	servers := c.GetTelegramServers()
	if len(servers) == 0 {
		return fmt.Errorf("конфигурация telegram_api не найдена или пуста")
	}

	for i, s := range servers {
		if s.APIID <= 0 {
			return fmt.Errorf("telegram_api.servers[%d].api_id должно быть положительным целым числом", i)
		}
		if s.APIHash == "" {
			return fmt.Errorf("telegram_api.servers[%d].api_hash не может быть пустым", i)
		}
		if s.PhoneNumber == "" {
			return fmt.Errorf("telegram_api.servers[%d].phone_number не может быть пустым", i)
		}
	}

	if c.TelegramAPI.HealthCheckInterval <= 0 {
		return fmt.Errorf("telegram_api.health_check_interval должно быть положительным")
	}
	if c.Directory.ClientRetryPause <= 0 {
		return fmt.Errorf("directory.client_retry_pause должно быть положительным")
	}
	return nil
}
