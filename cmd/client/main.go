// Команда client прогоняет выгрузку сообщения или апдейта Bot API через конвейер
// резолва и печатает отчет таблицей. Бот для этого не нужен.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-chat-resolver/internal/adapters/botapi"
	"telegram-chat-resolver/internal/adapters/exporter"
	"telegram-chat-resolver/internal/adapters/parser"
	"telegram-chat-resolver/internal/adapters/source"
	"telegram-chat-resolver/internal/app"
	"telegram-chat-resolver/internal/core/services"
	"telegram-chat-resolver/internal/log"
	"telegram-chat-resolver/internal/pkg/config"
	"telegram-chat-resolver/internal/ports"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.DefaultConfigFile, "path to YAML config")
	backend := flag.String("backend", "", "directory backend override: botapi, mtproto, web")
	xlsxPath := flag.String("xlsx", "", "also write the report to this Excel file")
	collectOnly := flag.Bool("collect", false, "list references without looking them up")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: client [flags] <message.json | ->\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return fmt.Errorf("exactly one input file is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *backend != "" {
		cfg.Directory.Backend = *backend
	}

	// Логи идут в stderr, stdout остается под отчет.
	logger := log.NewLogger(os.Stderr, cfg.Logging.Level, "text", cfg.Secrets()...)
	slog.SetDefault(logger)

	var api botapi.API
	switch {
	case cfg.Bot.Token != "":
		botAPI, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
		if err != nil {
			return fmt.Errorf("failed to create bot api client: %w", err)
		}
		api = botAPI
	case cfg.Directory.Backend == config.BackendBotAPI:
		logger.Warn("No bot token configured, falling back to web directory")
		cfg.Directory.Backend = config.BackendWeb
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, err := app.NewPipeline(ctx, cfg, api, logger)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer pipeline.Close()

	data, err := source.NewCliSource(flag.Arg(0)).Fetch()
	if err != nil {
		return err
	}
	msg, err := parser.NewJsonParser().Parse(data)
	if err != nil {
		return err
	}
	// Как и бот, разбираем сообщение, на которое ответили, если оно есть.
	if msg.ReplyTo != nil {
		msg = msg.ReplyTo
	}

	ex := pipeline.Extractor.Extract(msg)
	if *collectOnly {
		for _, chunk := range services.RenderCollected(ex) {
			fmt.Println(chunk)
		}
		return nil
	}
	report := pipeline.Batch.Run(ctx, ex)

	exporters := []ports.Exporter{exporter.NewConsoleExporter(os.Stdout, exporter.DefaultColumnWidths)}
	if *xlsxPath != "" {
		exporters = append(exporters, exporter.NewXLSXExporter(*xlsxPath, logger))
	}
	for _, e := range exporters {
		if err := e.Export(report); err != nil {
			return fmt.Errorf("failed to export report: %w", err)
		}
	}
	return nil
}
