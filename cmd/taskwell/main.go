package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry"
	"github.com/taskwell/taskwell"
	"github.com/taskwell/taskwell/models"
	"github.com/taskwell/taskwell/runtime"
)

var version = "Dev"

func main() {
	config := runtime.LoadConfig("taskwell.toml")

	// if we have a custom version, use it
	if version != "Dev" {
		config.Version = version
	}

	if err := config.Validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
		log.Fatalf("invalid log level %s", config.LogLevel)
	}

	// configure our logger
	logHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(logHandler))

	logger := slog.With("comp", "main")
	logger.Info("starting taskwell", "version", config.Version)

	// if we have a DSN entry, try to initialize sentry
	if config.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:           config.SentryDSN,
			EnableTracing: false,
		})
		if err != nil {
			log.Fatalf("error initiating sentry client, error %s, dsn %s", err, config.SentryDSN)
		}

		defer sentry.Flush(2 * time.Second)

		slog.SetDefault(slog.New(
			slogmulti.Fanout(
				logHandler,
				slogsentry.Option{Level: slog.LevelError}.NewSentryHandler(),
			),
		).With("release", config.Version))
	}

	rt, err := runtime.NewRuntime(context.TODO(), config)
	if err != nil {
		logger.Error("error creating runtime", "error", err)
		os.Exit(1)
	}

	store := models.NewTodoService(rt.Dynamo, rt.TableName("Todos"))
	attachments := taskwell.NewAttachmentService(rt.S3, rt.S3Presign, config.S3AttachmentsBucket, config.S3AttachmentsPrefix)

	server := taskwell.NewServer(rt, store, attachments)
	if err := server.Start(); err != nil {
		logger.Error("unable to start server", "error", err)
		os.Exit(1)
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("stopping", "signal", <-ch)

	server.Stop()
}
