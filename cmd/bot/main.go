package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	"issue-move-bot/internal/config"
	"issue-move-bot/internal/github"
	"issue-move-bot/internal/notify"
	"issue-move-bot/internal/settings"
	"issue-move-bot/internal/store"
)

func main() {
	cfg := config.Load()
	initLogger(cfg.LogLevel)

	factory, err := github.NewFactory(cfg.AppID, cfg.PrivateKey)
	if err != nil {
		log.Fatalf("Failed to create client factory: %v", err)
	}
	directory := github.NewAppDirectory(factory)
	loader := settings.NewLoader(cfg.DryRun)

	var moveStore *store.Store
	if cfg.MongoDBURI != "" {
		moveStore, err = store.Connect(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
	}

	var notifier *notify.Notifier
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		notifier, err = notify.New(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatalf("Failed to create notifier: %v", err)
		}
	}

	webhookServer := github.NewWebhookServer(cfg, factory, directory, loader, moveStore, notifier)
	http.HandleFunc("/webhook", webhookServer.Handler)

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		html := `
		<html>
		<head><title>Issue Move Bot</title></head>
		<body style="font-family: sans-serif; text-align: center; padding: 50px;">
			<h1>Issue Move Bot</h1>
			<p>The bot is running. Comment <code>/move [to ][&lt;owner&gt;/]&lt;repo&gt;</code> on an issue to move it.</p>
		</body>
		</html>`
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(html))
	})

	slog.Info("Server listening", slog.String("port", cfg.Port), slog.Bool("dry_run", cfg.DryRun))
	if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func initLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
