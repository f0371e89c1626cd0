package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-reader/app/api"
	"github.com/lysyi3m/rss-reader/app/cfg"
	"github.com/lysyi3m/rss-reader/app/feed"
	"github.com/lysyi3m/rss-reader/app/locale"
	"github.com/lysyi3m/rss-reader/app/state"
	"github.com/lysyi3m/rss-reader/app/tasks"
	"github.com/lysyi3m/rss-reader/app/view"
)

func main() {
	config, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if config == nil {
		// Help was shown
		return
	}

	level := slog.LevelInfo
	if config.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting RSS Reader", "version", config.Version, "port", config.Port, "locale", config.Locale)

	translator, err := locale.New(config.Locale)
	if err != nil {
		slog.Error("Failed to set up locale", "error", err)
		os.Exit(1)
	}

	store := state.NewStore()
	broadcaster := view.NewBroadcaster()

	renderer, err := view.NewRenderer(translator, broadcaster)
	if err != nil {
		slog.Error("Failed to set up renderer", "error", err)
		os.Exit(1)
	}
	renderer.Bind(store)

	fetcher := feed.NewFetcher(nil, config.ProxyURL, config.UserAgent, config.RequestTimeout)

	scheduler := tasks.NewScheduler(
		store,
		fetcher,
		feed.NewParser(),
		feed.NewValidator(),
		feed.NewContentExtractor(),
		tasks.UUIDGenerator{},
		config.PollInterval,
		config.WorkerCount,
	)
	scheduler.Start()

	subscriptions, err := feed.LoadSubscriptions(config.FeedsFile)
	if err != nil {
		slog.Error("Failed to load subscriptions", "path", config.FeedsFile, "error", err)
		os.Exit(1)
	}
	for _, url := range subscriptions {
		if err := scheduler.SubmitURL(url); err != nil {
			slog.Warn("Failed to enqueue subscription", "url", url, "error", err)
		}
	}

	baseURL := config.BaseUrl
	if baseURL == "" {
		baseURL = "http://localhost:" + config.Port
	}
	generator := feed.NewGenerator(baseURL, config.Version)

	handler := api.NewHandler(store, scheduler, renderer, broadcaster, generator, config.Version)

	// No write timeout: /events keeps its response open
	httpServer := &http.Server{
		Addr:        ":" + config.Port,
		Handler:     api.NewServer(handler),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down")

	// Closing client streams first lets Shutdown finish
	broadcaster.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()

	slog.Info("Shutdown complete")
}
