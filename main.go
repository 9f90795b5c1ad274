package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"scrum-poker-relay/config"
	"scrum-poker-relay/httpapi"
	"scrum-poker-relay/hub"
	"scrum-poker-relay/protocol"
	ws "scrum-poker-relay/websocket"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	relay := hub.New(hub.WithRelayURL(cfg.PublicURL))
	handler := protocol.NewHandler(relay)

	wsHandler := ws.Handler(relay, handler, ws.ServerOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		SendBuffer:     cfg.SendBuffer,
	})

	server := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpapi.NewRouter(relay, wsHandler, httpapi.Options{
			PublicURL:      cfg.PublicURL,
			WebDir:         cfg.WebDir,
			AllowedOrigins: cfg.AllowedOrigins,
		}),
	}

	go func() {
		slog.Info("relay starting", "addr", server.Addr, "publicUrl", cfg.PublicURL)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("relay shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(name string) {
	level := slog.LevelInfo
	switch strings.ToLower(name) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
