package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"docgen"
	"docgen/internal/realtime"

	"github.com/nats-io/nats.go"
)

func main() {
	envFile := flag.String("env", ".env", "env file to load (optional)")
	flag.Parse()

	cfg := docgen.LoadEnv(*envFile)
	logger := docgen.Logger

	if cfg.JWTConfig.Secret == "" {
		logger.Fatal().Msg("JWT_SECRET is required")
	}
	if cfg.NatsURL == "" {
		logger.Fatal().Msg("NATS_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := nats.Connect(cfg.NatsURL, nats.Name("docgen-realtime"))
	if err != nil {
		logger.Fatal().Err(err).Str("url", cfg.NatsURL).Msg("Failed to connect to NATS")
	}
	defer conn.Close()

	hub := realtime.NewHub()
	go hub.Run(ctx)

	bridge := realtime.NewNATSBridge(conn, hub)
	if err := bridge.Subscribe(); err != nil {
		logger.Fatal().Err(err).Msg("NATS subscribe failed")
	}
	defer bridge.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		realtime.ServeWS(hub, cfg.JWTConfig.Secret, w, r)
	})
	server := &http.Server{Addr: cfg.RealtimePort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdown)
	}()

	logger.Info().Msgf("Realtime service listening on %s", cfg.RealtimePort)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Realtime server stopped")
	}
}
