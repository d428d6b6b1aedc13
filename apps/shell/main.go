package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mahaj/harmonium/pkg/auth"
	"github.com/mahaj/harmonium/pkg/bridge"
	"github.com/mahaj/harmonium/pkg/demo"
	"github.com/mahaj/harmonium/pkg/notify"
	"github.com/mahaj/harmonium/pkg/snowflake"
	"github.com/mahaj/harmonium/pkg/state"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	signer, err := auth.NewSigner(config.AuthSecret, config.TokenTTL)
	if err != nil {
		return fmt.Errorf("auth setup failed: %w", err)
	}
	node, err := snowflake.NewNode(config.NodeID)
	if err != nil {
		return fmt.Errorf("event id setup failed: %w", err)
	}

	// 2. Store and the sinks it notifies
	fanout := notify.NewFanout(log)
	store := state.NewStore(log, fanout, node)

	var presence bridge.Presence = bridge.NewLocalPresence()
	if config.RedisAddr != "" {
		redisPresence := bridge.NewRedisPresence(config.RedisAddr)
		defer redisPresence.Close()
		presence = redisPresence
	}

	hub := bridge.NewHub(log, store, presence)
	fanout.Attach("ui", hub)

	if brokers := config.Brokers(); len(brokers) > 0 {
		publisher := notify.NewKafkaPublisher(brokers, config.KafkaTopic, config.KafkaTimeout)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Warn("Failed to close kafka publisher", "error", err)
			}
		}()
		fanout.Attach("kafka", publisher)
		log.Info("Publishing events to kafka", "brokers", brokers, "topic", config.KafkaTopic)
	}

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)
	go func() {
		if err := demo.Populate(ctx, log, store, config.DemoDelay); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Demo population failed", "error", err)
		}
	}()

	// 4. HTTP surface: UI, bridge and read API
	mux := http.NewServeMux()
	mux.Handle("/", bridge.UI())
	mux.Handle("/ws", hub.ServeWs(signer))
	mux.Handle("/api/", bridge.AuthMiddleware(signer, bridge.NewAPI(log, store, presence)))

	address := net.JoinHostPort(config.Host, fmt.Sprint(config.Port))
	server := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	token, err := signer.GenerateToken(uuid.NewString())
	if err != nil {
		return fmt.Errorf("token generation failed: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Shell listening", "address", address)
		log.Info("Open the UI", "url", fmt.Sprintf("http://%s/?token=%s", address, token))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 5. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info("Shell stopped cleanly")
	return nil
}
