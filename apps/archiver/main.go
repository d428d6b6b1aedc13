package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mahaj/harmonium/pkg/archive"
	"github.com/mahaj/harmonium/pkg/db"
	"github.com/mama165/sdk-go/logs"
)

type Config struct {
	Host           string `env:"HOST,default=127.0.0.1"`
	Port           int    `env:"PORT,default=8081"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
	KafkaBrokers   string `env:"KAFKA_BROKERS,default=localhost:19092"`
	KafkaTopic     string `env:"KAFKA_TOPIC,default=harmonium-events"`
	KafkaGroup     string `env:"KAFKA_GROUP,default=harmonium-archiver"`
	ScyllaHosts    string `env:"SCYLLA_HOSTS,default=localhost:9042"`
	ScyllaKeyspace string `env:"SCYLLA_KEYSPACE,default=harmonium"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hosts := strings.Split(config.ScyllaHosts, ",")
	if err := db.EnsureKeyspace(log, hosts, config.ScyllaKeyspace); err != nil {
		return err
	}
	session, err := db.NewSession(log, hosts, config.ScyllaKeyspace)
	if err != nil {
		return err
	}
	defer session.Close()

	repo := archive.NewScyllaRepository(session)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	consumer := archive.NewConsumer(log, strings.Split(config.KafkaBrokers, ","), config.KafkaTopic, config.KafkaGroup, repo)
	defer consumer.Close()

	mux := http.NewServeMux()
	mux.Handle("/history", archive.NewHistoryHandler(log, repo))
	address := net.JoinHostPort(config.Host, fmt.Sprint(config.Port))
	server := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errChan := make(chan error, 1)
	go func() {
		log.Info("History API listening", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("Starting event consumer", "topic", config.KafkaTopic, "group", config.KafkaGroup)
	go func() {
		if err := consumer.Consume(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
