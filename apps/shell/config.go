package main

import (
	"strings"
	"time"
)

type Config struct {
	Host         string        `env:"HOST,default=127.0.0.1"`
	Port         int           `env:"PORT,default=1420"`
	LogLevel     string        `env:"LOG_LEVEL,default=INFO"`
	AuthSecret   string        `env:"AUTH_SECRET,required=true"`
	TokenTTL     time.Duration `env:"TOKEN_TTL,default=24h"`
	NodeID       int64         `env:"NODE_ID,default=1"`
	DemoDelay    time.Duration `env:"DEMO_DELAY,default=500ms"`
	KafkaBrokers string        `env:"KAFKA_BROKERS"`
	KafkaTopic   string        `env:"KAFKA_TOPIC,default=harmonium-events"`
	KafkaTimeout time.Duration `env:"KAFKA_TIMEOUT,default=2s"`
	RedisAddr    string        `env:"REDIS_ADDR"`
}

// Brokers splits KAFKA_BROKERS; an empty value disables the event log.
func (c Config) Brokers() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	return strings.Split(c.KafkaBrokers, ",")
}
