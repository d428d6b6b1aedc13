package main

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("AUTH_SECRET", "s3cret")

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	req.NoError(err)

	req.Equal("127.0.0.1", config.Host)
	req.Equal(1420, config.Port)
	req.Equal(500*time.Millisecond, config.DemoDelay)
	req.Equal(24*time.Hour, config.TokenTTL)
	req.Equal(int64(1), config.NodeID)
	req.Nil(config.Brokers())
}

func TestConfig_Brokers(t *testing.T) {
	config := Config{KafkaBrokers: "k1:9092,k2:9092"}
	require.Equal(t, []string{"k1:9092", "k2:9092"}, config.Brokers())
}
