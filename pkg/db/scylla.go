package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gocql/gocql"
)

type Session struct {
	*gocql.Session
}

func newCluster(hosts []string, keyspace string) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.ConnectTimeout = 5 * time.Second

	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		NumRetries: 3,
		Min:        100 * time.Millisecond,
		Max:        1 * time.Second,
	}
	return cluster
}

func NewSession(log *slog.Logger, hosts []string, keyspace string) (*Session, error) {
	session, err := newCluster(hosts, keyspace).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to scylla keyspace %s: %w", keyspace, err)
	}

	log.Info("Connected to ScyllaDB cluster", "hosts", hosts, "keyspace", keyspace)
	return &Session{Session: session}, nil
}

// EnsureKeyspace creates keyspace through the system keyspace if needed.
// Schema migrations proper are out of scope for the archive.
func EnsureKeyspace(log *slog.Logger, hosts []string, keyspace string) error {
	sys, err := NewSession(log, hosts, "system")
	if err != nil {
		return err
	}
	defer sys.Close()

	query := fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s WITH REPLICATION = { 'class' : 'SimpleStrategy', 'replication_factor' : 1 }`, keyspace)
	if err := sys.Query(query).Exec(); err != nil {
		return fmt.Errorf("create keyspace %s: %w", keyspace, err)
	}
	return nil
}
