package database

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPgxPool_RejectsBadURLs(t *testing.T) {
	_, err := NewPgxPool(context.Background(), "", PoolOptions{})
	assert.EqualError(t, err, "database URL cannot be empty")

	_, err = NewPgxPool(context.Background(), "postgres://user@host:notaport/db", PoolOptions{})
	assert.ErrorContains(t, err, "failed to parse database config")
}

func TestRunMigrations_RequiresPath(t *testing.T) {
	err := RunMigrations("postgres://localhost/ledger", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.EqualError(t, err, "migrations path cannot be empty")
}

func TestNewMongoClient_RequiresURI(t *testing.T) {
	_, err := NewMongoClient(context.Background(), "", time.Second)
	assert.EqualError(t, err, "mongo URI cannot be empty")
}
