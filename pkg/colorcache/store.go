// Package colorcache persists the fill color chosen for each area polygon so
// that colors stay stable across sessions.
//
// A store keeps, per polygon id, the colors recorded for each attribute text.
// Lookups return the most recent color recorded for the polygon's current
// attribute; a miss means "uncolored". Stores are advisory: callers treat any
// error as a miss.
package colorcache

import (
	"context"
	"errors"
	"fmt"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("color store closed")

// Store records (attribute, color) pairs per polygon id. The last write
// for an attribute wins.
type Store interface {
	// Get returns the most recent color recorded for id under attribute.
	Get(ctx context.Context, id int64, attribute string) (int, bool, error)

	// Append records a color for id under attribute.
	Append(ctx context.Context, id int64, attribute string, color int) error

	// Close releases resources held by the store.
	Close() error
}

// Kind names a store implementation.
type Kind string

const (
	KindNone     Kind = "none"
	KindMemory   Kind = "memory"
	KindFile     Kind = "file"
	KindRedis    Kind = "redis"
	KindPostgres Kind = "postgres"
)

// Config selects and configures a store.
type Config struct {
	Kind Kind

	// Dir is the directory of per-polygon logs for KindFile.
	Dir string

	// RedisAddr, RedisPassword and RedisDB configure KindRedis.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// PostgresDSN configures KindPostgres.
	PostgresDSN string
}

// ErrUnknownStore indicates a Config.Kind no implementation handles
type ErrUnknownStore struct {
	Kind Kind
}

func (e *ErrUnknownStore) Error() string {
	return fmt.Sprintf("unknown color store kind %q", e.Kind)
}

// Open creates the store described by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Kind {
	case KindNone, "":
		return NewNullStore(), nil
	case KindMemory:
		return NewMemoryStore(), nil
	case KindFile:
		return NewFileStore(cfg.Dir)
	case KindRedis:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case KindPostgres:
		return NewPostgresStore(ctx, cfg.PostgresDSN)
	default:
		return nil, &ErrUnknownStore{Kind: cfg.Kind}
	}
}

// NullStore is a no-op store that never records anything.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() Store {
	return &NullStore{}
}

// Get always returns a miss.
func (s *NullStore) Get(ctx context.Context, id int64, attribute string) (int, bool, error) {
	return 0, false, nil
}

// Append does nothing.
func (s *NullStore) Append(ctx context.Context, id int64, attribute string, color int) error {
	return nil
}

// Close does nothing.
func (s *NullStore) Close() error {
	return nil
}

// Ensure NullStore implements Store.
var _ Store = (*NullStore)(nil)
