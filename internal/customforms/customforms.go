// Package customforms stores caller-supplied inflection overrides in
// Redis so deployments can patch lookup gaps at runtime without
// rebuilding the engine. It plugs into the inflection chain as its
// highest-priority store.
package customforms

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "replacy:forms:"

// Store wraps a Redis client holding custom (lemma, tag) -> form
// entries, one hash per lemma.
type Store struct {
	client  *redis.Client
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Store with the provided Redis client. Lookups made from
// the match path are bounded by timeout so a slow Redis cannot stall
// suggestion generation; logger may be nil.
func New(client *redis.Client, timeout time.Duration, logger *zap.Logger) *Store {
	if timeout <= 0 {
		timeout = 50 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, timeout: timeout, logger: logger}
}

// Add inserts or replaces the form for (lemma, tag).
func (s *Store) Add(ctx context.Context, lemma, tag, form string) error {
	return s.client.HSet(ctx, keyPrefix+lemma, tag, form).Err()
}

// Remove deletes the entry for (lemma, tag).
func (s *Store) Remove(ctx context.Context, lemma, tag string) error {
	return s.client.HDel(ctx, keyPrefix+lemma, tag).Err()
}

// Forms returns all stored tag -> form entries for a lemma.
func (s *Store) Forms(ctx context.Context, lemma string) (map[string]string, error) {
	return s.client.HGetAll(ctx, keyPrefix+lemma).Result()
}

// Lookup implements inflect.FormStore. Redis errors are logged and
// treated as a miss so the inflection chain can fall through; the
// deadline keeps per-match latency bounded.
func (s *Store) Lookup(lemma, tag string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	form, err := s.client.HGet(ctx, keyPrefix+lemma, tag).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("custom forms lookup failed",
				zap.String("lemma", lemma),
				zap.String("tag", tag),
				zap.Error(err))
		}
		return "", false
	}
	return form, true
}
