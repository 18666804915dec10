package anchorarmy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "anchorarmy:anchor:"
	defaultRedisTTL = 24 * time.Hour
)

// RedisAnchorStore is an AnchorStore backed by Redis, for deployments where
// several processes share one signing account's anchor history. Records are
// stored as JSON under redisKeyPrefix+digest; Create relies on SETNX so two
// racing processes cannot both claim a digest.
type RedisAnchorStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAnchorStore dials Redis at addr and verifies the connection. A ttl
// of 0 falls back to defaultRedisTTL; records always expire so a crashed
// submission cannot hold its digest forever.
func NewRedisAnchorStore(ctx context.Context, addr string, ttl time.Duration) (*RedisAnchorStore, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("redis address is required"))
	}
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("couldn't reach redis at %s: %w", addr, err))
	}
	return &RedisAnchorStore{client: client, ttl: ttl}, nil
}

// Close releases the underlying Redis connection.
func (s *RedisAnchorStore) Close() error {
	return s.client.Close()
}

func redisKey(digest string) string {
	return redisKeyPrefix + digest
}

// Get retrieves an existing record by digest.
func (s *RedisAnchorStore) Get(ctx context.Context, digest string) (*AnchorRecord, error) {
	raw, err := s.client.Get(ctx, redisKey(digest)).Bytes()
	if err == redis.Nil {
		return nil, ErrAnchorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't read anchor record: %w", err)
	}
	var record AnchorRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("couldn't decode anchor record: %w", err)
	}
	return &record, nil
}

// Create creates a pending record for the digest.
func (s *RedisAnchorStore) Create(ctx context.Context, digest string) (*AnchorRecord, error) {
	now := time.Now()
	record := &AnchorRecord{
		Digest:    digest,
		Status:    AnchorStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("couldn't encode anchor record: %w", err)
	}

	claimed, err := s.client.SetNX(ctx, redisKey(digest), raw, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("couldn't create anchor record: %w", err)
	}
	if !claimed {
		existing, getErr := s.Get(ctx, digest)
		if getErr != nil {
			return nil, ErrDuplicateAnchor
		}
		return existing, ErrDuplicateAnchor
	}
	return record, nil
}

// Update replaces an existing record, keeping its remaining TTL.
func (s *RedisAnchorStore) Update(ctx context.Context, record *AnchorRecord) error {
	record.UpdatedAt = time.Now()
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("couldn't encode anchor record: %w", err)
	}
	set, err := s.client.SetXX(ctx, redisKey(record.Digest), raw, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("couldn't update anchor record: %w", err)
	}
	if !set {
		return ErrAnchorNotFound
	}
	return nil
}

// Delete removes a record by digest.
func (s *RedisAnchorStore) Delete(ctx context.Context, digest string) error {
	return s.client.Del(ctx, redisKey(digest)).Err()
}
