package keystore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"mastery/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Keystore persists per-asset encryption keys in Redis. Keys must survive
// process restarts and be shared across instances, so an in-process map is
// not an option here.
type Keystore struct {
	rdb *redis.Client
	log zerolog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Keystore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Keystore{
		rdb: rdb,
		log: logger.With().Str("service", "Keystore").Logger(),
	}, nil
}

func (k *Keystore) Close() error { return k.rdb.Close() }

func redisKey(publicID string) string { return "assetkey:" + publicID }

// GenerateKey produces a fresh 32-byte key, hex-encoded.
func GenerateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Put stores the hex-encoded key for an asset. No expiry: the key lives as
// long as the asset does.
func (k *Keystore) Put(ctx context.Context, publicID, keyHex string) error {
	if err := k.rdb.Set(ctx, redisKey(publicID), keyHex, 0).Err(); err != nil {
		k.log.Error().Err(err).Str("public_id", publicID).Msg("Failed to store asset key")
		return fmt.Errorf("failed to store asset key: %w", err)
	}
	return nil
}

// Get returns the hex-encoded key for an asset, or "" when none is stored.
func (k *Keystore) Get(ctx context.Context, publicID string) (string, error) {
	val, err := k.rdb.Get(ctx, redisKey(publicID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		k.log.Error().Err(err).Str("public_id", publicID).Msg("Failed to fetch asset key")
		return "", fmt.Errorf("failed to fetch asset key: %w", err)
	}
	return val, nil
}

// Delete drops the key for an asset, typically alongside asset deletion.
func (k *Keystore) Delete(ctx context.Context, publicID string) error {
	if err := k.rdb.Del(ctx, redisKey(publicID)).Err(); err != nil {
		k.log.Error().Err(err).Str("public_id", publicID).Msg("Failed to delete asset key")
		return fmt.Errorf("failed to delete asset key: %w", err)
	}
	return nil
}
