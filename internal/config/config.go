package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	// Token secrets. The refresh secret must differ from the access secret so a
	// leaked refresh token can never pass as an access token. These four may be
	// left unset and filled from Secret Manager; Validate catches blanks after
	// hydration.
	JWTAccessSecret   string `envconfig:"JWT_ACCESS_SECRET"`
	JWTRefreshSecret  string `envconfig:"JWT_REFRESH_SECRET"`
	AccessTokenTTLMin int    `envconfig:"ACCESS_TOKEN_TTL_MIN" default:"15"`
	RefreshTokenTTLHr int    `envconfig:"REFRESH_TOKEN_TTL_HR" default:"72"`

	// Signed-URL engine secrets. AESKeyHex must decode to exactly 32 bytes.
	URLSigningSecret string `envconfig:"URL_SIGNING_SECRET"`
	AESKeyHex        string `envconfig:"AES_SECRET_KEY"`
	EncryptURLs      bool   `envconfig:"ENCRYPT_SIGNED_URLS" default:"false"`

	// TTL tiers for minted URLs: a short one for playback links and a longer
	// one for upload-time pre-signing.
	PlaybackURLTTLSec int `envconfig:"PLAYBACK_URL_TTL_SEC" default:"300"`
	UploadURLTTLSec   int `envconfig:"UPLOAD_URL_TTL_SEC" default:"3600"`

	// Media storage (S3-compatible).
	S3URL         string `envconfig:"S3_URL" required:"true"`
	S3Bucket      string `envconfig:"S3_BUCKET" required:"true"`
	S3Region      string `envconfig:"S3_REGION" required:"true"`
	S3AccessKey   string `envconfig:"S3_ACCESS_KEY" required:"true"`
	S3SecretKey   string `envconfig:"S3_SECRET_KEY" required:"true"`
	MediaBaseURL  string `envconfig:"MEDIA_BASE_URL" required:"true"`
	MaxUploadByte int64  `envconfig:"MAX_UPLOAD_BYTES" default:"104857600"`

	// Durable per-asset key store.
	RedisAddr     string `envconfig:"REDIS_ADDR" required:"true"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	// Pub/Sub fanout for upload-completed events.
	GCPProjectID       string `envconfig:"GCP_PROJECT_ID"`
	PubSubEmulatorHost string `envconfig:"PUBSUB_EMULATOR_HOST"`
	MediaEventTopic    string `envconfig:"MEDIA_EVENT_TOPIC" default:"media-events"`

	// Optional: pull secrets from GCP Secret Manager instead of the
	// environment. When set, named secrets override the env values above.
	SecretManagerProject string `envconfig:"SECRET_MANAGER_PROJECT"`
}

// Load reads configuration from the environment. Callers validate after any
// Secret Manager hydration has had a chance to fill blanks.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks secret material once at startup so request paths can assume
// well-formed keys.
func (c *Config) Validate() error {
	key, err := hex.DecodeString(c.AESKeyHex)
	if err != nil {
		return fmt.Errorf("AES_SECRET_KEY is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return fmt.Errorf("AES_SECRET_KEY must decode to 32 bytes, got %d", len(key))
	}
	if c.URLSigningSecret == "" {
		return fmt.Errorf("URL_SIGNING_SECRET must not be empty")
	}
	if c.JWTAccessSecret == "" || c.JWTRefreshSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must not be empty")
	}
	if c.JWTAccessSecret == c.JWTRefreshSecret {
		return fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.PlaybackURLTTLSec <= 0 || c.UploadURLTTLSec <= 0 {
		return fmt.Errorf("URL TTLs must be positive")
	}
	return nil
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMin) * time.Minute
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLHr) * time.Hour
}

func (c *Config) PlaybackURLTTL() time.Duration {
	return time.Duration(c.PlaybackURLTTLSec) * time.Second
}

func (c *Config) UploadURLTTL() time.Duration {
	return time.Duration(c.UploadURLTTLSec) * time.Second
}
