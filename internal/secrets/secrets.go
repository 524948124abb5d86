package secrets

import (
	"context"
	"fmt"

	"mastery/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Names of the secrets the service reads from Secret Manager when the
// corresponding environment variables are not set.
const (
	SecretURLSigning    = "url-signing-secret"
	SecretAESKey        = "media-aes-key"
	SecretJWTAccessKey  = "jwt-access-secret"
	SecretJWTRefreshKey = "jwt-refresh-secret"
)

// Manager reads deployment secrets out of GCP Secret Manager.
type Manager struct {
	client    *secretmanager.Client
	projectID string
	log       zerolog.Logger
}

func NewManager(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...option.ClientOption) (*Manager, error) {
	if cfg.SecretManagerProject == "" {
		return nil, fmt.Errorf("secret manager project is not set")
	}

	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &Manager{
		client:    client,
		projectID: cfg.SecretManagerProject,
		log:       logger.With().Str("service", "SecretManager").Logger(),
	}, nil
}

// Access returns the latest version of the named secret.
func (m *Manager) Access(ctx context.Context, name string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", m.projectID, name)

	result, err := m.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}

	return string(result.Payload.Data), nil
}

// Store writes a new version of the named secret, creating the secret first
// if it does not exist. Used by provisioning tooling rather than the server.
func (m *Manager) Store(ctx context.Context, name, value string) error {
	secretPath := fmt.Sprintf("projects/%s/secrets/%s", m.projectID, name)

	_, err := m.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: secretPath})
	if err != nil {
		createReq := &secretmanagerpb.CreateSecretRequest{
			Parent:   fmt.Sprintf("projects/%s", m.projectID),
			SecretId: name,
			Secret: &secretmanagerpb.Secret{
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{
						Automatic: &secretmanagerpb.Replication_Automatic{},
					},
				},
			},
		}
		if _, err := m.client.CreateSecret(ctx, createReq); err != nil {
			return fmt.Errorf("failed to create secret: %w", err)
		}
	}

	_, err = m.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  secretPath,
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	})
	if err != nil {
		return fmt.Errorf("failed to add secret version: %w", err)
	}

	return nil
}

// Hydrate fills any config secret left empty by the environment from Secret
// Manager. Missing secrets are logged and skipped so a partially provisioned
// project still boots; config.Validate catches anything still blank.
func (m *Manager) Hydrate(ctx context.Context, cfg *config.Config) {
	fill := func(dst *string, name string) {
		if *dst != "" {
			return
		}
		value, err := m.Access(ctx, name)
		if err != nil {
			m.log.Warn().Err(err).Str("secret", name).Msg("Secret not available")
			return
		}
		*dst = value
	}

	fill(&cfg.URLSigningSecret, SecretURLSigning)
	fill(&cfg.AESKeyHex, SecretAESKey)
	fill(&cfg.JWTAccessSecret, SecretJWTAccessKey)
	fill(&cfg.JWTRefreshSecret, SecretJWTRefreshKey)
}

func (m *Manager) Close() error {
	return m.client.Close()
}
