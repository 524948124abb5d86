package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mastery/internal/apperr"
	"mastery/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/rs/zerolog"
)

// Store talks to the S3-compatible object store holding lecture media. It
// serves two jobs: authoritative asset metadata for the signed-URL engine and
// pre-signed PUT URLs for the two-phase upload flow.
type Store struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	log           zerolog.Logger
}

// NewClient builds the S3 client from config, pointing at the configured
// S3-compatible endpoint.
func NewClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}
	return s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	}), nil
}

func NewStore(client *s3.Client, bucket string, logger zerolog.Logger) *Store {
	return &Store{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        bucket,
		log:           logger.With().Str("service", "MediaStore").Logger(),
	}
}

// ObjectKey maps an asset reference to its storage key.
func ObjectKey(publicID, kind string) string {
	return fmt.Sprintf("media/%s/%s", kind, publicID)
}

// CurrentVersion fetches the asset's authoritative version from object
// metadata. The version is baked into the pre-signed upload, so the provider
// copy is the source of truth for what bytes are live.
func (s *Store) CurrentVersion(ctx context.Context, publicID, kind string) (string, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ObjectKey(publicID, kind)),
	})
	if err != nil {
		s.log.Error().Err(err).Str("public_id", publicID).Msg("Failed to fetch object metadata")
		return "", s.classify(err, publicID)
	}
	version, ok := out.Metadata["version"]
	if !ok || version == "" {
		// Objects written outside the upload flow carry no version marker;
		// treat them as unknown to the registry rather than guessing.
		return "", apperr.New(apperr.AssetNotFound, "asset has no version metadata")
	}
	return version, nil
}

// PresignUpload mints a pre-signed PUT URL for direct client upload. The
// version is fixed into the signed request metadata so the stored object
// reports it back on HeadObject.
func (s *Store) PresignUpload(ctx context.Context, publicID, kind, version string, ttl time.Duration) (string, error) {
	request, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(ObjectKey(publicID, kind)),
		Metadata: map[string]string{"version": version},
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		s.log.Error().Err(err).Str("public_id", publicID).Msg("Failed to generate presigned PUT URL")
		return "", s.classify(err, publicID)
	}
	return request.URL, nil
}

// Delete removes the asset's object. Used when courses or lectures are
// deleted; a provider-side miss is not an error.
func (s *Store) Delete(ctx context.Context, publicID, kind string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ObjectKey(publicID, kind)),
	})
	if err != nil {
		classified := s.classify(err, publicID)
		if apperr.KindOf(classified) == apperr.AssetNotFound {
			return nil
		}
		s.log.Error().Err(err).Str("public_id", publicID).Msg("Failed to delete object")
		return classified
	}
	return nil
}

// classify maps provider failures onto the error taxonomy so callers can tell
// retryable throttling from terminal misconfiguration.
func (s *Store) classify(err error, publicID string) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return apperr.Wrap(apperr.AssetNotFound, "asset not found in storage", err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return apperr.Wrap(apperr.AssetNotFound, "asset not found in storage", err)
		case "SlowDown", "TooManyRequests", "Throttling", "ThrottlingException", "RequestLimitExceeded":
			return apperr.Wrap(apperr.ProviderRateLimited, "storage provider is throttling requests", err)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "AccessDenied", "ExpiredToken":
			return apperr.Wrap(apperr.ProviderMisconfigured, "storage provider credentials rejected", err)
		}
	}
	return apperr.Wrap(apperr.Internal, "storage provider request failed", err)
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services. See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
