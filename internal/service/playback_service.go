package service

import (
	"context"
	"encoding/hex"
	"time"

	"mastery/internal/apperr"
	"mastery/internal/config"
	"mastery/internal/model"
	"mastery/internal/repository"
	"mastery/internal/signedurl"

	"github.com/rs/zerolog"
)

// urlMinter is the slice of the signed-URL engine this service needs.
type urlMinter interface {
	MintPlaybackURL(ctx context.Context, ref signedurl.AssetRef, ttl time.Duration, encKey []byte) (*signedurl.SignedURL, error)
}

// PlaybackService gates and mints playback links for protected assets. The
// authorization check always runs before the engine is reached.
type PlaybackService interface {
	// MintPlaybackURL authorizes the principal against the asset's owning
	// course and mints a time-boxed signed URL for it.
	MintPlaybackURL(ctx context.Context, principal model.Principal, publicID, fileType, claimedVersion string) (*signedurl.SignedURL, error)
	// Authorize resolves the owning course and checks owner-or-admin access.
	Authorize(ctx context.Context, principal model.Principal, publicID string) (*model.Course, error)
	// DecryptionKey returns the hex key a client needs to unwrap an encrypted
	// URL: the asset's own key when one exists, the server default otherwise.
	DecryptionKey(ctx context.Context, publicID string) (string, error)
}

type playbackService struct {
	registry repository.RegistryRepository
	engine   urlMinter
	keys     keyStore
	cfg      *config.Config
	log      zerolog.Logger
}

func NewPlaybackService(
	registry repository.RegistryRepository,
	engine urlMinter,
	keys keyStore,
	cfg *config.Config,
	logger zerolog.Logger,
) PlaybackService {
	return &playbackService{
		registry: registry,
		engine:   engine,
		keys:     keys,
		cfg:      cfg,
		log:      logger.With().Str("service", "PlaybackService").Logger(),
	}
}

func (s *playbackService) Authorize(ctx context.Context, principal model.Principal, publicID string) (*model.Course, error) {
	course, err := s.registry.FindOwnerByPublicID(ctx, publicID)
	if err != nil {
		s.log.Error().Err(err).Str("public_id", publicID).Msg("Failed to resolve asset owner")
		return nil, err
	}
	if course == nil {
		return nil, apperr.New(apperr.AssetNotFound, "asset not found")
	}
	if course.CreatedBy != principal.ID && !principal.IsAdmin() {
		s.log.Warn().
			Str("public_id", publicID).
			Str("user_id", principal.ID).
			Str("course_id", course.CourseID).
			Msg("Unauthorized signed URL request")
		return nil, apperr.New(apperr.Forbidden, "not authorized for this asset")
	}
	return course, nil
}

func (s *playbackService) MintPlaybackURL(ctx context.Context, principal model.Principal, publicID, fileType, claimedVersion string) (*signedurl.SignedURL, error) {
	if _, err := s.Authorize(ctx, principal, publicID); err != nil {
		return nil, err
	}

	// Only assets that finished the upload flow are playable; pending and
	// failed uploads have no live version.
	live, err := s.registry.CurrentVersion(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if live == nil {
		return nil, apperr.New(apperr.AssetNotFound, "asset is not available for playback")
	}

	encKey, err := s.resolveKey(ctx, publicID)
	if err != nil {
		return nil, err
	}

	ref := signedurl.AssetRef{
		PublicID:       publicID,
		Kind:           fileType,
		ClaimedVersion: claimedVersion,
	}
	minted, err := s.engine.MintPlaybackURL(ctx, ref, s.cfg.PlaybackURLTTL(), encKey)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("public_id", publicID).
		Str("user_id", principal.ID).
		Time("expires_at", minted.ExpiresAt).
		Bool("encrypted", minted.Encrypted).
		Msg("Minted playback URL")
	return minted, nil
}

func (s *playbackService) DecryptionKey(ctx context.Context, publicID string) (string, error) {
	if err := signedurl.CheckKeyHex(s.cfg.AESKeyHex); err != nil {
		return "", err
	}
	if publicID != "" {
		keyHex, err := s.keys.Get(ctx, publicID)
		if err != nil {
			return "", err
		}
		if keyHex != "" {
			return keyHex, nil
		}
	}
	return s.cfg.AESKeyHex, nil
}

// resolveKey picks the symmetric key for URL encryption. Returns nil when
// encryption is disabled; the engine then skips the wrap entirely.
func (s *playbackService) resolveKey(ctx context.Context, publicID string) ([]byte, error) {
	if !s.cfg.EncryptURLs {
		return nil, nil
	}
	keyHex, err := s.keys.Get(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if keyHex == "" {
		keyHex = s.cfg.AESKeyHex
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, apperr.Wrap(apperr.ProviderMisconfigured, "encryption key is not valid hex", err)
	}
	return key, nil
}
