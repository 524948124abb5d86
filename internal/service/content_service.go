package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"

	"mastery/internal/apperr"
	"mastery/internal/config"
	"mastery/internal/keystore"
	"mastery/internal/model"
	"mastery/internal/pubsub"
	"mastery/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var allowedExtensions = map[string]string{
	".pdf":  model.KindDocument,
	".mp4":  model.KindVideo,
	".mov":  model.KindVideo,
	".avi":  model.KindVideo,
	".mkv":  model.KindVideo,
	".webm": model.KindVideo,
}

// PendingUpload is handed back from an initiate call: the created record plus
// the pre-signed PUT URL the client uploads to.
type PendingUpload struct {
	PublicID  string
	Kind      string
	Version   string
	UploadURL string
}

// ContentService manages units and lectures and their media through a
// two-phase upload: initiate registers a pending asset and pre-signs the
// upload; complete verifies the object landed, records the version the
// upload fixed into provider metadata, and provisions the asset's key.
type ContentService interface {
	AddUnit(ctx context.Context, principal model.Principal, courseID, title, filename string, declaredSize int64) (*model.Unit, *PendingUpload, error)
	AddLecture(ctx context.Context, principal model.Principal, courseID, unitID, title string, order int, filename string, declaredSize int64) (*model.Lecture, *PendingUpload, error)
	// InitiateReplace pre-signs an upload that will replace an existing
	// asset's bytes under the next version.
	InitiateReplace(ctx context.Context, principal model.Principal, publicID string, declaredSize int64) (*PendingUpload, error)
	CompleteUpload(ctx context.Context, principal model.Principal, publicID string) (*model.AssetRef, error)
}

type contentService struct {
	courseRepo repository.CourseRepository
	registry   repository.RegistryRepository
	media      mediaStore
	keys       keyStore
	publisher  pubsub.Publisher
	cfg        *config.Config
	log        zerolog.Logger
}

func NewContentService(
	courseRepo repository.CourseRepository,
	registry repository.RegistryRepository,
	media mediaStore,
	keys keyStore,
	publisher pubsub.Publisher,
	cfg *config.Config,
	logger zerolog.Logger,
) ContentService {
	return &contentService{
		courseRepo: courseRepo,
		registry:   registry,
		media:      media,
		keys:       keys,
		publisher:  publisher,
		cfg:        cfg,
		log:        logger.With().Str("service", "ContentService").Logger(),
	}
}

func (s *contentService) AddUnit(ctx context.Context, principal model.Principal, courseID, title, filename string, declaredSize int64) (*model.Unit, *PendingUpload, error) {
	if err := s.requireCourseOwner(ctx, principal, courseID); err != nil {
		return nil, nil, err
	}

	pending, err := s.initiateAsset(ctx, filename, declaredSize)
	if err != nil {
		return nil, nil, err
	}

	unit := &model.Unit{
		CourseID: courseID,
		Title:    title,
		Introduction: model.AssetRef{
			PublicID: pending.PublicID,
			Kind:     pending.Kind,
			Version:  pending.Version,
			Status:   model.AssetStatusPending,
		},
	}
	if err := s.registry.AddUnit(ctx, unit); err != nil {
		s.log.Error().Err(err).Str("course_id", courseID).Msg("Failed to create unit")
		return nil, nil, err
	}

	s.log.Info().Str("unit_id", unit.UnitID).Str("course_id", courseID).Msg("Unit added")
	return unit, pending, nil
}

func (s *contentService) AddLecture(ctx context.Context, principal model.Principal, courseID, unitID, title string, order int, filename string, declaredSize int64) (*model.Lecture, *PendingUpload, error) {
	if order < 1 {
		return nil, nil, apperr.New(apperr.MalformedRequest, "lecture order must be a positive integer")
	}
	if err := s.requireCourseOwner(ctx, principal, courseID); err != nil {
		return nil, nil, err
	}

	unit, err := s.registry.GetUnitByID(ctx, unitID)
	if err != nil {
		return nil, nil, err
	}
	if unit == nil || unit.CourseID != courseID {
		return nil, nil, apperr.New(apperr.NotFound, "unit not found")
	}

	pending, err := s.initiateAsset(ctx, filename, declaredSize)
	if err != nil {
		return nil, nil, err
	}

	lecture := &model.Lecture{
		UnitID: unitID,
		Title:  title,
		Order:  order,
		Asset: model.AssetRef{
			PublicID: pending.PublicID,
			Kind:     pending.Kind,
			Version:  pending.Version,
			Status:   model.AssetStatusPending,
		},
	}
	if err := s.registry.AddLecture(ctx, lecture); err != nil {
		s.log.Error().Err(err).Str("unit_id", unitID).Msg("Failed to create lecture")
		return nil, nil, err
	}

	s.log.Info().Str("lecture_id", lecture.LectureID).Str("unit_id", unitID).Msg("Lecture added")
	return lecture, pending, nil
}

func (s *contentService) InitiateReplace(ctx context.Context, principal model.Principal, publicID string, declaredSize int64) (*PendingUpload, error) {
	if declaredSize > s.cfg.MaxUploadByte {
		return nil, apperr.New(apperr.MalformedRequest, "file exceeds the upload size limit")
	}
	course, err := s.registry.FindOwnerByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, apperr.New(apperr.AssetNotFound, "asset not found")
	}
	if course.CreatedBy != principal.ID && !principal.IsAdmin() {
		return nil, apperr.New(apperr.Forbidden, "not authorized for this asset")
	}

	asset, err := s.registry.GetAsset(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, apperr.New(apperr.AssetNotFound, "asset not found")
	}

	next := nextVersion(asset.Version)
	uploadURL, err := s.media.PresignUpload(ctx, publicID, asset.Kind, next, s.cfg.UploadURLTTL())
	if err != nil {
		return nil, err
	}
	return &PendingUpload{PublicID: publicID, Kind: asset.Kind, Version: next, UploadURL: uploadURL}, nil
}

func (s *contentService) CompleteUpload(ctx context.Context, principal model.Principal, publicID string) (*model.AssetRef, error) {
	course, err := s.registry.FindOwnerByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, apperr.New(apperr.AssetNotFound, "asset not found")
	}
	if course.CreatedBy != principal.ID && !principal.IsAdmin() {
		return nil, apperr.New(apperr.Forbidden, "not authorized for this asset")
	}

	asset, err := s.registry.GetAsset(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, apperr.New(apperr.AssetNotFound, "asset not found")
	}

	// The provider copy is authoritative: the version was fixed into the
	// pre-signed request metadata, so read it back rather than trusting the
	// client.
	version, err := s.media.CurrentVersion(ctx, publicID, asset.Kind)
	if err != nil {
		if apperr.KindOf(err) == apperr.AssetNotFound {
			_ = s.registry.MarkAssetFailed(ctx, publicID)
			s.log.Error().Str("public_id", publicID).Msg("Uploaded object not found in storage")
			return nil, apperr.New(apperr.AssetNotFound, "uploaded file not found in storage")
		}
		return nil, err
	}

	if err := s.registry.MarkAssetReady(ctx, publicID, version); err != nil {
		s.log.Error().Err(err).Str("public_id", publicID).Msg("Failed to mark asset ready")
		return nil, err
	}

	// Provision the asset's encryption key on first completion so encrypted
	// playback URLs never fall back to the shared default.
	existing, err := s.keys.Get(ctx, publicID)
	if err != nil {
		s.log.Error().Err(err).Str("public_id", publicID).Msg("Failed to look up asset key")
	} else if existing == "" {
		if keyHex, genErr := keystore.GenerateKey(); genErr == nil {
			if putErr := s.keys.Put(ctx, publicID, keyHex); putErr != nil {
				s.log.Error().Err(putErr).Str("public_id", publicID).Msg("Failed to store asset key")
			}
		}
	}

	s.publishUploadComplete(ctx, publicID, asset.Kind, version, principal.ID)

	asset.Version = version
	asset.Status = model.AssetStatusReady
	s.log.Info().Str("public_id", publicID).Str("version", version).Msg("Upload completed")
	return asset, nil
}

// publishUploadComplete emits the media event; failure is logged, not fatal.
// The asset is live either way and downstream processing can be retriggered.
func (s *contentService) publishUploadComplete(ctx context.Context, publicID, kind, version, userID string) {
	payload := struct {
		Event    string `json:"event"`
		PublicID string `json:"public_id"`
		FileType string `json:"file_type"`
		Version  string `json:"version"`
		UserID   string `json:"user_id"`
	}{
		Event:    "media.upload.completed",
		PublicID: publicID,
		FileType: kind,
		Version:  version,
		UserID:   userID,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("public_id", publicID).Msg("Failed to marshal upload event")
		return
	}
	if _, err := s.publisher.Publish(ctx, s.cfg.MediaEventTopic, data); err != nil {
		s.log.Error().Err(err).Str("topic", s.cfg.MediaEventTopic).Msg("Failed to publish upload event")
	}
}

// initiateAsset registers a pending asset row and pre-signs its upload.
func (s *contentService) initiateAsset(ctx context.Context, filename string, declaredSize int64) (*PendingUpload, error) {
	kind, err := kindFromFilename(filename)
	if err != nil {
		return nil, err
	}
	if declaredSize > s.cfg.MaxUploadByte {
		return nil, apperr.New(apperr.MalformedRequest, "file exceeds the upload size limit")
	}

	publicID := uuid.NewString()
	version := "1"

	asset := &model.AssetRef{
		PublicID: publicID,
		Kind:     kind,
		Version:  version,
		Status:   model.AssetStatusPending,
	}
	if err := s.registry.CreateAsset(ctx, asset); err != nil {
		s.log.Error().Err(err).Msg("Failed to create asset record")
		return nil, err
	}

	uploadURL, err := s.media.PresignUpload(ctx, publicID, kind, version, s.cfg.UploadURLTTL())
	if err != nil {
		s.log.Error().Err(err).Str("public_id", publicID).Msg("Failed to generate presigned upload URL")
		return nil, err
	}

	return &PendingUpload{PublicID: publicID, Kind: kind, Version: version, UploadURL: uploadURL}, nil
}

func (s *contentService) requireCourseOwner(ctx context.Context, principal model.Principal, courseID string) error {
	course, err := s.courseRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return apperr.New(apperr.NotFound, "course not found")
	}
	if course.CreatedBy != principal.ID && !principal.IsAdmin() {
		return apperr.New(apperr.Forbidden, "not authorized for this course")
	}
	return nil
}

func kindFromFilename(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	kind, ok := allowedExtensions[ext]
	if !ok {
		return "", apperr.New(apperr.MalformedRequest, "file type not supported")
	}
	return kind, nil
}

func nextVersion(current string) string {
	n, err := strconv.Atoi(current)
	if err != nil {
		return "1"
	}
	return strconv.Itoa(n + 1)
}
