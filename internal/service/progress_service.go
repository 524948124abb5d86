package service

import (
	"context"

	"mastery/internal/apperr"
	"mastery/internal/model"
	"mastery/internal/repository"

	"github.com/rs/zerolog"
)

// ProgressService records and reports lecture completion.
type ProgressService interface {
	MarkCompleted(ctx context.Context, principal model.Principal, courseID, unitID, lectureID string) (*model.Progress, error)
	GetProgress(ctx context.Context, principal model.Principal) ([]model.Progress, error)
}

type progressService struct {
	progressRepo repository.ProgressRepository
	registry     repository.RegistryRepository
	log          zerolog.Logger
}

func NewProgressService(progressRepo repository.ProgressRepository, registry repository.RegistryRepository, logger zerolog.Logger) ProgressService {
	return &progressService{
		progressRepo: progressRepo,
		registry:     registry,
		log:          logger.With().Str("service", "ProgressService").Logger(),
	}
}

func (s *progressService) MarkCompleted(ctx context.Context, principal model.Principal, courseID, unitID, lectureID string) (*model.Progress, error) {
	lecture, err := s.registry.GetLectureByID(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	if lecture == nil || lecture.UnitID != unitID {
		return nil, apperr.New(apperr.NotFound, "lecture not found")
	}

	unit, err := s.registry.GetUnitByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil || unit.CourseID != courseID {
		return nil, apperr.New(apperr.NotFound, "unit not found")
	}

	progress := &model.Progress{
		UserID:    principal.ID,
		CourseID:  courseID,
		UnitID:    unitID,
		LectureID: lectureID,
	}
	if err := s.progressRepo.MarkCompleted(ctx, progress); err != nil {
		s.log.Error().Err(err).Str("lecture_id", lectureID).Msg("Failed to record progress")
		return nil, err
	}

	s.log.Info().Str("user_id", principal.ID).Str("lecture_id", lectureID).Msg("Lecture marked complete")
	return progress, nil
}

func (s *progressService) GetProgress(ctx context.Context, principal model.Principal) ([]model.Progress, error) {
	return s.progressRepo.GetProgressByUserID(ctx, principal.ID)
}
