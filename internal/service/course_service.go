package service

import (
	"context"

	"mastery/internal/apperr"
	"mastery/internal/model"
	"mastery/internal/repository"

	"github.com/rs/zerolog"
)

// CourseService implements course CRUD. Mutations carry the same
// owner-or-admin rule as playback: only the creator or an admin may touch a
// course's content.
type CourseService interface {
	CreateCourse(ctx context.Context, principal model.Principal, c *model.Course) (*model.Course, error)
	GetCourseByID(ctx context.Context, courseID string) (*model.Course, error)
	ListCourses(ctx context.Context, search, category string, page, limit int) ([]model.Course, int, error)
	UpdateCourse(ctx context.Context, principal model.Principal, c *model.Course) (*model.Course, error)
	DeleteCourse(ctx context.Context, principal model.Principal, courseID string) error
}

type courseService struct {
	repo     repository.CourseRepository
	registry repository.RegistryRepository
	media    mediaStore
	keys     keyStore
	log      zerolog.Logger
}

func NewCourseService(
	repo repository.CourseRepository,
	registry repository.RegistryRepository,
	media mediaStore,
	keys keyStore,
	logger zerolog.Logger,
) CourseService {
	return &courseService{
		repo:     repo,
		registry: registry,
		media:    media,
		keys:     keys,
		log:      logger.With().Str("service", "CourseService").Logger(),
	}
}

func (s *courseService) CreateCourse(ctx context.Context, principal model.Principal, c *model.Course) (*model.Course, error) {
	c.CreatedBy = principal.ID
	if c.Category == "" {
		c.Category = "Uncategorized"
	}
	if err := s.repo.CreateCourse(ctx, c); err != nil {
		s.log.Error().Err(err).Str("user_id", principal.ID).Msg("Failed to create course")
		return nil, err
	}
	s.log.Info().Str("course_id", c.CourseID).Str("user_id", principal.ID).Msg("Course created")
	return c, nil
}

func (s *courseService) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	course, err := s.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, apperr.New(apperr.NotFound, "course not found")
	}
	units, err := s.registry.GetUnitsWithContent(ctx, courseID)
	if err != nil {
		return nil, err
	}
	course.Units = units
	return course, nil
}

func (s *courseService) ListCourses(ctx context.Context, search, category string, page, limit int) ([]model.Course, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.repo.ListCourses(ctx, search, category, limit, (page-1)*limit)
}

func (s *courseService) UpdateCourse(ctx context.Context, principal model.Principal, c *model.Course) (*model.Course, error) {
	existing, err := s.requireOwner(ctx, principal, c.CourseID)
	if err != nil {
		return nil, err
	}

	if c.Title == "" {
		c.Title = existing.Title
	}
	if c.Description == "" {
		c.Description = existing.Description
	}
	if c.Category == "" {
		c.Category = existing.Category
	}
	if err := s.repo.UpdateCourse(ctx, c); err != nil {
		s.log.Error().Err(err).Str("course_id", c.CourseID).Msg("Failed to update course")
		return nil, err
	}
	s.log.Info().Str("course_id", c.CourseID).Str("user_id", principal.ID).Msg("Course updated")
	return c, nil
}

func (s *courseService) DeleteCourse(ctx context.Context, principal model.Principal, courseID string) error {
	if _, err := s.requireOwner(ctx, principal, courseID); err != nil {
		return err
	}

	// Best-effort provider and keystore cleanup before the rows go away; the
	// registry delete is the authoritative step.
	assets, err := s.registry.ListCourseAssets(ctx, courseID)
	if err != nil {
		return err
	}
	for _, a := range assets {
		if err := s.media.Delete(ctx, a.PublicID, a.Kind); err != nil {
			s.log.Error().Err(err).Str("public_id", a.PublicID).Msg("Failed to delete asset from storage")
		}
		if err := s.keys.Delete(ctx, a.PublicID); err != nil {
			s.log.Error().Err(err).Str("public_id", a.PublicID).Msg("Failed to delete asset key")
		}
	}

	if err := s.repo.DeleteCourse(ctx, courseID); err != nil {
		s.log.Error().Err(err).Str("course_id", courseID).Msg("Failed to delete course")
		return err
	}
	s.log.Info().Str("course_id", courseID).Str("user_id", principal.ID).Msg("Course deleted")
	return nil
}

// requireOwner loads the course and enforces the owner-or-admin rule shared
// by every content mutation.
func (s *courseService) requireOwner(ctx context.Context, principal model.Principal, courseID string) (*model.Course, error) {
	course, err := s.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, apperr.New(apperr.NotFound, "course not found")
	}
	if course.CreatedBy != principal.ID && !principal.IsAdmin() {
		return nil, apperr.New(apperr.Forbidden, "not authorized for this course")
	}
	return course, nil
}
