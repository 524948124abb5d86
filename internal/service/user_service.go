package service

import (
	"context"

	"mastery/internal/apperr"
	"mastery/internal/model"
	"mastery/internal/repository"

	"github.com/rs/zerolog"
)

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*model.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	log      zerolog.Logger
}

func NewUserService(userRepo repository.UserRepository, logger zerolog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      logger.With().Str("service", "UserService").Logger(),
	}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	return user, nil
}
