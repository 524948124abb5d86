package service

import (
	"context"
	"time"

	"mastery/internal/apperr"
	"mastery/internal/config"
	"mastery/internal/model"
	"mastery/internal/repository"
	"mastery/internal/util"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// TokenPair bundles a freshly issued access/refresh token set.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AuthService implements registration, login, refresh and logout. The
// refresh token persisted on the user row is the single source of truth:
// issuing a new pair overwrites it, invalidating every earlier chain.
type AuthService interface {
	Register(ctx context.Context, username, email, password, role string) (*model.User, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, userID string) error
}

type authService struct {
	userRepo repository.UserRepository
	cfg      *config.Config
	log      zerolog.Logger
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config, logger zerolog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		cfg:      cfg,
		log:      logger.With().Str("service", "AuthService").Logger(),
	}
}

func (s *authService) Register(ctx context.Context, username, email, password, role string) (*model.User, *TokenPair, error) {
	exists, err := s.userRepo.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("Failed to check existing user")
		return nil, nil, err
	}
	if exists {
		return nil, nil, apperr.New(apperr.Conflict, "user with this email or username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, nil, err
	}
	if role != model.RoleAdmin {
		role = model.RoleUser
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("Failed to create user")
		return nil, nil, err
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info().Str("user_id", user.UserID).Msg("User registered")
	return user, pair, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("Failed to look up user")
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, apperr.New(apperr.NotFound, "user not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn().Str("user_id", user.UserID).Msg("Invalid password attempt")
		return nil, nil, apperr.New(apperr.InvalidCredential, "invalid email or password")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info().Str("user_id", user.UserID).Msg("User logged in")
	return user, pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.cfg.JWTRefreshSecret)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidCredential, "invalid refresh token", err)
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.New(apperr.InvalidCredential, "invalid refresh token")
	}
	// The stored token is the only valid one; anything else is a revoked or
	// superseded chain.
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		s.log.Warn().Str("user_id", user.UserID).Msg("Refresh token does not match stored value")
		return nil, apperr.New(apperr.InvalidCredential, "refresh token revoked")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *authService) Logout(ctx context.Context, userID string) error {
	if err := s.userRepo.SetRefreshToken(ctx, userID, nil); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("Failed to clear refresh token")
		return err
	}
	s.log.Info().Str("user_id", userID).Msg("User logged out")
	return nil
}

// issueTokens mints a new pair and persists the refresh token, rotating out
// whatever was stored before.
func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	now := time.Now().UTC()

	access, err := util.GenerateToken(user.UserID, user.Role, s.cfg.JWTAccessSecret, s.cfg.AccessTokenTTL())
	if err != nil {
		return nil, err
	}
	refresh, err := util.GenerateToken(user.UserID, user.Role, s.cfg.JWTRefreshSecret, s.cfg.RefreshTokenTTL())
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetRefreshToken(ctx, user.UserID, &refresh); err != nil {
		s.log.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to persist refresh token")
		return nil, err
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(s.cfg.AccessTokenTTL()),
		RefreshExpiresAt: now.Add(s.cfg.RefreshTokenTTL()),
	}, nil
}
