package service

import (
	"context"
	"testing"

	"mastery/internal/apperr"
	"mastery/internal/config"
	"mastery/internal/model"

	"github.com/rs/zerolog"
)

func authTestConfig() *config.Config {
	return &config.Config{
		JWTAccessSecret:   "access-secret",
		JWTRefreshSecret:  "refresh-secret",
		AccessTokenTTLMin: 15,
		RefreshTokenTTLHr: 24 * 7,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, authTestConfig(), zerolog.Nop())
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, "alice", "alice@example.com", "s3cretpass", "")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != model.RoleUser {
		t.Fatalf("expected default role user, got %q", user.Role)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}

	// Duplicate registration conflicts.
	if _, _, err := svc.Register(ctx, "alice", "alice@example.com", "s3cretpass", ""); apperr.KindOf(err) != apperr.Conflict {
		t.Fatalf("expected Conflict on duplicate registration, got %v", err)
	}

	if _, _, err := svc.Login(ctx, "alice@example.com", "s3cretpass"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice@example.com", "wrong"); apperr.KindOf(err) != apperr.InvalidCredential {
		t.Fatalf("expected InvalidCredential for wrong password, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "whatever"); apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected NotFound for unknown email, got %v", err)
	}
}

func TestRegisterCannotSelfAssignAdmin(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), authTestConfig(), zerolog.Nop())

	user, _, err := svc.Register(context.Background(), "mallory", "mallory@example.com", "s3cretpass", "superuser")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != model.RoleUser {
		t.Fatalf("expected role coerced to user, got %q", user.Role)
	}
}

func TestRefreshRotation(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, authTestConfig(), zerolog.Nop())
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, "bob", "bob@example.com", "s3cretpass", "")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("expected refresh to rotate the token")
	}

	// The superseded token is dead.
	if _, err := svc.Refresh(ctx, pair.RefreshToken); apperr.KindOf(err) != apperr.InvalidCredential {
		t.Fatalf("expected InvalidCredential for superseded token, got %v", err)
	}

	// The rotated one still works.
	if _, err := svc.Refresh(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("expected rotated token to refresh, got %v", err)
	}

	// Logout revokes the chain entirely.
	if err := svc.Logout(ctx, user.UserID); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	stored, _ := repo.GetUserByID(ctx, user.UserID)
	if stored.RefreshToken != nil {
		t.Fatal("expected stored refresh token cleared on logout")
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), authTestConfig(), zerolog.Nop())

	if _, err := svc.Refresh(context.Background(), "not-a-jwt"); apperr.KindOf(err) != apperr.InvalidCredential {
		t.Fatalf("expected InvalidCredential for malformed token, got %v", err)
	}
}
