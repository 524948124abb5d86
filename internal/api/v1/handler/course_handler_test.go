package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mastery/internal/apperr"
	"mastery/internal/middleware"
	"mastery/internal/model"
	"mastery/internal/signedurl"
	"mastery/internal/util"

	"github.com/go-playground/validator/v10"
)

const testAccessSecret = "test-access-secret"

// fakePlaybackService returns canned mints for handler tests.
type fakePlaybackService struct {
	signed *signedurl.SignedURL
	key    string
	err    error
}

func (f *fakePlaybackService) MintPlaybackURL(ctx context.Context, principal model.Principal, publicID, fileType, claimedVersion string) (*signedurl.SignedURL, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.signed, nil
}

func (f *fakePlaybackService) Authorize(ctx context.Context, principal model.Principal, publicID string) (*model.Course, error) {
	return nil, f.err
}

func (f *fakePlaybackService) DecryptionKey(ctx context.Context, publicID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.key, nil
}

func signedURLMux(t *testing.T, playback *fakePlaybackService) *http.ServeMux {
	t.Helper()
	validate := validator.New(validator.WithRequiredStructEnabled())
	h := NewCourseHandler(nil, playback, validate)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, middleware.AuthMiddleware(testAccessSecret))
	return mux
}

func authedRequest(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	token, err := util.GenerateToken("user-1", model.RoleUser, testAccessSecret, time.Minute)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestMintSignedURLPlain(t *testing.T) {
	expires := time.Now().Add(5 * time.Minute).UTC().Truncate(time.Second)
	playback := &fakePlaybackService{signed: &signedurl.SignedURL{
		URL:       "https://media.example.com/video/vid-1?exp=123&_a=abc",
		ExpiresAt: expires,
	}}
	mux := signedURLMux(t, playback)

	req := authedRequest(t, http.MethodPost, "/courses/signed-url", `{"publicId":"vid-1","fileType":"video","version":"1"}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp["url"] == "" || resp["url"] == nil {
		t.Fatalf("expected url field, got %v", resp)
	}
	if _, ok := resp["encryptedUrl"]; ok {
		t.Fatal("expected encryptedUrl omitted for plaintext mints")
	}
}

func TestMintSignedURLEncrypted(t *testing.T) {
	playback := &fakePlaybackService{signed: &signedurl.SignedURL{
		URL:       "aabbcc:ddeeff",
		Encrypted: true,
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}}
	mux := signedURLMux(t, playback)

	req := authedRequest(t, http.MethodPost, "/courses/signed-url", `{"publicId":"vid-1","fileType":"video","version":"1"}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp["encryptedUrl"] != "aabbcc:ddeeff" {
		t.Fatalf("expected encryptedUrl, got %v", resp)
	}
	if _, ok := resp["url"]; ok {
		t.Fatal("expected url omitted for encrypted mints")
	}
}

func TestMintSignedURLErrorStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"forbidden", apperr.New(apperr.Forbidden, "not authorized for this asset"), http.StatusForbidden},
		{"not found", apperr.New(apperr.AssetNotFound, "asset not found"), http.StatusNotFound},
		{"stale version", apperr.New(apperr.VersionMismatch, "asset version is stale"), http.StatusBadRequest},
		{"throttled", apperr.New(apperr.ProviderRateLimited, "storage provider is throttling requests"), http.StatusTooManyRequests},
		{"misconfigured", apperr.New(apperr.ProviderMisconfigured, "encryption key must be 32 bytes"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mux := signedURLMux(t, &fakePlaybackService{err: c.err})
			req := authedRequest(t, http.MethodPost, "/courses/signed-url", `{"publicId":"vid-1","fileType":"video","version":"1"}`)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != c.want {
				t.Fatalf("expected %d, got %d", c.want, rec.Code)
			}
			var resp map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("error body is not JSON: %v", err)
			}
			if resp["message"] == "" || resp["message"] == nil {
				t.Fatalf("expected message field in error body, got %v", resp)
			}
		})
	}
}

func TestMintSignedURLValidation(t *testing.T) {
	mux := signedURLMux(t, &fakePlaybackService{})

	// Missing version.
	req := authedRequest(t, http.MethodPost, "/courses/signed-url", `{"publicId":"vid-1","fileType":"video"}`)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing version, got %d", rec.Code)
	}

	// Unknown file type.
	req = authedRequest(t, http.MethodPost, "/courses/signed-url", `{"publicId":"vid-1","fileType":"exe","version":"1"}`)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad fileType, got %d", rec.Code)
	}
}

func TestMintSignedURLRequiresAuth(t *testing.T) {
	mux := signedURLMux(t, &fakePlaybackService{})

	req := httptest.NewRequest(http.MethodPost, "/courses/signed-url", strings.NewReader(`{"publicId":"vid-1","fileType":"video","version":"1"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Message == "" {
		t.Fatal("expected a message in the error body")
	}
}
