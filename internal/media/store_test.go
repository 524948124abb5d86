package media

import (
	"errors"
	"testing"

	"mastery/internal/apperr"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

func TestObjectKey(t *testing.T) {
	if got := ObjectKey("abc-123", "video"); got != "media/video/abc-123" {
		t.Fatalf("unexpected object key: %q", got)
	}
	if got := ObjectKey("doc-1", "pdf"); got != "media/pdf/doc-1" {
		t.Fatalf("unexpected object key: %q", got)
	}
}

func TestClassifyProviderErrors(t *testing.T) {
	s := &Store{log: zerolog.Nop()}

	cases := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"typed not found", &types.NotFound{}, apperr.AssetNotFound},
		{"typed no such key", &types.NoSuchKey{}, apperr.AssetNotFound},
		{"code NoSuchKey", &smithy.GenericAPIError{Code: "NoSuchKey"}, apperr.AssetNotFound},
		{"code SlowDown", &smithy.GenericAPIError{Code: "SlowDown"}, apperr.ProviderRateLimited},
		{"code TooManyRequests", &smithy.GenericAPIError{Code: "TooManyRequests"}, apperr.ProviderRateLimited},
		{"code InvalidAccessKeyId", &smithy.GenericAPIError{Code: "InvalidAccessKeyId"}, apperr.ProviderMisconfigured},
		{"code SignatureDoesNotMatch", &smithy.GenericAPIError{Code: "SignatureDoesNotMatch"}, apperr.ProviderMisconfigured},
		{"code AccessDenied", &smithy.GenericAPIError{Code: "AccessDenied"}, apperr.ProviderMisconfigured},
		{"unknown code", &smithy.GenericAPIError{Code: "Teapot"}, apperr.Internal},
		{"plain error", errors.New("connection reset"), apperr.Internal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := apperr.KindOf(s.classify(c.err, "asset-1")); got != c.want {
				t.Fatalf("expected %s, got %s", c.want, got)
			}
		})
	}
}
