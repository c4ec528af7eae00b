package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/PictureIt/internal/auth"
	"github.com/GoArmGo/PictureIt/internal/domain"
	"github.com/GoArmGo/PictureIt/internal/logger"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", domain.NewValidationError("bad"), http.StatusBadRequest},
		{"credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"token missing", domain.ErrTokenMissing, http.StatusUnauthorized},
		{"token invalid", fmt.Errorf("%w: sig", domain.ErrTokenInvalid), http.StatusForbidden},
		{"token expired", domain.ErrTokenExpired, http.StatusForbidden},
		{"not found", fmt.Errorf("usecase: %w", domain.ErrNotFound), http.StatusNotFound},
		{"duplicate", domain.ErrDuplicate, http.StatusConflict},
		{"upstream", &domain.UpstreamError{Op: "create image", StatusCode: 500}, http.StatusBadGateway},
		{"signing", domain.ErrSigning, http.StatusInternalServerError},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _, _ := classifyError(tt.err)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestRespondWithDomainError_ProductionCollapsesUnclassified(t *testing.T) {
	err := fmt.Errorf("usecase: ошибка сохранения: %w", errors.New("pq: password authentication failed for user app"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := httptest.NewRecorder()
	respondWithDomainError(rec, req, err, true, logger.Discard())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody[errorResponse](t, rec)
	assert.Equal(t, unexpectedMessage, body.Message)
	assert.Empty(t, body.Detail)
	assert.Empty(t, body.Chain)
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestRespondWithDomainError_DevelopmentAddsDetail(t *testing.T) {
	inner := errors.New("pq: connection refused")
	err := fmt.Errorf("usecase: ошибка сохранения: %w", inner)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := httptest.NewRecorder()
	respondWithDomainError(rec, req, err, false, logger.Discard())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody[errorResponse](t, rec)
	assert.Equal(t, err.Error(), body.Detail)
	assert.Equal(t, []string{err.Error(), inner.Error()}, body.Chain)
}

func TestRespondWithDomainError_ClassifiedKeepsPublicMessage(t *testing.T) {
	err := fmt.Errorf("usecase: изображение 42: %w", domain.ErrNotFound)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := httptest.NewRecorder()
	respondWithDomainError(rec, req, err, true, logger.Discard())

	body := decodeBody[errorResponse](t, rec)
	assert.Equal(t, http.StatusNotFound, body.Status)
	assert.Equal(t, domain.ErrNotFound.Error(), body.Message)
	assert.Empty(t, body.Detail)
}

func TestValidationMessageStripsWrapPrefixes(t *testing.T) {
	err := fmt.Errorf("usecase: внутренний слой: %w", domain.NewValidationError("location is too long"))
	msg := validationMessage(err)
	assert.True(t, strings.HasPrefix(msg, domain.ErrValidation.Error()))
	assert.Contains(t, msg, "location is too long")
	assert.NotContains(t, msg, "usecase")
}

func TestErrorChain_Joined(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")
	chain := errorChain(errors.Join(a, b))
	assert.Equal(t, []string{"a\nb", "a", "b"}, chain)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		limit   int64
		wantErr bool
	}{
		{"ok", `{"name":"x"}`, 1024, false},
		{"unknown field", `{"name":"x","extra":1}`, 1024, true},
		{"two objects", `{"name":"x"}{"name":"y"}`, 1024, true},
		{"too large", `{"name":"` + strings.Repeat("x", 64) + `"}`, 16, true},
		{"empty", ``, 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst payload
			err := decodeJSON(httptest.NewRecorder(), req, tt.limit, &dst)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "x", dst.Name)
		})
	}
}

type stubVerifier struct {
	claims *auth.Claims
	err    error
	seen   string
}

func (s *stubVerifier) Verify(raw string) (*auth.Claims, error) {
	s.seen = raw
	return s.claims, s.err
}

func TestAuthenticate(t *testing.T) {
	var gotUser string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		header   string
		cookie   string
		verifier *stubVerifier
		status   int
	}{
		{"no token", "", "", &stubVerifier{}, http.StatusUnauthorized},
		{"wrong scheme", "Basic YWxpY2U6cHc=", "", &stubVerifier{}, http.StatusForbidden},
		{"empty bearer", "Bearer ", "", &stubVerifier{}, http.StatusUnauthorized},
		{"bare bearer", "Bearer", "", &stubVerifier{}, http.StatusUnauthorized},
		{"bare bearer lowercase", "bearer", "", &stubVerifier{}, http.StatusUnauthorized},
		{"expired", "Bearer tok", "", &stubVerifier{err: domain.ErrTokenExpired}, http.StatusForbidden},
		{"invalid", "Bearer tok", "", &stubVerifier{err: domain.ErrTokenInvalid}, http.StatusForbidden},
		{"valid header", "Bearer tok", "", &stubVerifier{claims: &auth.Claims{UserID: "u-1"}}, http.StatusOK},
		{"valid cookie", "", "tok", &stubVerifier{claims: &auth.Claims{UserID: "u-1"}}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: tt.cookie})
			}

			rec := httptest.NewRecorder()
			Authenticate(tt.verifier, true, logger.Discard())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "u-1", gotUser)
				assert.Equal(t, "tok", tt.verifier.seen)
			}
		})
	}
}

func TestUserIDFromContext_Empty(t *testing.T) {
	assert.Equal(t, "", UserIDFromContext(context.Background()))
	assert.Equal(t, "u-1", UserIDFromContext(WithUserID(context.Background(), "u-1")))
}
