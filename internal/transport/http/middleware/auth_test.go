package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrcore/internal/domain/auth"
)

const testSecret = "test-secret"

func actorEcho(t *testing.T, captured *auth.Actor) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor, ok := GetActor(r.Context()); ok {
			*captured = actor
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthResolvesBearerToken(t *testing.T) {
	want := auth.Actor{UserID: "u-1", EmployeeID: "e-1", Role: auth.RoleHR}
	token, err := auth.IssueToken(testSecret, want, time.Hour)
	require.NoError(t, err)

	var got auth.Actor
	handler := Auth(testSecret)(actorEcho(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, want, got)
}

func TestAuthIgnoresInvalidToken(t *testing.T) {
	var got auth.Actor
	handler := Auth(testSecret)(actorEcho(t, &got))

	for _, header := range []string{"", "Bearer garbage", "Basic abc", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Empty(t, got.UserID, "header %q must stay anonymous", header)
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	token, err := auth.IssueToken(testSecret, auth.Actor{UserID: "u-1", Role: auth.RoleViewer}, time.Hour)
	require.NoError(t, err)
	chained := Auth(testSecret)(handler)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder = httptest.NewRecorder()
	chained.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

func TestRequireCapability(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	gate := RequireCapability(auth.CapAuditRead)(inner)

	issue := func(role string) *http.Request {
		token, err := auth.IssueToken(testSecret, auth.Actor{UserID: "u-1", Role: role}, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	recorder := httptest.NewRecorder()
	Auth(testSecret)(gate).ServeHTTP(recorder, issue(auth.RoleViewer))
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = httptest.NewRecorder()
	Auth(testSecret)(gate).ServeHTTP(recorder, issue(auth.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = httptest.NewRecorder()
	gate.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
