package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace/internal/auth"
	"marketplace/internal/config"
	"marketplace/internal/controller"
	"marketplace/internal/metrics"
	"marketplace/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService answers every listing with an empty result.
type stubService struct {
	controller.Service
}

func (stubService) ClientJobs(ctx context.Context, ident models.Identity) ([]models.ClientJob, error) {
	return []models.ClientJob{}, nil
}

func (stubService) OpenJobs(ctx context.Context, ident models.Identity) ([]models.OpenJob, error) {
	return []models.OpenJob{}, nil
}

func (stubService) History(ctx context.Context, ident models.Identity) ([]models.JobEvent, error) {
	return []models.JobEvent{}, nil
}

func newTestRouter() (http.Handler, *auth.Sessions) {
	sessions := auth.NewSessions(config.SessionConfig{Secret: "s", TTL: time.Hour, CookieName: "session"})
	c := controller.NewController(stubService{}, sessions, 1<<20)
	return NewRouter(c, sessions, metrics.New()), sessions
}

func sessionCookies(t *testing.T, sessions *auth.Sessions, ident models.Identity) []*http.Cookie {
	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Issue(rec, ident))
	return rec.Result().Cookies()
}

func TestRoleGates(t *testing.T) {
	h, sessions := newTestRouter()
	clientCookies := sessionCookies(t, sessions, models.Identity{UserId: 1, Username: "c", Role: models.RoleClient})
	contractorCookies := sessionCookies(t, sessions, models.Identity{UserId: 2, Username: "k", Role: models.RoleContractor})

	cases := []struct {
		method, path string
		cookies      []*http.Cookie
		status       int
	}{
		{"GET", "/api/ping", nil, http.StatusOK},
		{"GET", "/api/history", nil, http.StatusUnauthorized},
		{"GET", "/api/history", clientCookies, http.StatusOK},
		{"GET", "/api/history", contractorCookies, http.StatusOK},
		{"GET", "/api/client/jobs", clientCookies, http.StatusOK},
		{"GET", "/api/client/jobs", contractorCookies, http.StatusForbidden},
		{"GET", "/api/contractor/jobs", contractorCookies, http.StatusOK},
		{"GET", "/api/contractor/jobs", clientCookies, http.StatusForbidden},
		{"POST", "/api/jobs", contractorCookies, http.StatusForbidden},
		{"POST", "/api/jobs/1/bids", clientCookies, http.StatusForbidden},
		{"POST", "/api/jobs/1/review", contractorCookies, http.StatusForbidden},
		{"GET", "/api/nowhere", nil, http.StatusNotFound},
		{"GET", "/metrics", nil, http.StatusOK},
	}

	for _, c := range cases {
		req := httptest.NewRequest(c.method, c.path, strings.NewReader(""))
		for _, ck := range c.cookies {
			req.AddCookie(ck)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, c.status, rec.Code, "%s %s", c.method, c.path)
	}
}
