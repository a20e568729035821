package router

import (
	"net/http"
	"time"

	"marketplace/internal/auth"
	"marketplace/internal/controller"
	"marketplace/internal/logger"
	"marketplace/internal/metrics"
	"marketplace/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

func NewRouter(c *controller.Controller, sessions *auth.Sessions, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logRequests(logger.NewSublogger("http")))
	r.Use(m.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(sessions.Authenticate)

	r.Get("/api/ping", c.Ping)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Post("/api/register", c.Register)
	r.Post("/api/login", c.Login)

	r.Group(func(r chi.Router) {
		r.Use(auth.Require())

		r.Post("/api/logout", c.Logout)
		r.Get("/api/me", c.Me)
		r.Get("/api/history", c.History)
		r.Get("/api/jobs/{jobId}", c.JobDetail)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Require(models.RoleClient))

		r.Get("/api/contractors", c.Contractors)
		r.Get("/api/client/jobs", c.ClientJobs)
		r.Post("/api/jobs", c.CreateJob)
		r.Post("/api/jobs/{jobId}/bids/{bidId}/accept", c.AcceptBid)
		r.Post("/api/jobs/{jobId}/review", c.ReviewJob)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Require(models.RoleContractor))

		r.Get("/api/contractor/jobs", c.OpenJobs)
		r.Get("/api/contractor/my-jobs", c.ContractorJobs)
		r.Get("/api/contractor/invitations", c.Invitations)
		r.Post("/api/jobs/{jobId}/bids", c.SubmitBid)
		r.Post("/api/jobs/{jobId}/invitation/accept", c.AcceptInvitation)
		r.Post("/api/jobs/{jobId}/invitation/decline", c.DeclineInvitation)
		r.Post("/api/jobs/{jobId}/deliverables", c.UploadDeliverable)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("page not found"))
	})

	return r
}

func logRequests(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start),
				"remote":     r.RemoteAddr,
			}).Debug("Request handled")
		})
	}
}
