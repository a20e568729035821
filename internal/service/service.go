package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"marketplace/internal/auth"
	"marketplace/internal/logger"
	"marketplace/internal/models"
	"marketplace/internal/repository"

	"github.com/sirupsen/logrus"
)

// FileStore persists uploaded files under a flat name.
type FileStore interface {
	Save(name string, src io.Reader) error
	Remove(name string) error
}

// EventRecorder is told about every committed lifecycle event.
type EventRecorder interface {
	RecordEvent(t models.EventType)
}

type Service struct {
	repo   *repository.Repository
	files  FileStore
	events EventRecorder
	log    *logrus.Entry
	now    func() time.Time
}

type option func(*Service)

func WithClock(now func() time.Time) option {
	return func(s *Service) {
		s.now = now
	}
}

func WithEventRecorder(r EventRecorder) option {
	return func(s *Service) {
		s.events = r
	}
}

func NewService(repo *repository.Repository, files FileStore, opts ...option) *Service {
	s := &Service{
		repo:  repo,
		files: files,
		log:   logger.NewSublogger("service"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// today is the current calendar day in UTC.
func (s *Service) today() time.Time {
	return dateOf(s.now())
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Service) committed(t models.EventType, jobId int64, ident models.Identity) {
	s.log.WithFields(logrus.Fields{
		"event":  t,
		"job_id": jobId,
		"actor":  ident.UserId,
	}).Info("Job event committed")

	if s.events != nil {
		s.events.RecordEvent(t)
	}
}

// removeOrphan deletes a file written by a transaction that did not commit.
func (s *Service) removeOrphan(name string) {
	if name == "" {
		return
	}
	err := s.files.Remove(name)
	if err != nil {
		s.log.WithError(err).WithField("file", name).Warn("Could not remove file of failed transaction")
	}
}

//// Users

func (s *Service) Register(ctx context.Context, username, password, role string) (models.User, error) {
	r, err := validateRegistration(username, password, role)
	if err != nil {
		return models.User{}, fmt.Errorf("service.Service.Register: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("service.Service.Register: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, models.User{Username: username, PasswordHash: hash, Role: r})
	if err != nil {
		return user, fmt.Errorf("service.Service.Register: %w", err)
	}

	s.log.WithField("user_id", user.Id).Infof("Registered %s %q", user.Role, user.Username)
	return user, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (models.User, error) {
	user, ok, err := s.repo.UserByUsername(ctx, username)
	if err != nil {
		return user, fmt.Errorf("service.Service.Login: %w", err)
	}
	if !ok {
		return models.User{}, fmt.Errorf("service.Service.Login: %w", models.ErrBadCredentials)
	}

	match, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return models.User{}, fmt.Errorf("service.Service.Login: %w", err)
	}
	if !match {
		return models.User{}, fmt.Errorf("service.Service.Login: %w", models.ErrBadCredentials)
	}

	return user, nil
}

func (s *Service) CurrentUser(ctx context.Context, ident models.Identity) (models.User, error) {
	user, ok, err := s.repo.UserById(ctx, ident.UserId)
	if err != nil {
		return user, fmt.Errorf("service.Service.CurrentUser: %w", err)
	}
	if !ok {
		return user, fmt.Errorf("service.Service.CurrentUser: %w", models.ErrUnauthenticated)
	}
	return user, nil
}

func (s *Service) Contractors(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.Contractors(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.Service.Contractors: %w", err)
	}
	return users, nil
}

//// Listings

func (s *Service) ClientJobs(ctx context.Context, ident models.Identity) ([]models.ClientJob, error) {
	jobs, err := s.repo.ClientJobs(ctx, ident.UserId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.ClientJobs: %w", err)
	}
	return jobs, nil
}

func (s *Service) OpenJobs(ctx context.Context, ident models.Identity) ([]models.OpenJob, error) {
	jobs, err := s.repo.OpenJobs(ctx, ident.UserId, s.today())
	if err != nil {
		return nil, fmt.Errorf("service.Service.OpenJobs: %w", err)
	}
	return jobs, nil
}

func (s *Service) ContractorJobs(ctx context.Context, ident models.Identity) ([]models.ContractorJob, error) {
	jobs, err := s.repo.ContractorJobs(ctx, ident.UserId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.ContractorJobs: %w", err)
	}
	return jobs, nil
}

func (s *Service) Invitations(ctx context.Context, ident models.Identity) ([]models.Job, error) {
	jobs, err := s.repo.Invitations(ctx, ident.UserId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.Invitations: %w", err)
	}
	return jobs, nil
}
