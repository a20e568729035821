package service

import (
	"context"
	"fmt"
	"strings"

	"marketplace/internal/models"
	"marketplace/internal/repository"
)

func (s *Service) CreateJob(ctx context.Context, ident models.Identity, req models.NewJob) (models.Job, error) {
	err := validateNewJob(req, s.today())
	if err != nil {
		return models.Job{}, fmt.Errorf("service.Service.CreateJob: %w", err)
	}
	if req.InviteeId != nil && *req.InviteeId == ident.UserId {
		return models.Job{}, fmt.Errorf("service.Service.CreateJob: %w", models.NewError(models.ErrValidation, "cannot invite yourself"))
	}

	job := models.Job{
		Title:      strings.TrimSpace(req.Title),
		Content:    strings.TrimSpace(req.Content),
		ClientId:   ident.UserId,
		ClientName: ident.Username,
		Status:     models.JobPending,
		Budget:     req.Budget,
		DueDate:    req.DueDate,
	}
	event := models.JobEvent{
		ActorId:     ident.UserId,
		EventType:   models.EventJobCreated,
		Message:     "job created",
		Description: fmt.Sprintf("%s posted %q", ident.Username, job.Title),
	}

	err = s.repo.InTx(ctx, func(tx *repository.Tx) error {
		if req.InviteeId != nil {
			invitee, ok, err := tx.UserById(ctx, *req.InviteeId)
			if err != nil {
				return err
			}
			if !ok || invitee.Role != models.RoleContractor {
				return models.NewError(models.ErrValidation, "invited contractor #%d does not exist", *req.InviteeId)
			}

			job.ContractorId = &invitee.Id
			job.ContractorName = &invitee.Username
			job.Status = models.JobInvited
			event.EventType = models.EventJobInvited
			event.Message = "invited " + invitee.Username
			event.Description = fmt.Sprintf("%s posted %q and invited %s", ident.Username, job.Title, invitee.Username)
		}

		var err error
		job, err = tx.InsertJob(ctx, job)
		if err != nil {
			return err
		}

		event.JobId = job.Id
		return tx.InsertEvent(ctx, event)
	})
	if err != nil {
		return models.Job{}, fmt.Errorf("service.Service.CreateJob: %w", err)
	}

	s.committed(event.EventType, job.Id, ident)
	return job, nil
}

// lockJob reads the job under lock, failing when it does not exist.
func lockJob(ctx context.Context, tx *repository.Tx, jobId int64) (models.Job, error) {
	job, ok, err := tx.LockJob(ctx, jobId)
	if err != nil {
		return job, err
	}
	if !ok {
		return job, models.NewError(models.ErrNotFound, "job #%d does not exist", jobId)
	}
	return job, nil
}

func (s *Service) AcceptBid(ctx context.Context, ident models.Identity, jobId, bidId int64) (models.Job, error) {
	today := s.today()

	var job models.Job
	err := s.repo.InTx(ctx, func(tx *repository.Tx) error {
		var err error
		job, err = lockJob(ctx, tx, jobId)
		if err != nil {
			return err
		}
		if err = guardAcceptBid(job, ident, today); err != nil {
			return err
		}

		bid, ok, err := tx.BidForJob(ctx, bidId, jobId)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewError(models.ErrNotFound, "bid #%d does not exist on job #%d", bidId, jobId)
		}

		job.Status = models.JobAccepted
		job.ContractorId = &bid.ContractorId
		job.ContractorName = &bid.ContractorName
		job, err = tx.UpdateJob(ctx, job)
		if err != nil {
			return err
		}

		return tx.InsertEvent(ctx, models.JobEvent{
			JobId:       job.Id,
			ActorId:     ident.UserId,
			EventType:   models.EventBidSelected,
			Message:     fmt.Sprintf("bid #%d", bid.Id),
			Description: fmt.Sprintf("%s selected %s (bid #%d, price %d)", ident.Username, bid.ContractorName, bid.Id, bid.Price),
		})
	})
	if err != nil {
		return models.Job{}, fmt.Errorf("service.Service.AcceptBid: %w", err)
	}

	s.committed(models.EventBidSelected, job.Id, ident)
	return job, nil
}

func (s *Service) AcceptInvitation(ctx context.Context, ident models.Identity, jobId int64) (models.Job, error) {
	job, err := s.answerInvitation(ctx, ident, jobId, models.JobAccepted)
	if err != nil {
		return job, fmt.Errorf("service.Service.AcceptInvitation: %w", err)
	}
	return job, nil
}

func (s *Service) DeclineInvitation(ctx context.Context, ident models.Identity, jobId int64) (models.Job, error) {
	job, err := s.answerInvitation(ctx, ident, jobId, models.JobPending)
	if err != nil {
		return job, fmt.Errorf("service.Service.DeclineInvitation: %w", err)
	}
	return job, nil
}

func (s *Service) answerInvitation(ctx context.Context, ident models.Identity, jobId int64, to models.JobStatus) (models.Job, error) {
	event := models.JobEvent{
		JobId:       jobId,
		ActorId:     ident.UserId,
		EventType:   models.EventInviteAccepted,
		Message:     "invitation accepted",
		Description: ident.Username + " accepted the invitation",
	}
	if to == models.JobPending {
		event.EventType = models.EventInviteDeclined
		event.Message = "invitation declined"
		event.Description = ident.Username + " declined the invitation"
	}

	var job models.Job
	err := s.repo.InTx(ctx, func(tx *repository.Tx) error {
		var err error
		job, err = lockJob(ctx, tx, jobId)
		if err != nil {
			return err
		}
		if err = guardInvitation(job, ident, to); err != nil {
			return err
		}

		job.Status = to
		if to == models.JobPending {
			job.ContractorId = nil
			job.ContractorName = nil
		}
		job, err = tx.UpdateJob(ctx, job)
		if err != nil {
			return err
		}

		return tx.InsertEvent(ctx, event)
	})
	if err != nil {
		return models.Job{}, err
	}

	s.committed(event.EventType, job.Id, ident)
	return job, nil
}

// ReviewJob closes or rejects an uploaded deliverable. Rejection keeps every
// uploaded version and lets the contractor upload again.
func (s *Service) ReviewJob(ctx context.Context, ident models.Identity, jobId int64, decision models.JobStatus, message string) (models.Job, error) {
	message = strings.TrimSpace(message)
	err := validateDecision(decision, message)
	if err != nil {
		return models.Job{}, fmt.Errorf("service.Service.ReviewJob: %w", err)
	}

	event := models.JobEvent{
		JobId:     jobId,
		ActorId:   ident.UserId,
		EventType: models.EventJobClosed,
		Message:   "job closed",
	}
	if decision == models.JobRejected {
		event.EventType = models.EventJobRejected
		event.Message = message
		if event.Message == "" {
			event.Message = "no reason given"
		}
	}

	var job models.Job
	err = s.repo.InTx(ctx, func(tx *repository.Tx) error {
		var err error
		job, err = lockJob(ctx, tx, jobId)
		if err != nil {
			return err
		}
		if err = guardReview(job, ident, decision); err != nil {
			return err
		}

		job.Status = decision
		job, err = tx.UpdateJob(ctx, job)
		if err != nil {
			return err
		}

		if job.ContractorName != nil {
			event.Description = fmt.Sprintf("%s %s the work of %s", ident.Username, decision, *job.ContractorName)
		}
		return tx.InsertEvent(ctx, event)
	})
	if err != nil {
		return models.Job{}, fmt.Errorf("service.Service.ReviewJob: %w", err)
	}

	s.committed(event.EventType, job.Id, ident)
	return job, nil
}
