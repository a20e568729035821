package service

import (
	"context"
	"fmt"

	"marketplace/internal/models"
)

// ResolveRelation decides how the viewer relates to job.
func ResolveRelation(job models.Job, ident models.Identity, hasBid bool) models.Relation {
	switch {
	case isClient(job, ident):
		return models.RelationClient
	case isContractor(job, ident):
		return models.RelationContractor
	case ident.Role == models.RoleContractor && (job.Status == models.JobPending || hasBid):
		return models.RelationVisitorContractor
	default:
		return models.RelationVisitor
	}
}

func (s *Service) JobDetail(ctx context.Context, ident models.Identity, jobId int64) (models.JobDetail, error) {
	var detail models.JobDetail

	job, ok, err := s.repo.JobById(ctx, jobId)
	if err != nil {
		return detail, fmt.Errorf("service.Service.JobDetail: %w", err)
	}
	if !ok {
		return detail, fmt.Errorf("service.Service.JobDetail: %w", models.NewError(models.ErrNotFound, "job #%d does not exist", jobId))
	}

	own, hasBid, err := s.repo.BidOf(ctx, jobId, ident.UserId)
	if err != nil {
		return detail, fmt.Errorf("service.Service.JobDetail: %w", err)
	}

	detail = models.JobDetail{
		Job:      job,
		Relation: ResolveRelation(job, ident, hasBid),
		Bids:     []models.Bid{},
	}

	switch detail.Relation {
	case models.RelationVisitor:
		return models.JobDetail{}, fmt.Errorf("service.Service.JobDetail: %w", models.NewError(models.ErrAccessDenied, "job #%d is not visible to you", jobId))

	case models.RelationClient:
		err = s.clientBids(ctx, &detail)
		if err != nil {
			return models.JobDetail{}, fmt.Errorf("service.Service.JobDetail: %w", err)
		}

	case models.RelationContractor, models.RelationVisitorContractor:
		if hasBid {
			detail.Bids = append(detail.Bids, own)
			if detail.Relation == models.RelationContractor {
				detail.WinningBid = &own
			}
		}
	}

	if detail.Relation == models.RelationContractor && job.Status == models.JobRejected {
		reason, ok, err := s.repo.LastEventMessage(ctx, jobId, models.EventJobRejected)
		if err != nil {
			return models.JobDetail{}, fmt.Errorf("service.Service.JobDetail: %w", err)
		}
		if ok {
			detail.LastRejection = &reason
		}
	}

	detail.ResultFiles, err = s.repo.ResultFiles(ctx, jobId)
	if err != nil {
		return models.JobDetail{}, fmt.Errorf("service.Service.JobDetail: %w", err)
	}

	events, err := s.repo.JobEvents(ctx, jobId)
	if err != nil {
		return models.JobDetail{}, fmt.Errorf("service.Service.JobDetail: %w", err)
	}
	detail.Events = visibleEvents(events, detail.Relation, ident)

	return detail, nil
}

// clientBids fills the bids the owner may see: all of them while the job is
// pending, only the winning one once a contractor was selected.
func (s *Service) clientBids(ctx context.Context, detail *models.JobDetail) error {
	job := detail.Job

	switch {
	case job.Status == models.JobPending:
		bids, err := s.repo.JobBids(ctx, job.Id)
		if err != nil {
			return err
		}
		detail.Bids = bids

	case job.Status == models.JobInvited:

	case job.ContractorId != nil:
		winning, ok, err := s.repo.BidOf(ctx, job.Id, *job.ContractorId)
		if err != nil {
			return err
		}
		if ok {
			detail.Bids = append(detail.Bids, winning)
			detail.WinningBid = &winning
		}
	}
	return nil
}

// visibleEvents hides other contractors' bids from everyone but the owner.
func visibleEvents(events []models.JobEvent, rel models.Relation, ident models.Identity) []models.JobEvent {
	if rel == models.RelationClient {
		return events
	}

	visible := make([]models.JobEvent, 0, len(events))
	for _, e := range events {
		if e.EventType == models.EventBidSubmitted && e.ActorId != ident.UserId {
			continue
		}
		visible = append(visible, e)
	}
	return visible
}
