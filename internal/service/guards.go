package service

import (
	"time"

	"marketplace/internal/models"
)

// Guards run against a job row read under lock. Ownership or status
// mismatches are reported as ErrNotActionable. Other failures carry the
// kind that applies to them.

func isClient(job models.Job, ident models.Identity) bool {
	return job.ClientId == ident.UserId
}

func isContractor(job models.Job, ident models.Identity) bool {
	return job.ContractorId != nil && *job.ContractorId == ident.UserId
}

func notActionable(job models.Job, action string) error {
	return models.NewError(models.ErrNotActionable, "cannot %s job #%d in status %s", action, job.Id, job.Status)
}

func guardAcceptBid(job models.Job, ident models.Identity, today time.Time) error {
	if !isClient(job, ident) || !models.CanTransition(job.Status, models.JobAccepted) || job.Status != models.JobPending {
		return notActionable(job, "accept a bid on")
	}
	if job.DueDate != nil && today.Before(dateOf(*job.DueDate)) {
		return models.NewError(models.ErrStateConflict, "bids can be accepted from %s", job.DueDate.Format(time.DateOnly))
	}
	return nil
}

func guardReview(job models.Job, ident models.Identity, decision models.JobStatus) error {
	if !isClient(job, ident) || !models.CanTransition(job.Status, decision) || job.Status != models.JobUploaded {
		return notActionable(job, "review")
	}
	return nil
}

func guardInvitation(job models.Job, ident models.Identity, to models.JobStatus) error {
	if !isContractor(job, ident) || job.Status != models.JobInvited || !models.CanTransition(job.Status, to) {
		return notActionable(job, "answer the invitation to")
	}
	return nil
}

func guardUpload(job models.Job, ident models.Identity) error {
	if !isContractor(job, ident) || !models.CanTransition(job.Status, models.JobUploaded) {
		return notActionable(job, "upload a deliverable to")
	}
	return nil
}

func guardBid(job models.Job, ident models.Identity, today time.Time) error {
	if job.Status != models.JobPending {
		return models.NewError(models.ErrStateConflict, "job #%d is not open for bids", job.Id)
	}
	if isClient(job, ident) {
		return models.NewError(models.ErrStateConflict, "cannot bid on your own job")
	}
	if job.DueDate != nil && today.After(dateOf(*job.DueDate)) {
		return models.NewError(models.ErrStateConflict, "bidding closed on %s", job.DueDate.Format(time.DateOnly))
	}
	return nil
}
