package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"marketplace/internal/filestore"
	"marketplace/internal/models"
)

const (
	maxTitleLen    = 100
	maxContentLen  = 5000
	maxNoteLen     = 2000
	maxReasonLen   = 2000
	maxUsernameLen = 50
	minPasswordLen = 6
	maxAmount      = 999_999_999
)

func checkLengthLimit(str, fieldName string, min, limit int) error {
	n := utf8.RuneCountInString(str)
	if n < min {
		if min == 1 {
			return models.NewError(models.ErrValidation, "field '%s' must not be empty", fieldName)
		}
		return models.NewError(models.ErrValidation, "field '%s' is too short: %d / %d", fieldName, n, min)
	}
	if n > limit {
		return models.NewError(models.ErrValidation, "field '%s' exceeds length limit: %d / %d", fieldName, n, limit)
	}
	return nil
}

func checkAmount(v int64, fieldName string) error {
	if v < 0 || v > maxAmount {
		return models.NewError(models.ErrValidation, "field '%s' must be between 0 and %d", fieldName, maxAmount)
	}
	return nil
}

func validateRegistration(username, password, role string) (models.Role, error) {
	r, ok := models.ParseRole(role)
	if !ok {
		return r, models.NewError(models.ErrValidation, "invalid role %q, should be one of: %s, %s", role, models.RoleClient, models.RoleContractor)
	}
	if strings.TrimSpace(username) != username {
		return r, models.NewError(models.ErrValidation, "username must not start or end with spaces")
	}
	if err := checkLengthLimit(username, "username", 1, maxUsernameLen); err != nil {
		return r, err
	}
	if err := checkLengthLimit(password, "password", minPasswordLen, 128); err != nil {
		return r, err
	}
	return r, nil
}

func validateNewJob(req models.NewJob, today time.Time) error {
	if err := checkLengthLimit(strings.TrimSpace(req.Title), "title", 1, maxTitleLen); err != nil {
		return err
	}
	if err := checkLengthLimit(strings.TrimSpace(req.Content), "content", 1, maxContentLen); err != nil {
		return err
	}
	if req.Budget != nil {
		if err := checkAmount(*req.Budget, "budget"); err != nil {
			return err
		}
	}
	if req.DueDate != nil && dateOf(*req.DueDate).Before(today) {
		return models.NewError(models.ErrValidation, "due date must not be in the past")
	}
	return nil
}

func validateNewBid(req models.NewBid) (string, error) {
	if err := checkAmount(req.Price, "price"); err != nil {
		return "", err
	}
	if err := checkLengthLimit(req.Note, "note", 0, maxNoteLen); err != nil {
		return "", err
	}
	if req.Proposal == nil {
		return "", nil
	}

	ext, ok := filestore.Ext(req.Proposal.Filename, filestore.ProposalExts)
	if !ok {
		return "", models.NewError(models.ErrValidation, "proposal must be one of: %s", strings.Join(filestore.ProposalExts, ", "))
	}
	return ext, nil
}

func validateDeliverable(upload models.Upload) (string, error) {
	if upload.Content == nil || upload.Filename == "" {
		return "", models.NewError(models.ErrValidation, "report file is required")
	}
	ext, ok := filestore.Ext(upload.Filename, filestore.DeliverableExts)
	if !ok {
		return "", models.NewError(models.ErrValidation, "report file must be one of: %s", strings.Join(filestore.DeliverableExts, ", "))
	}
	return ext, nil
}

func validateDecision(decision models.JobStatus, message string) error {
	if decision != models.JobClosed && decision != models.JobRejected {
		return models.NewError(models.ErrValidation, "decision must be %s or %s", models.JobClosed, models.JobRejected)
	}
	return checkLengthLimit(message, "message", 0, maxReasonLen)
}
