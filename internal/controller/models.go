package controller

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"marketplace/internal/models"
)

type StatusResponse struct {
	Status string `json:"status"`
}

// New job request

func ParseNewJobReq(form url.Values) (models.NewJob, error) {
	req := models.NewJob{
		Title:   form.Get("title"),
		Content: form.Get("content"),
	}

	var err error
	req.Budget, err = parseOptionalInt(form, "budget")
	if err != nil {
		return req, err
	}

	req.InviteeId, err = parseOptionalInt(form, "invited_contractor_id")
	if err != nil {
		return req, err
	}

	if s := strings.TrimSpace(form.Get("due_date")); s != "" {
		due, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return req, fmt.Errorf("invalid value of 'due_date': %s, expected YYYY-MM-DD", s)
		}
		req.DueDate = &due
	}

	return req, nil
}

// Bid request

func ParseBidReq(form url.Values) (models.NewBid, error) {
	price, err := parseOptionalInt(form, "price")
	if err != nil {
		return models.NewBid{}, err
	}
	if price == nil {
		return models.NewBid{}, fmt.Errorf("field 'price' is required")
	}

	return models.NewBid{Price: *price, Note: strings.TrimSpace(form.Get("note"))}, nil
}

// Review request

func ParseReviewReq(form url.Values) (models.JobStatus, string, error) {
	decision := models.JobStatus(form.Get("decision"))
	if decision != models.JobClosed && decision != models.JobRejected {
		return "", "", fmt.Errorf("invalid decision supplied: %s, should be one of: %s, %s", string(decision), models.JobClosed, models.JobRejected)
	}
	return decision, form.Get("message"), nil
}

// Service

func parseOptionalInt(form url.Values, key string) (*int64, error) {
	s := strings.TrimSpace(form.Get(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid value of '%s': %s", key, s)
	}
	return &v, nil
}
