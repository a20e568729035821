package service

import (
	"context"
	"fmt"

	"marketplace/internal/models"
)

// History returns the caller's event feed, newest first.
func (s *Service) History(ctx context.Context, ident models.Identity) ([]models.JobEvent, error) {
	var (
		events []models.JobEvent
		err    error
	)

	switch ident.Role {
	case models.RoleClient:
		events, err = s.repo.ClientHistory(ctx, ident.UserId)
	case models.RoleContractor:
		events, err = s.repo.ContractorHistory(ctx, ident.UserId)
	default:
		return nil, fmt.Errorf("service.Service.History: %w", models.ErrAccessDenied)
	}
	if err != nil {
		return nil, fmt.Errorf("service.Service.History: %w", err)
	}
	return events, nil
}
