package service

import (
	"context"
	"fmt"
	"path/filepath"

	"marketplace/internal/filestore"
	"marketplace/internal/models"
	"marketplace/internal/repository"
)

// SubmitBid places the contractor's bid on a pending job or overwrites the one
// they placed before, proposal included.
func (s *Service) SubmitBid(ctx context.Context, ident models.Identity, jobId int64, req models.NewBid) (models.Bid, error) {
	ext, err := validateNewBid(req)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service.Service.SubmitBid: %w", err)
	}

	today := s.today()
	var (
		bid      models.Bid
		written  string
		replaced string
	)

	err = s.repo.InTx(ctx, func(tx *repository.Tx) error {
		job, err := lockJob(ctx, tx, jobId)
		if err != nil {
			return err
		}
		if err = guardBid(job, ident, today); err != nil {
			return err
		}

		bid = models.Bid{
			JobId:          jobId,
			ContractorId:   ident.UserId,
			Price:          req.Price,
			Note:           req.Note,
			ContractorName: ident.Username,
		}

		prev, ok, err := tx.BidOf(ctx, jobId, ident.UserId)
		if err != nil {
			return err
		}
		if ok && prev.ProposalFile != nil {
			replaced = *prev.ProposalFile
		}

		if req.Proposal != nil {
			name := filestore.ProposalName(jobId, ident.UserId, ext)
			err = s.files.Save(name, req.Proposal.Content)
			if err != nil {
				return err
			}
			written = name

			original := filepath.Base(req.Proposal.Filename)
			bid.ProposalFile = &name
			bid.ProposalOriginalName = &original
		}

		bid, err = tx.UpsertBid(ctx, bid)
		if err != nil {
			return err
		}

		return tx.InsertEvent(ctx, models.JobEvent{
			JobId:       jobId,
			ActorId:     ident.UserId,
			EventType:   models.EventBidSubmitted,
			Message:     fmt.Sprintf("Bid $%d", bid.Price),
			Description: fmt.Sprintf("%s bid %d on %q", ident.Username, bid.Price, job.Title),
		})
	})
	if err != nil {
		s.removeOrphan(written)
		return models.Bid{}, fmt.Errorf("service.Service.SubmitBid: %w", err)
	}

	s.removeOrphan(replaced)
	s.committed(models.EventBidSubmitted, jobId, ident)
	return bid, nil
}
