package repository

import (
	"context"

	"marketplace/internal/models"

	"github.com/jmoiron/sqlx"
)

const bidColumns = `
	b.id, b.job_id, b.contractor_id, b.price, b.note, b.proposal_file, b.proposal_original_name,
	b.created_at, u.username AS contractor_name`

// BidOf returns the bid contractorId placed on jobId.
func (q queries) BidOf(ctx context.Context, jobId, contractorId int64) (models.Bid, bool, error) {
	var bid models.Bid
	query := `SELECT` + bidColumns + `
	FROM bids b
	JOIN users u ON u.id = b.contractor_id
	WHERE b.job_id = $1 AND b.contractor_id = $2
	`

	ok, err := getOne(ctx, q.q, &bid, query, jobId, contractorId)
	if err != nil {
		return bid, false, dbError("repository.BidOf", err)
	}
	return bid, ok, nil
}

// BidForJob returns bid bidId only if it was placed on jobId.
func (tx *Tx) BidForJob(ctx context.Context, bidId, jobId int64) (models.Bid, bool, error) {
	var bid models.Bid
	query := `SELECT` + bidColumns + `
	FROM bids b
	JOIN users u ON u.id = b.contractor_id
	WHERE b.id = $1 AND b.job_id = $2
	`

	ok, err := getOne(ctx, tx.tx, &bid, query, bidId, jobId)
	if err != nil {
		return bid, false, dbError("repository.Tx.BidForJob", err)
	}
	return bid, ok, nil
}

// UpsertBid keeps a single bid per job and contractor. A resubmission
// overwrites price, note and proposal reference.
func (tx *Tx) UpsertBid(ctx context.Context, bid models.Bid) (models.Bid, error) {
	var saved models.Bid
	query := `
	INSERT INTO bids AS b (job_id, contractor_id, price, note, proposal_file, proposal_original_name)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (job_id, contractor_id) DO UPDATE SET
		price = EXCLUDED.price,
		note = EXCLUDED.note,
		proposal_file = EXCLUDED.proposal_file,
		proposal_original_name = EXCLUDED.proposal_original_name
	RETURNING id, job_id, contractor_id, price, note, proposal_file, proposal_original_name, created_at
	`

	err := sqlx.GetContext(ctx, tx.tx, &saved, query,
		bid.JobId, bid.ContractorId, bid.Price, bid.Note, bid.ProposalFile, bid.ProposalOriginalName)
	if err != nil {
		return bid, dbError("repository.Tx.UpsertBid", err)
	}

	saved.ContractorName = bid.ContractorName
	return saved, nil
}

// JobBids lists every bid on the job, cheapest first.
func (repo *Repository) JobBids(ctx context.Context, jobId int64) ([]models.Bid, error) {
	bids := []models.Bid{}
	query := `SELECT` + bidColumns + `
	FROM bids b
	JOIN users u ON u.id = b.contractor_id
	WHERE b.job_id = $1
	ORDER BY b.price ASC, b.id ASC
	`

	err := sqlx.SelectContext(ctx, repo.db, &bids, query, jobId)
	if err != nil {
		return nil, dbError("repository.Repository.JobBids", err)
	}
	return bids, nil
}
