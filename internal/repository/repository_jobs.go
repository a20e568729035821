package repository

import (
	"context"
	"fmt"
	"time"

	"marketplace/internal/models"

	"github.com/jmoiron/sqlx"
)

const jobColumns = `
	j.id, j.title, j.content, j.client_id, j.contractor_id, j.status, j.budget, j.due_date,
	j.report_file, j.created_at, j.updated_at,
	cu.username AS client_name,
	co.username AS contractor_name`

const jobFrom = `
	FROM jobs j
	JOIN users cu ON cu.id = j.client_id
	LEFT JOIN users co ON co.id = j.contractor_id`

const jobReturning = `
	RETURNING id, title, content, client_id, contractor_id, status, budget, due_date,
		report_file, created_at, updated_at`

func (q queries) JobById(ctx context.Context, id int64) (models.Job, bool, error) {
	var job models.Job
	query := `SELECT` + jobColumns + jobFrom + `
	WHERE j.id = $1
	`

	ok, err := getOne(ctx, q.q, &job, query, id)
	if err != nil {
		return job, false, dbError("repository.JobById", err)
	}
	return job, ok, nil
}

// LockJob reads the job and holds a row lock on it until the transaction ends.
func (tx *Tx) LockJob(ctx context.Context, id int64) (models.Job, bool, error) {
	var job models.Job
	query := `SELECT` + jobColumns + jobFrom + `
	WHERE j.id = $1
	FOR UPDATE OF j
	`

	ok, err := getOne(ctx, tx.tx, &job, query, id)
	if err != nil {
		return job, false, dbError("repository.Tx.LockJob", err)
	}
	return job, ok, nil
}

func (tx *Tx) InsertJob(ctx context.Context, job models.Job) (models.Job, error) {
	var created models.Job
	query := `
	INSERT INTO jobs (title, content, client_id, contractor_id, status, budget, due_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7)` + jobReturning

	err := checkJobRow(job)
	if err != nil {
		return job, dbError("repository.Tx.InsertJob", err)
	}

	var due any
	if job.DueDate != nil {
		due = sqlDate(*job.DueDate)
	}

	err = sqlx.GetContext(ctx, tx.tx, &created, query,
		job.Title, job.Content, job.ClientId, job.ContractorId, job.Status, job.Budget, due)
	if err != nil {
		return job, dbError("repository.Tx.InsertJob", err)
	}

	created.ClientName = job.ClientName
	created.ContractorName = job.ContractorName
	return created, nil
}

// UpdateJob writes the mutable lifecycle fields of job back to its row.
func (tx *Tx) UpdateJob(ctx context.Context, job models.Job) (models.Job, error) {
	var updated models.Job
	query := `
	UPDATE jobs
	SET status = $2, contractor_id = $3, report_file = $4, updated_at = now()
	WHERE id = $1` + jobReturning

	err := checkJobRow(job)
	if err != nil {
		return job, dbError("repository.Tx.UpdateJob", err)
	}

	err = sqlx.GetContext(ctx, tx.tx, &updated, query, job.Id, job.Status, job.ContractorId, job.ReportFile)
	if err != nil {
		return job, dbError("repository.Tx.UpdateJob", err)
	}

	updated.ClientName = job.ClientName
	updated.ContractorName = job.ContractorName
	return updated, nil
}

func (repo *Repository) ClientJobs(ctx context.Context, clientId int64) ([]models.ClientJob, error) {
	jobs := []models.ClientJob{}
	query := `SELECT` + jobColumns + `,
		(SELECT COUNT(*) FROM bids b WHERE b.job_id = j.id) AS bid_count` + jobFrom + `
	WHERE j.client_id = $1
	ORDER BY j.created_at DESC, j.id DESC
	`

	err := sqlx.SelectContext(ctx, repo.db, &jobs, query, clientId)
	if err != nil {
		return nil, dbError("repository.Repository.ClientJobs", err)
	}
	return jobs, nil
}

// OpenJobs lists pending jobs of other clients that still accept bids on day today.
func (repo *Repository) OpenJobs(ctx context.Context, contractorId int64, today time.Time) ([]models.OpenJob, error) {
	jobs := []models.OpenJob{}
	query := `SELECT` + jobColumns + `,
		(SELECT COUNT(*) FROM bids b WHERE b.job_id = j.id) AS bid_count,
		mb.price AS my_bid_price` + jobFrom + `
	LEFT JOIN bids mb ON mb.job_id = j.id AND mb.contractor_id = $1
	WHERE j.status = 'pending'
		AND j.client_id <> $1
		AND (j.due_date IS NULL OR j.due_date >= $2::date)
	ORDER BY j.created_at DESC, j.id DESC
	`

	err := sqlx.SelectContext(ctx, repo.db, &jobs, query, contractorId, sqlDate(today))
	if err != nil {
		return nil, dbError("repository.Repository.OpenJobs", err)
	}
	return jobs, nil
}

// ContractorJobs lists jobs the contractor bid on or works on. Pending invitations are excluded.
func (repo *Repository) ContractorJobs(ctx context.Context, contractorId int64) ([]models.ContractorJob, error) {
	jobs := []models.ContractorJob{}
	query := `SELECT` + jobColumns + `,
		mb.price AS my_bid_price,
		COALESCE(j.contractor_id = $1, false) AS am_i_winner` + jobFrom + `
	LEFT JOIN bids mb ON mb.job_id = j.id AND mb.contractor_id = $1
	WHERE mb.id IS NOT NULL
		OR (j.contractor_id = $1 AND j.status <> 'invited')
	ORDER BY j.updated_at DESC, j.id DESC
	`

	err := sqlx.SelectContext(ctx, repo.db, &jobs, query, contractorId)
	if err != nil {
		return nil, dbError("repository.Repository.ContractorJobs", err)
	}
	return jobs, nil
}

func (repo *Repository) Invitations(ctx context.Context, contractorId int64) ([]models.Job, error) {
	jobs := []models.Job{}
	query := `SELECT` + jobColumns + jobFrom + `
	WHERE j.status = 'invited' AND j.contractor_id = $1
	ORDER BY j.created_at DESC, j.id DESC
	`

	err := sqlx.SelectContext(ctx, repo.db, &jobs, query, contractorId)
	if err != nil {
		return nil, dbError("repository.Repository.Invitations", err)
	}
	return jobs, nil
}

// checkJobRow rejects rows the jobs table constraints would refuse.
func checkJobRow(job models.Job) error {
	if !models.ValidJobStatus(job.Status) {
		return fmt.Errorf("unknown job status %q", job.Status)
	}
	if job.Status.HasContractor() && job.ContractorId == nil {
		return fmt.Errorf("job in status %s needs a contractor", job.Status)
	}
	if !job.Status.HasContractor() && job.ContractorId != nil {
		return fmt.Errorf("job in status %s cannot have a contractor", job.Status)
	}
	return nil
}
