package repository

import (
	"context"

	"marketplace/internal/models"

	"github.com/jmoiron/sqlx"
)

// NextResultVersion must be called with the job row locked.
func (tx *Tx) NextResultVersion(ctx context.Context, jobId, contractorId int64) (int, error) {
	var version int
	query := `
	SELECT COALESCE(MAX(version), 0) + 1
	FROM job_result_files
	WHERE job_id = $1 AND contractor_id = $2
	`

	err := sqlx.GetContext(ctx, tx.tx, &version, query, jobId, contractorId)
	if err != nil {
		return 0, dbError("repository.Tx.NextResultVersion", err)
	}
	return version, nil
}

func (tx *Tx) InsertResultFile(ctx context.Context, file models.ResultFile) (models.ResultFile, error) {
	query := `
	INSERT INTO job_result_files (job_id, contractor_id, version, file_path, original_name)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, uploaded_at
	`

	err := tx.tx.QueryRowxContext(ctx, query, file.JobId, file.ContractorId, file.Version, file.FilePath, file.OriginalName).
		Scan(&file.Id, &file.UploadedAt)
	if err != nil {
		return file, dbError("repository.Tx.InsertResultFile", err)
	}
	return file, nil
}

func (repo *Repository) ResultFiles(ctx context.Context, jobId int64) ([]models.ResultFile, error) {
	files := []models.ResultFile{}
	query := `
	SELECT id, job_id, contractor_id, version, file_path, original_name, uploaded_at
	FROM job_result_files
	WHERE job_id = $1
	ORDER BY version ASC, id ASC
	`

	err := sqlx.SelectContext(ctx, repo.db, &files, query, jobId)
	if err != nil {
		return nil, dbError("repository.Repository.ResultFiles", err)
	}
	return files, nil
}
