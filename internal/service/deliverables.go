package service

import (
	"context"
	"fmt"
	"path/filepath"

	"marketplace/internal/filestore"
	"marketplace/internal/models"
	"marketplace/internal/repository"
)

// UploadDeliverable stores a new result file version and moves the job to uploaded.
func (s *Service) UploadDeliverable(ctx context.Context, ident models.Identity, jobId int64, upload models.Upload) (models.ResultFile, error) {
	ext, err := validateDeliverable(upload)
	if err != nil {
		return models.ResultFile{}, fmt.Errorf("service.Service.UploadDeliverable: %w", err)
	}

	var (
		file    models.ResultFile
		written string
		event   models.EventType
	)

	err = s.repo.InTx(ctx, func(tx *repository.Tx) error {
		job, err := lockJob(ctx, tx, jobId)
		if err != nil {
			return err
		}
		if err = guardUpload(job, ident); err != nil {
			return err
		}

		reupload, err := tx.HasEvent(ctx, jobId, models.EventJobRejected)
		if err != nil {
			return err
		}
		event = models.EventReportUploaded
		if reupload {
			event = models.EventReportReUploaded
		}

		version, err := tx.NextResultVersion(ctx, jobId, ident.UserId)
		if err != nil {
			return err
		}

		name := filestore.DeliverableName(jobId, ident.UserId, ext)
		err = s.files.Save(name, upload.Content)
		if err != nil {
			return err
		}
		written = name

		file, err = tx.InsertResultFile(ctx, models.ResultFile{
			JobId:        jobId,
			ContractorId: ident.UserId,
			Version:      version,
			FilePath:     name,
			OriginalName: filepath.Base(upload.Filename),
		})
		if err != nil {
			return err
		}

		job.Status = models.JobUploaded
		job.ReportFile = &name
		_, err = tx.UpdateJob(ctx, job)
		if err != nil {
			return err
		}

		return tx.InsertEvent(ctx, models.JobEvent{
			JobId:       jobId,
			ActorId:     ident.UserId,
			EventType:   event,
			Message:     fmt.Sprintf("v%d: %s", version, file.OriginalName),
			Description: fmt.Sprintf("%s uploaded version %d of the work", ident.Username, version),
		})
	})
	if err != nil {
		s.removeOrphan(written)
		return models.ResultFile{}, fmt.Errorf("service.Service.UploadDeliverable: %w", err)
	}

	s.committed(event, jobId, ident)
	return file, nil
}
