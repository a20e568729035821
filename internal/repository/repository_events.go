package repository

import (
	"context"

	"marketplace/internal/models"

	"github.com/jmoiron/sqlx"
)

const eventColumns = `
	e.id, e.job_id, e.actor_id, e.event_type, e.message, e.description, e.created_at,
	j.title AS job_title,
	u.username AS actor_name`

const eventFrom = `
	FROM job_events e
	JOIN jobs j ON j.id = e.job_id
	JOIN users u ON u.id = e.actor_id`

func (tx *Tx) InsertEvent(ctx context.Context, event models.JobEvent) error {
	query := `
	INSERT INTO job_events (job_id, actor_id, event_type, message, description)
	VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.tx.ExecContext(ctx, query, event.JobId, event.ActorId, event.EventType, event.Message, event.Description)
	if err != nil {
		return dbError("repository.Tx.InsertEvent", err)
	}
	return nil
}

func (tx *Tx) HasEvent(ctx context.Context, jobId int64, eventType models.EventType) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM job_events WHERE job_id = $1 AND event_type = $2)`

	err := sqlx.GetContext(ctx, tx.tx, &exists, query, jobId, eventType)
	if err != nil {
		return false, dbError("repository.Tx.HasEvent", err)
	}
	return exists, nil
}

// LastEventMessage returns the message of the most recent event of the given type.
func (repo *Repository) LastEventMessage(ctx context.Context, jobId int64, eventType models.EventType) (string, bool, error) {
	var message string
	query := `
	SELECT message
	FROM job_events
	WHERE job_id = $1 AND event_type = $2
	ORDER BY created_at DESC, id DESC
	LIMIT 1
	`

	ok, err := getOne(ctx, repo.db, &message, query, jobId, eventType)
	if err != nil {
		return "", false, dbError("repository.Repository.LastEventMessage", err)
	}
	return message, ok, nil
}

func (repo *Repository) JobEvents(ctx context.Context, jobId int64) ([]models.JobEvent, error) {
	events := []models.JobEvent{}
	query := `SELECT` + eventColumns + eventFrom + `
	WHERE e.job_id = $1
	ORDER BY e.created_at DESC, e.id DESC
	`

	err := sqlx.SelectContext(ctx, repo.db, &events, query, jobId)
	if err != nil {
		return nil, dbError("repository.Repository.JobEvents", err)
	}
	return events, nil
}

// ClientHistory returns every event on jobs the client owns.
func (repo *Repository) ClientHistory(ctx context.Context, clientId int64) ([]models.JobEvent, error) {
	events := []models.JobEvent{}
	query := `SELECT` + eventColumns + eventFrom + `
	WHERE j.client_id = $1
	ORDER BY e.created_at DESC, e.id DESC
	`

	err := sqlx.SelectContext(ctx, repo.db, &events, query, clientId)
	if err != nil {
		return nil, dbError("repository.Repository.ClientHistory", err)
	}
	return events, nil
}

// ContractorHistory returns events on jobs the contractor bid on, is assigned
// to or acted on before. Bids placed by other contractors are left out.
func (repo *Repository) ContractorHistory(ctx context.Context, contractorId int64) ([]models.JobEvent, error) {
	events := []models.JobEvent{}
	query := `SELECT` + eventColumns + eventFrom + `
	WHERE (
			j.contractor_id = $1
			OR EXISTS (SELECT 1 FROM bids b WHERE b.job_id = j.id AND b.contractor_id = $1)
			OR EXISTS (SELECT 1 FROM job_events pe WHERE pe.job_id = j.id AND pe.actor_id = $1)
		)
		AND NOT (e.event_type = 'BID_SUBMITTED' AND e.actor_id <> $1)
	ORDER BY e.created_at DESC, e.id DESC
	`

	err := sqlx.SelectContext(ctx, repo.db, &events, query, contractorId)
	if err != nil {
		return nil, dbError("repository.Repository.ContractorHistory", err)
	}
	return events, nil
}
