package models

import "time"

type EventType string

const (
	EventJobCreated       EventType = "JOB_CREATED"
	EventJobInvited       EventType = "JOB_INVITED"
	EventInviteAccepted   EventType = "INVITE_ACCEPTED"
	EventInviteDeclined   EventType = "INVITE_DECLINED"
	EventBidSubmitted     EventType = "BID_SUBMITTED"
	EventBidSelected      EventType = "BID_SELECTED"
	EventReportUploaded   EventType = "REPORT_UPLOADED"
	EventReportReUploaded EventType = "REPORT_RE_UPLOADED"
	EventJobRejected      EventType = "JOB_REJECTED"
	EventJobClosed        EventType = "JOB_CLOSED"
)

// JobEvent is an append-only audit record.
type JobEvent struct {
	Id          int64     `db:"id" json:"id"`
	JobId       int64     `db:"job_id" json:"job_id"`
	ActorId     int64     `db:"actor_id" json:"actor_id"`
	EventType   EventType `db:"event_type" json:"event_type"`
	Message     string    `db:"message" json:"message"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	JobTitle  string `db:"job_title" json:"job_title,omitempty"`
	ActorName string `db:"actor_name" json:"actor_name,omitempty"`
}
