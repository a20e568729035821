package models

import "time"

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobInvited  JobStatus = "invited"
	JobAccepted JobStatus = "accepted"
	JobUploaded JobStatus = "uploaded"
	JobRejected JobStatus = "rejected"
	JobClosed   JobStatus = "closed"
)

func ValidJobStatus(s JobStatus) bool {
	switch s {
	case JobPending, JobInvited, JobAccepted, JobUploaded, JobRejected, JobClosed:
		return true
	default:
		return false
	}
}

// HasContractor reports whether a job in status s must reference a contractor.
func (s JobStatus) HasContractor() bool {
	return ValidJobStatus(s) && s != JobPending
}

// transitions lists the allowed target statuses for each status.
// The empty status stands for a job that does not exist yet.
var transitions = map[JobStatus][]JobStatus{
	"":          {JobPending, JobInvited},
	JobPending:  {JobAccepted},
	JobInvited:  {JobAccepted, JobPending},
	JobAccepted: {JobUploaded},
	JobRejected: {JobUploaded},
	JobUploaded: {JobRejected, JobClosed},
	JobClosed:   nil,
}

func CanTransition(from, to JobStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Job struct {
	Id           int64      `db:"id" json:"id"`
	Title        string     `db:"title" json:"title"`
	Content      string     `db:"content" json:"content"`
	ClientId     int64      `db:"client_id" json:"client_id"`
	ContractorId *int64     `db:"contractor_id" json:"contractor_id"`
	Status       JobStatus  `db:"status" json:"status"`
	Budget       *int64     `db:"budget" json:"budget"`
	DueDate      *time.Time `db:"due_date" json:"due_date"`
	ReportFile   *string    `db:"report_file" json:"report_file"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	ClientName     string  `db:"client_name" json:"client_name,omitempty"`
	ContractorName *string `db:"contractor_name" json:"contractor_name,omitempty"`
}

// NewJob holds the caller supplied fields of a job being posted.
type NewJob struct {
	Title     string
	Content   string
	Budget    *int64
	DueDate   *time.Time
	InviteeId *int64
}

type ClientJob struct {
	Job
	BidCount int `db:"bid_count" json:"bid_count"`
}

type OpenJob struct {
	Job
	BidCount   int    `db:"bid_count" json:"bid_count"`
	MyBidPrice *int64 `db:"my_bid_price" json:"my_bid_price"`
}

type ContractorJob struct {
	Job
	MyBidPrice *int64 `db:"my_bid_price" json:"my_bid_price"`
	AmIWinner  bool   `db:"am_i_winner" json:"am_i_winner"`
}

// Relation is how a viewer relates to a job.
type Relation string

const (
	RelationClient            Relation = "client"
	RelationContractor        Relation = "contractor"
	RelationVisitorContractor Relation = "visitor_contractor"
	RelationVisitor           Relation = "visitor"
)

type JobDetail struct {
	Job           Job          `json:"job"`
	Relation      Relation     `json:"relation"`
	Bids          []Bid        `json:"bids"`
	WinningBid    *Bid         `json:"winning_bid"`
	LastRejection *string      `json:"last_rejection"`
	ResultFiles   []ResultFile `json:"result_files"`
	Events        []JobEvent   `json:"events"`
}
