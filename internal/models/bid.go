package models

import (
	"io"
	"time"
)

type Bid struct {
	Id                   int64     `db:"id" json:"id"`
	JobId                int64     `db:"job_id" json:"job_id"`
	ContractorId         int64     `db:"contractor_id" json:"contractor_id"`
	Price                int64     `db:"price" json:"price"`
	Note                 string    `db:"note" json:"note"`
	ProposalFile         *string   `db:"proposal_file" json:"proposal_file"`
	ProposalOriginalName *string   `db:"proposal_original_name" json:"proposal_original_name"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`

	ContractorName string `db:"contractor_name" json:"contractor_name,omitempty"`
}

type NewBid struct {
	Price    int64
	Note     string
	Proposal *Upload
}

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Content  io.Reader
}

type ResultFile struct {
	Id           int64     `db:"id" json:"id"`
	JobId        int64     `db:"job_id" json:"job_id"`
	ContractorId int64     `db:"contractor_id" json:"contractor_id"`
	Version      int       `db:"version" json:"version"`
	FilePath     string    `db:"file_path" json:"file_path"`
	OriginalName string    `db:"original_name" json:"original_name"`
	UploadedAt   time.Time `db:"uploaded_at" json:"uploaded_at"`
}
