package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to JobStatus
		ok       bool
	}{
		{"", JobPending, true},
		{"", JobInvited, true},
		{"", JobAccepted, false},
		{JobInvited, JobAccepted, true},
		{JobInvited, JobPending, true},
		{JobPending, JobAccepted, true},
		{JobPending, JobInvited, false},
		{JobAccepted, JobUploaded, true},
		{JobRejected, JobUploaded, true},
		{JobUploaded, JobRejected, true},
		{JobUploaded, JobClosed, true},
		{JobUploaded, JobAccepted, false},
		{JobAccepted, JobClosed, false},
		{JobClosed, JobPending, false},
		{JobClosed, JobUploaded, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.ok, CanTransition(c.from, c.to), "%q -> %q", c.from, c.to)
	}
}

func TestClosedIsTerminal(t *testing.T) {
	for _, s := range []JobStatus{JobPending, JobInvited, JobAccepted, JobUploaded, JobRejected, JobClosed} {
		assert.False(t, CanTransition(JobClosed, s), "closed -> %s", s)
	}
}

func TestHasContractor(t *testing.T) {
	assert.False(t, JobPending.HasContractor())
	for _, s := range []JobStatus{JobInvited, JobAccepted, JobUploaded, JobRejected, JobClosed} {
		assert.True(t, s.HasContractor(), s)
	}
	assert.False(t, JobStatus("archived").HasContractor())
}
