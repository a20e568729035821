package filestore

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRemove(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("job_1_user_2_abc.pdf", strings.NewReader("report")))

	data, err := os.ReadFile(store.Path("job_1_user_2_abc.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "report", string(data))

	require.NoError(t, store.Remove("job_1_user_2_abc.pdf"))
	_, err = os.Stat(store.Path("job_1_user_2_abc.pdf"))
	assert.True(t, os.IsNotExist(err))

	// removing twice is fine
	assert.NoError(t, store.Remove("job_1_user_2_abc.pdf"))
}

func TestSaveRejectsPaths(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "..", "../evil.pdf", "dir/file.pdf", `a\b.pdf`} {
		err := store.Save(name, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrBadName, name)
	}
}

func TestExt(t *testing.T) {
	ext, ok := Ext("Report.PDF", DeliverableExts)
	assert.True(t, ok)
	assert.Equal(t, ".pdf", ext)

	_, ok = Ext("slides.pptx", DeliverableExts)
	assert.True(t, ok)

	_, ok = Ext("archive.tar.gz", DeliverableExts)
	assert.False(t, ok)

	_, ok = Ext("proposal.docx", ProposalExts)
	assert.False(t, ok)

	_, ok = Ext("noext", ProposalExts)
	assert.False(t, ok)
}

func TestNames(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^job_4_user_9_[0-9a-f]{32}\.zip$`), DeliverableName(4, 9, ".zip"))
	assert.Regexp(t, regexp.MustCompile(`^proposal_job_4_user_9_[0-9a-f]{32}\.pdf$`), ProposalName(4, 9, ".pdf"))
	assert.NotEqual(t, DeliverableName(1, 1, ".pdf"), DeliverableName(1, 1, ".pdf"))
}
