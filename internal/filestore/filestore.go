package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	DeliverableExts = []string{".pdf", ".zip", ".docx", ".pptx"}
	ProposalExts    = []string{".pdf"}

	ErrBadName = errors.New("invalid stored file name")
)

// Local keeps uploaded files in a single directory on disk.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("filestore.NewLocal: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Save(name string, src io.Reader) error {
	if !validName(name) {
		return fmt.Errorf("filestore.Local.Save: %w: %q", ErrBadName, name)
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("filestore.Local.Save: %w", err)
	}

	_, err = io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("filestore.Local.Save: %w", err)
	}

	err = os.Rename(tmp.Name(), l.Path(name))
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("filestore.Local.Save: %w", err)
	}
	return nil
}

func (l *Local) Remove(name string) error {
	if !validName(name) {
		return fmt.Errorf("filestore.Local.Remove: %w: %q", ErrBadName, name)
	}
	err := os.Remove(l.Path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("filestore.Local.Remove: %w", err)
	}
	return nil
}

func (l *Local) Path(name string) string {
	return filepath.Join(l.dir, name)
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}

// Ext returns the lowercased extension of filename if it is one of allowed.
func Ext(filename string, allowed []string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range allowed {
		if ext == a {
			return ext, true
		}
	}
	return ext, false
}

func DeliverableName(jobId, userId int64, ext string) string {
	return fmt.Sprintf("job_%d_user_%d_%s%s", jobId, userId, token(), ext)
}

func ProposalName(jobId, userId int64, ext string) string {
	return fmt.Sprintf("proposal_job_%d_user_%d_%s%s", jobId, userId, token(), ext)
}

func token() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:])
}
