package artifact

import (
	"context"
	"os"
	"path/filepath"

	"github.com/matzehuels/stacknotice/pkg/errors"
)

// FileSink writes the notice content to <Dir>/<Filename>, replacing any
// previous file.
type FileSink struct {
	Dir string
}

// NewFileSink returns a sink writing into dir ("." when empty).
func NewFileSink(dir string) *FileSink {
	if dir == "" {
		dir = "."
	}
	return &FileSink{Dir: dir}
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) Put(ctx context.Context, a *Artifact) (string, error) {
	if err := errors.ValidateFilename(a.Filename); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create output directory")
	}

	path := filepath.Join(s.Dir, a.Filename)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(a.Content), 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write %s", a.Filename)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write %s", a.Filename)
	}
	return path, nil
}
