package artifact

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/stacknotice/pkg/notice"
)

// Artifact is one generated notice together with the run that produced it.
type Artifact struct {
	RunID       string         `json:"run_id"`
	Repository  string         `json:"repository"`
	Filename    string         `json:"filename"`
	Format      notice.Format  `json:"format"`
	Content     string         `json:"content"`
	Summary     notice.Summary `json:"summary"`
	Mode        string         `json:"mode"`
	Coordinates []string       `json:"coordinates"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Sink stores artifacts.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string
	// Put stores a and returns a human-readable location.
	Put(ctx context.Context, a *Artifact) (string, error)
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// ValidRunID reports whether id was produced by NewRunID.
func ValidRunID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.Version() == 4
}

func contentType(f notice.Format) string {
	switch f {
	case notice.FormatHTML:
		return "text/html; charset=utf-8"
	case notice.FormatJSON:
		return "application/json"
	case notice.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}
