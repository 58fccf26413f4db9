// Package notice defines the notice round trip: the rendering formats, the
// result returned by the renderer, and the [Requester] contract implemented
// by the ClearlyDefined client.
package notice

import (
	"context"
	"strings"

	"github.com/matzehuels/stacknotice/pkg/diag"
	"github.com/matzehuels/stacknotice/pkg/errors"
)

// MaxCoordinates is the most coordinates the renderer accepts per call.
const MaxCoordinates = 5000

// Format is the renderer used for the notice content.
type Format string

const (
	FormatText     Format = "text"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formats lists every accepted format.
var Formats = []Format{FormatText, FormatHTML, FormatJSON, FormatMarkdown}

// ParseFormat validates a format name. Empty input selects text.
func ParseFormat(s string) (Format, error) {
	if strings.TrimSpace(s) == "" {
		return FormatText, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want text, html, json or markdown)", s)
}

// Summary is the renderer's account of what it could not resolve.
type Summary struct {
	Total    int      `json:"total"`
	Warnings Warnings `json:"warnings"`
}

// Warnings holds three disjoint coordinate lists.
type Warnings struct {
	// NoDefinition: no package definition was found.
	NoDefinition []string `json:"noDefinition"`
	// NoLicense: a definition exists but declares no license.
	NoLicense []string `json:"noLicense"`
	// NoCopyright: a definition exists but carries no copyright statement.
	NoCopyright []string `json:"noCopyright"`
}

// Result is a rendered notice.
type Result struct {
	Content string  `json:"content"`
	Summary Summary `json:"summary"`
}

// Report records one warning per unresolved coordinate.
func (r *Result) Report(w *diag.Collector) {
	for _, c := range r.Summary.Warnings.NoCopyright {
		w.Warnf("", "Unable to locate copyright for %s", c)
	}
	for _, c := range r.Summary.Warnings.NoDefinition {
		w.Warnf("", "Unable to find package %s", c)
	}
	for _, c := range r.Summary.Warnings.NoLicense {
		w.Warnf("", "Unable to locate license for %s", c)
	}
}

// Requester renders a notice for a list of coordinates.
type Requester interface {
	Notice(ctx context.Context, coordinates []string, format Format) (*Result, error)
}

// CheckLimit rejects coordinate lists the renderer would refuse.
func CheckLimit(coordinates []string) error {
	if len(coordinates) > MaxCoordinates {
		return errors.New(errors.ErrCodeInvalidInput,
			"%d coordinates exceed the notice service limit of %d", len(coordinates), MaxCoordinates)
	}
	return nil
}
