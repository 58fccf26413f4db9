package aggregate

import (
	"fmt"

	"github.com/matzehuels/stacknotice/pkg/errors"
)

// Limits bounds a limited-mode request.
type Limits struct {
	MaxManifests    int `json:"max_manifests" toml:"max_manifests"`
	MaxDependencies int `json:"max_dependencies" toml:"max_dependencies"`
}

// DefaultFallbackLimits are used when a full fetch times out.
var DefaultFallbackLimits = Limits{MaxManifests: 15, MaxDependencies: 30}

// maxPageSize is the largest "first" argument GitHub accepts.
const maxPageSize = 100

// Validate checks that both bounds are within 1..100.
func (l Limits) Validate() error {
	if l.MaxManifests < 1 || l.MaxManifests > maxPageSize {
		return errors.New(errors.ErrCodeInvalidInput, "max manifests must be between 1 and %d, got %d", maxPageSize, l.MaxManifests)
	}
	if l.MaxDependencies < 1 || l.MaxDependencies > maxPageSize {
		return errors.New(errors.ErrCodeInvalidInput, "max dependencies must be between 1 and %d, got %d", maxPageSize, l.MaxDependencies)
	}
	return nil
}

// OrDefault returns l, or DefaultFallbackLimits when l is zero.
func (l Limits) OrDefault() Limits {
	if l == (Limits{}) {
		return DefaultFallbackLimits
	}
	return l
}

// Mode selects how the graph is fetched.
type Mode struct {
	limited bool
	limits  Limits
}

// Full fetches every manifest and every dependency.
func Full() Mode { return Mode{} }

// Limited fetches at most maxManifests manifests with at most
// maxDependencies dependencies each, in a single request.
func Limited(maxManifests, maxDependencies int) Mode {
	return Mode{limited: true, limits: Limits{MaxManifests: maxManifests, MaxDependencies: maxDependencies}}
}

// IsLimited reports whether m is a limited mode.
func (m Mode) IsLimited() bool { return m.limited }

// Limits returns the bounds of a limited mode.
func (m Mode) Limits() Limits { return m.limits }

func (m Mode) String() string {
	if !m.limited {
		return "full"
	}
	return fmt.Sprintf("limited(%d,%d)", m.limits.MaxManifests, m.limits.MaxDependencies)
}

// MarshalText encodes the mode as its String form.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
