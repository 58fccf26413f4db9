// Package diag collects the non-fatal diagnostics produced while building a
// notice: unsupported ecosystems, truncated manifests, incomplete dependency
// pages and missing license data.
//
// Core packages never log. They append to a [Collector] and the caller
// drains it through [Collector.All], which yields (severity, message) pairs
// in the order they were recorded.
package diag

import (
	"fmt"
	"iter"
	"sync"

	"github.com/matzehuels/stacknotice/pkg/errors"
)

// Severity ranks a diagnostic.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Warning is one recorded diagnostic. Code is empty for purely
// informational entries.
type Warning struct {
	Severity Severity    `json:"severity"`
	Code     errors.Code `json:"code,omitempty"`
	Message  string      `json:"message"`
}

// Collector accumulates diagnostics. The zero value is ready to use and safe
// for concurrent use.
type Collector struct {
	mu    sync.Mutex
	items []Warning
}

// Add records a diagnostic.
func (c *Collector) Add(w Warning) {
	c.mu.Lock()
	c.items = append(c.items, w)
	c.mu.Unlock()
}

// Warnf records a warning with the given code.
func (c *Collector) Warnf(code errors.Code, format string, args ...any) {
	c.Add(Warning{Severity: SeverityWarning, Code: code, Message: fmt.Sprintf(format, args...)})
}

// Infof records an informational entry.
func (c *Collector) Infof(format string, args ...any) {
	c.Add(Warning{Severity: SeverityInfo, Message: fmt.Sprintf(format, args...)})
}

// Debugf records a debug entry.
func (c *Collector) Debugf(format string, args ...any) {
	c.Add(Warning{Severity: SeverityDebug, Message: fmt.Sprintf(format, args...)})
}

// Merge appends every diagnostic from other, in order.
func (c *Collector) Merge(other *Collector) {
	if other == nil || other == c {
		return
	}
	c.Append(other.Warnings()...)
}

// Append records several diagnostics at once.
func (c *Collector) Append(ws ...Warning) {
	if len(ws) == 0 {
		return
	}
	c.mu.Lock()
	c.items = append(c.items, ws...)
	c.mu.Unlock()
}

// Len returns the number of recorded diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Count returns how many diagnostics carry the given code.
func (c *Collector) Count(code errors.Code) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, w := range c.items {
		if w.Code == code {
			n++
		}
	}
	return n
}

// Warnings returns a copy of the recorded diagnostics.
func (c *Collector) Warnings() []Warning {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Warning, len(c.items))
	copy(out, c.items)
	return out
}

// All yields every recorded diagnostic as a (severity, message) pair.
// The sequence reflects the collector at the time iteration starts.
func (c *Collector) All() iter.Seq2[Severity, string] {
	return func(yield func(Severity, string) bool) {
		for _, w := range c.Warnings() {
			if !yield(w.Severity, w.Message) {
				return
			}
		}
	}
}

// AtLeast yields the diagnostics whose severity is min or higher.
func (c *Collector) AtLeast(min Severity) iter.Seq2[Severity, string] {
	return func(yield func(Severity, string) bool) {
		for sev, msg := range c.All() {
			if sev < min {
				continue
			}
			if !yield(sev, msg) {
				return
			}
		}
	}
}
