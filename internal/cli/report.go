package cli

import (
	stderrors "errors"
	"io"

	"github.com/charmbracelet/log"
	"github.com/sethvargo/go-githubactions"

	"github.com/matzehuels/stacknotice/pkg/diag"
	"github.com/matzehuels/stacknotice/pkg/errors"
)

// reporter drains diagnostics. Inside GitHub Actions they become workflow
// commands (::warning:: etc.); elsewhere they go to the logger.
type reporter struct {
	logger   *log.Logger
	action   *githubactions.Action
	annotate bool
}

func (c *CLI) newReporter(w io.Writer) *reporter {
	opts := []githubactions.Option{githubactions.WithGetenv(c.Getenv)}
	if w != nil {
		opts = append(opts, githubactions.WithWriter(w))
	}
	return &reporter{
		logger:   c.Logger,
		action:   githubactions.New(opts...),
		annotate: c.Getenv("GITHUB_ACTIONS") == "true",
	}
}

// report emits every diagnostic at its severity and returns the number of
// warnings and errors.
func (r *reporter) report(ws *diag.Collector) int {
	n := 0
	for sev, msg := range ws.All() {
		if sev >= diag.SeverityWarning {
			n++
		}
		if r.annotate {
			r.annotation(sev, msg)
			continue
		}
		switch sev {
		case diag.SeverityDebug:
			r.logger.Debug(msg)
		case diag.SeverityInfo:
			r.logger.Info(msg)
		case diag.SeverityWarning:
			r.logger.Warn(msg)
		default:
			r.logger.Error(msg)
		}
	}
	return n
}

func (r *reporter) annotation(sev diag.Severity, msg string) {
	switch sev {
	case diag.SeverityDebug:
		r.action.Debugf("%s", msg)
	case diag.SeverityInfo:
		r.action.Infof("%s", msg)
	case diag.SeverityWarning:
		r.action.Warningf("%s", msg)
	default:
		r.action.Errorf("%s", msg)
	}
}

// mask hides a secret from workflow logs.
func (r *reporter) mask(secret string) {
	if r.annotate && secret != "" {
		r.action.AddMask(secret)
	}
}

// output sets a step output; it does nothing outside Actions.
func (r *reporter) output(name, value string) {
	if r.annotate {
		r.action.SetOutput(name, value)
	}
}

// fatal reports a run-ending error.
func (r *reporter) fatal(err error) {
	if r.annotate {
		r.action.Errorf("%s", FormatError(err))
	}
}

// FormatError renders err as "CODE: message" for terminal output. Errors
// without a code, such as flag parsing errors, are returned unchanged.
func FormatError(err error) string {
	if errors.GetCode(err) == "" {
		return err.Error()
	}
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Error()
	}
	return string(errors.GetCode(err)) + ": " + err.Error()
}
