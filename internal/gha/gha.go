// Package gha talks to the GitHub Actions runner environment: workflow
// commands on stdout, plus the step summary and named result files the runner
// hands over via environment variables. Forgejo Actions speaks the same
// protocol under the same variable names, so one implementation covers both.
package gha

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/promoter/internal/errors"
)

const (
	// EnvStepSummary names the file that collects step summary markdown.
	EnvStepSummary = "GITHUB_STEP_SUMMARY"
	// EnvOutput names the file that collects named step results.
	EnvOutput = "GITHUB_OUTPUT"
)

// Commands emits workflow commands and writes runner files. Outside a runner
// (no summary/output files in the environment) the file writers degrade to
// plain prints or no-ops, so local runs behave.
type Commands struct {
	out io.Writer
}

// New returns Commands writing workflow commands to stdout.
func New() *Commands {
	return &Commands{out: os.Stdout}
}

// NewWithOutput returns Commands writing workflow commands to w.
func NewWithOutput(w io.Writer) *Commands {
	return &Commands{out: w}
}

// Error emits an ::error:: annotation. Properties (file, line, title) are
// rendered sorted so output is stable.
func (c *Commands) Error(message string, props map[string]string) {
	c.annotate("error", message, props)
}

// Warning emits a ::warning:: annotation.
func (c *Commands) Warning(message string) {
	c.annotate("warning", message, nil)
}

// Notice emits a ::notice:: annotation.
func (c *Commands) Notice(message string) {
	c.annotate("notice", message, nil)
}

// Group opens a collapsible log group.
func (c *Commands) Group(title string) {
	fmt.Fprintf(c.out, "::group::%s\n", escapeData(title))
}

// EndGroup closes the current log group.
func (c *Commands) EndGroup() {
	fmt.Fprintln(c.out, "::endgroup::")
}

func (c *Commands) annotate(level, message string, props map[string]string) {
	prefix := "::" + level
	if len(props) > 0 {
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+escapeProperty(props[k]))
		}
		prefix += " " + strings.Join(parts, ",")
	}
	fmt.Fprintf(c.out, "%s::%s\n", prefix, escapeData(message))
}

// WriteSummary appends markdown to the step summary file. Without a runner it
// prints the summary in a delimited block instead.
func (c *Commands) WriteSummary(markdown string) error {
	path := os.Getenv(EnvStepSummary)
	if path == "" {
		fmt.Fprintln(c.out, "--- SUMMARY ---")
		fmt.Fprintln(c.out, markdown)
		fmt.Fprintln(c.out, "--- END SUMMARY ---")
		return nil
	}
	return appendLine(path, markdown+"\n", "failed to append step summary")
}

// SetOutput records a named result in the output file. Multi-line values use
// the runner's heredoc form. Without a runner this is a no-op.
func (c *Commands) SetOutput(name, value string) error {
	path := os.Getenv(EnvOutput)
	if path == "" {
		return nil
	}

	var line string
	if strings.ContainsAny(value, "\r\n") {
		delimiter := "ghadelimiter_" + uuid.NewString()
		line = fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter)
	} else {
		line = fmt.Sprintf("%s=%s\n", name, value)
	}
	return appendLine(path, line, "failed to append output "+name)
}

func appendLine(path, line, failMessage string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.NotifyError(failMessage, err).WithContext("path", path)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(line); err != nil {
		return errors.NotifyError(failMessage, err).WithContext("path", path)
	}
	return nil
}

// escapeData escapes a workflow command message per the runner protocol.
func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}

// escapeProperty escapes a workflow command property value, which additionally
// cannot contain the property and command separators.
func escapeProperty(s string) string {
	s = escapeData(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	s = strings.ReplaceAll(s, ",", "%2C")
	return s
}
