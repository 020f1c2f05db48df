// Package common contains shared functionality for command handlers
package common

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"fjacquet/stmt-import/internal/container"

	"github.com/charmbracelet/lipgloss"
)

var (
	// HeaderStyle renders table headers.
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	// MutedStyle renders placeholder values.
	MutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// ErrNoContainer is returned by commands run before the root command wired
// the application.
var ErrNoContainer = errors.New("container not initialized")

// RequireContainer returns c or ErrNoContainer.
func RequireContainer(c *container.Container) (*container.Container, error) {
	if c == nil {
		return nil, ErrNoContainer
	}
	return c, nil
}

// Table writes aligned columns. Call Flush when done.
type Table struct {
	w *tabwriter.Writer
}

// NewTable writes a styled header and an underline for columns to out.
func NewTable(out io.Writer, columns ...string) *Table {
	t := &Table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	headers := make([]string, len(columns))
	rules := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = HeaderStyle.Render(c)
		rules[i] = strings.Repeat("-", max(len([]rune(c)), 4))
	}
	t.line(headers)
	t.line(rules)
	return t
}

// Row writes one row. Values are formatted with %v.
func (t *Table) Row(values ...any) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = fmt.Sprint(v)
	}
	t.line(cells)
}

func (t *Table) line(cells []string) {
	_, _ = fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}

// Flush writes the buffered rows.
func (t *Table) Flush() error {
	return t.w.Flush()
}

// Placeholder renders s muted when it is empty.
func Placeholder(s, fallback string) string {
	if s == "" {
		return MutedStyle.Render(fallback)
	}
	return s
}
