// Package style provides the brand colours, icons and text styles shared by the CLI.
package style

import "github.com/charmbracelet/lipgloss"

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
	Cyan   = lipgloss.Color("#0EA5E9")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
	Arrow   = "→"
)

// Styles renders CLI output for one renderer.
type Styles struct {
	Header lipgloss.Style
	Muted  lipgloss.Style
	Good   lipgloss.Style
	Bad    lipgloss.Style
	Shared lipgloss.Style
	Nested lipgloss.Style
	Link   lipgloss.Style
}

// New returns the CLI styles bound to r.
func New(r *lipgloss.Renderer) Styles {
	return Styles{
		Header: r.NewStyle().Bold(true).Foreground(Iris),
		Muted:  r.NewStyle().Foreground(Slate),
		Good:   r.NewStyle().Foreground(Green),
		Bad:    r.NewStyle().Foreground(Red),
		Shared: r.NewStyle().Foreground(Green),
		Nested: r.NewStyle().Foreground(Yellow),
		Link:   r.NewStyle().Foreground(Cyan),
	}
}
