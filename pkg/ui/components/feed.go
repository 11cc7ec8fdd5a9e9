package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// FeedEntry is one notification line.
type FeedEntry struct {
	Time    string
	Level   string // info, success, error
	Title   string
	Message string
	Link    string
}

// FeedComponent renders the most recent notifications, newest first.
type FeedComponent struct {
	entries []FeedEntry
	max     int
}

// NewFeedComponent creates a feed keeping max entries.
func NewFeedComponent(max int) *FeedComponent {
	return &FeedComponent{max: max}
}

// Add prepends an entry.
func (f *FeedComponent) Add(e FeedEntry) {
	f.entries = append([]FeedEntry{e}, f.entries...)
	if len(f.entries) > f.max {
		f.entries = f.entries[:f.max]
	}
}

// Clear removes all entries.
func (f *FeedComponent) Clear() {
	f.entries = nil
}

// Len returns the number of entries.
func (f *FeedComponent) Len() int { return len(f.entries) }

// View renders the feed.
func (f *FeedComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	linkStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Underline(true)

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("NOTIFICATIONS"))
	sb.WriteString("\n\n")

	if len(f.entries) == 0 {
		sb.WriteString(mutedStyle.Render("  No transactions yet..."))
		return sb.String()
	}

	for _, e := range f.entries {
		style := levelStyle(e.Level)
		sb.WriteString(mutedStyle.Render("  [" + e.Time + "] "))
		sb.WriteString(style.Render(e.Title))
		sb.WriteString("\n    ")
		sb.WriteString(e.Message)
		if e.Link != "" {
			sb.WriteString("\n    ")
			sb.WriteString(linkStyle.Render(e.Link))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func levelStyle(level string) lipgloss.Style {
	switch level {
	case "success":
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	case "error":
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	default:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	}
}
