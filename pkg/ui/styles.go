package ui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorSecondary = lipgloss.Color("#10B981")
	ColorDanger    = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorInfo      = lipgloss.Color("#60A5FA")
	ColorBorder    = lipgloss.Color("#374151")
)

var (
	// BoxStyle frames the two dashboard columns.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorPrimary).
			Padding(0, 2)

	MutedValue = lipgloss.NewStyle().Foreground(ColorMuted)

	AddressStyle = lipgloss.NewStyle().Foreground(ColorInfo)

	StatusLoading = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	// PendingStyle marks the in-flight transaction in the status bar.
	PendingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			Background(ColorWarning).
			Padding(0, 1)

	ErrorHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
	ErrorStyle       = lipgloss.NewStyle().Foreground(ColorDanger)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)
)
