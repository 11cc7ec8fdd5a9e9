package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionStatus is the last known health of one upstream.
type ConnectionStatus struct {
	Name       string
	Connected  bool
	Detail     string
	LastUpdate time.Time
}

// StatusComponent renders upstream health on one line, in first-seen order.
type StatusComponent struct {
	connections []ConnectionStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{}
}

// Update records status, replacing the previous entry with the same name.
func (s *StatusComponent) Update(status ConnectionStatus) {
	for i := range s.connections {
		if s.connections[i].Name == status.Name {
			s.connections[i] = status
			return
		}
	}
	s.connections = append(s.connections, status)
}

// Get returns the status recorded for name.
func (s *StatusComponent) Get(name string) (ConnectionStatus, bool) {
	for _, conn := range s.connections {
		if conn.Name == name {
			return conn, true
		}
	}
	return ConnectionStatus{}, false
}

// View renders the status component.
func (s *StatusComponent) View() string {
	up := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	down := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	if len(s.connections) == 0 {
		return dim.Render("checking upstreams...")
	}

	parts := make([]string, 0, len(s.connections))
	for _, conn := range s.connections {
		var part string
		if conn.Connected {
			part = up.Render("● " + conn.Name)
		} else {
			part = down.Render("○ " + conn.Name)
		}
		if conn.Detail != "" {
			part += " " + dim.Render(conn.Detail)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "  ")
}
