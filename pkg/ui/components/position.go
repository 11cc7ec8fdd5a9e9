package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Field is one labelled value.
type Field struct {
	Label string
	Value string
}

// PositionComponent renders the account balances and the user position.
type PositionComponent struct {
	balances []Field
	position []Field
	bonds    []bool
}

// NewPositionComponent creates a new position component.
func NewPositionComponent() *PositionComponent {
	return &PositionComponent{}
}

// Update replaces the displayed data. A nil position renders as not loaded.
func (p *PositionComponent) Update(balances, position []Field, bondTypes []bool) {
	p.balances = balances
	p.position = position
	p.bonds = bondTypes
}

// View renders the position component.
func (p *PositionComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	onStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

	var b strings.Builder
	b.WriteString(headerStyle.Render("ACCOUNT"))
	b.WriteString("\n\n")

	if len(p.balances) == 0 {
		b.WriteString(dimStyle.Render("  No wallet connected"))
		return b.String()
	}
	for _, f := range p.balances {
		b.WriteString(fmt.Sprintf("  %-18s %s\n", dimStyle.Render(f.Label), valueStyle.Render(f.Value)))
	}

	b.WriteString("\n")
	b.WriteString(headerStyle.Render("POSITION"))
	b.WriteString("\n\n")
	if len(p.position) == 0 {
		b.WriteString(dimStyle.Render("  Loading position..."))
		return b.String()
	}
	for _, f := range p.position {
		b.WriteString(fmt.Sprintf("  %-18s %s\n", dimStyle.Render(f.Label), valueStyle.Render(f.Value)))
	}

	if len(p.bonds) > 0 {
		marks := make([]string, len(p.bonds))
		for i, on := range p.bonds {
			if on {
				marks[i] = onStyle.Render(fmt.Sprintf("%d●", i))
			} else {
				marks[i] = dimStyle.Render(fmt.Sprintf("%d○", i))
			}
		}
		b.WriteString(fmt.Sprintf("  %-18s %s\n", dimStyle.Render("Bond types"), strings.Join(marks, " ")))
	}
	return b.String()
}
