// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PoolView is the pre-formatted pool data. The dashboard formats amounts so
// the component only lays them out.
type PoolView struct {
	NativeSymbol  string
	TokenSymbol   string
	NativeReserve string
	TokenReserve  string
	TokenPrice    string // one token in native coin
	NativePrice   string // native coin in the quote currency, empty when unknown
	GlobalBonus   string
}

// PoolComponent renders pool liquidity and prices.
type PoolComponent struct {
	view  PoolView
	ready bool
}

// NewPoolComponent creates a new pool component.
func NewPoolComponent() *PoolComponent {
	return &PoolComponent{}
}

// Update replaces the pool data.
func (p *PoolComponent) Update(v PoolView) {
	p.view = v
	p.ready = true
}

// View renders the pool component.
func (p *PoolComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	bonusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

	var b strings.Builder
	b.WriteString(headerStyle.Render("POOL"))
	b.WriteString("\n\n")

	if !p.ready {
		b.WriteString(dimStyle.Render("  Waiting for pool data..."))
		return b.String()
	}

	v := p.view
	row := func(label, value string) {
		b.WriteString(fmt.Sprintf("  %-18s %s\n", dimStyle.Render(label), valueStyle.Render(value)))
	}
	row(v.NativeSymbol+" reserve", v.NativeReserve)
	row(v.TokenSymbol+" reserve", v.TokenReserve)
	row("1 "+v.TokenSymbol, v.TokenPrice+" "+v.NativeSymbol)
	if v.NativePrice != "" {
		row("1 "+v.NativeSymbol, "$"+v.NativePrice)
	} else {
		row("1 "+v.NativeSymbol, dimStyle.Render("price unavailable"))
	}
	b.WriteString(dimStyle.Render("  " + strings.Repeat("─", 40)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %-18s %s\n", dimStyle.Render("Global bonus"), bonusStyle.Render(v.GlobalBonus+"%")))
	return b.String()
}
