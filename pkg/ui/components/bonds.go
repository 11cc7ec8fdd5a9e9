package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// BondRow represents a bond in the list.
type BondRow struct {
	Index     uint64
	Type      uint8
	Amount    string
	Tokens    string
	CreatedAt string
	Closed    bool
}

// BondsComponent renders the bond list with scrolling.
type BondsComponent struct {
	rows    []BondRow
	offset  int
	visible int
}

// NewBondsComponent creates a bonds component showing visible rows at a time.
func NewBondsComponent(visible int) *BondsComponent {
	if visible < 1 {
		visible = 1
	}
	return &BondsComponent{visible: visible}
}

// Update replaces the rows, keeping the scroll position when possible.
func (c *BondsComponent) Update(rows []BondRow) {
	c.rows = rows
	c.clamp()
}

// ScrollUp moves the window one row up.
func (c *BondsComponent) ScrollUp() {
	c.offset--
	c.clamp()
}

// ScrollDown moves the window one row down.
func (c *BondsComponent) ScrollDown() {
	c.offset++
	c.clamp()
}

// Offset returns the first visible row.
func (c *BondsComponent) Offset() int { return c.offset }

func (c *BondsComponent) clamp() {
	maxOffset := len(c.rows) - c.visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if c.offset > maxOffset {
		c.offset = maxOffset
	}
	if c.offset < 0 {
		c.offset = 0
	}
}

// View renders the bonds component.
func (c *BondsComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	openStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	closedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	result := headerStyle.Render(fmt.Sprintf("BONDS (%d)", len(c.rows))) + "\n"
	if len(c.rows) == 0 {
		return result + closedStyle.Render("No bonds yet...")
	}

	result += "┌─────┬──────┬──────────────┬──────────────┬────────────┬────────┐\n"
	result += "│  #  │ Type │    Amount    │    Tokens    │  Created   │ Status │\n"
	result += "├─────┼──────┼──────────────┼──────────────┼────────────┼────────┤\n"

	end := c.offset + c.visible
	if end > len(c.rows) {
		end = len(c.rows)
	}
	for _, row := range c.rows[c.offset:end] {
		status := openStyle.Render("open  ")
		if row.Closed {
			status = closedStyle.Render("closed")
		}
		result += fmt.Sprintf("│%4d │%5d │%13s │%13s │%11s │ %s │\n",
			row.Index, row.Type, row.Amount, row.Tokens, row.CreatedAt, status)
	}

	result += "└─────┴──────┴──────────────┴──────────────┴────────────┴────────┘"
	if len(c.rows) > c.visible {
		result += closedStyle.Render(fmt.Sprintf("\n rows %d-%d of %d", c.offset+1, end, len(c.rows)))
	}
	return result
}
