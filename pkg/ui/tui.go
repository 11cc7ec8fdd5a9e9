package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/sam-client/business/chain/app"
	"github.com/fd1az/sam-client/business/chain/domain"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/notify"
	"github.com/fd1az/sam-client/pkg/ui/components"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseStartup   Phase = "startup"
	PhaseDashboard Phase = "dashboard"
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

const maxErrors = 3

var stepOrder = []string{"config", "chain", "pricing", "referral"}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	pool     *components.PoolComponent
	position *components.PositionComponent
	bonds    *components.BondsComponent
	feed     *components.FeedComponent
	status   *components.StatusComponent

	keys KeyMap
	help help.Model

	phase        Phase
	welcomeStart time.Time

	quitting bool
	width    int
	height   int

	state      domain.State
	hasState   bool
	price      asset.Price
	pending    string
	lastUpdate time.Time
	errors     []ErrorEntry

	startupSteps map[string]*StartupStep
	startupTime  time.Time
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		pool:         components.NewPoolComponent(),
		position:     components.NewPositionComponent(),
		bonds:        components.NewBondsComponent(8),
		feed:         components.NewFeedComponent(8),
		status:       components.NewStatusComponent(),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		phase:        PhaseWelcome,
		welcomeStart: now,
		errors:       make([]ErrorEntry, 0, maxErrors),
		startupSteps: map[string]*StartupStep{
			"config":   {Name: "Loading configuration", Status: "pending"},
			"chain":    {Name: "Reading protocol state", Status: "pending"},
			"pricing":  {Name: "Connecting price feed", Status: "pending"},
			"referral": {Name: "Loading referral", Status: "pending"},
		},
		startupTime: now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m *Model) enterStartup() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Send() must not be used from within Update.
	if OnStartModules != nil {
		go OnStartModules()
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.phase == PhaseWelcome {
			m.enterStartup()
			return m, tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.Refresh):
			if OnRefresh != nil {
				go OnRefresh()
			}
		case key.Matches(msg, m.keys.ClearFeed):
			m.feed.Clear()
		case key.Matches(msg, m.keys.ClearError):
			m.errors = m.errors[:0]
		case key.Matches(msg, m.keys.Up):
			m.bonds.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.bonds.ScrollDown()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.enterStartup()
		}
		if m.phase == PhaseStartup && m.startupComplete() {
			m.phase = PhaseDashboard
		}
		return m, tickCmd()

	case StateMsg:
		m.applyState(msg.State)
		if !msg.State.Loading {
			m.markStep("chain", "connected")
		}

	case PriceMsg:
		m.price = msg.Price
		m.markStep("pricing", "connected")
		if m.hasState {
			m.pool.Update(m.poolView())
		}

	case PendingMsg:
		m.pending = msg.Kind

	case NotificationMsg:
		m.feed.Add(feedEntry(msg.Event))

	case ConnectionStatusMsg:
		m.status.Update(components.ConnectionStatus{
			Name:       msg.Name,
			Connected:  msg.Connected,
			Detail:     msg.Detail,
			LastUpdate: time.Now(),
		})

	case ErrorMsg:
		if msg.Error != nil {
			m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
			if len(m.errors) > maxErrors {
				m.errors = m.errors[len(m.errors)-maxErrors:]
			}
		}

	case StartupMsg:
		m.markStep(msg.Step, msg.Status)
	}

	return m, nil
}

func (m *Model) markStep(name, status string) {
	if step, ok := m.startupSteps[name]; ok {
		step.Status = status
	}
}

func (m Model) startupComplete() bool {
	for _, step := range m.startupSteps {
		if step.Status != "connected" && step.Status != "done" && step.Status != "failed" {
			return false
		}
	}
	return true
}

func (m *Model) applyState(s domain.State) {
	m.state = s
	m.hasState = true
	m.lastUpdate = time.Now()
	m.pool.Update(m.poolView())
	m.position.Update(balanceFields(s.Account), positionFields(s.Position), s.BondActivations[:])
	m.bonds.Update(bondRows(s.Bonds))
}

func (m Model) poolView() components.PoolView {
	p := m.state.Pool
	v := components.PoolView{
		NativeSymbol:  symbol(p.NativeReserve),
		TokenSymbol:   symbol(p.TokenReserve),
		NativeReserve: p.NativeReserve.StringFixed(2),
		TokenReserve:  p.TokenReserve.StringFixed(2),
		TokenPrice:    app.ReserveValue(decimal.NewFromInt(1), p),
		GlobalBonus:   p.GlobalLiquidityBonus.StringFixed(2),
	}
	if !m.price.IsZero() {
		v.NativePrice = m.price.Rate().String()
	}
	return v
}

func symbol(a asset.Amount) string {
	if a.Asset() == nil {
		return ""
	}
	return a.Asset().Symbol()
}

func balanceFields(a domain.AccountSnapshot) []components.Field {
	if !a.Connected() {
		return nil
	}
	return []components.Field{
		{Label: "Native", Value: a.NativeBalance.StringFixed(4)},
		{Label: "Token", Value: a.TokenBalance.StringFixed(4)},
		{Label: "Allowance", Value: a.TokenAllowance.StringFixed(2)},
	}
}

func positionFields(p *domain.UserPosition) []components.Field {
	if p == nil {
		return nil
	}
	upline := "-"
	if p.Upline != (common.Address{}) {
		upline = shortAddress(p.Upline.Hex())
	}
	return []components.Field{
		{Label: "Upline", Value: upline},
		{Label: "Bonds", Value: fmt.Sprintf("%d", p.BondsNumber)},
		{Label: "Invested", Value: p.TotalInvested.StringFixed(4)},
		{Label: "Available", Value: p.AvailableAmount.StringFixed(4)},
		{Label: "Claimed", Value: p.TotalClaimed.StringFixed(4)},
		{Label: "Rebonded", Value: p.TotalRebonded.StringFixed(4)},
		{Label: "Sold", Value: p.TotalSold.StringFixed(4)},
		{Label: "Ref rewards", Value: p.TotalRefReward.StringFixed(4)},
		{Label: "Referrals", Value: fmt.Sprintf("%d", p.ReferralsNumber)},
		{Label: "Hold bonus", Value: p.HoldBonus.StringFixed(2) + "%"},
		{Label: "Liquidity bonus", Value: p.LiquidityBonus.StringFixed(2) + "%"},
	}
}

func bondRows(bonds []domain.Bond) []components.BondRow {
	rows := make([]components.BondRow, 0, len(bonds))
	for _, b := range bonds {
		rows = append(rows, components.BondRow{
			Index:     b.Index,
			Type:      b.Type,
			Amount:    b.Amount.StringFixed(4),
			Tokens:    b.Tokens.StringFixed(4),
			CreatedAt: b.CreatedAt.Format("2006-01-02 15:04"),
			Closed:    b.Closed,
		})
	}
	return rows
}

func feedEntry(e notify.Event) components.FeedEntry {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	return components.FeedEntry{
		Time:    at.Format("15:04:05"),
		Level:   string(e.Level),
		Title:   e.Title,
		Message: e.Message,
		Link:    e.Link,
	}
}

func shortAddress(hex string) string {
	if len(hex) <= 12 {
		return hex
	}
	return hex[:6] + "…" + hex[len(hex)-4:]
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(" SAM Protocol "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	var left strings.Builder
	left.WriteString(m.pool.View())
	left.WriteString("\n\n")
	left.WriteString(m.position.View())

	var right strings.Builder
	right.WriteString(m.bonds.View())
	right.WriteString("\n\n")
	right.WriteString(m.feed.View())

	if m.width > 100 {
		l := BoxStyle.Width(m.width/2 - 2).Render(left.String())
		r := BoxStyle.Width(m.width/2 - 2).Render(right.String())
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, l, r))
	} else {
		width := m.width - 4
		if width < 20 {
			width = 80
		}
		b.WriteString(BoxStyle.Width(width).Render(left.String()))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(right.String()))
	}
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(m.renderErrors())
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderErrors() string {
	var sb strings.Builder
	sb.WriteString(ErrorHeaderStyle.Render("ERRORS"))
	sb.WriteString(MutedValue.Render(" (e: clear)"))
	sb.WriteString("\n")
	for _, err := range m.errors {
		ago := time.Since(err.Timestamp).Round(time.Second)
		sb.WriteString(ErrorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
		sb.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	greenStyle := lipgloss.NewStyle().Foreground(ColorSecondary)

	dots := strings.Repeat(".", int(time.Since(m.welcomeStart).Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")
	logo := `
   ███████╗ █████╗ ███╗   ███╗
   ██╔════╝██╔══██╗████╗ ████║
   ███████╗███████║██╔████╔██║
   ╚════██║██╔══██║██║╚██╔╝██║
   ███████║██║  ██║██║ ╚═╝ ██║
   ╚══════╝╚═╝  ╚═╝╚═╝     ╚═╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render("        B O N D   C L I E N T"))
	sb.WriteString("\n\n\n")
	sb.WriteString(greenStyle.Render(fmt.Sprintf("        Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("   Press any key to skip, or wait..."))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).MarginBottom(1)
	successStyle := lipgloss.NewStyle().Foreground(ColorSecondary)
	connectingStyle := lipgloss.NewStyle().Foreground(ColorWarning)
	failedStyle := lipgloss.NewStyle().Foreground(ColorDanger)

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  SAM Protocol"))
	sb.WriteString("\n\n  Starting up...\n\n")

	for _, name := range stepOrder {
		step, ok := m.startupSteps[name]
		if !ok {
			continue
		}

		var icon, text string
		style := MutedValue
		switch step.Status {
		case "connected", "done":
			icon, text, style = "✓", "Ready", successStyle
		case "connecting":
			spinners := []string{"◐", "◓", "◑", "◒"}
			icon = spinners[int(time.Since(m.startupTime).Milliseconds()/200)%len(spinners)]
			text, style = "Connecting...", connectingStyle
		case "failed":
			icon, text, style = "✗", "Failed", failedStyle
		default:
			icon, text = "○", "Pending"
		}
		sb.WriteString(fmt.Sprintf("  %s %s %s\n", style.Render(icon), MutedValue.Render(step.Name), style.Render(text)))
	}

	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render(fmt.Sprintf("  Elapsed: %s", time.Since(m.startupTime).Round(time.Second))))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if addr := m.state.Account.Address; m.state.Account.Connected() {
		parts = append(parts, AddressStyle.Render(shortAddress(addr.Hex())))
	} else {
		parts = append(parts, MutedValue.Render("no wallet"))
	}

	if m.state.Loading {
		parts = append(parts, StatusLoading.Render("⟳ loading"))
	}
	if m.pending != "" {
		parts = append(parts, PendingStyle.Render("pending: "+m.pending))
	}

	parts = append(parts, m.status.View())

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
var OnStartModules func()

// OnRefresh is called when the user asks for a manual refresh.
var OnRefresh func()

// Run starts the Bubble Tea program.
func Run() error {
	Program = tea.NewProgram(New(), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
