package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/sam-client/business/chain/domain"
	"github.com/fd1az/sam-client/internal/asset"
	"github.com/fd1az/sam-client/internal/notify"
)

func testState(t *testing.T) domain.State {
	t.Helper()
	assets := asset.NewSet(asset.ChainIDPulse, common.HexToAddress("0x1"))
	native, err := asset.ParseString(assets.Native, "2000")
	if err != nil {
		t.Fatal(err)
	}
	token, err := asset.ParseString(assets.Token, "1000")
	if err != nil {
		t.Fatal(err)
	}
	s := domain.NewState(assets)
	s.Pool.NativeReserve = native
	s.Pool.TokenReserve = token
	s.Account.Address = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	s.Bonds = []domain.Bond{
		{Index: 0, Amount: native, Tokens: token, CreatedAt: time.Unix(0, 0)},
		{Index: 1, Amount: native, Tokens: token, CreatedAt: time.Unix(0, 0), Closed: true},
	}
	return s
}

func dashboard(t *testing.T) Model {
	t.Helper()
	m := New()
	m.phase = PhaseDashboard
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	return next.(Model)
}

func TestModel_StateRendersPool(t *testing.T) {
	m := dashboard(t)
	next, _ := m.Update(StateMsg{State: testState(t)})
	m = next.(Model)

	view := m.View()
	for _, want := range []string{"2000.00 PLS", "1000.00 SAM", "2.0000"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if m.startupSteps["chain"].Status != "connected" {
		t.Errorf("chain step = %q, want connected", m.startupSteps["chain"].Status)
	}
}

func TestModel_PriceWithoutState(t *testing.T) {
	m := dashboard(t)
	price := asset.NewPrice(asset.NewNative(asset.ChainIDPulse, "PLS", ""), asset.USD, decimal.RequireFromString("0.0001"), time.Now())
	next, _ := m.Update(PriceMsg{Price: price})
	m = next.(Model)
	if m.price.IsZero() {
		t.Fatal("price not stored")
	}
	if m.startupSteps["pricing"].Status != "connected" {
		t.Errorf("pricing step = %q", m.startupSteps["pricing"].Status)
	}
}

func TestModel_ErrorsKeepLastThree(t *testing.T) {
	m := dashboard(t)
	for i := 0; i < 5; i++ {
		next, _ := m.Update(ErrorMsg{Error: errors.New(string(rune('a' + i)))})
		m = next.(Model)
	}
	if len(m.errors) != maxErrors {
		t.Fatalf("errors = %d, want %d", len(m.errors), maxErrors)
	}
	if m.errors[0].Message != "c" {
		t.Errorf("oldest kept = %q, want c", m.errors[0].Message)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	m = next.(Model)
	if len(m.errors) != 0 {
		t.Errorf("errors after clear = %d", len(m.errors))
	}
}

func TestModel_NotificationFeed(t *testing.T) {
	m := dashboard(t)
	next, _ := m.Update(NotificationMsg{Event: notify.Event{
		Level:   notify.LevelSuccess,
		Title:   "Bond bought",
		Message: "Bought 1 bond",
		Link:    "https://scan.example/tx/0x1",
	}})
	m = next.(Model)
	if m.feed.Len() != 1 {
		t.Fatalf("feed len = %d", m.feed.Len())
	}
	if !strings.Contains(m.View(), "Bond bought") {
		t.Error("feed entry not rendered")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if next.(Model).feed.Len() != 0 {
		t.Error("feed not cleared")
	}
}

func TestModel_PendingBanner(t *testing.T) {
	m := dashboard(t)
	next, _ := m.Update(PendingMsg{Kind: "buy"})
	if !strings.Contains(next.(Model).View(), "pending: buy") {
		t.Error("pending banner missing")
	}
}

func TestModel_WelcomeKeyStartsModules(t *testing.T) {
	started := make(chan struct{}, 1)
	OnStartModules = func() { started <- struct{}{} }
	t.Cleanup(func() { OnStartModules = nil })

	next, _ := New().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if next.(Model).phase != PhaseStartup {
		t.Fatalf("phase = %s, want startup", next.(Model).phase)
	}
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("OnStartModules not called")
	}
}

func TestModel_StartupCompletesOnTick(t *testing.T) {
	m := New()
	m.phase = PhaseStartup
	for _, name := range stepOrder {
		m.markStep(name, "done")
	}
	next, _ := m.Update(TickMsg{})
	if next.(Model).phase != PhaseDashboard {
		t.Errorf("phase = %s, want dashboard", next.(Model).phase)
	}
}

func TestShortAddress(t *testing.T) {
	got := shortAddress("0x00000000000000000000000000000000000000aa")
	if got != "0x0000…00aa" {
		t.Errorf("shortAddress = %q", got)
	}
}
