package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/sam-client/business/chain/domain"
	"github.com/fd1az/sam-client/internal/apperror"
)

const testExplorer = "https://scan.example/tx/"

type submitFixture struct {
	sub       *Submitter
	sender    *fakeSender
	notifier  *fakeNotifier
	refresher *countingRefresher
	builder   *fakeBuilder
}

func newSubmitFixture() *submitFixture {
	f := &submitFixture{
		sender:    &fakeSender{from: testUser},
		notifier:  &fakeNotifier{},
		refresher: &countingRefresher{},
		builder:   &fakeBuilder{},
	}
	f.sub = NewSubmitter(f.builder, f.sender, fakeDecoder{}, f.notifier, f.refresher,
		testAssets, SubmitConfig{ExplorerURL: testExplorer}, testLogger())
	return f
}

func TestSubmitter_BuyRefreshesOnceAndNotifies(t *testing.T) {
	f := newSubmitFixture()

	receipt, err := f.sub.Buy(context.Background(), testOwner, 1, decimal.NewFromInt(2))
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if !receipt.Success {
		t.Error("expected successful receipt")
	}
	if got := f.refresher.calls(); got != 1 {
		t.Errorf("expected exactly one refresh, got %d", got)
	}

	events := f.notifier.all()
	if len(events) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(events))
	}
	if events[0].Level != domain.LevelInfo || events[0].Message != SubmittedMessage {
		t.Errorf("unexpected submitted notification %+v", events[0])
	}
	success := events[1]
	if success.Level != domain.LevelSuccess || success.Message != "Successfully bonded the token." {
		t.Errorf("unexpected success notification %+v", success)
	}
	wantLink := testExplorer + common.HexToHash("0xabc").Hex()
	if success.Link != wantLink {
		t.Errorf("expected link %s, got %s", wantLink, success.Link)
	}
	if f.sub.Intent() != nil {
		t.Error("intent must be cleared")
	}
}

func TestSubmitter_InfluencerBondDoesNotRefresh(t *testing.T) {
	f := newSubmitFixture()

	user := common.HexToAddress("0x00000000000000000000000000000000000000ee")
	if _, err := f.sub.InfluencerBond(context.Background(), user, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("influencer bond: %v", err)
	}
	if got := f.refresher.calls(); got != 0 {
		t.Errorf("expected no refresh, got %d", got)
	}
	events := f.notifier.all()
	if last := events[len(events)-1]; last.Message != "Successfully bonded the tokens to the influencer." {
		t.Errorf("unexpected message %q", last.Message)
	}
}

func TestSubmitter_FailedSimulationNeverSigns(t *testing.T) {
	f := newSubmitFixture()
	f.sender.estimateErr = errors.New("execution reverted: Bond type inactive")

	_, err := f.sub.Rebond(context.Background(), decimal.NewFromInt(5))
	if apperror.GetCode(err) != apperror.CodeGasEstimationFailed {
		t.Fatalf("expected gas estimation failure, got %v", err)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || !strings.Contains(appErr.Message, "Bond type inactive") {
		t.Errorf("expected decoded message, got %v", err)
	}
	if f.sender.signCalls() != 0 {
		t.Error("sign step must not run after failed simulation")
	}
	if f.refresher.calls() != 0 {
		t.Error("no refresh after failure")
	}
	events := f.notifier.all()
	if len(events) != 1 || events[0].Level != domain.LevelError {
		t.Errorf("expected one error notification, got %+v", events)
	}
	if f.sub.Intent() != nil {
		t.Error("intent must be cleared after failure")
	}
}

func TestSubmitter_SecondSubmissionWhilePendingRejected(t *testing.T) {
	f := newSubmitFixture()
	f.sender.block = make(chan struct{})
	f.sender.entered = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.sub.Claim(context.Background(), decimal.NewFromInt(1))
		done <- err
	}()

	select {
	case <-f.sender.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first submission never reached confirmation")
	}

	intent := f.sub.Intent()
	if intent == nil || intent.Kind != domain.TxClaim || intent.Status != domain.StatusPending {
		t.Fatalf("expected pending CLAIM intent, got %+v", intent)
	}

	_, err := f.sub.Sell(context.Background(), decimal.NewFromInt(1))
	if apperror.GetCode(err) != apperror.CodeTxPending {
		t.Errorf("expected %s, got %v", apperror.CodeTxPending, err)
	}
	if f.sender.signCalls() != 1 {
		t.Errorf("rejected submission must not sign, sends=%d", f.sender.signCalls())
	}

	close(f.sender.block)
	if err := <-done; err != nil {
		t.Errorf("first submission: %v", err)
	}
	if f.sub.Intent() != nil {
		t.Error("intent must be cleared")
	}
}

func TestSubmitter_Validation(t *testing.T) {
	tests := []struct {
		name     string
		run      func(*Submitter) error
		noSigner bool
		wantCode apperror.Code
	}{
		{
			name: "zero amount",
			run: func(s *Submitter) error {
				_, err := s.Sell(context.Background(), decimal.Zero)
				return err
			},
			wantCode: apperror.CodeInvalidAmount,
		},
		{
			name: "negative amount",
			run: func(s *Submitter) error {
				_, err := s.Stake(context.Background(), 0, decimal.NewFromInt(-1))
				return err
			},
			wantCode: apperror.CodeInvalidAmount,
		},
		{
			name: "too many decimals",
			run: func(s *Submitter) error {
				_, err := s.Claim(context.Background(), decimal.RequireFromString("0.0000000000000000001"))
				return err
			},
			wantCode: apperror.CodeInvalidAmount,
		},
		{
			name: "bad bond type",
			run: func(s *Submitter) error {
				_, err := s.Buy(context.Background(), testOwner, 4, decimal.NewFromInt(1))
				return err
			},
			wantCode: apperror.CodeInvalidBondType,
		},
		{
			name: "empty upline",
			run: func(s *Submitter) error {
				_, err := s.Buy(context.Background(), common.Address{}, 0, decimal.NewFromInt(1))
				return err
			},
			wantCode: apperror.CodeInvalidAddress,
		},
		{
			name: "empty influencer",
			run: func(s *Submitter) error {
				_, err := s.InfluencerBond(context.Background(), common.Address{}, decimal.NewFromInt(1))
				return err
			},
			wantCode: apperror.CodeInvalidAddress,
		},
		{
			name: "watch-only wallet",
			run: func(s *Submitter) error {
				_, err := s.Withdraw(context.Background(), 0)
				return err
			},
			noSigner: true,
			wantCode: apperror.CodeWalletNotConnected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubmitFixture()
			f.sender.noSigner = tt.noSigner

			err := tt.run(f.sub)
			if apperror.GetCode(err) != tt.wantCode {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
			if f.sender.estimates != 0 {
				t.Error("validation failure must not reach the network")
			}
		})
	}
}

func TestSubmitter_RevertedReceipt(t *testing.T) {
	f := newSubmitFixture()
	f.sender.reverted = true

	_, err := f.sub.Withdraw(context.Background(), 2)
	if apperror.GetCode(err) != apperror.CodeTxReverted {
		t.Errorf("expected %s, got %v", apperror.CodeTxReverted, err)
	}
	if f.refresher.calls() != 0 {
		t.Error("no refresh after revert")
	}
}

func TestSubmitter_SendFailure(t *testing.T) {
	f := newSubmitFixture()
	f.sender.sendErr = errors.New("insufficient funds for gas * price + value")

	_, err := f.sub.Stake(context.Background(), 1, decimal.NewFromInt(1))
	if apperror.GetCode(err) != apperror.CodeTxSubmitFailed {
		t.Errorf("expected %s, got %v", apperror.CodeTxSubmitFailed, err)
	}
	for _, e := range f.notifier.all() {
		if e.Level == domain.LevelInfo {
			t.Error("submitted notification sent for a failed send")
		}
	}
}

func TestSubmitter_SellOnExternalMarket(t *testing.T) {
	f := newSubmitFixture()
	now := time.Unix(1_700_000_000, 0)
	f.sub.now = func() time.Time { return now }

	if _, err := f.sub.SellOnExternalMarket(context.Background(), decimal.NewFromInt(3)); err != nil {
		t.Fatalf("sell dex: %v", err)
	}
	if f.builder.lastTo != testUser {
		t.Errorf("swap recipient must be the sender, got %s", f.builder.lastTo.Hex())
	}
	if want := now.Add(100000 * time.Second); !f.builder.lastDeadline.Equal(want) {
		t.Errorf("expected deadline %v, got %v", want, f.builder.lastDeadline)
	}
}

func TestSubmitter_SuccessMessages(t *testing.T) {
	tests := []struct {
		kind domain.TxKind
		run  func(*Submitter) error
		want string
	}{
		{domain.TxWithdraw, func(s *Submitter) error { _, err := s.Withdraw(context.Background(), 0); return err }, "Successfully withdrawn the token."},
		{domain.TxStake, func(s *Submitter) error {
			_, err := s.Stake(context.Background(), 0, decimal.NewFromInt(1))
			return err
		}, "Successfully staked the token."},
		{domain.TxRebond, func(s *Submitter) error { _, err := s.Rebond(context.Background(), decimal.NewFromInt(1)); return err }, "Successfully rebonded the token."},
		{domain.TxClaim, func(s *Submitter) error { _, err := s.Claim(context.Background(), decimal.NewFromInt(1)); return err }, "Successfully claimed the token."},
		{domain.TxApprove, func(s *Submitter) error { _, err := s.Approve(context.Background()); return err }, "Successfully approved the token."},
		{domain.TxSell, func(s *Submitter) error { _, err := s.Sell(context.Background(), decimal.NewFromInt(1)); return err }, "Successfully sold the token."},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			f := newSubmitFixture()
			if err := tt.run(f.sub); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			events := f.notifier.all()
			last := events[len(events)-1]
			if last.Kind != tt.kind || last.Message != tt.want {
				t.Errorf("got %s %q, want %s %q", last.Kind, last.Message, tt.kind, tt.want)
			}
		})
	}
}
