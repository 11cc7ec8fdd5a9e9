package app

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/sam-client/business/chain/domain"
	"github.com/fd1az/sam-client/internal/apperror"
	"github.com/fd1az/sam-client/internal/asset"
)

type clientFixture struct {
	client   *ChainClient
	reader   *fakeReader
	sender   *fakeSender
	notifier *fakeNotifier
}

func newClientFixture(uplines UplineSource) *clientFixture {
	r := newFakeReader()
	s := &fakeSender{from: testUser, reader: r}
	n := &fakeNotifier{}
	c := NewChainClient(Deps{
		Reader:   r,
		Builder:  &fakeBuilder{},
		Sender:   s,
		Decoder:  fakeDecoder{},
		Notifier: n,
		Uplines:  uplines,
	}, testAssets, ClientConfig{Sync: DefaultSyncConfig()}, testLogger())
	return &clientFixture{client: c, reader: r, sender: s, notifier: n}
}

func TestChainClient_ApproveSetsMaxAllowance(t *testing.T) {
	f := newClientFixture(nil)
	ctx := context.Background()

	f.client.Refresh(ctx)
	if !f.client.State().Account.TokenAllowance.IsZero() {
		t.Fatal("expected zero allowance before approve")
	}

	if _, err := f.client.Approve(ctx); err != nil {
		t.Fatalf("approve: %v", err)
	}

	want, _ := asset.ParseDecimal(testAssets.Token, MaxApproveTokens)
	got := f.client.State().Account.TokenAllowance
	if !got.Equals(want) {
		t.Errorf("expected allowance %s, got %s", want, got)
	}
}

func TestChainClient_BuyRefreshesOnce(t *testing.T) {
	f := newClientFixture(nil)
	ctx := context.Background()

	before := f.reader.uiDataCalls()
	upline := testOwner
	if _, err := f.client.Buy(ctx, &upline, 0, decimal.NewFromInt(1)); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if got := f.reader.uiDataCalls() - before; got != 1 {
		t.Errorf("expected one refresh, got %d", got)
	}
}

func TestChainClient_FailedSimulationLeavesStateUnchanged(t *testing.T) {
	f := newClientFixture(nil)
	ctx := context.Background()
	f.client.Refresh(ctx)
	before := f.client.State()

	f.sender.estimateErr = errRPCFailed
	_, err := f.client.Sell(ctx, decimal.NewFromInt(1))
	if apperror.GetCode(err) != apperror.CodeGasEstimationFailed {
		t.Fatalf("expected gas estimation failure, got %v", err)
	}

	after := f.client.State()
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("state was refreshed after failed simulation")
	}
	if f.sender.signCalls() != 0 {
		t.Error("transaction was signed")
	}
}

func TestChainClient_DisconnectClearsAccount(t *testing.T) {
	f := newClientFixture(nil)
	ctx := context.Background()
	f.client.Refresh(ctx)

	f.client.SetAddress(ctx, nil)

	st := f.client.State()
	if st.Account.Connected() || st.Position != nil {
		t.Error("expected empty account after disconnect")
	}
	if _, ok := f.client.Address(); ok {
		t.Error("address must be cleared")
	}
}

func TestChainClient_ResolveUpline(t *testing.T) {
	ref := common.HexToAddress("0x00000000000000000000000000000000000000f1")
	explicit := common.HexToAddress("0x00000000000000000000000000000000000000f2")

	tests := []struct {
		name      string
		uplines   UplineSource
		given     *common.Address
		ownerDown bool
		want      common.Address
		wantErr   bool
	}{
		{name: "explicit", uplines: fixedUpline{addr: ref, ok: true}, given: &explicit, want: explicit},
		{name: "stored referral", uplines: fixedUpline{addr: ref, ok: true}, want: ref},
		{name: "owner fallback", uplines: fixedUpline{}, want: testOwner},
		{name: "no referral source", want: testOwner},
		{name: "owner read fails", uplines: fixedUpline{}, ownerDown: true, wantErr: true},
		{name: "explicit wins over failing owner", given: &explicit, ownerDown: true, want: explicit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newClientFixture(tt.uplines)
			f.reader.setFail(tt.ownerDown)

			got, err := f.client.resolveUpline(context.Background(), tt.given)
			if tt.wantErr {
				if apperror.GetCode(err) != apperror.CodeInvalidAddress {
					t.Fatalf("expected %s, got %v", apperror.CodeInvalidAddress, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want.Hex(), got.Hex())
			}
		})
	}
}

func TestChainClient_BuyWithoutUplineIsRejected(t *testing.T) {
	f := newClientFixture(fixedUpline{})
	f.reader.setFail(true)

	_, err := f.client.Buy(context.Background(), nil, 0, decimal.NewFromInt(1))
	if apperror.GetCode(err) != apperror.CodeInvalidAddress {
		t.Fatalf("expected %s, got %v", apperror.CodeInvalidAddress, err)
	}
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Errorf("expected validation kind, got %s", apperror.KindOf(err))
	}
	if f.sender.estimates != 0 || f.sender.signCalls() != 0 {
		t.Error("nothing may reach the network without an upline")
	}
	if f.client.Pending() != nil {
		t.Error("no intent may be left behind")
	}
	notes := f.notifier.all()
	if len(notes) != 1 || notes[0].Level != domain.LevelError || notes[0].Kind != domain.TxBuy {
		t.Errorf("expected one buy failure notification, got %+v", notes)
	}
}

func TestChainClient_QuoteAndBalanceReads(t *testing.T) {
	f := newClientFixture(nil)
	ctx := context.Background()

	q, err := f.client.QuoteTokens(ctx, decimal.NewFromInt(3))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !q.Equals(tokens(6)) {
		t.Errorf("expected 6 tokens, got %s", q)
	}

	f.reader.setFail(true)
	bal, err := f.client.TokenBalanceOf(ctx, testOwner)
	if err == nil {
		t.Error("expected read error")
	}
	if !bal.IsZero() {
		t.Error("failed read must return a zero amount")
	}
}
