package ethereum

import (
	"bytes"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/sam-client/business/chain/domain"
)

var testAddrs = Addresses{
	Token:         common.HexToAddress("0x1000000000000000000000000000000000000001"),
	Protocol:      common.HexToAddress("0x2000000000000000000000000000000000000002"),
	Router:        common.HexToAddress("0x3000000000000000000000000000000000000003"),
	WrappedNative: common.HexToAddress("0x4000000000000000000000000000000000000004"),
}

type built struct {
	call domain.Call
	err  error
}

func mk(c domain.Call, err error) built { return built{call: c, err: err} }

func mustABIs(t *testing.T) ABIs {
	t.Helper()
	abis, err := ParseABIs()
	if err != nil {
		t.Fatalf("parse abis: %v", err)
	}
	return abis
}

func TestBuilder_Targets(t *testing.T) {
	abis := mustABIs(t)
	b := NewBuilder(abis, testAddrs)
	one := big.NewInt(1)
	user := common.HexToAddress("0x5000000000000000000000000000000000000005")

	tests := []struct {
		method  string
		built   built
		to      common.Address
		payable bool
	}{
		{"buy", mk(b.Buy(user, 2, one)), testAddrs.Protocol, true},
		{"transfer", mk(b.Transfer(one)), testAddrs.Protocol, false},
		{"stake", mk(b.Stake(one, one)), testAddrs.Protocol, true},
		{"rebond", mk(b.Rebond(one)), testAddrs.Protocol, false},
		{"claim", mk(b.Claim(one)), testAddrs.Protocol, false},
		{"sell", mk(b.Sell(one)), testAddrs.Protocol, false},
		{"influencerBond", mk(b.InfluencerBond(user, one)), testAddrs.Protocol, false},
		{"approve", mk(b.Approve(one)), testAddrs.Token, false},
		{"swapExactTokensForETH", mk(b.SwapExactTokensForETH(one, user, time.Unix(100, 0))), testAddrs.Router, false},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			c, err := tt.built.call, tt.built.err
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if c.Method != tt.method {
				t.Errorf("method = %s", c.Method)
			}
			if c.To != tt.to {
				t.Errorf("to = %s, want %s", c.To.Hex(), tt.to.Hex())
			}
			if (c.Value != nil) != tt.payable {
				t.Errorf("value = %v, payable = %v", c.Value, tt.payable)
			}
			if len(c.Data) < 4 {
				t.Fatal("missing selector")
			}
		})
	}
}

func TestBuilder_ApproveSpenderIsProtocol(t *testing.T) {
	abis := mustABIs(t)
	c, err := NewBuilder(abis, testAddrs).Approve(big.NewInt(42))
	if err != nil {
		t.Fatal(err)
	}

	args, err := abis.Token.Methods["approve"].Inputs.Unpack(c.Data[4:])
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if args[0].(common.Address) != testAddrs.Protocol {
		t.Errorf("spender = %s", args[0].(common.Address).Hex())
	}
	if args[1].(*big.Int).Int64() != 42 {
		t.Errorf("amount = %s", args[1].(*big.Int))
	}
}

func TestBuilder_SwapArguments(t *testing.T) {
	abis := mustABIs(t)
	to := common.HexToAddress("0x6000000000000000000000000000000000000006")
	deadline := time.Unix(1_700_100_000, 0)

	c, err := NewBuilder(abis, testAddrs).SwapExactTokensForETH(big.NewInt(5), to, deadline)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(c.Data[:4], abis.Router.Methods["swapExactTokensForETH"].ID) {
		t.Error("wrong selector")
	}

	args, err := abis.Router.Methods["swapExactTokensForETH"].Inputs.Unpack(c.Data[4:])
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if args[1].(*big.Int).Sign() != 0 {
		t.Error("amountOutMin must be zero")
	}
	path := args[2].([]common.Address)
	if len(path) != 2 || path[0] != testAddrs.Token || path[1] != testAddrs.WrappedNative {
		t.Errorf("unexpected path %v", path)
	}
	if args[3].(common.Address) != to {
		t.Error("wrong recipient")
	}
	if args[4].(*big.Int).Int64() != deadline.Unix() {
		t.Errorf("deadline = %s", args[4].(*big.Int))
	}
}
