package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/sam-client/business/chain/domain"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1.5", "1.5", false},
		{"100", "100", false},
		{"0", "", true},
		{"-1", "", true},
		{"abc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAmount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseAddress(t *testing.T) {
	addr, err := parseAddress("0x00000000000000000000000000000000000000aa")
	if err != nil {
		t.Fatal(err)
	}
	if addr != common.HexToAddress("0xaa") {
		t.Errorf("addr = %s", addr.Hex())
	}
	if _, err := parseAddress("0x123"); err == nil {
		t.Error("short address accepted")
	}
}

func TestParseIndex(t *testing.T) {
	if idx, err := parseIndex("12"); err != nil || idx != 12 {
		t.Errorf("parseIndex(12) = %d, %v", idx, err)
	}
	if _, err := parseIndex("-1"); err == nil {
		t.Error("negative index accepted")
	}
}

func TestPrintReceipt(t *testing.T) {
	var buf bytes.Buffer
	r := &domain.Receipt{TxHash: common.HexToHash("0x1"), BlockNumber: 42, GasUsed: 21000, Success: true}
	if err := printReceipt(&buf, r, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "block 42") {
		t.Errorf("output = %q", buf.String())
	}

	want := errors.New("boom")
	if err := printReceipt(&buf, nil, want); !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestTokenCommandArgs(t *testing.T) {
	cmd := commands["claim"]
	if err := cmd(t.Context(), env{}, nil); !errors.Is(err, errUsage) {
		t.Errorf("no args: err = %v, want errUsage", err)
	}
	if err := cmd(t.Context(), env{}, []string{"x"}); err == nil || errors.Is(err, errUsage) {
		t.Errorf("bad amount: err = %v", err)
	}
}

func TestPendingKind(t *testing.T) {
	tests := []struct {
		name   string
		intent *domain.TransactionIntent
		want   string
	}{
		{"none", nil, ""},
		{"pending", &domain.TransactionIntent{Kind: domain.TxBuy, Status: domain.StatusPending}, "BUY"},
		{"settled", &domain.TransactionIntent{Kind: domain.TxBuy, Status: domain.StatusNone}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pendingKind(tt.intent); got != tt.want {
				t.Errorf("pendingKind = %q, want %q", got, tt.want)
			}
		})
	}
}
