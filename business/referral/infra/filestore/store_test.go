package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/sam-client/business/referral/domain"
)

func TestStore_SetIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "state", "referral.json"))

	if _, ok, err := s.Get(ctx); err != nil || ok {
		t.Fatalf("empty store Get = %v %v", ok, err)
	}

	first := domain.Referral{
		Address:    common.HexToAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"),
		CapturedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	written, err := s.SetIfAbsent(ctx, first)
	if err != nil || !written {
		t.Fatalf("first write = %v %v", written, err)
	}

	written, err = s.SetIfAbsent(ctx, domain.Referral{Address: common.HexToAddress("0x01")})
	if err != nil || written {
		t.Fatalf("second write = %v %v", written, err)
	}

	// A fresh store over the same file sees the persisted value.
	got, ok, err := New(s.Path()).Get(ctx)
	if err != nil || !ok {
		t.Fatalf("reload = %v %v", ok, err)
	}
	if got.Address != first.Address || !got.CapturedAt.Equal(first.CapturedAt) {
		t.Errorf("reloaded %+v", got)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Errorf("clearing twice: %v", err)
	}
	if _, ok, _ := s.Get(ctx); ok {
		t.Error("expected empty store after Clear")
	}
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "referral.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := New(path).Get(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}
