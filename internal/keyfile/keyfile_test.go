package keyfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fd1az/sam-client/internal/apperror"
)

func TestEncryptDecrypt(t *testing.T) {
	iterations = 1000

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	data, err := Encrypt(key, "correct horse")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	path := filepath.Join(t.TempDir(), "key.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Load(Source{Path: path, Passphrase: "correct horse"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if crypto.PubkeyToAddress(got.PublicKey) != crypto.PubkeyToAddress(key.PublicKey) {
		t.Error("decrypted key does not match")
	}

	_, err = Load(Source{Path: path, Passphrase: "wrong"})
	if apperror.GetCode(err) != apperror.CodeKeyDecryptionFailed {
		t.Errorf("expected decryption failure, got %v", err)
	}
}

func TestLoad_Sources(t *testing.T) {
	tests := []struct {
		name     string
		src      Source
		wantCode apperror.Code
		wantErr  error
	}{
		{name: "raw key with prefix", src: Source{PrivateKey: "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"}},
		{name: "raw key invalid", src: Source{PrivateKey: "zz"}, wantCode: apperror.CodeInvalidKeyFile},
		{name: "missing file", src: Source{Path: "/nonexistent/key.json", Passphrase: "p"}, wantCode: apperror.CodeInvalidKeyFile},
		{name: "nothing configured", src: Source{}, wantErr: ErrNoKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Load(tt.src)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.wantCode != "":
				if apperror.GetCode(err) != tt.wantCode {
					t.Errorf("expected %s, got %v", tt.wantCode, err)
				}
			default:
				if err != nil || key == nil {
					t.Errorf("unexpected error %v", err)
				}
			}
		})
	}
}

func TestEncrypt_RequiresPassphrase(t *testing.T) {
	key, _ := crypto.GenerateKey()
	if _, err := Encrypt(key, ""); err == nil {
		t.Error("expected error for empty passphrase")
	}
}
