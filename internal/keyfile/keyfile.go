// Package keyfile loads the signing key from a raw hex value or from a
// password-encrypted JSON file (PBKDF2-SHA256 + AES-256-GCM).
package keyfile

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/pbkdf2"

	"github.com/fd1az/sam-client/internal/apperror"
)

const (
	saltLen   = 16
	aesKeyLen = 32
	version   = 1
)

// iterations is a variable so tests can keep key derivation fast.
var iterations = 480_000

// ErrNoKey means neither a raw key nor a key file was configured.
var ErrNoKey = errors.New("keyfile: no key source configured")

type fileFormat struct {
	Version    int    `json:"version"`
	Address    string `json:"address"`
	Iterations int    `json:"iterations"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// Source describes where the key comes from. PrivateKey wins over Path.
type Source struct {
	PrivateKey string
	Path       string
	Passphrase string
}

// Load resolves the key described by src.
func Load(src Source) (*ecdsa.PrivateKey, error) {
	if src.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(src.PrivateKey, "0x"))
		if err != nil {
			return nil, apperror.New(apperror.CodeInvalidKeyFile,
				apperror.WithCause(err), apperror.WithContext("private key is not valid hex"))
		}
		return key, nil
	}
	if src.Path != "" {
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, apperror.New(apperror.CodeInvalidKeyFile,
				apperror.WithCause(err), apperror.WithContext(src.Path))
		}
		return Decrypt(data, src.Passphrase)
	}
	return nil, ErrNoKey
}

// Encrypt seals key with passphrase and returns the JSON file contents.
func Encrypt(key *ecdsa.PrivateKey, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "passphrase must not be empty")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("keyfile: salt: %w", err)
	}
	gcm, err := newGCM(passphrase, salt, iterations)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("keyfile: nonce: %w", err)
	}

	out := fileFormat{
		Version:    version,
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		Iterations: iterations,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, crypto.FromECDSA(key), nil)),
	}
	return json.MarshalIndent(out, "", "  ")
}

// Decrypt opens a file produced by Encrypt.
func Decrypt(data []byte, passphrase string) (*ecdsa.PrivateKey, error) {
	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, apperror.New(apperror.CodeInvalidKeyFile, apperror.WithCause(err))
	}
	if f.Version != version {
		return nil, apperror.New(apperror.CodeInvalidKeyFile,
			apperror.WithContext(fmt.Sprintf("unsupported version %d", f.Version)))
	}

	salt, err1 := base64.StdEncoding.DecodeString(f.Salt)
	nonce, err2 := base64.StdEncoding.DecodeString(f.Nonce)
	sealed, err3 := base64.StdEncoding.DecodeString(f.Ciphertext)
	if err := errors.Join(err1, err2, err3); err != nil {
		return nil, apperror.New(apperror.CodeInvalidKeyFile, apperror.WithCause(err))
	}

	iter := f.Iterations
	if iter <= 0 {
		iter = iterations
	}
	gcm, err := newGCM(passphrase, salt, iter)
	if err != nil {
		return nil, err
	}
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, apperror.New(apperror.CodeKeyDecryptionFailed,
			apperror.WithCause(err), apperror.WithContext("wrong passphrase or corrupted file"))
	}

	key, err := crypto.ToECDSA(plain)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidKeyFile, apperror.WithCause(err))
	}
	return key, nil
}

func newGCM(passphrase string, salt []byte, iter int) (cipher.AEAD, error) {
	block, err := aes.NewCipher(pbkdf2.Key([]byte(passphrase), salt, iter, aesKeyLen, sha256.New))
	if err != nil {
		return nil, fmt.Errorf("keyfile: cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("keyfile: gcm: %w", err)
	}
	return gcm, nil
}
