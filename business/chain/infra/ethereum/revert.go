package ethereum

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/sam-client/business/chain/app"
	"github.com/fd1az/sam-client/internal/apperror"
)

// Ensure RevertDecoder implements ErrorDecoder.
var _ app.ErrorDecoder = RevertDecoder{}

// FallbackMessage is shown when an error cannot be decoded.
const FallbackMessage = "Transaction failed"

var (
	errorSelector = []byte{0x08, 0xc3, 0x79, 0xa0} // Error(string)
	panicSelector = []byte{0x4e, 0x48, 0x7b, 0x71} // Panic(uint256)
)

var panicReasons = map[uint64]string{
	0x01: "Assertion failed",
	0x11: "Arithmetic overflow or underflow",
	0x12: "Division by zero",
	0x21: "Invalid enum value",
	0x22: "Invalid storage encoding",
	0x31: "Pop from empty array",
	0x32: "Array index out of bounds",
	0x41: "Out of memory",
	0x51: "Call to uninitialized function",
}

// knownMessages maps node and wallet error fragments to display text.
// Order matters: the first match wins.
var knownMessages = []struct {
	fragment string
	message  string
}{
	{"insufficient funds", "Insufficient funds for gas and value"},
	{"user rejected", "User rejected the transaction"},
	{"user denied", "User rejected the transaction"},
	{"nonce too low", "Nonce too low, a newer transaction was already sent"},
	{"replacement transaction underpriced", "Replacement transaction underpriced"},
	{"intrinsic gas too low", "Gas limit too low"},
	{"context deadline exceeded", "Timed out waiting for the network"},
}

// RevertDecoder turns revert data and node errors into display messages.
type RevertDecoder struct{}

// Decode returns the best display message for err.
func (RevertDecoder) Decode(err error) string {
	if err == nil {
		return ""
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if msg, ok := decodeRevertData(dataErr.ErrorData()); ok {
			return msg
		}
	}

	text := err.Error()
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Unwrap() != nil {
		text = appErr.Unwrap().Error()
	}
	lower := strings.ToLower(text)

	if i := strings.Index(lower, "execution reverted:"); i >= 0 {
		if reason := strings.TrimSpace(text[i+len("execution reverted:"):]); reason != "" {
			return reason
		}
	}
	for _, k := range knownMessages {
		if strings.Contains(lower, k.fragment) {
			return k.message
		}
	}
	if strings.Contains(lower, "execution reverted") {
		return "Transaction reverted"
	}
	return FallbackMessage
}

// decodeRevertData decodes Error(string) and Panic(uint256) payloads.
// data may be raw bytes or a hex string.
func decodeRevertData(data any) (string, bool) {
	var raw []byte
	switch v := data.(type) {
	case []byte:
		raw = v
	case string:
		b, err := hexutil.Decode(v)
		if err != nil {
			return "", false
		}
		raw = b
	default:
		return "", false
	}

	if len(raw) < 4 {
		return "", false
	}

	switch {
	case bytes.Equal(raw[:4], errorSelector):
		reason, err := abi.UnpackRevert(raw)
		if err != nil || reason == "" {
			return "", false
		}
		return reason, true
	case bytes.Equal(raw[:4], panicSelector):
		if len(raw) < 36 {
			return "", false
		}
		code := new(big.Int).SetBytes(raw[4:36])
		if code.IsUint64() {
			if msg, ok := panicReasons[code.Uint64()]; ok {
				return msg, true
			}
		}
		return fmt.Sprintf("Panic code 0x%x", code), true
	}
	return "", false
}
