// Package domain contains the referral capture rules.
package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// QueryParam is the URL query parameter that carries a referral address.
const QueryParam = "ref"

// Referral is the persisted upline address.
type Referral struct {
	Address    common.Address `json:"address"`
	CapturedAt time.Time      `json:"captured_at"`
}

// Decision is the outcome of evaluating a candidate referral.
type Decision string

const (
	Accepted       Decision = "accepted"
	InvalidAddress Decision = "invalid_address"
	SelfReferral   Decision = "self_referral"
	AlreadyStored  Decision = "already_stored"
	Missing        Decision = "missing"
)

// FromURL extracts the ref parameter from a link. A bare value without a
// query string is treated as the parameter itself.
func FromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "?") && !strings.Contains(raw, "=") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if v := u.Query().Get(QueryParam); v != "" {
		return v
	}
	// "ref=0x..." without a leading "?"
	q, err := url.ParseQuery(raw)
	if err != nil {
		return ""
	}
	return q.Get(QueryParam)
}

// Evaluate applies the set-once rules: the candidate must be a well-formed
// address, must not be the connected account and nothing may be stored yet.
func Evaluate(candidate string, connected common.Address, stored bool) (common.Address, Decision) {
	if candidate == "" {
		return common.Address{}, Missing
	}
	if !common.IsHexAddress(candidate) {
		return common.Address{}, InvalidAddress
	}
	addr := common.HexToAddress(candidate)
	if addr == (common.Address{}) {
		return common.Address{}, InvalidAddress
	}
	if connected != (common.Address{}) && addr == connected {
		return addr, SelfReferral
	}
	if stored {
		return addr, AlreadyStored
	}
	return addr, Accepted
}
