// Package app contains the referral service and its storage port.
package app

import (
	"context"

	"github.com/fd1az/sam-client/business/referral/domain"
)

// Store persists at most one referral.
type Store interface {
	// Get returns the stored referral; ok is false when nothing is stored.
	Get(ctx context.Context) (ref domain.Referral, ok bool, err error)

	// SetIfAbsent stores ref unless a referral already exists and reports
	// whether it was written.
	SetIfAbsent(ctx context.Context, ref domain.Referral) (bool, error)

	// Clear removes the stored referral.
	Clear(ctx context.Context) error
}
