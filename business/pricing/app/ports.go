// Package app contains the pricing service and its ports.
package app

import (
	"context"

	"github.com/fd1az/sam-client/business/pricing/domain"
)

// PriceFeed produces native coin quotes.
type PriceFeed interface {
	// Name identifies the upstream in logs and metrics.
	Name() string

	// Fetch returns the current quote once.
	Fetch(ctx context.Context) (domain.Quote, error)

	// Run publishes quotes until ctx is done. It returns nil on cancellation.
	Run(ctx context.Context, publish func(domain.Quote)) error
}
