// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/sam-client/business/pricing/app"
	"github.com/fd1az/sam-client/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PricingService = di.NewToken[*app.PricingService]("pricing.PricingService")
)

// Private dependency tokens - internal to pricing module
var (
	PriceFeed = di.NewToken[app.PriceFeed]("pricing:priceFeed")
)

// Helper functions for type-safe access
func GetPricingService(c di.ServiceRegistry) *app.PricingService {
	return di.GetToken(c, PricingService)
}

func GetPriceFeed(c di.ServiceRegistry) app.PriceFeed {
	return di.GetToken(c, PriceFeed)
}
