// Package di contains dependency injection tokens for the referral context.
package di

import (
	"github.com/fd1az/sam-client/business/referral/app"
	"github.com/fd1az/sam-client/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ReferralService = di.NewToken[*app.Service]("referral.ReferralService")
)

// Private dependency tokens - internal to referral module
var (
	Store = di.NewToken[app.Store]("referral:store")
)

// Helper functions for type-safe access
func GetReferralService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, ReferralService)
}

func GetStore(c di.ServiceRegistry) app.Store {
	return di.GetToken(c, Store)
}
