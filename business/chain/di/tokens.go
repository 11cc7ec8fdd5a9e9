// Package di contains dependency injection tokens for the chain context.
package di

import (
	"github.com/fd1az/sam-client/business/chain/app"
	"github.com/fd1az/sam-client/business/chain/infra/ethereum"
	"github.com/fd1az/sam-client/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ChainClient = di.NewToken[*app.ChainClient]("chain.ChainClient")
	Wallet      = di.NewToken[*ethereum.Wallet]("chain.Wallet")
)

// Private dependency tokens - internal to chain module
var (
	ABIs       = di.NewToken[ethereum.ABIs]("chain:abis")
	Reader     = di.NewToken[*ethereum.Reader]("chain:reader")
	Transactor = di.NewToken[*ethereum.Transactor]("chain:transactor")
)

// Helper functions for type-safe access
func GetChainClient(c di.ServiceRegistry) *app.ChainClient {
	return di.GetToken(c, ChainClient)
}

func GetWallet(c di.ServiceRegistry) *ethereum.Wallet {
	return di.GetToken(c, Wallet)
}

func GetABIs(c di.ServiceRegistry) ethereum.ABIs {
	return di.GetToken(c, ABIs)
}

func GetReader(c di.ServiceRegistry) *ethereum.Reader {
	return di.GetToken(c, Reader)
}

func GetTransactor(c di.ServiceRegistry) *ethereum.Transactor {
	return di.GetToken(c, Transactor)
}
