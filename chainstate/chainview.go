// Package chainstate exposes the ambient chain facts enforcers evaluate
// against: block height, wall-clock time, token balances and arbitrary
// view calls.
package chainstate

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

//go:generate mockgen -source=chainview.go -destination=../mocks/chainview_mock.go -package=mocks

// ChainView is the read-only chain surface injected into enforcers.
// Values are observed once per hook call, not streamed.
type ChainView interface {
	// BlockNumber returns the current block height.
	BlockNumber(ctx context.Context) (uint64, error)

	// Timestamp returns the current block timestamp in unix seconds.
	Timestamp(ctx context.Context) (uint64, error)

	// ERC20BalanceOf returns the token balance of account.
	ERC20BalanceOf(ctx context.Context, token, account common.Address) (*uint256.Int, error)

	// ERC721BalanceOf returns the number of tokens owned by account.
	ERC721BalanceOf(ctx context.Context, token, account common.Address) (*uint256.Int, error)

	// StaticCall performs an arbitrary view call against target.
	StaticCall(ctx context.Context, target common.Address, data []byte) ([]byte, error)
}
