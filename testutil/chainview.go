// Package testutil provides the shared test doubles and fixtures used by
// the enforcer and evaluator tests.
package testutil

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// FakeChainView is a mutable in-memory chain for tests: set balances,
// block height and time directly, then mutate them between hook calls to
// simulate the delegated action.
type FakeChainView struct {
	Block uint64
	Now   uint64

	balances   map[common.Address]map[common.Address]*uint256.Int
	StaticFunc func(target common.Address, data []byte) ([]byte, error)
}

// NewFakeChainView returns an empty chain at block 1, time 1.
func NewFakeChainView() *FakeChainView {
	return &FakeChainView{
		Block:    1,
		Now:      1,
		balances: make(map[common.Address]map[common.Address]*uint256.Int),
	}
}

// SetBalance sets account's balance of token.
func (f *FakeChainView) SetBalance(token, account common.Address, balance *uint256.Int) {
	if f.balances[token] == nil {
		f.balances[token] = make(map[common.Address]*uint256.Int)
	}
	f.balances[token][account] = balance.Clone()
}

// AddBalance credits account's balance of token.
func (f *FakeChainView) AddBalance(token, account common.Address, amount *uint256.Int) {
	current := f.balance(token, account)
	f.SetBalance(token, account, new(uint256.Int).Add(current, amount))
}

// Warp advances the clock by seconds.
func (f *FakeChainView) Warp(seconds uint64) {
	f.Now += seconds
}

func (f *FakeChainView) balance(token, account common.Address) *uint256.Int {
	if accounts, ok := f.balances[token]; ok {
		if balance, ok := accounts[account]; ok {
			return balance.Clone()
		}
	}
	return uint256.NewInt(0)
}

func (f *FakeChainView) BlockNumber(context.Context) (uint64, error) {
	return f.Block, nil
}

func (f *FakeChainView) Timestamp(context.Context) (uint64, error) {
	return f.Now, nil
}

func (f *FakeChainView) ERC20BalanceOf(_ context.Context, token, account common.Address) (*uint256.Int, error) {
	return f.balance(token, account), nil
}

func (f *FakeChainView) ERC721BalanceOf(_ context.Context, token, account common.Address) (*uint256.Int, error) {
	return f.balance(token, account), nil
}

func (f *FakeChainView) StaticCall(_ context.Context, target common.Address, data []byte) ([]byte, error) {
	if f.StaticFunc == nil {
		return nil, fmt.Errorf("no static call handler for %s", target.Hex())
	}
	return f.StaticFunc(target, data)
}
