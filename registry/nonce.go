// Package registry implements the per-delegator nonce counters used both
// as single-use caveats and as a bulk revocation primitive: bumping the
// nonce invalidates every delegation pinned to the previous value.
package registry

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/cyphera/delegation-core/state"
)

// NonceRegistry tracks a monotonic counter per (caller, delegator).
// Caller is the orchestrator address, so distinct delegation managers
// sharing one registry deployment never interfere.
type NonceRegistry struct {
	store  state.Store
	logger *zap.Logger
}

// nonceRecord is the stored counter. Records are replaced, never mutated.
type nonceRecord struct {
	nonce *uint256.Int
}

// NewNonceRegistry creates a registry over the given store.
func NewNonceRegistry(store state.Store, logger *zap.Logger) *NonceRegistry {
	return &NonceRegistry{
		store:  store,
		logger: logger,
	}
}

// nonceKeyPrefix namespaces nonce keys away from the enforcer ledgers
// sharing the store.
var nonceKeyPrefix = []byte("NonceRegistry")

// NonceKey derives the ledger key for a (caller, delegator) pair.
// External tooling depends on this formula.
func NonceKey(caller, delegator common.Address) common.Hash {
	return crypto.Keccak256Hash(nonceKeyPrefix, caller.Bytes(), delegator.Bytes())
}

// CurrentNonce returns the counter for (caller, delegator), zero if it
// was never bumped.
func (r *NonceRegistry) CurrentNonce(caller, delegator common.Address) *uint256.Int {
	value, ok := r.store.Get(NonceKey(caller, delegator))
	if !ok {
		return uint256.NewInt(0)
	}
	return value.(nonceRecord).nonce.Clone()
}

// IncrementNonce advances the delegator's counter under the given caller
// namespace by exactly 1. The delegator argument is the authenticated
// sender: a delegator can only ever bump their own counter.
func (r *NonceRegistry) IncrementNonce(caller, delegator common.Address) *uint256.Int {
	key := NonceKey(caller, delegator)

	current := uint256.NewInt(0)
	if value, ok := r.store.Get(key); ok {
		current = value.(nonceRecord).nonce
	}

	next := new(uint256.Int).AddUint64(current, 1)
	r.store.Put(key, nonceRecord{nonce: next})

	r.logger.Info("Nonce used",
		zap.String("caller", caller.Hex()),
		zap.String("delegator", delegator.Hex()),
		zap.String("nonce", current.Dec()),
	)

	return next.Clone()
}
