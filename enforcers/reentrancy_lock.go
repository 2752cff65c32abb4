package enforcers

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/cyphera/delegation-core/execution"
	"github.com/cyphera/delegation-core/state"
)

var (
	ErrLockTermsLength  = errors.New("ReentrancyLockEnforcer:invalid-terms-length")
	ErrEnforcerIsLocked = errors.New("ReentrancyLockEnforcer:enforcer-is-locked")
)

// ReentrancyLockEnforcer sets a per-(caller, delegation) flag in its
// pre-hook and clears it in the matching post-hook. A nested or repeated
// pre-hook while the flag stands fails, which is what stops a caveat from
// being bypassed through re-entrant redemption of the same delegation.
// It takes no terms.
type ReentrancyLockEnforcer struct {
	noHooks
	store state.Store
}

func NewReentrancyLockEnforcer(store state.Store) *ReentrancyLockEnforcer {
	return &ReentrancyLockEnforcer{store: store}
}

// lockKeyPrefix namespaces lock keys away from the other stateful
// ledgers sharing the store.
var lockKeyPrefix = []byte("ReentrancyLockEnforcer")

// LockKey derives the ledger key for the lock flag. External tooling
// depends on this formula.
func LockKey(caller common.Address, delegationHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(lockKeyPrefix, caller.Bytes(), delegationHash.Bytes())
}

type lockFlag struct{}

func (e *ReentrancyLockEnforcer) BeforeHook(_ context.Context, req HookRequest) error {
	if err := execution.RequireDefault(req.Mode); err != nil {
		return err
	}
	if len(req.Terms) != 0 {
		return ErrLockTermsLength
	}

	key := LockKey(req.Caller, req.DelegationHash)
	if _, locked := e.store.Get(key); locked {
		return ErrEnforcerIsLocked
	}
	e.store.Put(key, lockFlag{})
	return nil
}

func (e *ReentrancyLockEnforcer) AfterHook(_ context.Context, req HookRequest) error {
	if err := execution.RequireDefault(req.Mode); err != nil {
		return err
	}
	if len(req.Terms) != 0 {
		return ErrLockTermsLength
	}

	e.store.Delete(LockKey(req.Caller, req.DelegationHash))
	return nil
}
