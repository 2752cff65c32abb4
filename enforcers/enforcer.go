// Package enforcers implements the caveat enforcement engine: the policy
// predicates and accounting rules evaluated around every delegated call.
//
// Every enforcer follows the same check order: supported mode first, then
// terms length, then the predicate itself. Stateful enforcers keep their
// ledgers in an injected state.Store keyed by keccak-derived hashes, so a
// fresh store means a fresh, independent accounting state.
package enforcers

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cyphera/delegation-core/types"
)

// HookRequest carries the arguments the orchestrator supplies on every
// hook invocation. Caller is the orchestrator's own address and
// namespaces all ledger keys.
type HookRequest struct {
	Terms             []byte
	Args              []byte
	Mode              types.Mode
	ExecutionCallData []byte
	DelegationHash    common.Hash
	Delegator         common.Address
	Redeemer          common.Address
	Caller            common.Address
}

// Enforcer is the capability surface every caveat policy implements.
// BeforeAllHook/AfterAllHook fire once around an entire redemption,
// BeforeHook/AfterHook around each delegation in the chain. Pre-hooks for
// all caveats run before the action in declaration order; post-hooks run
// after it in the same order.
type Enforcer interface {
	BeforeAllHook(ctx context.Context, req HookRequest) error
	BeforeHook(ctx context.Context, req HookRequest) error
	AfterHook(ctx context.Context, req HookRequest) error
	AfterAllHook(ctx context.Context, req HookRequest) error
}

// noHooks provides no-op implementations of all four hook stages.
// Enforcers embed it and override the stages they participate in.
type noHooks struct{}

func (noHooks) BeforeAllHook(context.Context, HookRequest) error { return nil }
func (noHooks) BeforeHook(context.Context, HookRequest) error    { return nil }
func (noHooks) AfterHook(context.Context, HookRequest) error     { return nil }
func (noHooks) AfterAllHook(context.Context, HookRequest) error  { return nil }
