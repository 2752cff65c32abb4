// Package evaluator realizes the orchestrator contract around a caveat
// chain: every caveat's pre-hooks run in declaration order before the
// action, post-hooks run in the same order after it, and all ledger
// mutations are atomic with the action's outcome.
//
// Signature verification and call dispatch belong to the external
// delegation manager; the evaluator receives the action as a closure and
// the already-encoded execution payload.
package evaluator

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cyphera/delegation-core/enforcers"
	"github.com/cyphera/delegation-core/state"
	"github.com/cyphera/delegation-core/types"
)

// ErrUnknownEnforcer is returned when a caveat names an enforcer address
// with no registered implementation.
var ErrUnknownEnforcer = errors.New("evaluator: unknown enforcer")

// Action performs the delegated call itself.
type Action func(ctx context.Context) error

// Evaluator drives a delegation's caveat chain around an action. The
// evaluator's address namespaces every ledger key, mirroring how distinct
// delegation managers sharing one enforcer deployment stay isolated.
type Evaluator struct {
	address  common.Address
	registry map[common.Address]enforcers.Enforcer
	store    *state.MemStore
	logger   *zap.Logger
}

// New creates an evaluator with the given orchestrator address.
func New(address common.Address, store *state.MemStore, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		address:  address,
		registry: make(map[common.Address]enforcers.Enforcer),
		store:    store,
		logger:   logger,
	}
}

// Register binds an enforcer implementation to its address.
func (e *Evaluator) Register(address common.Address, enforcer enforcers.Enforcer) {
	e.registry[address] = enforcer
}

// Store exposes the ledger store, so a host can hand it to components
// that live outside a redemption, like the nonce registry.
func (e *Evaluator) Store() *state.MemStore {
	return e.store
}

// Redeem evaluates the delegation's caveats around the action.
//
// All BeforeAllHook stages run first, then all BeforeHook stages, both in
// caveat declaration order; then the action; then AfterHook and
// AfterAllHook stages in the same order. Any hook failure reverts every
// ledger mutation made during this redemption and aborts. A failed
// action reverts and aborts under default semantics; under try semantics
// the failure is logged, post-hooks still run, and recorded ledger state
// is kept.
func (e *Evaluator) Redeem(
	ctx context.Context,
	delegation types.Delegation,
	mode types.Mode,
	executionCallData []byte,
	redeemer common.Address,
	action Action,
) error {
	redemptionID := uuid.New()
	delegationHash := delegation.Hash()

	log := e.logger.With(
		zap.String("redemption_id", redemptionID.String()),
		zap.String("delegation_hash", delegationHash.Hex()),
		zap.String("mode", mode.String()),
	)
	log.Debug("Redeeming delegation", zap.Int("caveat_count", len(delegation.Caveats)))

	revision := e.store.Snapshot()

	requests := make([]enforcers.HookRequest, len(delegation.Caveats))
	for i, caveat := range delegation.Caveats {
		requests[i] = enforcers.HookRequest{
			Terms:             caveat.Terms,
			Args:              caveat.Args,
			Mode:              mode,
			ExecutionCallData: executionCallData,
			DelegationHash:    delegationHash,
			Delegator:         delegation.Delegator,
			Redeemer:          redeemer,
			Caller:            e.address,
		}
	}

	fail := func(stage string, index int, err error) error {
		e.store.RevertTo(revision)
		log.Warn("Caveat rejected redemption",
			zap.String("stage", stage),
			zap.Int("caveat_index", index),
			zap.String("enforcer", delegation.Caveats[index].Enforcer.Hex()),
			zap.Error(err),
		)
		return errors.Wrapf(err, "caveat %d (%s) %s", index, delegation.Caveats[index].Enforcer.Hex(), stage)
	}

	// Every caveat must resolve to a registered enforcer before any hook
	// runs, so a malformed chain cannot leave early side effects.
	for i, caveat := range delegation.Caveats {
		if _, ok := e.registry[caveat.Enforcer]; !ok {
			e.store.RevertTo(revision)
			return errors.Wrapf(ErrUnknownEnforcer, "caveat %d (%s)", i, caveat.Enforcer.Hex())
		}
	}

	for i, caveat := range delegation.Caveats {
		if err := e.registry[caveat.Enforcer].BeforeAllHook(ctx, requests[i]); err != nil {
			return fail("beforeAllHook", i, err)
		}
	}
	for i, caveat := range delegation.Caveats {
		if err := e.registry[caveat.Enforcer].BeforeHook(ctx, requests[i]); err != nil {
			return fail("beforeHook", i, err)
		}
	}

	if err := action(ctx); err != nil {
		if mode.Exec == types.ExecTypeDefault {
			e.store.RevertTo(revision)
			return errors.Wrap(err, "delegated action failed")
		}
		// Try semantics: the failed inner call does not revert the
		// redemption, and ledger writes made by pre-hooks stand.
		log.Warn("Delegated action failed under try mode", zap.Error(err))
	}

	for i, caveat := range delegation.Caveats {
		if err := e.registry[caveat.Enforcer].AfterHook(ctx, requests[i]); err != nil {
			return fail("afterHook", i, err)
		}
	}
	for i, caveat := range delegation.Caveats {
		if err := e.registry[caveat.Enforcer].AfterAllHook(ctx, requests[i]); err != nil {
			return fail("afterAllHook", i, err)
		}
	}

	log.Debug("Delegation redeemed")
	return nil
}
