package evaluator_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyphera/delegation-core/builder"
	"github.com/cyphera/delegation-core/enforcers"
	"github.com/cyphera/delegation-core/evaluator"
	"github.com/cyphera/delegation-core/logger"
	"github.com/cyphera/delegation-core/state"
	"github.com/cyphera/delegation-core/testutil"
	"github.com/cyphera/delegation-core/types"
)

func init() {
	logger.InitLogger("test")
}

var (
	enforcerA = common.HexToAddress("0xe00000000000000000000000000000000000000a")
	enforcerB = common.HexToAddress("0xe00000000000000000000000000000000000000b")
)

// recordingEnforcer appends every hook invocation to a shared trace and can
// be told to fail at one stage.
type recordingEnforcer struct {
	name      string
	trace     *[]string
	failStage string
	failErr   error
}

func (r *recordingEnforcer) hook(stage string) error {
	*r.trace = append(*r.trace, r.name+":"+stage)
	if stage == r.failStage {
		return r.failErr
	}
	return nil
}

func (r *recordingEnforcer) BeforeAllHook(context.Context, enforcers.HookRequest) error {
	return r.hook("beforeAll")
}

func (r *recordingEnforcer) BeforeHook(context.Context, enforcers.HookRequest) error {
	return r.hook("before")
}

func (r *recordingEnforcer) AfterHook(context.Context, enforcers.HookRequest) error {
	return r.hook("after")
}

func (r *recordingEnforcer) AfterAllHook(context.Context, enforcers.HookRequest) error {
	return r.hook("afterAll")
}

func noAction(context.Context) error { return nil }

func twoCaveatDelegation() types.Delegation {
	return builder.NewRootDelegation(testutil.Redeemer, testutil.Delegator, []types.Caveat{
		builder.NewCaveat(enforcerA, nil),
		builder.NewCaveat(enforcerB, nil),
	}, uint256.NewInt(1))
}

func TestEvaluator_HookOrdering(t *testing.T) {
	var trace []string
	eval := evaluator.New(testutil.Manager, state.NewMemStore(), logger.Log)
	eval.Register(enforcerA, &recordingEnforcer{name: "a", trace: &trace})
	eval.Register(enforcerB, &recordingEnforcer{name: "b", trace: &trace})

	action := func(context.Context) error {
		trace = append(trace, "action")
		return nil
	}
	err := eval.Redeem(context.Background(), twoCaveatDelegation(), types.ModeSingleDefault, nil, testutil.Redeemer, action)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a:beforeAll", "b:beforeAll",
		"a:before", "b:before",
		"action",
		"a:after", "b:after",
		"a:afterAll", "b:afterAll",
	}, trace)
}

func TestEvaluator_UnknownEnforcer(t *testing.T) {
	var trace []string
	eval := evaluator.New(testutil.Manager, state.NewMemStore(), logger.Log)
	eval.Register(enforcerA, &recordingEnforcer{name: "a", trace: &trace})

	err := eval.Redeem(context.Background(), twoCaveatDelegation(), types.ModeSingleDefault, nil, testutil.Redeemer, noAction)
	require.ErrorIs(t, err, evaluator.ErrUnknownEnforcer)
	// The unregistered caveat is detected before any pre-hook runs.
	assert.Empty(t, trace)
}

func TestEvaluator_HookFailureRevertsLedger(t *testing.T) {
	hookErr := errors.New("rejected")

	tests := []struct {
		name      string
		failStage string
		expected  []string
	}{
		{
			name:      "pre-hook failure skips the action",
			failStage: "before",
			expected:  []string{"a:beforeAll", "b:beforeAll", "a:before", "b:before"},
		},
		{
			name:      "post-hook failure after the action",
			failStage: "after",
			expected:  []string{"a:beforeAll", "b:beforeAll", "a:before", "b:before", "action", "a:after", "b:after"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var trace []string
			store := state.NewMemStore()
			eval := evaluator.New(testutil.Manager, store, logger.Log)
			eval.Register(enforcerA, &recordingEnforcer{name: "a", trace: &trace})
			eval.Register(enforcerB, &recordingEnforcer{name: "b", trace: &trace, failStage: tc.failStage, failErr: hookErr})

			action := func(context.Context) error {
				trace = append(trace, "action")
				store.Put(common.HexToHash("0x01"), "side effect")
				return nil
			}
			err := eval.Redeem(context.Background(), twoCaveatDelegation(), types.ModeSingleDefault, nil, testutil.Redeemer, action)
			require.ErrorIs(t, err, hookErr)
			assert.Contains(t, err.Error(), tc.failStage)

			assert.Equal(t, tc.expected, trace)
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestEvaluator_SpendLifecycle(t *testing.T) {
	// A full redemption against real enforcers: the reentrancy lock pairs
	// its hooks and the transfer cap records the spend.
	newEval := func(store *state.MemStore) *evaluator.Evaluator {
		eval := evaluator.New(testutil.Manager, store, logger.Log)
		eval.Register(enforcerA, enforcers.NewReentrancyLockEnforcer(store))
		eval.Register(enforcerB, enforcers.NewERC20TransferAmountEnforcer(store, logger.Log))
		return eval
	}
	delegation := func() types.Delegation {
		return builder.NewRootDelegation(testutil.Redeemer, testutil.Delegator, []types.Caveat{
			builder.NewCaveat(enforcerA, builder.ReentrancyLockTerms()),
			builder.NewCaveat(enforcerB, builder.TransferAmountTerms(testutil.Token, uint256.NewInt(1000))),
		}, uint256.NewInt(1))
	}
	payload := testutil.SinglePayload(testutil.Token, 0, builder.ERC20TransferCallData(testutil.Recipient, uint256.NewInt(400)))

	t.Run("successful redemption keeps the spend", func(t *testing.T) {
		store := state.NewMemStore()
		eval := newEval(store)
		spendCap := enforcers.NewERC20TransferAmountEnforcer(store, logger.Log)

		d := delegation()
		err := eval.Redeem(context.Background(), d, types.ModeSingleDefault, payload, testutil.Redeemer, noAction)
		require.NoError(t, err)
		assert.Equal(t, uint256.NewInt(400), spendCap.Spent(testutil.Manager, d.Hash()))
	})

	t.Run("failed action reverts the spend under default semantics", func(t *testing.T) {
		store := state.NewMemStore()
		eval := newEval(store)
		spendCap := enforcers.NewERC20TransferAmountEnforcer(store, logger.Log)

		d := delegation()
		failing := func(context.Context) error { return fmt.Errorf("transfer reverted") }
		err := eval.Redeem(context.Background(), d, types.ModeSingleDefault, payload, testutil.Redeemer, failing)
		require.Error(t, err)
		assert.True(t, spendCap.Spent(testutil.Manager, d.Hash()).IsZero())
		assert.Equal(t, 0, store.Len())
	})
}

func TestEvaluator_TryModeKeepsSpentOnInnerFailure(t *testing.T) {
	store := state.NewMemStore()
	eval := evaluator.New(testutil.Manager, store, logger.Log)
	spendCap := enforcers.NewERC20TransferAmountEnforcer(store, logger.Log)
	eval.Register(enforcerB, spendCap)

	d := builder.NewRootDelegation(testutil.Redeemer, testutil.Delegator, []types.Caveat{
		builder.NewCaveat(enforcerB, builder.TransferAmountTerms(testutil.Token, uint256.NewInt(1000))),
	}, uint256.NewInt(1))
	payload := testutil.SinglePayload(testutil.Token, 0, builder.ERC20TransferCallData(testutil.Recipient, uint256.NewInt(400)))

	failing := func(context.Context) error { return fmt.Errorf("transfer reverted") }
	err := eval.Redeem(context.Background(), d, types.ModeSingleTry, payload, testutil.Redeemer, failing)
	require.NoError(t, err)

	// The failed inner call consumed allowance anyway.
	assert.Equal(t, uint256.NewInt(400), spendCap.Spent(testutil.Manager, d.Hash()))
}
