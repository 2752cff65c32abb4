package enforcers_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyphera/delegation-core/builder"
	"github.com/cyphera/delegation-core/enforcers"
	"github.com/cyphera/delegation-core/execution"
	"github.com/cyphera/delegation-core/state"
	"github.com/cyphera/delegation-core/testutil"
	"github.com/cyphera/delegation-core/types"
)

func transferPayload(amount uint64) []byte {
	return testutil.SinglePayload(testutil.Token, 0, builder.ERC20TransferCallData(testutil.Recipient, uint256.NewInt(amount)))
}

func TestERC20PeriodTransferEnforcer_Allowance(t *testing.T) {
	ctx := context.Background()
	const day = 86400

	newEnforcer := func(now uint64) (*enforcers.ERC20PeriodTransferEnforcer, *testutil.FakeChainView, []byte) {
		chain := testutil.NewFakeChainView()
		chain.Now = now
		terms := builder.PeriodTransferTerms(testutil.Token, uint256.NewInt(1000), uint256.NewInt(day), uint256.NewInt(now))
		return enforcers.NewERC20PeriodTransferEnforcer(state.NewMemStore(), chain), chain, terms
	}

	t.Run("budget is consumed within a period and renews after it", func(t *testing.T) {
		enforcer, chain, terms := newEnforcer(1_700_000_000)

		require.NoError(t, enforcer.BeforeHook(ctx, hookReq(terms, transferPayload(800))))

		err := enforcer.BeforeHook(ctx, hookReq(terms, transferPayload(300)))
		assert.ErrorIs(t, err, enforcers.ErrTransferAmountExceeded)

		// The rejected transfer does not touch the ledger.
		available, err := enforcer.AvailableAmount(ctx, testutil.Manager, delegationHash, terms)
		require.NoError(t, err)
		assert.Equal(t, uint256.NewInt(200), available)

		require.NoError(t, enforcer.BeforeHook(ctx, hookReq(terms, transferPayload(200))))

		chain.Warp(day)
		available, err = enforcer.AvailableAmount(ctx, testutil.Manager, delegationHash, terms)
		require.NoError(t, err)
		assert.Equal(t, uint256.NewInt(1000), available)
		assert.NoError(t, enforcer.BeforeHook(ctx, hookReq(terms, transferPayload(1000))))
	})

	t.Run("before the start date nothing is available", func(t *testing.T) {
		enforcer, chain, terms := newEnforcer(1_700_000_000)
		chain.Now = 1_699_999_999

		err := enforcer.BeforeHook(ctx, hookReq(terms, transferPayload(1)))
		assert.ErrorIs(t, err, enforcers.ErrTransferNotStarted)

		available, err := enforcer.AvailableAmount(ctx, testutil.Manager, delegationHash, terms)
		require.NoError(t, err)
		assert.True(t, available.IsZero())
	})

	t.Run("allowances are scoped per delegation", func(t *testing.T) {
		enforcer, _, terms := newEnforcer(1_700_000_000)

		require.NoError(t, enforcer.BeforeHook(ctx, hookReq(terms, transferPayload(1000))))

		other := hookReq(terms, transferPayload(1000))
		other.DelegationHash = common.HexToHash("0xd00d000000000000000000000000000000000000000000000000000000000002")
		assert.NoError(t, enforcer.BeforeHook(ctx, other))
	})
}

func TestERC20PeriodTransferEnforcer_Validation(t *testing.T) {
	ctx := context.Background()
	chain := testutil.NewFakeChainView()
	chain.Now = 1_700_000_000
	enforcer := enforcers.NewERC20PeriodTransferEnforcer(state.NewMemStore(), chain)
	terms := builder.PeriodTransferTerms(testutil.Token, uint256.NewInt(1000), uint256.NewInt(86400), uint256.NewInt(1_700_000_000))

	t.Run("zero schedule fields", func(t *testing.T) {
		tests := []struct {
			name  string
			terms []byte
			err   error
		}{
			{
				name:  "zero amount",
				terms: builder.PeriodTransferTerms(testutil.Token, uint256.NewInt(0), uint256.NewInt(86400), uint256.NewInt(1)),
				err:   enforcers.ErrZeroPeriodAmount,
			},
			{
				name:  "zero duration",
				terms: builder.PeriodTransferTerms(testutil.Token, uint256.NewInt(1000), uint256.NewInt(0), uint256.NewInt(1)),
				err:   enforcers.ErrZeroPeriodDuration,
			},
			{
				name:  "zero start date",
				terms: builder.PeriodTransferTerms(testutil.Token, uint256.NewInt(1000), uint256.NewInt(86400), uint256.NewInt(0)),
				err:   enforcers.ErrZeroStartDate,
			},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				err := enforcer.BeforeHook(ctx, hookReq(tc.terms, transferPayload(1)))
				assert.ErrorIs(t, err, tc.err)
			})
		}
	})

	t.Run("terms length", func(t *testing.T) {
		err := enforcer.BeforeHook(ctx, hookReq(make([]byte, 115), transferPayload(1)))
		assert.ErrorIs(t, err, enforcers.ErrPeriodTermsLength)
	})

	t.Run("wrong target contract", func(t *testing.T) {
		payload := testutil.SinglePayload(testutil.Recipient, 0, builder.ERC20TransferCallData(testutil.Recipient, uint256.NewInt(1)))
		err := enforcer.BeforeHook(ctx, hookReq(terms, payload))
		assert.ErrorIs(t, err, enforcers.ErrPeriodInvalidContract)
	})

	t.Run("wrong selector", func(t *testing.T) {
		callData := builder.ERC20TransferCallData(testutil.Recipient, uint256.NewInt(1))
		callData[0] ^= 0xff
		err := enforcer.BeforeHook(ctx, hookReq(terms, testutil.SinglePayload(testutil.Token, 0, callData)))
		assert.ErrorIs(t, err, enforcers.ErrPeriodInvalidMethod)
	})

	t.Run("truncated transfer calldata", func(t *testing.T) {
		callData := builder.ERC20TransferCallData(testutil.Recipient, uint256.NewInt(1))
		err := enforcer.BeforeHook(ctx, hookReq(terms, testutil.SinglePayload(testutil.Token, 0, callData[:67])))
		assert.ErrorIs(t, err, enforcers.ErrPeriodExecutionLength)
	})

	t.Run("batch mode rejected", func(t *testing.T) {
		err := enforcer.BeforeHook(ctx, withMode(hookReq(terms, nil), types.ModeBatchDefault))
		assert.ErrorIs(t, err, execution.ErrInvalidCallType)
	})
}
