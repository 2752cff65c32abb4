package enforcers_test

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/cyphera/delegation-core/builder"
	"github.com/cyphera/delegation-core/enforcers"
	"github.com/cyphera/delegation-core/execution"
	"github.com/cyphera/delegation-core/logger"
	"github.com/cyphera/delegation-core/registry"
	"github.com/cyphera/delegation-core/state"
	"github.com/cyphera/delegation-core/testutil"
	"github.com/cyphera/delegation-core/types"
)

func TestNonceEnforcer_BeforeHook(t *testing.T) {
	reg := registry.NewNonceRegistry(state.NewMemStore(), logger.Log)
	enforcer := enforcers.NewNonceEnforcer(reg)
	ctx := context.Background()

	t.Run("matches current nonce", func(t *testing.T) {
		assert.NoError(t, enforcer.BeforeHook(ctx, hookReq(builder.NonceTerms(uint256.NewInt(0)), nil)))
	})

	t.Run("stale nonce after increment", func(t *testing.T) {
		reg.IncrementNonce(testutil.Manager, testutil.Delegator)
		err := enforcer.BeforeHook(ctx, hookReq(builder.NonceTerms(uint256.NewInt(0)), nil))
		assert.ErrorIs(t, err, enforcers.ErrInvalidNonce)
		assert.NoError(t, enforcer.BeforeHook(ctx, hookReq(builder.NonceTerms(uint256.NewInt(1)), nil)))
	})

	t.Run("future nonce rejected", func(t *testing.T) {
		err := enforcer.BeforeHook(ctx, hookReq(builder.NonceTerms(uint256.NewInt(5)), nil))
		assert.ErrorIs(t, err, enforcers.ErrInvalidNonce)
	})

	t.Run("terms length", func(t *testing.T) {
		err := enforcer.BeforeHook(ctx, hookReq(make([]byte, 31), nil))
		assert.ErrorIs(t, err, enforcers.ErrNonceTermsLength)
	})
}

func TestNonceEnforcer_ModeCheckPrecedesTerms(t *testing.T) {
	reg := registry.NewNonceRegistry(state.NewMemStore(), logger.Log)
	enforcer := enforcers.NewNonceEnforcer(reg)

	err := enforcer.BeforeHook(context.Background(), withMode(hookReq(nil, nil), types.ModeBatchTry))
	assert.ErrorIs(t, err, execution.ErrInvalidExecutionType)
}
