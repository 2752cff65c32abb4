package enforcers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cyphera/delegation-core/builder"
	"github.com/cyphera/delegation-core/enforcers"
	"github.com/cyphera/delegation-core/execution"
	"github.com/cyphera/delegation-core/testutil"
	"github.com/cyphera/delegation-core/types"
)

func TestBlockNumberEnforcer_Window(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		after   uint64
		before  uint64
		current uint64
		wantErr error
	}{
		{"inside window", 1, 100, 50, nil},
		{"at lower bound", 1, 100, 1, nil},
		{"at upper bound", 1, 100, 100, nil},
		{"below lower bound", 1, 100, 0, enforcers.ErrEarlyDelegation},
		{"above upper bound", 1, 100, 101, enforcers.ErrExpiredDelegation},
		{"zero after disables lower bound", 0, 100, 0, nil},
		{"zero before disables upper bound", 1, 0, 1 << 40, nil},
		{"both zero accept anything", 0, 0, 12345, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := testutil.NewFakeChainView()
			chain.Block = tt.current
			enforcer := enforcers.NewBlockNumberEnforcer(chain)

			terms := builder.BlockNumberTerms(tt.after, tt.before)
			err := enforcer.BeforeHook(ctx, hookReq(terms, nil))
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestBlockNumberEnforcer_TermsLength(t *testing.T) {
	enforcer := enforcers.NewBlockNumberEnforcer(testutil.NewFakeChainView())

	for _, length := range []int{0, 16, 31, 33} {
		err := enforcer.BeforeHook(context.Background(), hookReq(make([]byte, length), nil))
		assert.ErrorIs(t, err, enforcers.ErrBlockNumberTermsLength, "length %d", length)
	}
}

func TestBlockNumberEnforcer_ModeCheckPrecedesTerms(t *testing.T) {
	enforcer := enforcers.NewBlockNumberEnforcer(testutil.NewFakeChainView())
	err := enforcer.BeforeHook(context.Background(), withMode(hookReq(nil, nil), types.ModeSingleTry))
	assert.ErrorIs(t, err, execution.ErrInvalidExecutionType)
}
