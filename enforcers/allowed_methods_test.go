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

var (
	transferSelector = [4]byte{0xa9, 0x05, 0x9c, 0xbb}
	approveSelector  = [4]byte{0x09, 0x5e, 0xa7, 0xb3}
	mintSelector     = [4]byte{0x40, 0xc1, 0x0f, 0x19}
)

func TestAllowedMethodsEnforcer_BeforeHook(t *testing.T) {
	enforcer := enforcers.NewAllowedMethodsEnforcer()
	ctx := context.Background()

	tests := []struct {
		name     string
		terms    []byte
		callData []byte
		wantErr  error
	}{
		{
			name:     "selector in single-entry list",
			terms:    builder.AllowedMethodsTerms(transferSelector),
			callData: append(transferSelector[:], 0x01),
		},
		{
			name:     "selector anywhere in the list",
			terms:    builder.AllowedMethodsTerms(approveSelector, mintSelector, transferSelector),
			callData: transferSelector[:],
		},
		{
			name:     "selector absent",
			terms:    builder.AllowedMethodsTerms(approveSelector, mintSelector),
			callData: transferSelector[:],
			wantErr:  enforcers.ErrMethodNotAllowed,
		},
		{
			name:     "calldata shorter than a selector",
			terms:    builder.AllowedMethodsTerms(transferSelector),
			callData: []byte{0xa9, 0x05},
			wantErr:  enforcers.ErrMethodNotAllowed,
		},
		{
			name:    "empty terms reject everything",
			terms:   []byte{},
			wantErr: enforcers.ErrAllowedMethodsTermsLength,
		},
		{
			name:    "ragged terms length",
			terms:   []byte{0xa9, 0x05, 0x9c},
			wantErr: enforcers.ErrAllowedMethodsTermsLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := testutil.SinglePayload(testutil.Token, 0, tt.callData)
			err := enforcer.BeforeHook(ctx, hookReq(tt.terms, payload))
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestAllowedMethodsEnforcer_ModeCheckPrecedesTerms(t *testing.T) {
	enforcer := enforcers.NewAllowedMethodsEnforcer()
	req := hookReq(nil, nil)

	err := enforcer.BeforeHook(context.Background(), withMode(req, types.ModeBatchDefault))
	assert.ErrorIs(t, err, execution.ErrInvalidCallType)

	err = enforcer.BeforeHook(context.Background(), withMode(req, types.ModeSingleTry))
	assert.ErrorIs(t, err, execution.ErrInvalidExecutionType)
}
