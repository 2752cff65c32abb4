package enforcers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cyphera/delegation-core/enforcers"
	"github.com/cyphera/delegation-core/logger"
	"github.com/cyphera/delegation-core/types"
)

func TestArgsEqualityCheckEnforcer_BeforeHook(t *testing.T) {
	enforcer := enforcers.NewArgsEqualityCheckEnforcer(logger.Log)
	ctx := context.Background()

	tests := []struct {
		name    string
		terms   []byte
		args    []byte
		wantErr error
	}{
		{"equal bytes", []byte{0x01, 0x02}, []byte{0x01, 0x02}, nil},
		{"both empty", []byte{}, nil, nil},
		{"different content", []byte{0x01, 0x02}, []byte{0x01, 0x03}, enforcers.ErrDifferentArgsAndTerms},
		{"different length", []byte{0x01, 0x02}, []byte{0x01}, enforcers.ErrDifferentArgsAndTerms},
		{"missing args", []byte{0x01}, nil, enforcers.ErrDifferentArgsAndTerms},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := hookReq(tt.terms, nil)
			req.Args = tt.args
			err := enforcer.BeforeHook(ctx, req)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestArgsEqualityCheckEnforcer_SupportsEveryMode(t *testing.T) {
	enforcer := enforcers.NewArgsEqualityCheckEnforcer(logger.Log)
	secret := []byte{0xca, 0xfe}

	for _, mode := range []types.Mode{
		types.ModeSingleDefault,
		types.ModeSingleTry,
		types.ModeBatchDefault,
		types.ModeBatchTry,
	} {
		req := withMode(hookReq(secret, nil), mode)
		req.Args = secret
		assert.NoError(t, enforcer.BeforeHook(context.Background(), req), mode.String())
	}
}
