package enforcers

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/cyphera/delegation-core/execution"
	"github.com/cyphera/delegation-core/registry"
)

var (
	ErrNonceTermsLength = errors.New("NonceEnforcer:invalid-terms-length")
	ErrInvalidNonce     = errors.New("NonceEnforcer:invalid-nonce")
)

const nonceTermsLength = 32

// NonceEnforcer pins a delegation to an exact registry nonce for its
// delegator. Bumping the nonce revokes every delegation pinned to the old
// value in one step.
type NonceEnforcer struct {
	noHooks
	registry *registry.NonceRegistry
}

func NewNonceEnforcer(reg *registry.NonceRegistry) *NonceEnforcer {
	return &NonceEnforcer{registry: reg}
}

// DecodeNonceTerms parses the 32-byte expected nonce.
func DecodeNonceTerms(terms []byte) (*uint256.Int, error) {
	if len(terms) != nonceTermsLength {
		return nil, ErrNonceTermsLength
	}
	return new(uint256.Int).SetBytes(terms), nil
}

func (e *NonceEnforcer) BeforeHook(_ context.Context, req HookRequest) error {
	if err := execution.RequireDefault(req.Mode); err != nil {
		return err
	}
	expected, err := DecodeNonceTerms(req.Terms)
	if err != nil {
		return err
	}

	current := e.registry.CurrentNonce(req.Caller, req.Delegator)
	if current.Cmp(expected) != 0 {
		return ErrInvalidNonce
	}
	return nil
}
