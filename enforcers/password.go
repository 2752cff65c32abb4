package enforcers

import (
	"bytes"
	"context"

	"github.com/pkg/errors"

	"github.com/cyphera/delegation-core/execution"
)

var (
	ErrPasswordTermsLength = errors.New("PasswordEnforcer:invalid-terms-length")
	ErrInvalidPassword     = errors.New("PasswordEnforcer:invalid-password")
)

const passwordTermsLength = 32

// PasswordEnforcer gates redemption on a shared secret: the delegator
// commits a 32-byte value in the terms and the redeemer must present the
// same value as args. The comparison is constant-shape but the secret is
// part of the signed delegation, so it is a coordination primitive, not a
// confidentiality one.
type PasswordEnforcer struct {
	noHooks
}

func NewPasswordEnforcer() *PasswordEnforcer {
	return &PasswordEnforcer{}
}

// DecodePasswordTerms parses the 32-byte committed secret.
func DecodePasswordTerms(terms []byte) ([]byte, error) {
	if len(terms) != passwordTermsLength {
		return nil, ErrPasswordTermsLength
	}
	return terms, nil
}

func (e *PasswordEnforcer) BeforeHook(_ context.Context, req HookRequest) error {
	if err := execution.RequireDefault(req.Mode); err != nil {
		return err
	}
	secret, err := DecodePasswordTerms(req.Terms)
	if err != nil {
		return err
	}

	if len(req.Args) != passwordTermsLength || !bytes.Equal(req.Args, secret) {
		return ErrInvalidPassword
	}
	return nil
}
