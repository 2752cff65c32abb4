package enforcers

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/cyphera/delegation-core/execution"
)

var (
	ErrValueLteTermsLength = errors.New("ValueLteEnforcer:invalid-terms-length")
	ErrValueTooHigh        = errors.New("ValueLteEnforcer:value-too-high")
)

const valueLteTermsLength = 32

// ValueLteEnforcer caps the native value of the execution. Terms are the
// 32-byte ceiling; the ceiling itself is allowed.
type ValueLteEnforcer struct {
	noHooks
}

func NewValueLteEnforcer() *ValueLteEnforcer {
	return &ValueLteEnforcer{}
}

// DecodeValueLteTerms parses the 32-byte value ceiling.
func DecodeValueLteTerms(terms []byte) (*uint256.Int, error) {
	if len(terms) != valueLteTermsLength {
		return nil, ErrValueLteTermsLength
	}
	return new(uint256.Int).SetBytes(terms), nil
}

func (e *ValueLteEnforcer) BeforeHook(_ context.Context, req HookRequest) error {
	if err := execution.RequireSingleDefault(req.Mode); err != nil {
		return err
	}
	ceiling, err := DecodeValueLteTerms(req.Terms)
	if err != nil {
		return err
	}
	exec, err := execution.DecodeSingle(req.ExecutionCallData)
	if err != nil {
		return err
	}

	if exec.Value.Gt(ceiling) {
		return ErrValueTooHigh
	}
	return nil
}
