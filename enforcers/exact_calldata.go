package enforcers

import (
	"bytes"
	"context"

	"github.com/pkg/errors"

	"github.com/cyphera/delegation-core/execution"
)

var ErrInvalidCalldata = errors.New("ExactCalldataEnforcer:invalid-calldata")

// ExactCalldataEnforcer requires the execution calldata to equal the
// terms byte-for-byte. Empty terms match only an empty calldata. There is
// no length precondition on the terms: the terms are the expected
// calldata itself.
type ExactCalldataEnforcer struct {
	noHooks
}

func NewExactCalldataEnforcer() *ExactCalldataEnforcer {
	return &ExactCalldataEnforcer{}
}

func (e *ExactCalldataEnforcer) BeforeHook(_ context.Context, req HookRequest) error {
	if err := execution.RequireSingleDefault(req.Mode); err != nil {
		return err
	}
	exec, err := execution.DecodeSingle(req.ExecutionCallData)
	if err != nil {
		return err
	}

	if !bytes.Equal(exec.CallData, req.Terms) {
		return ErrInvalidCalldata
	}
	return nil
}
