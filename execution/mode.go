package execution

import (
	"errors"

	"github.com/cyphera/delegation-core/types"
)

// Mode gate errors. These are shared by every enforcer and are always
// raised before terms or calldata are inspected.
var (
	ErrInvalidCallType      = errors.New("CaveatEnforcer:invalid-call-type")
	ErrInvalidExecutionType = errors.New("CaveatEnforcer:invalid-execution-type")
)

// RequireSingle rejects batch payloads.
func RequireSingle(mode types.Mode) error {
	if mode.Call != types.CallTypeSingle {
		return ErrInvalidCallType
	}
	return nil
}

// RequireBatch rejects single payloads.
func RequireBatch(mode types.Mode) error {
	if mode.Call != types.CallTypeBatch {
		return ErrInvalidCallType
	}
	return nil
}

// RequireDefault rejects try-mode execution semantics.
func RequireDefault(mode types.Mode) error {
	if mode.Exec != types.ExecTypeDefault {
		return ErrInvalidExecutionType
	}
	return nil
}

// RequireSingleDefault is the gate used by most enforcers: exactly one
// must-succeed call. The call type is checked before the exec type.
func RequireSingleDefault(mode types.Mode) error {
	if err := RequireSingle(mode); err != nil {
		return err
	}
	return RequireDefault(mode)
}

// RequireBatchDefault gates batch-only enforcers.
func RequireBatchDefault(mode types.Mode) error {
	if err := RequireBatch(mode); err != nil {
		return err
	}
	return RequireDefault(mode)
}
