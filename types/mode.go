package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// CallType declares the arity of an execution payload.
type CallType byte

// ExecType declares the failure semantics of an execution.
type ExecType byte

const (
	// CallTypeSingle is one packed execution (target, value, calldata).
	CallTypeSingle CallType = 0x00
	// CallTypeBatch is an ABI-encoded array of executions.
	CallTypeBatch CallType = 0x01

	// ExecTypeDefault reverts the whole redemption when the inner call fails.
	ExecTypeDefault ExecType = 0x00
	// ExecTypeTry lets the outer redemption continue past a failed inner call.
	ExecTypeTry ExecType = 0x01
)

// Mode describes how an execution payload must be decoded and what the
// failure semantics of the underlying call are. Every enforcer checks the
// mode before looking at terms or calldata.
type Mode struct {
	Call CallType
	Exec ExecType
}

var (
	ModeSingleDefault = Mode{Call: CallTypeSingle, Exec: ExecTypeDefault}
	ModeSingleTry     = Mode{Call: CallTypeSingle, Exec: ExecTypeTry}
	ModeBatchDefault  = Mode{Call: CallTypeBatch, Exec: ExecTypeDefault}
	ModeBatchTry      = Mode{Call: CallTypeBatch, Exec: ExecTypeTry}
)

// Encode packs the mode into the 32-byte mode code used on the wire:
// callType (1 byte) | execType (1 byte) | unused (30 bytes).
func (m Mode) Encode() common.Hash {
	var code common.Hash
	code[0] = byte(m.Call)
	code[1] = byte(m.Exec)
	return code
}

// DecodeMode parses a 32-byte mode code. Unknown call or exec types are
// rejected so a malformed mode can never alias a supported one.
func DecodeMode(code common.Hash) (Mode, error) {
	mode := Mode{Call: CallType(code[0]), Exec: ExecType(code[1])}
	if mode.Call != CallTypeSingle && mode.Call != CallTypeBatch {
		return Mode{}, fmt.Errorf("unknown call type 0x%02x", code[0])
	}
	if mode.Exec != ExecTypeDefault && mode.Exec != ExecTypeTry {
		return Mode{}, fmt.Errorf("unknown exec type 0x%02x", code[1])
	}
	return mode, nil
}

func (c CallType) String() string {
	switch c {
	case CallTypeSingle:
		return "single"
	case CallTypeBatch:
		return "batch"
	default:
		return fmt.Sprintf("calltype(0x%02x)", byte(c))
	}
}

func (e ExecType) String() string {
	switch e {
	case ExecTypeDefault:
		return "default"
	case ExecTypeTry:
		return "try"
	default:
		return fmt.Sprintf("exectype(0x%02x)", byte(e))
	}
}

func (m Mode) String() string {
	return m.Call.String() + "/" + m.Exec.String()
}
