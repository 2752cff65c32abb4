package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Execution is a single requested external call. It is produced by the
// redeemer and consumed read-only by enforcers.
type Execution struct {
	Target   common.Address `json:"target"`
	Value    *uint256.Int   `json:"value"`
	CallData hexutil.Bytes  `json:"callData"`
}

// NewExecution builds an execution with a defensive copy of the calldata.
func NewExecution(target common.Address, value *uint256.Int, callData []byte) Execution {
	if value == nil {
		value = uint256.NewInt(0)
	}
	data := make([]byte, len(callData))
	copy(data, callData)
	return Execution{
		Target:   target,
		Value:    value.Clone(),
		CallData: data,
	}
}

// Selector returns the 4-byte function selector of the calldata, or false
// when the calldata is shorter than a selector.
func (e Execution) Selector() ([4]byte, bool) {
	var sel [4]byte
	if len(e.CallData) < 4 {
		return sel, false
	}
	copy(sel[:], e.CallData[:4])
	return sel, true
}

// Equal reports whether two executions match on target, value and calldata.
func (e Execution) Equal(other Execution) bool {
	if e.Target != other.Target {
		return false
	}
	if e.Value.Cmp(other.Value) != 0 {
		return false
	}
	if len(e.CallData) != len(other.CallData) {
		return false
	}
	for i := range e.CallData {
		if e.CallData[i] != other.CallData[i] {
			return false
		}
	}
	return true
}
