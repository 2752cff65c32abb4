package execution

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/cyphera/delegation-core/types"
)

// Single-mode payloads are packed, not ABI-encoded:
// target (20 bytes) | value (32 bytes) | calldata (rest).
const singleHeaderLength = 52

var (
	// ErrInvalidExecutionLength is returned when a payload does not match
	// the layout its declared call type requires.
	ErrInvalidExecutionLength = errors.New("CaveatEnforcer:invalid-execution-length")
)

var executionsArgs abi.Arguments

// batchExecution mirrors the ABI tuple layout of a batched execution.
type batchExecution struct {
	Target   common.Address `abi:"target"`
	Value    *big.Int       `abi:"value"`
	CallData []byte         `abi:"callData"`
}

func init() {
	executionsType, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "target", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "callData", Type: "bytes"},
	})
	if err != nil {
		panic("execution: failed to construct batch ABI type: " + err.Error())
	}
	executionsArgs = abi.Arguments{{Type: executionsType, Name: "executions"}}
}

// DecodeSingle decodes a packed single-mode payload into one execution.
func DecodeSingle(payload []byte) (types.Execution, error) {
	if len(payload) < singleHeaderLength {
		return types.Execution{}, ErrInvalidExecutionLength
	}

	target := common.BytesToAddress(payload[:20])
	value := new(uint256.Int).SetBytes(payload[20:52])

	return types.NewExecution(target, value, payload[52:]), nil
}

// EncodeSingle packs one execution into the single-mode wire layout.
func EncodeSingle(exec types.Execution) []byte {
	payload := make([]byte, 0, singleHeaderLength+len(exec.CallData))
	payload = append(payload, exec.Target.Bytes()...)
	value := exec.Value.Bytes32()
	payload = append(payload, value[:]...)
	payload = append(payload, exec.CallData...)
	return payload
}

// DecodeBatch decodes an ABI-encoded Execution[] payload. A malformed
// payload fails the whole operation; there are no partial results.
func DecodeBatch(payload []byte) ([]types.Execution, error) {
	unpacked, err := executionsArgs.Unpack(payload)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidExecutionLength, err.Error())
	}

	raw := *abi.ConvertType(unpacked[0], new([]batchExecution)).(*[]batchExecution)

	executions := make([]types.Execution, len(raw))
	for i, entry := range raw {
		value, overflow := uint256.FromBig(entry.Value)
		if overflow {
			return nil, ErrInvalidExecutionLength
		}
		executions[i] = types.NewExecution(entry.Target, value, entry.CallData)
	}
	return executions, nil
}

// EncodeBatch ABI-encodes executions into a batch-mode payload. It is the
// inverse of DecodeBatch and is what delegation builders produce.
func EncodeBatch(executions []types.Execution) ([]byte, error) {
	raw := make([]batchExecution, len(executions))
	for i, exec := range executions {
		raw[i] = batchExecution{
			Target:   exec.Target,
			Value:    exec.Value.ToBig(),
			CallData: exec.CallData,
		}
	}

	payload, err := executionsArgs.Pack(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode execution batch")
	}
	return payload, nil
}
