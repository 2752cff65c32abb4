package testutil

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/cyphera/delegation-core/execution"
	"github.com/cyphera/delegation-core/types"
)

// Well-known addresses reused across the test suites.
var (
	Manager   = common.HexToAddress("0x1000000000000000000000000000000000000001")
	Delegator = common.HexToAddress("0x2000000000000000000000000000000000000002")
	Redeemer  = common.HexToAddress("0x3000000000000000000000000000000000000003")
	Token     = common.HexToAddress("0x4000000000000000000000000000000000000004")
	Recipient = common.HexToAddress("0x5000000000000000000000000000000000000005")
)

// SinglePayload packs one execution into the single-mode wire layout.
func SinglePayload(target common.Address, value uint64, callData []byte) []byte {
	return execution.EncodeSingle(types.NewExecution(target, uint256.NewInt(value), callData))
}

// BatchPayload ABI-encodes executions into a batch-mode payload, panicking
// on encoding failure since fixtures are static.
func BatchPayload(executions ...types.Execution) []byte {
	payload, err := execution.EncodeBatch(executions)
	if err != nil {
		panic("testutil: failed to encode batch payload: " + err.Error())
	}
	return payload
}
