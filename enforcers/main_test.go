package enforcers_test

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/cyphera/delegation-core/enforcers"
	"github.com/cyphera/delegation-core/logger"
	"github.com/cyphera/delegation-core/testutil"
	"github.com/cyphera/delegation-core/types"
)

func init() {
	logger.InitLogger("test")
}

var delegationHash = common.HexToHash("0xd00d000000000000000000000000000000000000000000000000000000000001")

// hookReq builds the request most tests need: single/default mode against
// the shared fixture addresses.
func hookReq(terms, payload []byte) enforcers.HookRequest {
	return enforcers.HookRequest{
		Terms:             terms,
		Mode:              types.ModeSingleDefault,
		ExecutionCallData: payload,
		DelegationHash:    delegationHash,
		Delegator:         testutil.Delegator,
		Redeemer:          testutil.Redeemer,
		Caller:            testutil.Manager,
	}
}

func withMode(req enforcers.HookRequest, mode types.Mode) enforcers.HookRequest {
	req.Mode = mode
	return req
}
