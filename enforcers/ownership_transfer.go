package enforcers

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/cyphera/delegation-core/execution"
)

var (
	ErrOwnershipTransferTermsLength = errors.New("OwnershipTransferEnforcer:invalid-terms-length")
	ErrOwnershipInvalidContract     = errors.New("OwnershipTransferEnforcer:invalid-contract")
	ErrOwnershipInvalidMethod       = errors.New("OwnershipTransferEnforcer:invalid-method")
	ErrOwnershipExecutionLength     = errors.New("OwnershipTransferEnforcer:invalid-execution-length")
)

const ownershipTransferTermsLength = 20

// OwnershipTransferEnforcer only allows calling transferOwnership(address)
// on one configured contract. Terms are that contract's address.
type OwnershipTransferEnforcer struct {
	noHooks
}

func NewOwnershipTransferEnforcer() *OwnershipTransferEnforcer {
	return &OwnershipTransferEnforcer{}
}

// DecodeOwnershipTransferTerms parses the 20-byte contract address.
func DecodeOwnershipTransferTerms(terms []byte) (common.Address, error) {
	if len(terms) != ownershipTransferTermsLength {
		return common.Address{}, ErrOwnershipTransferTermsLength
	}
	return common.BytesToAddress(terms), nil
}

func (e *OwnershipTransferEnforcer) BeforeHook(_ context.Context, req HookRequest) error {
	if err := execution.RequireSingleDefault(req.Mode); err != nil {
		return err
	}
	contract, err := DecodeOwnershipTransferTerms(req.Terms)
	if err != nil {
		return err
	}
	exec, err := execution.DecodeSingle(req.ExecutionCallData)
	if err != nil {
		return err
	}

	if exec.Target != contract {
		return ErrOwnershipInvalidContract
	}
	selector, ok := exec.Selector()
	if !ok || selector != transferOwnershipSelector {
		return ErrOwnershipInvalidMethod
	}
	if len(exec.CallData) != transferOwnershipCallDataLength {
		return ErrOwnershipExecutionLength
	}
	return nil
}
