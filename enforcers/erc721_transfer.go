package enforcers

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/cyphera/delegation-core/execution"
)

var (
	ErrERC721TransferTermsLength = errors.New("ERC721TransferEnforcer:invalid-terms-length")
	ErrUnauthorizedContract      = errors.New("ERC721TransferEnforcer:unauthorized-contract-target")
	ErrUnauthorizedSelector      = errors.New("ERC721TransferEnforcer:unauthorized-selector")
	ErrUnauthorizedTokenID       = errors.New("ERC721TransferEnforcer:unauthorized-token-id")
	ErrERC721CalldataLength      = errors.New("ERC721TransferEnforcer:invalid-calldata-length")
)

const erc721TransferTermsLength = 52

// ERC721TransferEnforcer scopes the delegate to transferring one specific
// token of one specific contract via transferFrom. Terms pack the
// permitted contract (20 bytes) and token id (32 bytes).
type ERC721TransferEnforcer struct {
	noHooks
}

func NewERC721TransferEnforcer() *ERC721TransferEnforcer {
	return &ERC721TransferEnforcer{}
}

// ERC721TransferTerms is the decoded permitted transfer.
type ERC721TransferTerms struct {
	Contract common.Address
	TokenID  *uint256.Int
}

// DecodeERC721TransferTerms parses contract(20) | tokenId(32).
func DecodeERC721TransferTerms(terms []byte) (ERC721TransferTerms, error) {
	if len(terms) != erc721TransferTermsLength {
		return ERC721TransferTerms{}, ErrERC721TransferTermsLength
	}
	return ERC721TransferTerms{
		Contract: common.BytesToAddress(terms[:20]),
		TokenID:  new(uint256.Int).SetBytes(terms[20:52]),
	}, nil
}

func (e *ERC721TransferEnforcer) BeforeHook(_ context.Context, req HookRequest) error {
	if err := execution.RequireSingleDefault(req.Mode); err != nil {
		return err
	}
	info, err := DecodeERC721TransferTerms(req.Terms)
	if err != nil {
		return err
	}
	exec, err := execution.DecodeSingle(req.ExecutionCallData)
	if err != nil {
		return err
	}

	if exec.Target != info.Contract {
		return ErrUnauthorizedContract
	}
	selector, ok := exec.Selector()
	if !ok || selector != erc721TransferFromSelector {
		return ErrUnauthorizedSelector
	}
	if len(exec.CallData) != erc721TransferFromCallDataLength {
		return ErrERC721CalldataLength
	}

	_, _, tokenID, ok := decodeERC721TransferFrom(exec.CallData)
	if !ok {
		return ErrERC721CalldataLength
	}
	if tokenID.Cmp(info.TokenID) != 0 {
		return ErrUnauthorizedTokenID
	}
	return nil
}
