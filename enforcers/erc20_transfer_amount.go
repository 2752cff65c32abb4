package enforcers

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cyphera/delegation-core/execution"
	"github.com/cyphera/delegation-core/state"
)

var (
	ErrSpendTermsLength     = errors.New("ERC20TransferAmountEnforcer:invalid-terms-length")
	ErrSpendInvalidContract = errors.New("ERC20TransferAmountEnforcer:invalid-contract")
	ErrSpendInvalidMethod   = errors.New("ERC20TransferAmountEnforcer:invalid-method")
	ErrSpendExecutionLength = errors.New("ERC20TransferAmountEnforcer:invalid-execution-length")
	ErrAllowanceExceeded    = errors.New("ERC20TransferAmountEnforcer:allowance-exceeded")
	ErrSpendOverflow        = errors.New("ERC20TransferAmountEnforcer:spent-overflow")
)

// token(20) | maxTokens(32)
const transferAmountTermsLength = 52

// ERC20TransferAmountEnforcer caps the cumulative amount a delegation may
// transfer across all of its redemptions. The spent total is monotonic
// and never resets.
//
// The spend is committed in the pre-hook, once validation passes. Under
// try-mode semantics an inner transfer can still fail afterwards without
// reverting the redemption, and the recorded spend is intentionally not
// rolled back: allowance consumption is conservative.
type ERC20TransferAmountEnforcer struct {
	noHooks
	store  state.Store
	logger *zap.Logger
}

func NewERC20TransferAmountEnforcer(store state.Store, logger *zap.Logger) *ERC20TransferAmountEnforcer {
	return &ERC20TransferAmountEnforcer{store: store, logger: logger}
}

// TransferAmountTerms is the decoded spend ceiling.
type TransferAmountTerms struct {
	Token     common.Address
	MaxTokens *uint256.Int
}

// DecodeTransferAmountTerms parses token(20) | maxTokens(32).
func DecodeTransferAmountTerms(terms []byte) (TransferAmountTerms, error) {
	if len(terms) != transferAmountTermsLength {
		return TransferAmountTerms{}, ErrSpendTermsLength
	}
	return TransferAmountTerms{
		Token:     common.BytesToAddress(terms[:20]),
		MaxTokens: new(uint256.Int).SetBytes(terms[20:52]),
	}, nil
}

// spendKeyPrefix namespaces spend keys away from the other stateful
// ledgers sharing the store.
var spendKeyPrefix = []byte("ERC20TransferAmountEnforcer")

// SpendKey derives the ledger key for a cumulative spend total.
// External tooling depends on this formula.
func SpendKey(caller common.Address, delegationHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(spendKeyPrefix, caller.Bytes(), delegationHash.Bytes())
}

// spendLedger is the monotonic spent record.
type spendLedger struct {
	spent *uint256.Int
}

// Spent reports the cumulative amount recorded for a delegation.
func (e *ERC20TransferAmountEnforcer) Spent(caller common.Address, delegationHash common.Hash) *uint256.Int {
	existing, ok := e.store.Get(SpendKey(caller, delegationHash))
	if !ok {
		return uint256.NewInt(0)
	}
	return existing.(spendLedger).spent.Clone()
}

func (e *ERC20TransferAmountEnforcer) BeforeHook(_ context.Context, req HookRequest) error {
	if err := execution.RequireSingle(req.Mode); err != nil {
		return err
	}
	info, err := DecodeTransferAmountTerms(req.Terms)
	if err != nil {
		return err
	}
	exec, err := execution.DecodeSingle(req.ExecutionCallData)
	if err != nil {
		return err
	}

	if exec.Target != info.Token {
		return ErrSpendInvalidContract
	}
	if len(exec.CallData) != erc20TransferCallDataLength {
		return ErrSpendExecutionLength
	}
	_, amount, ok := decodeERC20Transfer(exec.CallData)
	if !ok {
		return ErrSpendInvalidMethod
	}

	key := SpendKey(req.Caller, req.DelegationHash)

	spent := uint256.NewInt(0)
	if existing, ok := e.store.Get(key); ok {
		spent = existing.(spendLedger).spent
	}

	total, overflow := new(uint256.Int).AddOverflow(spent, amount)
	if overflow {
		return ErrSpendOverflow
	}
	if total.Gt(info.MaxTokens) {
		return ErrAllowanceExceeded
	}

	e.store.Put(key, spendLedger{spent: total})

	e.logger.Debug("Increased spent amount",
		zap.String("delegation_hash", req.DelegationHash.Hex()),
		zap.String("token", info.Token.Hex()),
		zap.String("spent", total.Dec()),
		zap.String("limit", info.MaxTokens.Dec()),
	)
	return nil
}
