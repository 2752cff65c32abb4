package enforcers

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/cyphera/delegation-core/chainstate"
	"github.com/cyphera/delegation-core/execution"
	"github.com/cyphera/delegation-core/state"
)

var (
	ErrPeriodTermsLength      = errors.New("ERC20PeriodTransferEnforcer:invalid-terms-length")
	ErrZeroPeriodAmount       = errors.New("ERC20PeriodTransferEnforcer:invalid-zero-period-amount")
	ErrZeroPeriodDuration     = errors.New("ERC20PeriodTransferEnforcer:invalid-zero-period-duration")
	ErrZeroStartDate          = errors.New("ERC20PeriodTransferEnforcer:invalid-zero-start-date")
	ErrTransferNotStarted     = errors.New("ERC20PeriodTransferEnforcer:transfer-not-started")
	ErrPeriodInvalidContract  = errors.New("ERC20PeriodTransferEnforcer:invalid-contract")
	ErrPeriodInvalidMethod    = errors.New("ERC20PeriodTransferEnforcer:invalid-method")
	ErrPeriodExecutionLength  = errors.New("ERC20PeriodTransferEnforcer:invalid-execution-length")
	ErrTransferAmountExceeded = errors.New("ERC20PeriodTransferEnforcer:transfer-amount-exceeded")
)

// token(20) | periodAmount(32) | periodDuration(32) | startDate(32)
const periodTransferTermsLength = 116

// ERC20PeriodTransferEnforcer grants a transfer allowance that renews
// every fixed-length period. The accounting is pure pre-hook work: the
// transfer amount is read from calldata, so no post-hook observation is
// needed. Budget not used in one period does not roll over.
type ERC20PeriodTransferEnforcer struct {
	noHooks
	store state.Store
	chain chainstate.ChainView
}

func NewERC20PeriodTransferEnforcer(store state.Store, chain chainstate.ChainView) *ERC20PeriodTransferEnforcer {
	return &ERC20PeriodTransferEnforcer{store: store, chain: chain}
}

// PeriodTransferTerms is the decoded allowance schedule. All three
// numeric fields must be non-zero.
type PeriodTransferTerms struct {
	Token          common.Address
	PeriodAmount   *uint256.Int
	PeriodDuration *uint256.Int
	StartDate      *uint256.Int
}

// DecodePeriodTransferTerms parses
// token(20) | periodAmount(32) | periodDuration(32) | startDate(32).
func DecodePeriodTransferTerms(terms []byte) (PeriodTransferTerms, error) {
	if len(terms) != periodTransferTermsLength {
		return PeriodTransferTerms{}, ErrPeriodTermsLength
	}
	info := PeriodTransferTerms{
		Token:          common.BytesToAddress(terms[:20]),
		PeriodAmount:   new(uint256.Int).SetBytes(terms[20:52]),
		PeriodDuration: new(uint256.Int).SetBytes(terms[52:84]),
		StartDate:      new(uint256.Int).SetBytes(terms[84:116]),
	}
	if info.PeriodAmount.IsZero() {
		return PeriodTransferTerms{}, ErrZeroPeriodAmount
	}
	if info.PeriodDuration.IsZero() {
		return PeriodTransferTerms{}, ErrZeroPeriodDuration
	}
	if info.StartDate.IsZero() {
		return PeriodTransferTerms{}, ErrZeroStartDate
	}
	return info, nil
}

// periodKeyPrefix namespaces period-allowance keys away from the other
// stateful ledgers sharing the store.
var periodKeyPrefix = []byte("ERC20PeriodTransferEnforcer")

// PeriodTransferKey derives the ledger key for a period allowance.
// External tooling depends on this formula.
func PeriodTransferKey(caller common.Address, delegationHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(periodKeyPrefix, caller.Bytes(), delegationHash.Bytes())
}

// periodLedger records consumption within the last touched period.
type periodLedger struct {
	lastPeriodIndex     *uint256.Int
	transferredInPeriod *uint256.Int
}

// periodIndex computes the 1-based period number at time now, or nil when
// the schedule has not started.
func periodIndex(info PeriodTransferTerms, now *uint256.Int) *uint256.Int {
	if now.Lt(info.StartDate) {
		return nil
	}
	elapsed := new(uint256.Int).Sub(now, info.StartDate)
	index := new(uint256.Int).Div(elapsed, info.PeriodDuration)
	return index.AddUint64(index, 1)
}

// AvailableAmount reports the remaining allowance for the current period:
// the full period amount when the period index has advanced past the last
// recorded one, zero before the start date.
func (e *ERC20PeriodTransferEnforcer) AvailableAmount(ctx context.Context, caller common.Address, delegationHash common.Hash, terms []byte) (*uint256.Int, error) {
	info, err := DecodePeriodTransferTerms(terms)
	if err != nil {
		return nil, err
	}
	now, err := e.chain.Timestamp(ctx)
	if err != nil {
		return nil, err
	}
	index := periodIndex(info, uint256.NewInt(now))
	if index == nil {
		return uint256.NewInt(0), nil
	}

	existing, ok := e.store.Get(PeriodTransferKey(caller, delegationHash))
	if !ok {
		return info.PeriodAmount.Clone(), nil
	}
	ledger := existing.(periodLedger)
	if ledger.lastPeriodIndex.Cmp(index) != 0 {
		return info.PeriodAmount.Clone(), nil
	}
	if ledger.transferredInPeriod.Gt(info.PeriodAmount) {
		return uint256.NewInt(0), nil
	}
	return new(uint256.Int).Sub(info.PeriodAmount, ledger.transferredInPeriod), nil
}

func (e *ERC20PeriodTransferEnforcer) BeforeHook(ctx context.Context, req HookRequest) error {
	if err := execution.RequireSingleDefault(req.Mode); err != nil {
		return err
	}
	info, err := DecodePeriodTransferTerms(req.Terms)
	if err != nil {
		return err
	}
	exec, err := execution.DecodeSingle(req.ExecutionCallData)
	if err != nil {
		return err
	}

	if exec.Target != info.Token {
		return ErrPeriodInvalidContract
	}
	if len(exec.CallData) != erc20TransferCallDataLength {
		return ErrPeriodExecutionLength
	}
	_, amount, ok := decodeERC20Transfer(exec.CallData)
	if !ok {
		return ErrPeriodInvalidMethod
	}

	now, err := e.chain.Timestamp(ctx)
	if err != nil {
		return err
	}
	index := periodIndex(info, uint256.NewInt(now))
	if index == nil {
		return ErrTransferNotStarted
	}

	key := PeriodTransferKey(req.Caller, req.DelegationHash)

	transferred := uint256.NewInt(0)
	if existing, ok := e.store.Get(key); ok {
		ledger := existing.(periodLedger)
		if ledger.lastPeriodIndex.Cmp(index) == 0 {
			transferred = ledger.transferredInPeriod
		}
	}

	total, overflow := new(uint256.Int).AddOverflow(transferred, amount)
	if overflow || total.Gt(info.PeriodAmount) {
		// The ledger is left untouched so the remaining budget survives a
		// rejected oversized transfer.
		return ErrTransferAmountExceeded
	}

	e.store.Put(key, periodLedger{
		lastPeriodIndex:     index,
		transferredInPeriod: total,
	})
	return nil
}
