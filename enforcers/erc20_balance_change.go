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
	ErrBalanceChangeTermsLength    = errors.New("ERC20BalanceChangeEnforcer:invalid-terms-length")
	ErrBalanceChanged              = errors.New("ERC20BalanceChangeEnforcer:balance-changed")
	ErrInsufficientBalanceIncrease = errors.New("ERC20BalanceChangeEnforcer:insufficient-balance-increase")
	ErrExceededBalanceDecrease     = errors.New("ERC20BalanceChangeEnforcer:exceeded-balance-decrease")
	ErrBalanceOverflow             = errors.New("ERC20BalanceChangeEnforcer:balance-overflow")
	ErrNoPendingValidation         = errors.New("ERC20BalanceChangeEnforcer:no-pending-validation")
)

// flag(1) | token(20) | recipient(20) | amount(32)
const balanceChangeTermsLength = 73

// ERC20BalanceChangeEnforcer requires a recipient's token balance to have
// moved by at least (increase) or at most (decrease) a configured amount
// across the delegated action. The pre-hook caches the starting balance;
// additional pre-hooks for the same (caller, token, recipient) key must
// observe the identical balance and stack their amounts onto the shared
// bound, so duplicate caveats tighten rather than shadow each other.
type ERC20BalanceChangeEnforcer struct {
	noHooks
	store state.Store
	chain chainstate.ChainView
}

func NewERC20BalanceChangeEnforcer(store state.Store, chain chainstate.ChainView) *ERC20BalanceChangeEnforcer {
	return &ERC20BalanceChangeEnforcer{store: store, chain: chain}
}

// BalanceChangeTerms is the decoded configuration.
type BalanceChangeTerms struct {
	EnforceDecrease bool
	Token           common.Address
	Recipient       common.Address
	Amount          *uint256.Int
}

// DecodeBalanceChangeTerms parses
// flag(1) | token(20) | recipient(20) | amount(32). Flag 0x01 enforces a
// bounded decrease, anything else a required increase.
func DecodeBalanceChangeTerms(terms []byte) (BalanceChangeTerms, error) {
	if len(terms) != balanceChangeTermsLength {
		return BalanceChangeTerms{}, ErrBalanceChangeTermsLength
	}
	return BalanceChangeTerms{
		EnforceDecrease: terms[0] == 0x01,
		Token:           common.BytesToAddress(terms[1:21]),
		Recipient:       common.BytesToAddress(terms[21:41]),
		Amount:          new(uint256.Int).SetBytes(terms[41:73]),
	}, nil
}

// balanceChangeKeyPrefix namespaces tracked-balance keys away from the
// other stateful ledgers sharing the store.
var balanceChangeKeyPrefix = []byte("ERC20BalanceChangeEnforcer")

// BalanceChangeKey derives the ledger key for a tracked balance.
// External tooling depends on this formula.
func BalanceChangeKey(caller, token, recipient common.Address) common.Hash {
	return crypto.Keccak256Hash(balanceChangeKeyPrefix, caller.Bytes(), token.Bytes(), recipient.Bytes())
}

// balanceTracker is the per-key ledger record. Replaced wholesale on
// every write so the store journal can roll it back.
type balanceTracker struct {
	balanceBefore      *uint256.Int
	expectedIncrease   *uint256.Int
	expectedDecrease   *uint256.Int
	pendingValidations uint32
}

func (e *ERC20BalanceChangeEnforcer) BeforeHook(ctx context.Context, req HookRequest) error {
	if err := execution.RequireDefault(req.Mode); err != nil {
		return err
	}
	info, err := DecodeBalanceChangeTerms(req.Terms)
	if err != nil {
		return err
	}

	balance, err := e.chain.ERC20BalanceOf(ctx, info.Token, info.Recipient)
	if err != nil {
		return err
	}

	key := BalanceChangeKey(req.Caller, info.Token, info.Recipient)

	tracker := balanceTracker{
		balanceBefore:      balance,
		expectedIncrease:   uint256.NewInt(0),
		expectedDecrease:   uint256.NewInt(0),
		pendingValidations: 0,
	}
	if existing, ok := e.store.Get(key); ok {
		tracker = existing.(balanceTracker)
		// An interleaved balance movement between two pre-hooks for the
		// same key would make the shared baseline meaningless.
		if balance.Cmp(tracker.balanceBefore) != 0 {
			return ErrBalanceChanged
		}
	}

	increase := tracker.expectedIncrease
	decrease := tracker.expectedDecrease
	if info.EnforceDecrease {
		sum, overflow := new(uint256.Int).AddOverflow(decrease, info.Amount)
		if overflow {
			return ErrBalanceOverflow
		}
		decrease = sum
	} else {
		sum, overflow := new(uint256.Int).AddOverflow(increase, info.Amount)
		if overflow {
			return ErrBalanceOverflow
		}
		increase = sum
	}

	e.store.Put(key, balanceTracker{
		balanceBefore:      tracker.balanceBefore,
		expectedIncrease:   increase,
		expectedDecrease:   decrease,
		pendingValidations: tracker.pendingValidations + 1,
	})
	return nil
}

func (e *ERC20BalanceChangeEnforcer) AfterHook(ctx context.Context, req HookRequest) error {
	if err := execution.RequireDefault(req.Mode); err != nil {
		return err
	}
	info, err := DecodeBalanceChangeTerms(req.Terms)
	if err != nil {
		return err
	}

	key := BalanceChangeKey(req.Caller, info.Token, info.Recipient)
	existing, ok := e.store.Get(key)
	if !ok {
		return ErrNoPendingValidation
	}
	tracker := existing.(balanceTracker)
	if tracker.pendingValidations == 0 {
		return ErrNoPendingValidation
	}

	observed, err := e.chain.ERC20BalanceOf(ctx, info.Token, info.Recipient)
	if err != nil {
		return err
	}

	// Required floor: balanceBefore + sum(increases) - sum(decreases),
	// saturating at zero when the permitted decrease exceeds the start.
	floor, overflow := new(uint256.Int).AddOverflow(tracker.balanceBefore, tracker.expectedIncrease)
	if overflow {
		return ErrBalanceOverflow
	}
	if floor.Lt(tracker.expectedDecrease) {
		floor = uint256.NewInt(0)
	} else {
		floor = new(uint256.Int).Sub(floor, tracker.expectedDecrease)
	}

	if observed.Lt(floor) {
		if tracker.expectedIncrease.IsZero() {
			return ErrExceededBalanceDecrease
		}
		return ErrInsufficientBalanceIncrease
	}

	if tracker.pendingValidations == 1 {
		e.store.Delete(key)
		return nil
	}
	e.store.Put(key, balanceTracker{
		balanceBefore:      tracker.balanceBefore,
		expectedIncrease:   tracker.expectedIncrease,
		expectedDecrease:   tracker.expectedDecrease,
		pendingValidations: tracker.pendingValidations - 1,
	})
	return nil
}
