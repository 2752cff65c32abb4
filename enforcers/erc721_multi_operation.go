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
	ErrMultiOperationTermsLength    = errors.New("ERC721MultiOperationEnforcer:invalid-terms-length")
	ErrZeroExpectedChangeAmount     = errors.New("ERC721MultiOperationEnforcer:zero-expected-change-amount")
	ErrMultiOperationInsufficient   = errors.New("ERC721MultiOperationEnforcer:insufficient-balance-increase")
	ErrMultiOperationOverflow       = errors.New("ERC721MultiOperationEnforcer:balance-overflow")
	ErrMultiOperationNoPendingCheck = errors.New("ERC721MultiOperationEnforcer:no-pending-validation")
)

// token(20) | recipient(20) | amount(32)
const multiOperationTermsLength = 72

// ERC721MultiOperationEnforcer tracks an aggregate NFT balance increase
// across every operation of one redemption. Unlike the single-operation
// tracker it tolerates balance movement between pre-hooks: each
// beforeAllHook stacks its amount onto a shared expected delta, and only
// the afterAllHook that retires the last pending validation compares the
// final balance against the aggregate.
type ERC721MultiOperationEnforcer struct {
	noHooks
	store state.Store
	chain chainstate.ChainView
}

func NewERC721MultiOperationEnforcer(store state.Store, chain chainstate.ChainView) *ERC721MultiOperationEnforcer {
	return &ERC721MultiOperationEnforcer{store: store, chain: chain}
}

// MultiOperationTerms is the decoded configuration.
type MultiOperationTerms struct {
	Token     common.Address
	Recipient common.Address
	Amount    *uint256.Int
}

// DecodeMultiOperationTerms parses token(20) | recipient(20) | amount(32).
func DecodeMultiOperationTerms(terms []byte) (MultiOperationTerms, error) {
	if len(terms) != multiOperationTermsLength {
		return MultiOperationTerms{}, ErrMultiOperationTermsLength
	}
	return MultiOperationTerms{
		Token:     common.BytesToAddress(terms[:20]),
		Recipient: common.BytesToAddress(terms[20:40]),
		Amount:    new(uint256.Int).SetBytes(terms[40:72]),
	}, nil
}

// multiOperationKeyPrefix namespaces aggregate-tracker keys away from
// the other stateful ledgers sharing the store.
var multiOperationKeyPrefix = []byte("ERC721MultiOperationEnforcer")

// MultiOperationKey derives the ledger key for an aggregate tracker.
// External tooling depends on this formula.
func MultiOperationKey(caller, token, recipient common.Address) common.Hash {
	return crypto.Keccak256Hash(multiOperationKeyPrefix, caller.Bytes(), token.Bytes(), recipient.Bytes())
}

// multiOpTracker is the per-key aggregate record.
type multiOpTracker struct {
	balanceBefore      *uint256.Int
	expectedDelta      *uint256.Int
	pendingValidations uint32
}

func (e *ERC721MultiOperationEnforcer) BeforeAllHook(ctx context.Context, req HookRequest) error {
	if err := execution.RequireDefault(req.Mode); err != nil {
		return err
	}
	info, err := DecodeMultiOperationTerms(req.Terms)
	if err != nil {
		return err
	}
	if info.Amount.IsZero() {
		return ErrZeroExpectedChangeAmount
	}

	key := MultiOperationKey(req.Caller, info.Token, info.Recipient)

	if existing, ok := e.store.Get(key); ok {
		tracker := existing.(multiOpTracker)
		delta, overflow := new(uint256.Int).AddOverflow(tracker.expectedDelta, info.Amount)
		if overflow {
			return ErrMultiOperationOverflow
		}
		e.store.Put(key, multiOpTracker{
			balanceBefore:      tracker.balanceBefore,
			expectedDelta:      delta,
			pendingValidations: tracker.pendingValidations + 1,
		})
		return nil
	}

	balance, err := e.chain.ERC721BalanceOf(ctx, info.Token, info.Recipient)
	if err != nil {
		return err
	}
	e.store.Put(key, multiOpTracker{
		balanceBefore:      balance,
		expectedDelta:      info.Amount.Clone(),
		pendingValidations: 1,
	})
	return nil
}

func (e *ERC721MultiOperationEnforcer) AfterAllHook(ctx context.Context, req HookRequest) error {
	if err := execution.RequireDefault(req.Mode); err != nil {
		return err
	}
	info, err := DecodeMultiOperationTerms(req.Terms)
	if err != nil {
		return err
	}

	key := MultiOperationKey(req.Caller, info.Token, info.Recipient)
	existing, ok := e.store.Get(key)
	if !ok {
		return ErrMultiOperationNoPendingCheck
	}
	tracker := existing.(multiOpTracker)
	if tracker.pendingValidations == 0 {
		return ErrMultiOperationNoPendingCheck
	}

	// Only the call that retires the last pending validation performs the
	// final check.
	if tracker.pendingValidations > 1 {
		e.store.Put(key, multiOpTracker{
			balanceBefore:      tracker.balanceBefore,
			expectedDelta:      tracker.expectedDelta,
			pendingValidations: tracker.pendingValidations - 1,
		})
		return nil
	}

	final, err := e.chain.ERC721BalanceOf(ctx, info.Token, info.Recipient)
	if err != nil {
		return err
	}
	required, overflow := new(uint256.Int).AddOverflow(tracker.balanceBefore, tracker.expectedDelta)
	if overflow {
		return ErrMultiOperationOverflow
	}
	if final.Lt(required) {
		return ErrMultiOperationInsufficient
	}

	e.store.Delete(key)
	return nil
}
