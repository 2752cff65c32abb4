package enforcers

import (
	"context"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/cyphera/delegation-core/chainstate"
	"github.com/cyphera/delegation-core/execution"
)

var (
	ErrBlockNumberTermsLength = errors.New("BlockNumberEnforcer:invalid-terms-length")
	ErrEarlyDelegation        = errors.New("BlockNumberEnforcer:early-delegation")
	ErrExpiredDelegation      = errors.New("BlockNumberEnforcer:expired-delegation")
)

const blockNumberTermsLength = 32

// BlockNumberEnforcer restricts redemption to a block window. Terms pack
// two uint128 thresholds: blocks at or after the first and at or before
// the second are accepted. A zero threshold disables that bound.
type BlockNumberEnforcer struct {
	chain chainstate.ChainView
}

func NewBlockNumberEnforcer(chain chainstate.ChainView) *BlockNumberEnforcer {
	return &BlockNumberEnforcer{chain: chain}
}

// BlockNumberTerms is the decoded block window. Thresholds beyond uint64
// range are clamped by the uint128 wire width, far above any reachable
// block height.
type BlockNumberTerms struct {
	AfterThreshold  uint64
	BeforeThreshold uint64
	afterHigh       uint64
	beforeHigh      uint64
}

// DecodeBlockNumberTerms parses the packed
// afterThreshold(16) | beforeThreshold(16) window.
func DecodeBlockNumberTerms(terms []byte) (BlockNumberTerms, error) {
	if len(terms) != blockNumberTermsLength {
		return BlockNumberTerms{}, ErrBlockNumberTermsLength
	}
	return BlockNumberTerms{
		afterHigh:       binary.BigEndian.Uint64(terms[0:8]),
		AfterThreshold:  binary.BigEndian.Uint64(terms[8:16]),
		beforeHigh:      binary.BigEndian.Uint64(terms[16:24]),
		BeforeThreshold: binary.BigEndian.Uint64(terms[24:32]),
	}, nil
}

func (e *BlockNumberEnforcer) BeforeHook(ctx context.Context, req HookRequest) error {
	if err := execution.RequireDefault(req.Mode); err != nil {
		return err
	}
	info, err := DecodeBlockNumberTerms(req.Terms)
	if err != nil {
		return err
	}

	current, err := e.chain.BlockNumber(ctx)
	if err != nil {
		return err
	}

	lowerSet := info.afterHigh != 0 || info.AfterThreshold != 0
	if lowerSet && (info.afterHigh != 0 || current < info.AfterThreshold) {
		// A high word in the lower bound puts the window start beyond any
		// reachable block.
		return ErrEarlyDelegation
	}

	upperSet := info.beforeHigh != 0 || info.BeforeThreshold != 0
	if upperSet && info.beforeHigh == 0 && current > info.BeforeThreshold {
		return ErrExpiredDelegation
	}
	return nil
}
