package enforcers

import (
	"bytes"
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrDifferentArgsAndTerms = errors.New("ArgsEqualityCheckEnforcer:different-args-and-terms")

// ArgsEqualityCheckEnforcer requires the redeemer-supplied args to equal
// the signature-committed terms byte-for-byte. It never inspects the
// execution, so every mode is supported. Mismatches are logged with both
// byte strings so off-chain tooling can diff them.
type ArgsEqualityCheckEnforcer struct {
	noHooks
	logger *zap.Logger
}

func NewArgsEqualityCheckEnforcer(logger *zap.Logger) *ArgsEqualityCheckEnforcer {
	return &ArgsEqualityCheckEnforcer{logger: logger}
}

func (e *ArgsEqualityCheckEnforcer) BeforeHook(_ context.Context, req HookRequest) error {
	if bytes.Equal(req.Args, req.Terms) {
		return nil
	}

	e.logger.Warn("Args and terms differ",
		zap.String("delegation_hash", req.DelegationHash.Hex()),
		zap.String("terms", hexutil.Encode(req.Terms)),
		zap.String("args", hexutil.Encode(req.Args)),
	)
	return ErrDifferentArgsAndTerms
}
