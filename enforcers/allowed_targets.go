package enforcers

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/cyphera/delegation-core/execution"
)

var (
	ErrAllowedTargetsTermsLength = errors.New("AllowedTargetsEnforcer:invalid-terms-length")
	ErrTargetNotAllowed          = errors.New("AllowedTargetsEnforcer:target-address-not-allowed")
)

// AllowedTargetsEnforcer limits the delegate to a fixed set of call
// targets. Terms are the concatenated 20-byte addresses.
type AllowedTargetsEnforcer struct {
	noHooks
}

func NewAllowedTargetsEnforcer() *AllowedTargetsEnforcer {
	return &AllowedTargetsEnforcer{}
}

// AllowedTargetsTerms is the decoded target list.
type AllowedTargetsTerms struct {
	Targets []common.Address
}

// DecodeAllowedTargetsTerms parses terms as a packed list of addresses.
// The length must be a positive multiple of 20.
func DecodeAllowedTargetsTerms(terms []byte) (AllowedTargetsTerms, error) {
	if len(terms) == 0 || len(terms)%20 != 0 {
		return AllowedTargetsTerms{}, ErrAllowedTargetsTermsLength
	}
	targets := make([]common.Address, 0, len(terms)/20)
	for i := 0; i < len(terms); i += 20 {
		targets = append(targets, common.BytesToAddress(terms[i:i+20]))
	}
	return AllowedTargetsTerms{Targets: targets}, nil
}

func (e *AllowedTargetsEnforcer) BeforeHook(_ context.Context, req HookRequest) error {
	if err := execution.RequireSingleDefault(req.Mode); err != nil {
		return err
	}
	info, err := DecodeAllowedTargetsTerms(req.Terms)
	if err != nil {
		return err
	}
	exec, err := execution.DecodeSingle(req.ExecutionCallData)
	if err != nil {
		return err
	}

	for _, allowed := range info.Targets {
		if exec.Target == allowed {
			return nil
		}
	}
	return ErrTargetNotAllowed
}
