package enforcers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cyphera/delegation-core/execution"
)

var (
	ErrAllowedMethodsTermsLength = errors.New("AllowedMethodsEnforcer:invalid-terms-length")
	ErrMethodNotAllowed          = errors.New("AllowedMethodsEnforcer:method-not-allowed")
)

// AllowedMethodsEnforcer limits the delegate to a fixed set of function
// selectors. Terms are the concatenated 4-byte selectors; an empty list
// is rejected at decode time, so it can never accidentally allow
// everything.
type AllowedMethodsEnforcer struct {
	noHooks
}

func NewAllowedMethodsEnforcer() *AllowedMethodsEnforcer {
	return &AllowedMethodsEnforcer{}
}

// AllowedMethodsTerms is the decoded selector list.
type AllowedMethodsTerms struct {
	Selectors [][4]byte
}

// DecodeAllowedMethodsTerms parses terms as a packed list of 4-byte
// selectors. The length must be a positive multiple of 4.
func DecodeAllowedMethodsTerms(terms []byte) (AllowedMethodsTerms, error) {
	if len(terms) == 0 || len(terms)%4 != 0 {
		return AllowedMethodsTerms{}, ErrAllowedMethodsTermsLength
	}
	selectors := make([][4]byte, 0, len(terms)/4)
	for i := 0; i < len(terms); i += 4 {
		var selector [4]byte
		copy(selector[:], terms[i:i+4])
		selectors = append(selectors, selector)
	}
	return AllowedMethodsTerms{Selectors: selectors}, nil
}

func (e *AllowedMethodsEnforcer) BeforeHook(_ context.Context, req HookRequest) error {
	if err := execution.RequireSingleDefault(req.Mode); err != nil {
		return err
	}
	info, err := DecodeAllowedMethodsTerms(req.Terms)
	if err != nil {
		return err
	}
	exec, err := execution.DecodeSingle(req.ExecutionCallData)
	if err != nil {
		return err
	}

	selector, ok := exec.Selector()
	if !ok {
		return ErrMethodNotAllowed
	}
	for _, allowed := range info.Selectors {
		if selector == allowed {
			return nil
		}
	}
	return ErrMethodNotAllowed
}
