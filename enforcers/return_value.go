package enforcers

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/cyphera/delegation-core/chainstate"
	"github.com/cyphera/delegation-core/execution"
)

var (
	ErrReturnValueTermsLength  = errors.New("ReturnValueEnforcer:invalid-terms-length")
	ErrReturnValueOperator     = errors.New("ReturnValueEnforcer:invalid-operator")
	ErrReturnValueType         = errors.New("ReturnValueEnforcer:invalid-value-type")
	ErrReturnValueReturnLength = errors.New("ReturnValueEnforcer:invalid-return-length")
	ErrReturnValueEqual        = errors.New("ReturnValueEnforcer:equal")
	ErrReturnValueLt           = errors.New("ReturnValueEnforcer:lt")
	ErrReturnValueGt           = errors.New("ReturnValueEnforcer:gt")
)

// CompareOp selects the comparison applied to the observed return value.
type CompareOp byte

const (
	CompareEQ CompareOp = iota
	CompareNEQ
	CompareGTE
	CompareLTE
)

// ReturnValueType declares how the 32-byte return word is interpreted.
type ReturnValueType byte

const (
	ReturnUint256 ReturnValueType = iota
	ReturnInt256
	ReturnUint128
	ReturnInt128
	ReturnBool
)

// Minimum terms: target(20) | operator(1) | valueType(1) | expected(32).
// Anything beyond is the view calldata (may be empty).
const returnValueTermsMinLength = 54

// ReturnValueEnforcer gates redemption on the result of an arbitrary view
// call: the terms name a target, a calldata, a typed expected word and a
// comparison operator. The call is made fresh on every pre-hook.
type ReturnValueEnforcer struct {
	noHooks
	chain chainstate.ChainView
}

func NewReturnValueEnforcer(chain chainstate.ChainView) *ReturnValueEnforcer {
	return &ReturnValueEnforcer{chain: chain}
}

// ReturnValueTerms is the decoded view-call comparison.
type ReturnValueTerms struct {
	Target   common.Address
	Op       CompareOp
	Type     ReturnValueType
	Expected *uint256.Int
	CallData []byte
}

// DecodeReturnValueTerms parses
// target(20) | operator(1) | valueType(1) | expected(32) | calldata(rest).
func DecodeReturnValueTerms(terms []byte) (ReturnValueTerms, error) {
	if len(terms) < returnValueTermsMinLength {
		return ReturnValueTerms{}, ErrReturnValueTermsLength
	}
	info := ReturnValueTerms{
		Target:   common.BytesToAddress(terms[:20]),
		Op:       CompareOp(terms[20]),
		Type:     ReturnValueType(terms[21]),
		Expected: new(uint256.Int).SetBytes(terms[22:54]),
		CallData: terms[54:],
	}
	if info.Op > CompareLTE {
		return ReturnValueTerms{}, ErrReturnValueOperator
	}
	if info.Type > ReturnBool {
		return ReturnValueTerms{}, ErrReturnValueType
	}
	return info, nil
}

func (e *ReturnValueEnforcer) BeforeHook(ctx context.Context, req HookRequest) error {
	if err := execution.RequireSingleDefault(req.Mode); err != nil {
		return err
	}
	info, err := DecodeReturnValueTerms(req.Terms)
	if err != nil {
		return err
	}

	result, err := e.chain.StaticCall(ctx, info.Target, info.CallData)
	if err != nil {
		return err
	}
	if len(result) < 32 {
		return ErrReturnValueReturnLength
	}
	actual := new(uint256.Int).SetBytes(result[:32])

	cmp, err := compareTyped(actual, info.Expected, info.Type)
	if err != nil {
		return err
	}

	switch info.Op {
	case CompareEQ:
		if cmp < 0 {
			return ErrReturnValueLt
		}
		if cmp > 0 {
			return ErrReturnValueGt
		}
	case CompareNEQ:
		if cmp == 0 {
			return ErrReturnValueEqual
		}
	case CompareGTE:
		if cmp < 0 {
			return ErrReturnValueLt
		}
	case CompareLTE:
		if cmp > 0 {
			return ErrReturnValueGt
		}
	}
	return nil
}

// compareTyped orders actual against expected under the declared value
// type. Signed types compare as two's complement. 128-bit types reject
// words outside their range instead of comparing them as 256-bit values.
func compareTyped(actual, expected *uint256.Int, valueType ReturnValueType) (int, error) {
	switch valueType {
	case ReturnUint256:
		return actual.Cmp(expected), nil
	case ReturnUint128:
		if actual.BitLen() > 128 || expected.BitLen() > 128 {
			return 0, ErrReturnValueType
		}
		return actual.Cmp(expected), nil
	case ReturnInt256, ReturnInt128:
		if valueType == ReturnInt128 && (!fitsInt128(actual) || !fitsInt128(expected)) {
			return 0, ErrReturnValueType
		}
		if actual.Eq(expected) {
			return 0, nil
		}
		if actual.Slt(expected) {
			return -1, nil
		}
		return 1, nil
	case ReturnBool:
		if actual.GtUint64(1) {
			return 0, ErrReturnValueType
		}
		return actual.Cmp(expected), nil
	default:
		return 0, ErrReturnValueType
	}
}

// fitsInt128 reports whether the 256-bit two's complement word encodes a
// value representable as int128: the top 129 bits must all be copies of
// the sign bit.
func fitsInt128(word *uint256.Int) bool {
	high := new(uint256.Int).SRsh(word, 127)
	return high.IsZero() || high.Eq(new(uint256.Int).SetAllOne())
}
