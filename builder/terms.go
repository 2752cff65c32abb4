// Package builder packs human-level caveat parameters into the canonical
// terms byte layouts the enforcers decode. The layouts here are kept in
// lockstep with the decoders; delegation signatures commit to these exact
// bytes.
package builder

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/cyphera/delegation-core/enforcers"
	"github.com/cyphera/delegation-core/execution"
	"github.com/cyphera/delegation-core/types"
)

// AllowedMethodsTerms concatenates 4-byte selectors.
func AllowedMethodsTerms(selectors ...[4]byte) []byte {
	terms := make([]byte, 0, len(selectors)*4)
	for _, selector := range selectors {
		terms = append(terms, selector[:]...)
	}
	return terms
}

// AllowedTargetsTerms concatenates 20-byte addresses.
func AllowedTargetsTerms(targets ...common.Address) []byte {
	terms := make([]byte, 0, len(targets)*20)
	for _, target := range targets {
		terms = append(terms, target.Bytes()...)
	}
	return terms
}

// ExactCalldataTerms is the expected calldata itself.
func ExactCalldataTerms(callData []byte) []byte {
	terms := make([]byte, len(callData))
	copy(terms, callData)
	return terms
}

// ExactExecutionBatchTerms ABI-encodes the expected batch.
func ExactExecutionBatchTerms(executions []types.Execution) ([]byte, error) {
	return execution.EncodeBatch(executions)
}

// ValueLteTerms packs the 32-byte value ceiling.
func ValueLteTerms(ceiling *uint256.Int) []byte {
	word := ceiling.Bytes32()
	return word[:]
}

// BlockNumberTerms packs afterThreshold(uint128) | beforeThreshold(uint128).
// Zero disables a bound.
func BlockNumberTerms(afterThreshold, beforeThreshold uint64) []byte {
	terms := make([]byte, 32)
	binary.BigEndian.PutUint64(terms[8:16], afterThreshold)
	binary.BigEndian.PutUint64(terms[24:32], beforeThreshold)
	return terms
}

// ArgsEqualityTerms is the byte string the redeemer must replay as args.
func ArgsEqualityTerms(value []byte) []byte {
	terms := make([]byte, len(value))
	copy(terms, value)
	return terms
}

// OwnershipTransferTerms packs the permitted contract address.
func OwnershipTransferTerms(contract common.Address) []byte {
	return contract.Bytes()
}

// ERC721TransferTerms packs contract(20) | tokenId(32).
func ERC721TransferTerms(contract common.Address, tokenID *uint256.Int) []byte {
	terms := make([]byte, 0, 52)
	terms = append(terms, contract.Bytes()...)
	word := tokenID.Bytes32()
	return append(terms, word[:]...)
}

// ReturnValueTerms packs
// target(20) | operator(1) | valueType(1) | expected(32) | calldata.
func ReturnValueTerms(target common.Address, op enforcers.CompareOp, valueType enforcers.ReturnValueType, expected *uint256.Int, callData []byte) []byte {
	terms := make([]byte, 0, 54+len(callData))
	terms = append(terms, target.Bytes()...)
	terms = append(terms, byte(op), byte(valueType))
	word := expected.Bytes32()
	terms = append(terms, word[:]...)
	return append(terms, callData...)
}

// PasswordTerms packs the 32-byte committed secret.
func PasswordTerms(secret [32]byte) []byte {
	terms := make([]byte, 32)
	copy(terms, secret[:])
	return terms
}

// NonceTerms packs the 32-byte expected nonce.
func NonceTerms(nonce *uint256.Int) []byte {
	word := nonce.Bytes32()
	return word[:]
}

// BalanceChangeTerms packs flag(1) | token(20) | recipient(20) | amount(32).
func BalanceChangeTerms(enforceDecrease bool, token, recipient common.Address, amount *uint256.Int) []byte {
	terms := make([]byte, 0, 73)
	if enforceDecrease {
		terms = append(terms, 0x01)
	} else {
		terms = append(terms, 0x00)
	}
	terms = append(terms, token.Bytes()...)
	terms = append(terms, recipient.Bytes()...)
	word := amount.Bytes32()
	return append(terms, word[:]...)
}

// MultiOperationTerms packs token(20) | recipient(20) | amount(32).
func MultiOperationTerms(token, recipient common.Address, amount *uint256.Int) []byte {
	terms := make([]byte, 0, 72)
	terms = append(terms, token.Bytes()...)
	terms = append(terms, recipient.Bytes()...)
	word := amount.Bytes32()
	return append(terms, word[:]...)
}

// ReentrancyLockTerms is empty; the lock takes no configuration.
func ReentrancyLockTerms() []byte {
	return []byte{}
}

// PeriodTransferTerms packs
// token(20) | periodAmount(32) | periodDuration(32) | startDate(32).
func PeriodTransferTerms(token common.Address, periodAmount, periodDuration, startDate *uint256.Int) []byte {
	terms := make([]byte, 0, 116)
	terms = append(terms, token.Bytes()...)
	amount := periodAmount.Bytes32()
	terms = append(terms, amount[:]...)
	duration := periodDuration.Bytes32()
	terms = append(terms, duration[:]...)
	start := startDate.Bytes32()
	return append(terms, start[:]...)
}

// TransferAmountTerms packs token(20) | maxTokens(32).
func TransferAmountTerms(token common.Address, maxTokens *uint256.Int) []byte {
	terms := make([]byte, 0, 52)
	terms = append(terms, token.Bytes()...)
	word := maxTokens.Bytes32()
	return append(terms, word[:]...)
}
