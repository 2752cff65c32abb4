package builder

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/cyphera/delegation-core/types"
)

// NewCaveat binds terms to an enforcer address with empty args.
func NewCaveat(enforcer common.Address, terms []byte) types.Caveat {
	return types.Caveat{
		Enforcer: enforcer,
		Terms:    terms,
		Args:     []byte{},
	}
}

// NewCaveatWithArgs binds terms to an enforcer with redeemer args
// prefilled. Args are not covered by the delegation signature and may be
// replaced at redemption time.
func NewCaveatWithArgs(enforcer common.Address, terms, args []byte) types.Caveat {
	return types.Caveat{
		Enforcer: enforcer,
		Terms:    terms,
		Args:     args,
	}
}

// NewRootDelegation builds an unsigned delegation granted directly by the
// delegator.
func NewRootDelegation(delegate, delegator common.Address, caveats []types.Caveat, salt *uint256.Int) types.Delegation {
	return types.Delegation{
		Delegate:  delegate,
		Delegator: delegator,
		Authority: types.RootAuthority,
		Caveats:   caveats,
		Salt:      salt,
		Signature: []byte{},
	}
}

// NewDelegation builds an unsigned delegation chained from a parent
// delegation's hash.
func NewDelegation(delegate, delegator common.Address, authority common.Hash, caveats []types.Caveat, salt *uint256.Int) types.Delegation {
	return types.Delegation{
		Delegate:  delegate,
		Delegator: delegator,
		Authority: authority,
		Caveats:   caveats,
		Salt:      salt,
		Signature: []byte{},
	}
}

// ERC20TransferCallData builds transfer(address,uint256) calldata.
func ERC20TransferCallData(recipient common.Address, amount *uint256.Int) []byte {
	callData := make([]byte, 0, 68)
	callData = append(callData, 0xa9, 0x05, 0x9c, 0xbb)
	callData = append(callData, common.LeftPadBytes(recipient.Bytes(), 32)...)
	word := amount.Bytes32()
	return append(callData, word[:]...)
}

// ERC721TransferFromCallData builds transferFrom(address,address,uint256)
// calldata.
func ERC721TransferFromCallData(from, to common.Address, tokenID *uint256.Int) []byte {
	callData := make([]byte, 0, 100)
	callData = append(callData, 0x23, 0xb8, 0x72, 0xdd)
	callData = append(callData, common.LeftPadBytes(from.Bytes(), 32)...)
	callData = append(callData, common.LeftPadBytes(to.Bytes(), 32)...)
	word := tokenID.Bytes32()
	return append(callData, word[:]...)
}

// TransferOwnershipCallData builds transferOwnership(address) calldata.
func TransferOwnershipCallData(newOwner common.Address) []byte {
	callData := make([]byte, 0, 36)
	callData = append(callData, 0xf2, 0xfd, 0xe3, 0x8b)
	return append(callData, common.LeftPadBytes(newOwner.Bytes(), 32)...)
}
