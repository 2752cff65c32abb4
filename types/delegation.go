package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// RootAuthority marks a delegation granted directly by the delegator
// rather than re-delegated from another delegation.
var RootAuthority = common.HexToHash("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

// Typed-struct hashes committed to by off-chain signatures. Changing
// either string is a breaking change for every signed delegation.
var (
	delegationTypeHash = crypto.Keccak256Hash(
		[]byte("Delegation(address delegate,address delegator,bytes32 authority,Caveat[] caveats,uint256 salt)"),
	)
	caveatTypeHash = crypto.Keccak256Hash(
		[]byte("Caveat(address enforcer,bytes terms)"),
	)
)

// Caveat is a single policy clause attached to a delegation. Enforcer
// names the policy implementation, Terms its delegator-chosen
// configuration. Args is supplied by the redeemer at call time and is not
// covered by the delegation signature.
type Caveat struct {
	Enforcer common.Address `json:"enforcer"`
	Terms    hexutil.Bytes  `json:"terms"`
	Args     hexutil.Bytes  `json:"args"`
}

// Hash returns the typed-struct hash of the caveat. Args is excluded.
func (c Caveat) Hash() common.Hash {
	return crypto.Keccak256Hash(
		caveatTypeHash.Bytes(),
		common.LeftPadBytes(c.Enforcer.Bytes(), 32),
		crypto.Keccak256(c.Terms),
	)
}

// Delegation is a signed grant from delegator to delegate, constrained by
// an ordered caveat list. Authority chains delegations: RootAuthority for
// a direct grant, otherwise the hash of the parent delegation.
type Delegation struct {
	Delegate  common.Address `json:"delegate"`
	Delegator common.Address `json:"delegator"`
	Authority common.Hash    `json:"authority"`
	Caveats   []Caveat       `json:"caveats"`
	Salt      *uint256.Int   `json:"salt"`
	Signature hexutil.Bytes  `json:"signature"`
}

// Hash returns the delegation's identity hash: the typed-struct hash over
// every field except the signature. Stateful enforcers key their ledgers
// on this value, so it must be stable across processes.
func (d Delegation) Hash() common.Hash {
	caveatHashes := make([]byte, 0, len(d.Caveats)*32)
	for _, caveat := range d.Caveats {
		caveatHashes = append(caveatHashes, caveat.Hash().Bytes()...)
	}

	salt := d.Salt
	if salt == nil {
		salt = uint256.NewInt(0)
	}
	saltWord := salt.Bytes32()

	return crypto.Keccak256Hash(
		delegationTypeHash.Bytes(),
		common.LeftPadBytes(d.Delegate.Bytes(), 32),
		common.LeftPadBytes(d.Delegator.Bytes(), 32),
		d.Authority.Bytes(),
		crypto.Keccak256(caveatHashes),
		saltWord[:],
	)
}
