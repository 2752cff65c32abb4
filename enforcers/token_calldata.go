package enforcers

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Selectors of the transfer-family methods the token enforcers scope.
var (
	// transfer(address,uint256)
	erc20TransferSelector = [4]byte{0xa9, 0x05, 0x9c, 0xbb}
	// transferFrom(address,address,uint256)
	erc721TransferFromSelector = [4]byte{0x23, 0xb8, 0x72, 0xdd}
	// transferOwnership(address)
	transferOwnershipSelector = [4]byte{0xf2, 0xfd, 0xe3, 0x8b}
)

const (
	erc20TransferCallDataLength      = 68
	erc721TransferFromCallDataLength = 100
	transferOwnershipCallDataLength  = 36
)

// decodeERC20Transfer splits transfer(address,uint256) calldata into its
// recipient and amount. ok is false when the calldata is not a
// well-formed transfer call.
func decodeERC20Transfer(callData []byte) (recipient common.Address, amount *uint256.Int, ok bool) {
	if len(callData) != erc20TransferCallDataLength {
		return common.Address{}, nil, false
	}
	var selector [4]byte
	copy(selector[:], callData[:4])
	if selector != erc20TransferSelector {
		return common.Address{}, nil, false
	}
	recipient = common.BytesToAddress(callData[16:36])
	amount = new(uint256.Int).SetBytes(callData[36:68])
	return recipient, amount, true
}

// decodeERC721TransferFrom splits transferFrom(address,address,uint256)
// calldata into sender, recipient and token id.
func decodeERC721TransferFrom(callData []byte) (from, to common.Address, tokenID *uint256.Int, ok bool) {
	if len(callData) != erc721TransferFromCallDataLength {
		return common.Address{}, common.Address{}, nil, false
	}
	var selector [4]byte
	copy(selector[:], callData[:4])
	if selector != erc721TransferFromSelector {
		return common.Address{}, common.Address{}, nil, false
	}
	from = common.BytesToAddress(callData[16:36])
	to = common.BytesToAddress(callData[48:68])
	tokenID = new(uint256.Int).SetBytes(callData[68:100])
	return from, to, tokenID, true
}
