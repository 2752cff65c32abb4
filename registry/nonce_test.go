package registry_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/cyphera/delegation-core/logger"
	"github.com/cyphera/delegation-core/registry"
	"github.com/cyphera/delegation-core/state"
)

func init() {
	logger.InitLogger("test")
}

var (
	manager   = common.HexToAddress("0x1000000000000000000000000000000000000001")
	delegator = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

func newRegistry() *registry.NonceRegistry {
	return registry.NewNonceRegistry(state.NewMemStore(), logger.Log)
}

func TestNonceRegistry_StartsAtZero(t *testing.T) {
	reg := newRegistry()
	assert.True(t, reg.CurrentNonce(manager, delegator).IsZero())
}

func TestNonceRegistry_IncrementAdvancesByExactlyOne(t *testing.T) {
	reg := newRegistry()

	next := reg.IncrementNonce(manager, delegator)
	assert.Equal(t, uint256.NewInt(1), next)
	assert.Equal(t, uint256.NewInt(1), reg.CurrentNonce(manager, delegator))

	reg.IncrementNonce(manager, delegator)
	assert.Equal(t, uint256.NewInt(2), reg.CurrentNonce(manager, delegator))
}

func TestNonceRegistry_ScopedPerCallerAndDelegator(t *testing.T) {
	reg := newRegistry()
	otherManager := common.HexToAddress("0x9")
	otherDelegator := common.HexToAddress("0x8")

	reg.IncrementNonce(manager, delegator)

	assert.True(t, reg.CurrentNonce(otherManager, delegator).IsZero())
	assert.True(t, reg.CurrentNonce(manager, otherDelegator).IsZero())
}

func TestNonceKey_Formula(t *testing.T) {
	expected := crypto.Keccak256Hash([]byte("NonceRegistry"), manager.Bytes(), delegator.Bytes())
	assert.Equal(t, expected, registry.NonceKey(manager, delegator))
}
