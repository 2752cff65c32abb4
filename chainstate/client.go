package chainstate

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/cyphera/delegation-core/logger"
)

// balanceOf(address) - shared by ERC20 and ERC721.
var balanceOfSelector = [4]byte{0x70, 0xa0, 0x82, 0x31}

// Config holds the RPC connection settings.
type Config struct {
	RPCURL string
}

// ConfigFromEnv reads the RPC endpoint from DELEGATION_RPC_URL.
func ConfigFromEnv() Config {
	return Config{
		RPCURL: os.Getenv("DELEGATION_RPC_URL"),
	}
}

// Client is the ethclient-backed ChainView used outside of tests.
type Client struct {
	eth    *ethclient.Client
	logger *zap.Logger
}

// Dial connects to the configured RPC endpoint.
func Dial(ctx context.Context, config Config) (*Client, error) {
	if config.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL not provided")
	}

	eth, err := ethclient.DialContext(ctx, config.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	logger.Info("Connected to chain RPC", zap.String("rpc_url", config.RPCURL))

	return &Client{
		eth:    eth,
		logger: logger.Log,
	}, nil
}

// NewClient wraps an existing ethclient connection.
func NewClient(eth *ethclient.Client) *Client {
	return &Client{
		eth:    eth,
		logger: logger.Log,
	}
}

// BlockNumber returns the current block height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	number, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get block number: %w", err)
	}
	return number, nil
}

// Timestamp returns the latest block's timestamp.
func (c *Client) Timestamp(ctx context.Context) (uint64, error) {
	header, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest header: %w", err)
	}
	return header.Time, nil
}

// ERC20BalanceOf returns the token balance of account.
func (c *Client) ERC20BalanceOf(ctx context.Context, token, account common.Address) (*uint256.Int, error) {
	return c.balanceOf(ctx, token, account)
}

// ERC721BalanceOf returns the number of tokens owned by account.
func (c *Client) ERC721BalanceOf(ctx context.Context, token, account common.Address) (*uint256.Int, error) {
	return c.balanceOf(ctx, token, account)
}

func (c *Client) balanceOf(ctx context.Context, token, account common.Address) (*uint256.Int, error) {
	data := make([]byte, 0, 36)
	data = append(data, balanceOfSelector[:]...)
	data = append(data, common.LeftPadBytes(account.Bytes(), 32)...)

	result, err := c.StaticCall(ctx, token, data)
	if err != nil {
		return nil, err
	}
	if len(result) != 32 {
		return nil, fmt.Errorf("unexpected balanceOf return length %d from %s", len(result), token.Hex())
	}
	return new(uint256.Int).SetBytes(result), nil
}

// StaticCall performs a view call against target at the latest block.
func (c *Client) StaticCall(ctx context.Context, target common.Address, data []byte) ([]byte, error) {
	result, err := c.eth.CallContract(ctx, ethereum.CallMsg{
		To:   &target,
		Data: data,
	}, nil)
	if err != nil {
		c.logger.Debug("Static call failed",
			zap.String("target", target.Hex()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("static call to %s failed: %w", target.Hex(), err)
	}
	return result, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}
