// Package fakechain provides an in-memory chain.Client for tests.
package fakechain

import (
	"context"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain/entity"
)

// Client answers every query with the value of the matching field. When Err
// is set every query fails with it; when Panic is set every query panics.
type Client struct {
	StartErr error
	SyncErr  error
	// Started, when set, is called at the beginning of Start.
	Started func(ctx context.Context)

	Err   error
	Panic any
	// OnCall, when set, runs at the start of every query with its name.
	OnCall func(op string)

	Number       uint64
	Block        *entity.Block
	Receipts     []*entity.Receipt
	Receipt      *entity.Receipt
	Tx           *entity.Transaction
	TxCount      uint64
	Wei          *big.Int
	Bytecode     []byte
	Storage      []byte
	TxNonce      uint64
	ID           uint64
	Price        *big.Int
	Tip          *big.Int
	Sync         *entity.SyncStatus
	Miner        common.Address
	TxHash       common.Hash
	Output       []byte
	Gas          uint64
	LogEntries   []types.Log
	Changes      *entity.FilterChanges
	FilterID     uint64
	Uninstalled  bool
	LastCallMsg  ethereum.CallMsg
	LastQuery    ethereum.FilterQuery
	LastRawTx    []byte
	LastFullTx   bool
	LastIndex    uint64
	LastFilterID uint64

	mu     sync.Mutex
	calls  map[string]int
	closed bool
}

var _ chain.Client = (*Client)(nil)

// Calls reports how many times the named operation was invoked.
func (c *Client) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls[op]
}

func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

func (c *Client) count(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[op]++
}

func (c *Client) record(op string) error {
	c.count(op)
	if c.OnCall != nil {
		c.OnCall(op)
	}
	if c.Panic != nil {
		panic(c.Panic)
	}
	return c.Err
}

func respond[T any](c *Client, op string, v T) (T, error) {
	if err := c.record(op); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func (c *Client) Start(ctx context.Context) error {
	c.count("Start")

	if c.Started != nil {
		c.Started(ctx)
	}
	return c.StartErr
}

func (c *Client) WaitSynced(_ context.Context) error {
	c.count("WaitSynced")

	return c.SyncErr
}

func (c *Client) BlockNumber(_ context.Context) (uint64, error) {
	return respond(c, "BlockNumber", c.Number)
}

func (c *Client) BlockByNumber(_ context.Context, _ chain.BlockTag, fullTx bool) (*entity.Block, error) {
	c.LastFullTx = fullTx
	return respond(c, "BlockByNumber", c.Block)
}

func (c *Client) BlockByHash(_ context.Context, _ common.Hash, fullTx bool) (*entity.Block, error) {
	c.LastFullTx = fullTx
	return respond(c, "BlockByHash", c.Block)
}

func (c *Client) BlockTransactionCountByHash(_ context.Context, _ common.Hash) (uint64, error) {
	return respond(c, "BlockTransactionCountByHash", c.TxCount)
}

func (c *Client) BlockTransactionCountByNumber(_ context.Context, _ chain.BlockTag) (uint64, error) {
	return respond(c, "BlockTransactionCountByNumber", c.TxCount)
}

func (c *Client) BlockReceipts(_ context.Context, _ chain.BlockTag) ([]*entity.Receipt, error) {
	return respond(c, "BlockReceipts", c.Receipts)
}

func (c *Client) Balance(_ context.Context, _ common.Address, _ chain.BlockTag) (*big.Int, error) {
	return respond(c, "Balance", c.Wei)
}

func (c *Client) Code(_ context.Context, _ common.Address, _ chain.BlockTag) ([]byte, error) {
	return respond(c, "Code", c.Bytecode)
}

func (c *Client) StorageAt(_ context.Context, _ common.Address, _ common.Hash, _ chain.BlockTag) ([]byte, error) {
	return respond(c, "StorageAt", c.Storage)
}

func (c *Client) Nonce(_ context.Context, _ common.Address, _ chain.BlockTag) (uint64, error) {
	return respond(c, "Nonce", c.TxNonce)
}

func (c *Client) ChainID(_ context.Context) (uint64, error) {
	return respond(c, "ChainID", c.ID)
}

func (c *Client) GasPrice(_ context.Context) (*big.Int, error) {
	return respond(c, "GasPrice", c.Price)
}

func (c *Client) MaxPriorityFeePerGas(_ context.Context) (*big.Int, error) {
	return respond(c, "MaxPriorityFeePerGas", c.Tip)
}

func (c *Client) Syncing(_ context.Context) (*entity.SyncStatus, error) {
	return respond(c, "Syncing", c.Sync)
}

func (c *Client) Coinbase(_ context.Context) (common.Address, error) {
	return respond(c, "Coinbase", c.Miner)
}

func (c *Client) SendRawTransaction(_ context.Context, raw []byte) (common.Hash, error) {
	c.LastRawTx = raw
	return respond(c, "SendRawTransaction", c.TxHash)
}

func (c *Client) TransactionReceipt(_ context.Context, _ common.Hash) (*entity.Receipt, error) {
	return respond(c, "TransactionReceipt", c.Receipt)
}

func (c *Client) TransactionByHash(_ context.Context, _ common.Hash) (*entity.Transaction, error) {
	return respond(c, "TransactionByHash", c.Tx)
}

func (c *Client) TransactionByBlockHashAndIndex(_ context.Context, _ common.Hash, index uint64) (*entity.Transaction, error) {
	c.LastIndex = index
	return respond(c, "TransactionByBlockHashAndIndex", c.Tx)
}

func (c *Client) TransactionByBlockNumberAndIndex(_ context.Context, _ chain.BlockTag, index uint64) (*entity.Transaction, error) {
	c.LastIndex = index
	return respond(c, "TransactionByBlockNumberAndIndex", c.Tx)
}

func (c *Client) Call(_ context.Context, msg ethereum.CallMsg, _ chain.BlockTag) ([]byte, error) {
	c.LastCallMsg = msg
	return respond(c, "Call", c.Output)
}

func (c *Client) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	c.LastCallMsg = msg
	return respond(c, "EstimateGas", c.Gas)
}

func (c *Client) Logs(_ context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	c.LastQuery = query
	return respond(c, "Logs", c.LogEntries)
}

func (c *Client) NewFilter(_ context.Context, query ethereum.FilterQuery) (uint64, error) {
	c.LastQuery = query
	return respond(c, "NewFilter", c.FilterID)
}

func (c *Client) NewBlockFilter(_ context.Context) (uint64, error) {
	return respond(c, "NewBlockFilter", c.FilterID)
}

func (c *Client) NewPendingTransactionFilter(_ context.Context) (uint64, error) {
	return respond(c, "NewPendingTransactionFilter", c.FilterID)
}

func (c *Client) FilterChanges(_ context.Context, id uint64) (*entity.FilterChanges, error) {
	c.LastFilterID = id
	return respond(c, "FilterChanges", c.Changes)
}

func (c *Client) UninstallFilter(_ context.Context, id uint64) (bool, error) {
	c.LastFilterID = id
	return respond(c, "UninstallFilter", c.Uninstalled)
}

// Builder returns a chain.Builder that always hands out c.
func Builder(c *Client) chain.Builder {
	return func(chain.Config) (chain.Client, error) {
		return c, nil
	}
}
