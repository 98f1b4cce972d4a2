package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain/entity"
)

// BlockTag is a symbolic block reference. Only Latest is supported.
type BlockTag string

const Latest BlockTag = `latest`

func ParseBlockTag(s string) (BlockTag, error) {
	if BlockTag(s) != Latest {
		return "", fmt.Errorf("%w: %q, only %q is supported", ErrUnsupportedBlockTag, s, Latest)
	}
	return Latest, nil
}

type Network string

const (
	Mainnet Network = `mainnet`
	Sepolia Network = `sepolia`
	Holesky Network = `holesky`
)

var chainIDs = map[Network]uint64{
	Mainnet: 1,
	Sepolia: 11155111,
	Holesky: 17000,
}

func ParseNetwork(s string) (Network, error) {
	n := Network(strings.ToLower(s))
	if _, ok := chainIDs[n]; !ok {
		return "", fmt.Errorf("unknown network %q", s)
	}
	return n, nil
}

func (n Network) ChainID() uint64 {
	return chainIDs[n]
}

var (
	ErrUnsupportedBlockTag = errors.New("unsupported block tag")
	ErrFilterNotFound      = errors.New("filter not found")
	ErrChainIDMismatch     = errors.New("chain id mismatch")
	ErrNotStarted          = errors.New("client is not started")
)

type Config struct {
	Network         Network
	ExecutionRPC    string
	ConsensusRPC    string
	DataDir         string
	SyncPollPeriod  time.Duration
	MaxCallAttempts uint
}

// Client is a light client instance. Start and WaitSynced are called once,
// in that order, before any query is served.
type Client interface {
	Start(ctx context.Context) error
	WaitSynced(ctx context.Context) error

	BlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, tag BlockTag, fullTx bool) (*entity.Block, error)
	BlockByHash(ctx context.Context, hash common.Hash, fullTx bool) (*entity.Block, error)
	BlockTransactionCountByHash(ctx context.Context, hash common.Hash) (uint64, error)
	BlockTransactionCountByNumber(ctx context.Context, tag BlockTag) (uint64, error)
	BlockReceipts(ctx context.Context, tag BlockTag) ([]*entity.Receipt, error)

	Balance(ctx context.Context, addr common.Address, tag BlockTag) (*big.Int, error)
	Code(ctx context.Context, addr common.Address, tag BlockTag) ([]byte, error)
	StorageAt(ctx context.Context, addr common.Address, slot common.Hash, tag BlockTag) ([]byte, error)
	Nonce(ctx context.Context, addr common.Address, tag BlockTag) (uint64, error)

	ChainID(ctx context.Context) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	MaxPriorityFeePerGas(ctx context.Context) (*big.Int, error)
	Syncing(ctx context.Context) (*entity.SyncStatus, error)
	Coinbase(ctx context.Context) (common.Address, error)

	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*entity.Receipt, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (*entity.Transaction, error)
	TransactionByBlockHashAndIndex(ctx context.Context, hash common.Hash, index uint64) (*entity.Transaction, error)
	TransactionByBlockNumberAndIndex(ctx context.Context, tag BlockTag, index uint64) (*entity.Transaction, error)

	Call(ctx context.Context, msg ethereum.CallMsg, tag BlockTag) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)

	Logs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
	NewFilter(ctx context.Context, query ethereum.FilterQuery) (uint64, error)
	NewBlockFilter(ctx context.Context) (uint64, error)
	NewPendingTransactionFilter(ctx context.Context) (uint64, error)
	FilterChanges(ctx context.Context, id uint64) (*entity.FilterChanges, error)
	UninstallFilter(ctx context.Context, id uint64) (bool, error)
}

// Builder constructs a client that has not been started yet.
type Builder func(cfg Config) (Client, error)
