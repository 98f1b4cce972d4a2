package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lidofinance/lightclient-gateway/internal/connectors/metrics"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain/entity"
)

const MaxAttempts = 6
const RetryDelay = 75 * time.Millisecond
const MaxDelay = 5 * time.Second
const DefaultSyncPollPeriod = 12 * time.Second

// chain serves light client queries from an execution node, using a beacon
// node to decide when the client is synced.
type chain struct {
	cfg        Config
	httpClient *http.Client
	metrics    *metrics.Store
	log        *slog.Logger

	mu  sync.RWMutex
	rpc *rpc.Client
	eth *ethclient.Client

	filters *filterTable
}

func NewBuilder(httpClient *http.Client, metricsStore *metrics.Store, log *slog.Logger) Builder {
	return func(cfg Config) (Client, error) {
		return NewChain(cfg, httpClient, metricsStore, log)
	}
}

func NewChain(cfg Config, httpClient *http.Client, metricsStore *metrics.Store, log *slog.Logger) (*chain, error) {
	if cfg.ExecutionRPC == "" {
		return nil, errors.New("execution rpc url is not set")
	}
	if _, ok := chainIDs[cfg.Network]; !ok {
		return nil, fmt.Errorf("unknown network %q", cfg.Network)
	}
	if cfg.SyncPollPeriod <= 0 {
		cfg.SyncPollPeriod = DefaultSyncPollPeriod
	}
	if cfg.MaxCallAttempts == 0 {
		cfg.MaxCallAttempts = MaxAttempts
	}

	return &chain{
		cfg:        cfg,
		httpClient: httpClient,
		metrics:    metricsStore,
		log:        log,
		filters:    newFilterTable(FilterTimeout),
	}, nil
}

func (c *chain) Start(ctx context.Context) error {
	rpcClient, err := rpc.DialOptions(ctx, c.cfg.ExecutionRPC, rpc.WithHTTPClient(c.httpClient))
	if err != nil {
		return fmt.Errorf("could not dial execution rpc: %w", err)
	}
	ethClient := ethclient.NewClient(rpcClient)

	chainID, err := doCall(ctx, c, "eth_chainId", true, func(ctx context.Context) (*big.Int, error) {
		return ethClient.ChainID(ctx)
	})
	if err != nil {
		rpcClient.Close()
		return fmt.Errorf("could not fetch chain id: %w", err)
	}

	if want := c.cfg.Network.ChainID(); chainID.Uint64() != want {
		rpcClient.Close()
		return fmt.Errorf("%w: execution rpc reports %s, %s expects %d", ErrChainIDMismatch, chainID, c.cfg.Network, want)
	}

	c.mu.Lock()
	c.rpc, c.eth = rpcClient, ethClient
	c.mu.Unlock()

	if checkpoint, ok := c.readCheckpoint(); ok {
		block, blockErr := c.BlockByHash(ctx, checkpoint, false)
		switch {
		case blockErr != nil:
			c.log.Warn("could not verify checkpoint", slog.String("checkpoint", checkpoint.Hex()), slog.String("error", blockErr.Error()))
		case block == nil:
			c.log.Warn("checkpoint is unknown to the execution node", slog.String("checkpoint", checkpoint.Hex()))
		default:
			c.log.Info("checkpoint verified", slog.String("checkpoint", checkpoint.Hex()), slog.Uint64("number", block.GetNumber()))
		}
	}

	c.log.Info(fmt.Sprintf(`light client started on %s`, c.cfg.Network), slog.Uint64("chainId", chainID.Uint64()))
	return nil
}

func (c *chain) WaitSynced(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.SyncPollPeriod)
	defer ticker.Stop()

	for {
		synced, err := c.synced(ctx)
		if err != nil {
			c.log.Warn(fmt.Sprintf("sync status error: %v", err))
		}
		if synced {
			if latest, latestErr := c.BlockByNumber(ctx, Latest, false); latestErr == nil && latest != nil {
				c.writeCheckpoint(latest.Hash)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for sync: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *chain) synced(ctx context.Context) (bool, error) {
	if c.cfg.ConsensusRPC != "" {
		status, err := c.consensusSyncing(ctx)
		if err != nil {
			return false, err
		}
		if status.Data.IsSyncing {
			c.log.Info("consensus node is syncing",
				slog.String("headSlot", status.Data.HeadSlot),
				slog.String("syncDistance", status.Data.SyncDistance))
			return false, nil
		}
	}

	progress, err := c.Syncing(ctx)
	if err != nil {
		return false, err
	}
	if progress != nil {
		c.log.Info("execution node is syncing",
			slog.Uint64("currentBlock", uint64(progress.CurrentBlock)),
			slog.Uint64("highestBlock", uint64(progress.HighestBlock)))
		return false, nil
	}

	return true, nil
}

func (c *chain) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rpc != nil {
		c.rpc.Close()
		c.rpc, c.eth = nil, nil
	}
	return nil
}

func (c *chain) clients() (*rpc.Client, *ethclient.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.rpc == nil {
		return nil, nil, ErrNotStarted
	}
	return c.rpc, c.eth, nil
}

// doCall runs fn with upstream latency metrics. Idempotent calls are retried
// on transport failures; JSON-RPC errors returned by the node are final.
func doCall[T any](ctx context.Context, c *chain, method string, idempotent bool, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := c.cfg.MaxCallAttempts
	if !idempotent {
		attempts = 1
	}

	return retry.DoWithData(
		func() (T, error) {
			start := time.Now()
			defer func() {
				c.metrics.UpstreamDuration.With(prometheus.Labels{metrics.Method: method}).Observe(time.Since(start).Seconds())
			}()

			return fn(ctx)
		},
		retry.Attempts(attempts),
		retry.Delay(RetryDelay),
		retry.MaxDelay(MaxDelay),
		retry.DelayType(retry.CombineDelay(
			retry.BackOffDelay,
			retry.RandomDelay,
		)),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
}

func isTransient(err error) bool {
	var rpcErr rpc.Error
	switch {
	case errors.As(err, &rpcErr),
		errors.Is(err, ethereum.NotFound),
		errors.Is(err, ErrNotStarted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// callRaw performs a JSON-RPC call for results whose wire shape ethclient
// does not expose.
func callRaw[T any](ctx context.Context, c *chain, method string, idempotent bool, args ...any) (T, error) {
	return doCall(ctx, c, method, idempotent, func(ctx context.Context) (T, error) {
		var result T
		rpcClient, _, err := c.clients()
		if err != nil {
			return result, err
		}
		err = rpcClient.CallContext(ctx, &result, method, args...)
		return result, err
	})
}

func callEth[T any](ctx context.Context, c *chain, method string, fn func(ctx context.Context, eth *ethclient.Client) (T, error)) (T, error) {
	return doCall(ctx, c, method, true, func(ctx context.Context) (T, error) {
		var zero T
		_, ethClient, err := c.clients()
		if err != nil {
			return zero, err
		}
		return fn(ctx, ethClient)
	})
}

// blockNumberArg maps a tag to ethclient's block argument, where nil means latest.
func blockNumberArg(_ BlockTag) *big.Int {
	return nil
}

func (c *chain) BlockNumber(ctx context.Context) (uint64, error) {
	return callEth(ctx, c, "eth_blockNumber", func(ctx context.Context, eth *ethclient.Client) (uint64, error) {
		return eth.BlockNumber(ctx)
	})
}

func (c *chain) BlockByNumber(ctx context.Context, tag BlockTag, fullTx bool) (*entity.Block, error) {
	return callRaw[*entity.Block](ctx, c, "eth_getBlockByNumber", true, string(tag), fullTx)
}

func (c *chain) BlockByHash(ctx context.Context, hash common.Hash, fullTx bool) (*entity.Block, error) {
	return callRaw[*entity.Block](ctx, c, "eth_getBlockByHash", true, hash, fullTx)
}

func (c *chain) BlockTransactionCountByHash(ctx context.Context, hash common.Hash) (uint64, error) {
	count, err := callRaw[*hexutil.Uint64](ctx, c, "eth_getBlockTransactionCountByHash", true, hash)
	if err != nil {
		return 0, err
	}
	if count == nil {
		return 0, fmt.Errorf("block %s: %w", hash.Hex(), ethereum.NotFound)
	}
	return uint64(*count), nil
}

func (c *chain) BlockTransactionCountByNumber(ctx context.Context, tag BlockTag) (uint64, error) {
	count, err := callRaw[*hexutil.Uint64](ctx, c, "eth_getBlockTransactionCountByNumber", true, string(tag))
	if err != nil {
		return 0, err
	}
	if count == nil {
		return 0, fmt.Errorf("block %s: %w", tag, ethereum.NotFound)
	}
	return uint64(*count), nil
}

func (c *chain) BlockReceipts(ctx context.Context, tag BlockTag) ([]*entity.Receipt, error) {
	return callRaw[[]*entity.Receipt](ctx, c, "eth_getBlockReceipts", true, string(tag))
}

func (c *chain) Balance(ctx context.Context, addr common.Address, tag BlockTag) (*big.Int, error) {
	return callEth(ctx, c, "eth_getBalance", func(ctx context.Context, eth *ethclient.Client) (*big.Int, error) {
		return eth.BalanceAt(ctx, addr, blockNumberArg(tag))
	})
}

func (c *chain) Code(ctx context.Context, addr common.Address, tag BlockTag) ([]byte, error) {
	return callEth(ctx, c, "eth_getCode", func(ctx context.Context, eth *ethclient.Client) ([]byte, error) {
		return eth.CodeAt(ctx, addr, blockNumberArg(tag))
	})
}

func (c *chain) StorageAt(ctx context.Context, addr common.Address, slot common.Hash, tag BlockTag) ([]byte, error) {
	return callEth(ctx, c, "eth_getStorageAt", func(ctx context.Context, eth *ethclient.Client) ([]byte, error) {
		return eth.StorageAt(ctx, addr, slot, blockNumberArg(tag))
	})
}

func (c *chain) Nonce(ctx context.Context, addr common.Address, tag BlockTag) (uint64, error) {
	return callEth(ctx, c, "eth_getTransactionCount", func(ctx context.Context, eth *ethclient.Client) (uint64, error) {
		return eth.NonceAt(ctx, addr, blockNumberArg(tag))
	})
}

func (c *chain) ChainID(ctx context.Context) (uint64, error) {
	id, err := callEth(ctx, c, "eth_chainId", func(ctx context.Context, eth *ethclient.Client) (*big.Int, error) {
		return eth.ChainID(ctx)
	})
	if err != nil {
		return 0, err
	}
	return id.Uint64(), nil
}

func (c *chain) GasPrice(ctx context.Context) (*big.Int, error) {
	return callEth(ctx, c, "eth_gasPrice", func(ctx context.Context, eth *ethclient.Client) (*big.Int, error) {
		return eth.SuggestGasPrice(ctx)
	})
}

func (c *chain) MaxPriorityFeePerGas(ctx context.Context) (*big.Int, error) {
	return callEth(ctx, c, "eth_maxPriorityFeePerGas", func(ctx context.Context, eth *ethclient.Client) (*big.Int, error) {
		return eth.SuggestGasTipCap(ctx)
	})
}

func (c *chain) Syncing(ctx context.Context) (*entity.SyncStatus, error) {
	progress, err := callEth(ctx, c, "eth_syncing", func(ctx context.Context, eth *ethclient.Client) (*ethereum.SyncProgress, error) {
		return eth.SyncProgress(ctx)
	})
	if err != nil {
		return nil, err
	}
	return entity.NewSyncStatus(progress), nil
}

// Coinbase reports the fee recipient of the latest block.
func (c *chain) Coinbase(ctx context.Context) (common.Address, error) {
	header, err := callEth(ctx, c, "eth_getBlockByNumber", func(ctx context.Context, eth *ethclient.Client) (*types.Header, error) {
		return eth.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		return common.Address{}, err
	}
	return header.Coinbase, nil
}

func (c *chain) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	return callRaw[common.Hash](ctx, c, "eth_sendRawTransaction", false, hexutil.Bytes(raw))
}

func (c *chain) TransactionReceipt(ctx context.Context, hash common.Hash) (*entity.Receipt, error) {
	return callRaw[*entity.Receipt](ctx, c, "eth_getTransactionReceipt", true, hash)
}

func (c *chain) TransactionByHash(ctx context.Context, hash common.Hash) (*entity.Transaction, error) {
	return callRaw[*entity.Transaction](ctx, c, "eth_getTransactionByHash", true, hash)
}

func (c *chain) TransactionByBlockHashAndIndex(ctx context.Context, hash common.Hash, index uint64) (*entity.Transaction, error) {
	return callRaw[*entity.Transaction](ctx, c, "eth_getTransactionByBlockHashAndIndex", true, hash, hexutil.Uint64(index))
}

func (c *chain) TransactionByBlockNumberAndIndex(ctx context.Context, tag BlockTag, index uint64) (*entity.Transaction, error) {
	return callRaw[*entity.Transaction](ctx, c, "eth_getTransactionByBlockNumberAndIndex", true, string(tag), hexutil.Uint64(index))
}

func (c *chain) Call(ctx context.Context, msg ethereum.CallMsg, tag BlockTag) ([]byte, error) {
	return callEth(ctx, c, "eth_call", func(ctx context.Context, eth *ethclient.Client) ([]byte, error) {
		return eth.CallContract(ctx, msg, blockNumberArg(tag))
	})
}

func (c *chain) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return callEth(ctx, c, "eth_estimateGas", func(ctx context.Context, eth *ethclient.Client) (uint64, error) {
		return eth.EstimateGas(ctx, msg)
	})
}

func (c *chain) Logs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return callEth(ctx, c, "eth_getLogs", func(ctx context.Context, eth *ethclient.Client) ([]types.Log, error) {
		return eth.FilterLogs(ctx, query)
	})
}
