package jsonrpc

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain"
)

// call executes a bound method against the published client.
type call func(ctx context.Context, c chain.Client) (any, error)

// binder decodes positional params and returns the call to execute.
type binder func(p Params) (call, *Error)

var methods = map[string]binder{
	"eth_blockNumber":                         blockNumber,
	"eth_getBalance":                          getBalance,
	"eth_getTransactionCount":                 getTransactionCount,
	"eth_getBlockTransactionCountByHash":      getBlockTransactionCountByHash,
	"eth_getBlockTransactionCountByNumber":    getBlockTransactionCountByNumber,
	"eth_getCode":                             getCode,
	"eth_call":                                ethCall,
	"eth_estimateGas":                         estimateGas,
	"eth_chainId":                             chainID,
	"eth_gasPrice":                            gasPrice,
	"eth_maxPriorityFeePerGas":                maxPriorityFeePerGas,
	"eth_sendRawTransaction":                  sendRawTransaction,
	"eth_getBlockByNumber":                    getBlockByNumber,
	"eth_getBlockByHash":                      getBlockByHash,
	"eth_getTransactionReceipt":               getTransactionReceipt,
	"eth_getBlockReceipts":                    getBlockReceipts,
	"eth_getTransactionByHash":                getTransactionByHash,
	"eth_getTransactionByBlockHashAndIndex":   getTransactionByBlockHashAndIndex,
	"eth_getTransactionByBlockNumberAndIndex": getTransactionByBlockNumberAndIndex,
	"eth_getLogs":                             getLogs,
	"eth_getFilterChanges":                    getFilterChanges,
	"eth_uninstallFilter":                     uninstallFilter,
	"eth_newFilter":                           newFilter,
	"eth_newBlockFilter":                      newBlockFilter,
	"eth_newPendingTransactionFilter":         newPendingTransactionFilter,
	"eth_getStorageAt":                        getStorageAt,
	"eth_coinbase":                            coinbase,
	"eth_syncing":                             syncing,
}

// Methods returns the names of all supported methods, sorted.
func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func blockNumber(_ Params) (call, *Error) {
	return func(ctx context.Context, c chain.Client) (any, error) {
		n, err := c.BlockNumber(ctx)
		if err != nil {
			return nil, err
		}
		return hexutil.Uint64(n), nil
	}, nil
}

func getBalance(p Params) (call, *Error) {
	addr, rpcErr := p.Address(0)
	if rpcErr != nil {
		return nil, rpcErr
	}
	tag, rpcErr := p.BlockTag(1)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		balance, err := c.Balance(ctx, addr, tag)
		if err != nil {
			return nil, err
		}
		return bigQuantity(balance), nil
	}, nil
}

func getTransactionCount(p Params) (call, *Error) {
	addr, rpcErr := p.Address(0)
	if rpcErr != nil {
		return nil, rpcErr
	}
	tag, rpcErr := p.BlockTag(1)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		nonce, err := c.Nonce(ctx, addr, tag)
		if err != nil {
			return nil, err
		}
		return hexutil.Uint64(nonce), nil
	}, nil
}

func getBlockTransactionCountByHash(p Params) (call, *Error) {
	hash, rpcErr := p.Hash(0, "block hash")
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		count, err := c.BlockTransactionCountByHash(ctx, hash)
		if err != nil {
			return nil, err
		}
		return hexutil.Uint64(count), nil
	}, nil
}

func getBlockTransactionCountByNumber(p Params) (call, *Error) {
	tag, rpcErr := p.BlockTag(0)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		count, err := c.BlockTransactionCountByNumber(ctx, tag)
		if err != nil {
			return nil, err
		}
		return hexutil.Uint64(count), nil
	}, nil
}

func getCode(p Params) (call, *Error) {
	addr, rpcErr := p.Address(0)
	if rpcErr != nil {
		return nil, rpcErr
	}
	tag, rpcErr := p.BlockTag(1)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		code, err := c.Code(ctx, addr, tag)
		if err != nil {
			return nil, err
		}
		return hexutil.Bytes(code), nil
	}, nil
}

func ethCall(p Params) (call, *Error) {
	msg, rpcErr := p.CallMsg(0)
	if rpcErr != nil {
		return nil, rpcErr
	}
	tag, rpcErr := p.BlockTag(1)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		out, err := c.Call(ctx, msg, tag)
		if err != nil {
			return nil, err
		}
		return hexutil.Bytes(out), nil
	}, nil
}

func estimateGas(p Params) (call, *Error) {
	msg, rpcErr := p.CallMsg(0)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		gas, err := c.EstimateGas(ctx, msg)
		if err != nil {
			return nil, err
		}
		return hexutil.Uint64(gas), nil
	}, nil
}

func chainID(_ Params) (call, *Error) {
	return func(ctx context.Context, c chain.Client) (any, error) {
		id, err := c.ChainID(ctx)
		if err != nil {
			return nil, err
		}
		return hexutil.Uint64(id), nil
	}, nil
}

func gasPrice(_ Params) (call, *Error) {
	return func(ctx context.Context, c chain.Client) (any, error) {
		price, err := c.GasPrice(ctx)
		if err != nil {
			return nil, err
		}
		return bigQuantity(price), nil
	}, nil
}

func maxPriorityFeePerGas(_ Params) (call, *Error) {
	return func(ctx context.Context, c chain.Client) (any, error) {
		tip, err := c.MaxPriorityFeePerGas(ctx)
		if err != nil {
			return nil, err
		}
		return bigQuantity(tip), nil
	}, nil
}

func sendRawTransaction(p Params) (call, *Error) {
	raw, rpcErr := p.Bytes(0, "raw transaction")
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		return c.SendRawTransaction(ctx, raw)
	}, nil
}

func getBlockByNumber(p Params) (call, *Error) {
	tag, rpcErr := p.BlockTag(0)
	if rpcErr != nil {
		return nil, rpcErr
	}
	fullTx, rpcErr := p.Bool(1)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		return c.BlockByNumber(ctx, tag, fullTx)
	}, nil
}

func getBlockByHash(p Params) (call, *Error) {
	hash, rpcErr := p.Hash(0, "block hash")
	if rpcErr != nil {
		return nil, rpcErr
	}
	fullTx, rpcErr := p.Bool(1)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		return c.BlockByHash(ctx, hash, fullTx)
	}, nil
}

func getTransactionReceipt(p Params) (call, *Error) {
	hash, rpcErr := p.Hash(0, "transaction hash")
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		return c.TransactionReceipt(ctx, hash)
	}, nil
}

func getBlockReceipts(p Params) (call, *Error) {
	tag, rpcErr := p.BlockTag(0)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		return c.BlockReceipts(ctx, tag)
	}, nil
}

func getTransactionByHash(p Params) (call, *Error) {
	hash, rpcErr := p.Hash(0, "transaction hash")
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		return c.TransactionByHash(ctx, hash)
	}, nil
}

func getTransactionByBlockHashAndIndex(p Params) (call, *Error) {
	hash, rpcErr := p.Hash(0, "block hash")
	if rpcErr != nil {
		return nil, rpcErr
	}
	index, rpcErr := p.Uint(1, "transaction index")
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		return c.TransactionByBlockHashAndIndex(ctx, hash, index)
	}, nil
}

func getTransactionByBlockNumberAndIndex(p Params) (call, *Error) {
	tag, rpcErr := p.BlockTag(0)
	if rpcErr != nil {
		return nil, rpcErr
	}
	index, rpcErr := p.Uint(1, "transaction index")
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		return c.TransactionByBlockNumberAndIndex(ctx, tag, index)
	}, nil
}

func getLogs(p Params) (call, *Error) {
	query, rpcErr := p.FilterQuery(0)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		logs, err := c.Logs(ctx, query)
		if err != nil {
			return nil, err
		}
		if logs == nil {
			logs = []types.Log{}
		}
		return logs, nil
	}, nil
}

func getFilterChanges(p Params) (call, *Error) {
	id, rpcErr := p.Uint(0, "filter id")
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		return c.FilterChanges(ctx, id)
	}, nil
}

func uninstallFilter(p Params) (call, *Error) {
	id, rpcErr := p.Uint(0, "filter id")
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		return c.UninstallFilter(ctx, id)
	}, nil
}

func newFilter(p Params) (call, *Error) {
	query, rpcErr := p.FilterQuery(0)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		return filterID(c.NewFilter(ctx, query))
	}, nil
}

func newBlockFilter(_ Params) (call, *Error) {
	return func(ctx context.Context, c chain.Client) (any, error) {
		return filterID(c.NewBlockFilter(ctx))
	}, nil
}

func newPendingTransactionFilter(_ Params) (call, *Error) {
	return func(ctx context.Context, c chain.Client) (any, error) {
		return filterID(c.NewPendingTransactionFilter(ctx))
	}, nil
}

func getStorageAt(p Params) (call, *Error) {
	addr, rpcErr := p.Address(0)
	if rpcErr != nil {
		return nil, rpcErr
	}
	slot, rpcErr := p.Hash(1, "storage slot")
	if rpcErr != nil {
		return nil, rpcErr
	}
	tag, rpcErr := p.BlockTag(2)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return func(ctx context.Context, c chain.Client) (any, error) {
		value, err := c.StorageAt(ctx, addr, slot, tag)
		if err != nil {
			return nil, err
		}
		return common.BytesToHash(value), nil
	}, nil
}

func coinbase(_ Params) (call, *Error) {
	return func(ctx context.Context, c chain.Client) (any, error) {
		return c.Coinbase(ctx)
	}, nil
}

func syncing(_ Params) (call, *Error) {
	return func(ctx context.Context, c chain.Client) (any, error) {
		status, err := c.Syncing(ctx)
		if err != nil {
			return nil, err
		}
		if status == nil {
			return false, nil
		}
		return status, nil
	}, nil
}

func filterID(id uint64, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return hexutil.Uint64(id), nil
}

func bigQuantity(v *big.Int) *hexutil.Big {
	if v == nil {
		return (*hexutil.Big)(new(big.Int))
	}
	return (*hexutil.Big)(v)
}
