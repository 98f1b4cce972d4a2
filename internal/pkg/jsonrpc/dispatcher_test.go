package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/lidofinance/lightclient-gateway/internal/connectors/metrics"
	"github.com/lidofinance/lightclient-gateway/internal/fakechain"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain/entity"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/lifecycle"
)

const (
	testAddress = `0x00000000219ab540356cbb839cbe05303d7705fa`
	testHash    = `0x8d8c264c807984dc36f419759d2d02dde5d7805e18d6da5e6530123101d7b0e6`
	zeroSlot    = `0x0000000000000000000000000000000000000000000000000000000000000000`
)

func newTestDispatcher(t *testing.T, client *fakechain.Client, initialize bool) *Dispatcher {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	metricsStore := metrics.New(prometheus.NewRegistry(), "test", "gateway", "test")

	m := lifecycle.New(log, metricsStore, fakechain.Builder(client), chain.Config{Network: chain.Mainnet}, lifecycle.Options{})
	if initialize {
		require.NoError(t, m.Initialize(context.Background()))
	}

	return NewDispatcher(log, metricsStore, m)
}

func dispatch(t *testing.T, d *Dispatcher, body string) string {
	t.Helper()

	out, err := Marshal(d.Dispatch(context.Background(), json.RawMessage(body)))
	require.NoError(t, err)
	return string(out)
}

func dispatchErr(t *testing.T, d *Dispatcher, body string) *Error {
	t.Helper()

	resp := d.Dispatch(context.Background(), json.RawMessage(body))
	require.NotNil(t, resp.Error, "expected error response")
	require.Nil(t, resp.Result)
	return resp.Error
}

func TestDispatch_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		initialize bool
		client     *fakechain.Client
		body       string
		want       string
	}{
		{
			name:   "not initialized",
			client: &fakechain.Client{},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_getBlockByNumber","params":["latest",false]}`,
			want:   `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"Light client not initialized"}}`,
		},
		{
			name:       "chain id",
			initialize: true,
			client:     &fakechain.Client{ID: 1},
			body:       `{"jsonrpc":"2.0","id":1,"method":"eth_chainId","params":[]}`,
			want:       `{"jsonrpc":"2.0","id":1,"result":"0x1"}`,
		},
		{
			name:       "null result",
			initialize: true,
			client:     &fakechain.Client{},
			body:       `{"jsonrpc":"2.0","id":7,"method":"eth_getTransactionByHash","params":["` + testHash + `"]}`,
			want:       `{"jsonrpc":"2.0","id":7,"result":null}`,
		},
		{
			name:       "id omitted",
			initialize: true,
			client:     &fakechain.Client{Number: 255},
			body:       `{"jsonrpc":"2.0","method":"eth_blockNumber","params":[]}`,
			want:       `{"jsonrpc":"2.0","result":"0xff"}`,
		},
		{
			name:       "null id echoed",
			initialize: true,
			client:     &fakechain.Client{Number: 16},
			body:       `{"jsonrpc":"2.0","id":null,"method":"eth_blockNumber","params":[]}`,
			want:       `{"jsonrpc":"2.0","id":null,"result":"0x10"}`,
		},
		{
			name:       "string id echoed without escaping",
			initialize: true,
			client:     &fakechain.Client{},
			body:       `{"jsonrpc":"2.0","id":"<req&1>","method":"eth_syncing","params":[]}`,
			want:       `{"jsonrpc":"2.0","id":"<req&1>","result":false}`,
		},
		{
			name:       "fractional id echoed",
			initialize: true,
			client:     &fakechain.Client{ID: 17000},
			body:       `{"jsonrpc":"2.0","id":1.50,"method":"eth_chainId","params":[]}`,
			want:       `{"jsonrpc":"2.0","id":1.50,"result":"0x4268"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher(t, tt.client, tt.initialize)
			require.Equal(t, tt.want, dispatch(t, d, tt.body))
		})
	}
}

func TestDispatch_Envelope(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantID   string
	}{
		{
			name:     "wrong version",
			body:     `{"jsonrpc":"1.0","id":3,"method":"eth_chainId","params":[]}`,
			wantCode: InvalidRequestCode,
			wantID:   `3`,
		},
		{
			name:     "wrong version with bad params",
			body:     `{"jsonrpc":"1.0","id":3,"method":"nope","params":{}}`,
			wantCode: InvalidRequestCode,
			wantID:   `3`,
		},
		{
			name:     "missing version",
			body:     `{"id":3,"method":"eth_chainId","params":[]}`,
			wantCode: InvalidRequestCode,
			wantID:   `3`,
		},
		{
			name:     "numeric version",
			body:     `{"jsonrpc":2.0,"method":"eth_chainId","params":[]}`,
			wantCode: InvalidRequestCode,
		},
		{
			name:     "not an object",
			body:     `[1,2,3]`,
			wantCode: InvalidRequestCode,
		},
		{
			name:     "null request",
			body:     `null`,
			wantCode: InvalidRequestCode,
		},
		{
			name:     "missing method",
			body:     `{"jsonrpc":"2.0","id":"a","params":[]}`,
			wantCode: InvalidRequestCode,
			wantID:   `"a"`,
		},
		{
			name:     "method not a string",
			body:     `{"jsonrpc":"2.0","id":"a","method":5,"params":[]}`,
			wantCode: InvalidRequestCode,
			wantID:   `"a"`,
		},
		{
			name:     "missing params",
			body:     `{"jsonrpc":"2.0","id":4,"method":"eth_chainId"}`,
			wantCode: InvalidParamsCode,
			wantID:   `4`,
		},
		{
			name:     "params object",
			body:     `{"jsonrpc":"2.0","id":4,"method":"eth_chainId","params":{"a":1}}`,
			wantCode: InvalidParamsCode,
			wantID:   `4`,
		},
		{
			name:     "object id",
			body:     `{"jsonrpc":"2.0","id":{"k" : 1},"method":"eth_chainId","params":[]}`,
			wantCode: InvalidRequestCode,
		},
		{
			name:     "array id",
			body:     `{"jsonrpc":"2.0","id":[1],"method":"eth_chainId","params":[]}`,
			wantCode: InvalidRequestCode,
		},
		{
			name:     "unknown method",
			body:     `{"jsonrpc":"2.0","id":5,"method":"eth_mining","params":[]}`,
			wantCode: MethodNotFoundCode,
			wantID:   `5`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher(t, &fakechain.Client{ID: 1}, true)

			resp := d.Dispatch(context.Background(), json.RawMessage(tt.body))
			require.NotNil(t, resp.Error)
			require.Equal(t, tt.wantCode, resp.Error.Code)
			require.Equal(t, tt.wantID, string(resp.ID))

			out, err := json.Marshal(resp)
			require.NoError(t, err)
			require.NotContains(t, string(out), `"result"`)
		})
	}
}

func TestDispatch_EchoesID(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{name: "integer", id: `7`},
		{name: "decimal", id: `1.50`},
		{name: "exponent", id: `1E3`},
		{name: "string", id: `"a  b <&> \u00e9"`},
		{name: "null", id: `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher(t, &fakechain.Client{ID: 1}, true)

			got := dispatch(t, d, `{"jsonrpc":"2.0","id": `+tt.id+` ,"method":"eth_chainId","params":[]}`)
			require.Equal(t, `{"jsonrpc":"2.0","id":`+tt.id+`,"result":"0x1"}`, got)
		})
	}
}

func TestDispatch_UnknownMethodNamed(t *testing.T) {
	d := newTestDispatcher(t, &fakechain.Client{}, true)

	rpcErr := dispatchErr(t, d, `{"jsonrpc":"2.0","id":1,"method":"eth_mining","params":[]}`)
	require.Equal(t, "Method not found: eth_mining", rpcErr.Message)
}

func TestDispatch_InvalidParams(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{
			name:        "bad address",
			body:        `{"jsonrpc":"2.0","method":"eth_getBalance","params":["0xNOTANADDR","latest"]}`,
			wantMessage: "invalid address format",
		},
		{
			name:        "address without prefix",
			body:        `{"jsonrpc":"2.0","method":"eth_getBalance","params":["00000000219ab540356cbb839cbe05303d7705fa","latest"]}`,
			wantMessage: "invalid address format",
		},
		{
			name:        "missing block tag",
			body:        `{"jsonrpc":"2.0","method":"eth_getBalance","params":["` + testAddress + `"]}`,
			wantMessage: "missing value for required argument 1",
		},
		{
			name:        "numeric block",
			body:        `{"jsonrpc":"2.0","method":"eth_getCode","params":["` + testAddress + `","0x10"]}`,
			wantMessage: "unsupported block tag",
		},
		{
			name:        "block tag not a string",
			body:        `{"jsonrpc":"2.0","method":"eth_getBlockByNumber","params":[16,false]}`,
			wantMessage: "expected block tag string",
		},
		{
			name:        "full tx flag not a bool",
			body:        `{"jsonrpc":"2.0","method":"eth_getBlockByNumber","params":["latest","yes"]}`,
			wantMessage: "expected boolean",
		},
		{
			name:        "short hash",
			body:        `{"jsonrpc":"2.0","method":"eth_getBlockByHash","params":["0x1234",true]}`,
			wantMessage: "invalid block hash format",
		},
		{
			name:        "bad filter id",
			body:        `{"jsonrpc":"2.0","method":"eth_getFilterChanges","params":["0xzz"]}`,
			wantMessage: "invalid filter id",
		},
		{
			name:        "bad raw transaction",
			body:        `{"jsonrpc":"2.0","method":"eth_sendRawTransaction","params":["0xabc"]}`,
			wantMessage: "invalid raw transaction",
		},
		{
			name:        "call request not an object",
			body:        `{"jsonrpc":"2.0","method":"eth_estimateGas","params":["0x00"]}`,
			wantMessage: "expected call request object",
		},
		{
			name:        "call request with bad field",
			body:        `{"jsonrpc":"2.0","method":"eth_call","params":[{"to":"0x12"},"latest"]}`,
			wantMessage: "invalid call request",
		},
		{
			name:        "conflicting call data",
			body:        `{"jsonrpc":"2.0","method":"eth_call","params":[{"data":"0x01","input":"0x02"},"latest"]}`,
			wantMessage: "invalid call request",
		},
		{
			name:        "filter with hash and range",
			body:        `{"jsonrpc":"2.0","method":"eth_getLogs","params":[{"blockHash":"` + testHash + `","fromBlock":"latest"}]}`,
			wantMessage: "invalid filter",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakechain.Client{}
			d := newTestDispatcher(t, client, true)

			rpcErr := dispatchErr(t, d, tt.body)
			require.Equal(t, InvalidParamsCode, rpcErr.Code)
			require.Contains(t, rpcErr.Message, tt.wantMessage)
		})
	}
}

func TestDispatch_ClientFailure(t *testing.T) {
	d := newTestDispatcher(t, &fakechain.Client{Err: errors.New("upstream unavailable")}, true)

	rpcErr := dispatchErr(t, d, `{"jsonrpc":"2.0","id":1,"method":"eth_gasPrice","params":[]}`)
	require.Equal(t, InternalErrorCode, rpcErr.Code)
	require.Equal(t, "Internal error: upstream unavailable", rpcErr.Message)
}

func TestDispatch_RecoversPanic(t *testing.T) {
	d := newTestDispatcher(t, &fakechain.Client{Panic: "nil map"}, true)

	rpcErr := dispatchErr(t, d, `{"jsonrpc":"2.0","id":1,"method":"eth_coinbase","params":[]}`)
	require.Equal(t, InternalErrorCode, rpcErr.Code)
	require.Contains(t, rpcErr.Message, "nil map")

	// The dispatcher keeps serving after a panic.
	rpcErr = dispatchErr(t, d, `{"jsonrpc":"2.0","id":2,"method":"eth_coinbase","params":[]}`)
	require.Equal(t, InternalErrorCode, rpcErr.Code)
}

// validParams holds a well-formed params array for every method.
var validParams = map[string]string{
	"eth_blockNumber":                         `[]`,
	"eth_getBalance":                          `["` + testAddress + `","latest"]`,
	"eth_getTransactionCount":                 `["` + testAddress + `","latest"]`,
	"eth_getBlockTransactionCountByHash":      `["` + testHash + `"]`,
	"eth_getBlockTransactionCountByNumber":    `["latest"]`,
	"eth_getCode":                             `["` + testAddress + `","latest"]`,
	"eth_call":                                `[{"to":"` + testAddress + `","data":"0x70a08231"},"latest"]`,
	"eth_estimateGas":                         `[{"to":"` + testAddress + `","value":"0x1"}]`,
	"eth_chainId":                             `[]`,
	"eth_gasPrice":                            `[]`,
	"eth_maxPriorityFeePerGas":                `[]`,
	"eth_sendRawTransaction":                  `["0x02f86c"]`,
	"eth_getBlockByNumber":                    `["latest",false]`,
	"eth_getBlockByHash":                      `["` + testHash + `",true]`,
	"eth_getTransactionReceipt":               `["` + testHash + `"]`,
	"eth_getBlockReceipts":                    `["latest"]`,
	"eth_getTransactionByHash":                `["` + testHash + `"]`,
	"eth_getTransactionByBlockHashAndIndex":   `["` + testHash + `","0x0"]`,
	"eth_getTransactionByBlockNumberAndIndex": `["latest","0x1"]`,
	"eth_getLogs":                             `[{"address":"` + testAddress + `"}]`,
	"eth_getFilterChanges":                    `["0x1"]`,
	"eth_uninstallFilter":                     `["0x1"]`,
	"eth_newFilter":                           `[{}]`,
	"eth_newBlockFilter":                      `[]`,
	"eth_newPendingTransactionFilter":         `[]`,
	"eth_getStorageAt":                        `["` + testAddress + `","` + zeroSlot + `","latest"]`,
	"eth_coinbase":                            `[]`,
	"eth_syncing":                             `[]`,
}

func request(method string) string {
	return `{"jsonrpc":"2.0","id":1,"method":"` + method + `","params":` + validParams[method] + `}`
}

func TestDispatch_EveryMethodNeedsClient(t *testing.T) {
	require.ElementsMatch(t, Methods(), mapKeys(validParams))

	for _, method := range Methods() {
		t.Run(method, func(t *testing.T) {
			d := newTestDispatcher(t, &fakechain.Client{}, false)

			rpcErr := dispatchErr(t, d, request(method))
			require.Equal(t, ServerErrorCode, rpcErr.Code)
			require.Equal(t, "Light client not initialized", rpcErr.Message)
		})
	}
}

func TestDispatch_EveryMethodAfterInitialize(t *testing.T) {
	for _, method := range Methods() {
		t.Run(method, func(t *testing.T) {
			ok := newTestDispatcher(t, &fakechain.Client{}, true)
			resp := ok.Dispatch(context.Background(), json.RawMessage(request(method)))
			require.Nil(t, resp.Error)
			require.NotEmpty(t, resp.Result)

			failing := newTestDispatcher(t, &fakechain.Client{Err: errors.New("upstream unavailable")}, true)
			rpcErr := dispatchErr(t, failing, request(method))
			require.Equal(t, InternalErrorCode, rpcErr.Code)
		})
	}
}

func TestDispatch_RepeatedReadIsStable(t *testing.T) {
	reads := []string{
		"eth_getBalance",
		"eth_getBlockByNumber",
		"eth_getTransactionByHash",
		"eth_getLogs",
		"eth_syncing",
		"eth_chainId",
	}
	client := &fakechain.Client{
		ID:    1,
		Wei:   big.NewInt(42),
		Block: &entity.Block{Number: 0x10, Hash: common.HexToHash(testHash)},
		Tx:    &entity.Transaction{Hash: common.HexToHash(testHash)},
		LogEntries: []types.Log{
			{Address: common.HexToAddress(testAddress), BlockHash: common.HexToHash(testHash)},
		},
	}
	d := newTestDispatcher(t, client, true)

	for _, method := range reads {
		t.Run(method, func(t *testing.T) {
			first := d.Dispatch(context.Background(), json.RawMessage(request(method)))
			second := d.Dispatch(context.Background(), json.RawMessage(request(method)))

			require.Nil(t, first.Error)
			require.Nil(t, second.Error)
			require.Equal(t, string(first.Result), string(second.Result))
		})
	}
}

func mapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func TestDispatch_Results(t *testing.T) {
	blockHash := common.HexToHash(testHash)

	tests := []struct {
		name   string
		client *fakechain.Client
		body   string
		want   string
		check  func(t *testing.T, c *fakechain.Client)
	}{
		{
			name:   "balance",
			client: &fakechain.Client{Wei: big.NewInt(1_000_000_000)},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_getBalance","params":["` + testAddress + `","latest"]}`,
			want:   `"0x3b9aca00"`,
		},
		{
			name:   "zero gas price",
			client: &fakechain.Client{},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_gasPrice","params":[]}`,
			want:   `"0x0"`,
		},
		{
			name:   "storage padded to 32 bytes",
			client: &fakechain.Client{Storage: []byte{0x01}},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_getStorageAt","params":["` + testAddress + `","` + zeroSlot + `","latest"]}`,
			want:   `"0x0000000000000000000000000000000000000000000000000000000000000001"`,
		},
		{
			name:   "code",
			client: &fakechain.Client{Bytecode: []byte{0x60, 0x80}},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_getCode","params":["` + testAddress + `","latest"]}`,
			want:   `"0x6080"`,
		},
		{
			name:   "empty logs",
			client: &fakechain.Client{},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_getLogs","params":[{}]}`,
			want:   `[]`,
			check: func(t *testing.T, c *fakechain.Client) {
				require.Equal(t, big.NewInt(rpc.LatestBlockNumber.Int64()), c.LastQuery.FromBlock)
			},
		},
		{
			name:   "new filter id",
			client: &fakechain.Client{FilterID: 26},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_newFilter","params":[{"address":"` + testAddress + `"}]}`,
			want:   `"0x1a"`,
			check: func(t *testing.T, c *fakechain.Client) {
				require.Equal(t, []common.Address{common.HexToAddress(testAddress)}, c.LastQuery.Addresses)
			},
		},
		{
			name:   "filter changes",
			client: &fakechain.Client{Changes: &entity.FilterChanges{Hashes: []common.Hash{blockHash}}},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_getFilterChanges","params":["1f"]}`,
			want:   `["` + testHash + `"]`,
			check: func(t *testing.T, c *fakechain.Client) {
				require.EqualValues(t, 31, c.LastFilterID)
			},
		},
		{
			name:   "uninstall filter",
			client: &fakechain.Client{Uninstalled: true},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_uninstallFilter","params":["0x1"]}`,
			want:   `true`,
		},
		{
			name:   "syncing",
			client: &fakechain.Client{Sync: &entity.SyncStatus{StartingBlock: 1, CurrentBlock: 2, HighestBlock: 3}},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_syncing","params":[]}`,
			want:   `{"startingBlock":"0x1","currentBlock":"0x2","highestBlock":"0x3"}`,
		},
		{
			name:   "coinbase lowercase",
			client: &fakechain.Client{Miner: common.HexToAddress("0x95222290DD7278Aa3Ddd389Cc1E1d165CC4BAfe5")},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_coinbase","params":[]}`,
			want:   `"0x95222290dd7278aa3ddd389cc1e1d165cc4bafe5"`,
		},
		{
			name:   "send raw transaction",
			client: &fakechain.Client{TxHash: blockHash},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_sendRawTransaction","params":["02f8"]}`,
			want:   `"` + testHash + `"`,
			check: func(t *testing.T, c *fakechain.Client) {
				require.Equal(t, []byte{0x02, 0xf8}, c.LastRawTx)
			},
		},
		{
			name:   "call",
			client: &fakechain.Client{Output: []byte{0xca, 0xfe}},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_call","params":[{"to":"` + testAddress + `","input":"0x70a08231"},"latest"]}`,
			want:   `"0xcafe"`,
			check: func(t *testing.T, c *fakechain.Client) {
				require.Equal(t, []byte{0x70, 0xa0, 0x82, 0x31}, c.LastCallMsg.Data)
				require.Equal(t, common.HexToAddress(testAddress), *c.LastCallMsg.To)
			},
		},
		{
			name:   "estimate gas",
			client: &fakechain.Client{Gas: 21000},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_estimateGas","params":[{"to":"` + testAddress + `","value":"0x1"}]}`,
			want:   `"0x5208"`,
		},
		{
			name:   "transaction by block hash and index",
			client: &fakechain.Client{Tx: &entity.Transaction{Hash: blockHash}},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_getTransactionByBlockHashAndIndex","params":["` + testHash + `","0x2"]}`,
			check: func(t *testing.T, c *fakechain.Client) {
				require.EqualValues(t, 2, c.LastIndex)
			},
		},
		{
			name:   "block receipts null",
			client: &fakechain.Client{},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_getBlockReceipts","params":["latest"]}`,
			want:   `null`,
		},
		{
			name:   "block by number with full transactions",
			client: &fakechain.Client{Block: &entity.Block{Number: 10}},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_getBlockByNumber","params":["latest",true]}`,
			check: func(t *testing.T, c *fakechain.Client) {
				require.True(t, c.LastFullTx)
			},
		},
		{
			name:   "logs",
			client: &fakechain.Client{LogEntries: []types.Log{{Address: common.HexToAddress(testAddress), Topics: []common.Hash{}}}},
			body:   `{"jsonrpc":"2.0","id":1,"method":"eth_getLogs","params":[{"blockHash":"` + testHash + `"}]}`,
			check: func(t *testing.T, c *fakechain.Client) {
				require.Equal(t, blockHash, *c.LastQuery.BlockHash)
				require.Nil(t, c.LastQuery.FromBlock)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher(t, tt.client, true)

			resp := d.Dispatch(context.Background(), json.RawMessage(tt.body))
			require.Nil(t, resp.Error)
			if tt.want != "" {
				require.JSONEq(t, tt.want, string(resp.Result))
			}
			if tt.check != nil {
				tt.check(t, tt.client)
			}
		})
	}
}

func TestDispatcher_LatestBlock(t *testing.T) {
	client := &fakechain.Client{Block: &entity.Block{Number: 42}}

	d := newTestDispatcher(t, client, false)
	_, err := d.LatestBlock(context.Background())
	require.ErrorIs(t, err, lifecycle.ErrNotInitialized)

	d = newTestDispatcher(t, client, true)
	block, err := d.LatestBlock(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 42, block.GetNumber())
	require.False(t, client.LastFullTx)
}

func TestMethods(t *testing.T) {
	names := Methods()
	require.Len(t, names, 28)
	require.Contains(t, names, "eth_getBlockByNumber")
	require.Contains(t, names, "eth_getTransactionByBlockNumberAndIndex")
	require.IsIncreasing(t, names)
}
