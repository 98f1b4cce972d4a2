package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/eth/filters"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain/entity"
)

// Params holds positional parameters. Each accessor decodes one position and
// reports a -32602 error naming the position when it is missing or malformed.
type Params []json.RawMessage

func (p Params) value(i int, kind string) (json.RawMessage, *Error) {
	if i >= len(p) {
		return nil, NewInvalidParamsError(fmt.Sprintf("missing value for required argument %d (%s)", i, kind))
	}
	return p[i], nil
}

func (p Params) String(i int, kind string) (string, *Error) {
	raw, rpcErr := p.value(i, kind)
	if rpcErr != nil {
		return "", rpcErr
	}

	if !isJSONString(raw) {
		return "", NewInvalidParamsError(fmt.Sprintf("argument %d: expected %s string", i, kind))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", NewInvalidParamsError(fmt.Sprintf("argument %d: %v", i, err))
	}
	return s, nil
}

func (p Params) BlockTag(i int) (chain.BlockTag, *Error) {
	s, rpcErr := p.String(i, "block tag")
	if rpcErr != nil {
		return "", rpcErr
	}

	tag, err := chain.ParseBlockTag(s)
	if err != nil {
		return "", NewInvalidParamsError(fmt.Sprintf("argument %d: %v", i, err))
	}
	return tag, nil
}

func (p Params) Address(i int) (common.Address, *Error) {
	s, rpcErr := p.String(i, "address")
	if rpcErr != nil {
		return common.Address{}, rpcErr
	}

	if !has0xPrefix(s) || !common.IsHexAddress(s) {
		return common.Address{}, NewInvalidParamsError(fmt.Sprintf("argument %d: invalid address format: %q", i, s))
	}
	return common.HexToAddress(s), nil
}

func (p Params) Hash(i int, kind string) (common.Hash, *Error) {
	s, rpcErr := p.String(i, kind)
	if rpcErr != nil {
		return common.Hash{}, rpcErr
	}

	b, err := decodeHex(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, NewInvalidParamsError(fmt.Sprintf("argument %d: invalid %s format: %q", i, kind, s))
	}
	return common.BytesToHash(b), nil
}

func (p Params) Bool(i int) (bool, *Error) {
	raw, rpcErr := p.value(i, "boolean")
	if rpcErr != nil {
		return false, rpcErr
	}

	var v bool
	if err := json.Unmarshal(raw, &v); err != nil || bytes.Equal(bytes.TrimSpace(raw), []byte(`null`)) {
		return false, NewInvalidParamsError(fmt.Sprintf("argument %d: expected boolean", i))
	}
	return v, nil
}

// Uint decodes a hex quantity such as a filter id or a transaction index.
// The 0x prefix is optional.
func (p Params) Uint(i int, kind string) (uint64, *Error) {
	s, rpcErr := p.String(i, kind)
	if rpcErr != nil {
		return 0, rpcErr
	}

	digits := s
	if has0xPrefix(digits) {
		digits = digits[2:]
	}
	if digits == "" {
		return 0, NewInvalidParamsError(fmt.Sprintf("argument %d: empty %s", i, kind))
	}

	v, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, NewInvalidParamsError(fmt.Sprintf("argument %d: invalid %s %q", i, kind, s))
	}
	return v, nil
}

func (p Params) Bytes(i int, kind string) ([]byte, *Error) {
	s, rpcErr := p.String(i, kind)
	if rpcErr != nil {
		return nil, rpcErr
	}

	b, err := decodeHex(s)
	if err != nil {
		return nil, NewInvalidParamsError(fmt.Sprintf("argument %d: invalid %s: %v", i, kind, err))
	}
	return b, nil
}

func (p Params) CallMsg(i int) (ethereum.CallMsg, *Error) {
	raw, rpcErr := p.value(i, "call request")
	if rpcErr != nil {
		return ethereum.CallMsg{}, rpcErr
	}
	if !isJSONObject(raw) {
		return ethereum.CallMsg{}, NewInvalidParamsError(fmt.Sprintf("argument %d: expected call request object", i))
	}

	var req entity.CallRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return ethereum.CallMsg{}, NewInvalidParamsError(fmt.Sprintf("argument %d: invalid call request: %v", i, err))
	}

	msg, err := req.ToCallMsg()
	if err != nil {
		return ethereum.CallMsg{}, NewInvalidParamsError(fmt.Sprintf("argument %d: invalid call request: %v", i, err))
	}
	return msg, nil
}

// FilterQuery decodes a log filter. A filter without fromBlock and blockHash
// starts at the latest block.
func (p Params) FilterQuery(i int) (ethereum.FilterQuery, *Error) {
	raw, rpcErr := p.value(i, "filter")
	if rpcErr != nil {
		return ethereum.FilterQuery{}, rpcErr
	}
	if !isJSONObject(raw) {
		return ethereum.FilterQuery{}, NewInvalidParamsError(fmt.Sprintf("argument %d: expected filter object", i))
	}

	var crit filters.FilterCriteria
	if err := json.Unmarshal(raw, &crit); err != nil {
		return ethereum.FilterQuery{}, NewInvalidParamsError(fmt.Sprintf("argument %d: invalid filter: %v", i, err))
	}

	query := ethereum.FilterQuery(crit)
	if query.BlockHash == nil && query.FromBlock == nil {
		query.FromBlock = big.NewInt(rpc.LatestBlockNumber.Int64())
	}
	return query, nil
}

func decodeHex(s string) ([]byte, error) {
	if !has0xPrefix(s) {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}

func has0xPrefix(s string) bool {
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}

func isJSONString(raw json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte(`"`))
}

func isJSONObject(raw json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte(`{`))
}
