package entity

import (
	"encoding/json"
	"errors"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

var ErrConflictingInput = errors.New(`both "data" and "input" are set and not equal`)

// CallRequest is the transaction-like object accepted by eth_call and eth_estimateGas.
type CallRequest struct {
	From                 *common.Address   `json:"from"`
	To                   *common.Address   `json:"to"`
	Gas                  *hexutil.Uint64   `json:"gas"`
	GasPrice             *hexutil.Big      `json:"gasPrice"`
	MaxFeePerGas         *hexutil.Big      `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big      `json:"maxPriorityFeePerGas"`
	Value                *hexutil.Big      `json:"value"`
	Data                 *hexutil.Bytes    `json:"data"`
	Input                *hexutil.Bytes    `json:"input"`
	AccessList           *types.AccessList `json:"accessList,omitempty"`
}

func (r *CallRequest) data() ([]byte, error) {
	if r.Input != nil && r.Data != nil && string(*r.Input) != string(*r.Data) {
		return nil, ErrConflictingInput
	}
	if r.Input != nil {
		return *r.Input, nil
	}
	if r.Data != nil {
		return *r.Data, nil
	}
	return nil, nil
}

func (r *CallRequest) ToCallMsg() (ethereum.CallMsg, error) {
	data, err := r.data()
	if err != nil {
		return ethereum.CallMsg{}, err
	}

	msg := ethereum.CallMsg{
		To:        r.To,
		Data:      data,
		GasPrice:  toBig(r.GasPrice),
		GasFeeCap: toBig(r.MaxFeePerGas),
		GasTipCap: toBig(r.MaxPriorityFeePerGas),
		Value:     toBig(r.Value),
	}
	if r.From != nil {
		msg.From = *r.From
	}
	if r.Gas != nil {
		msg.Gas = uint64(*r.Gas)
	}
	if r.AccessList != nil {
		msg.AccessList = *r.AccessList
	}

	return msg, nil
}

func toBig(v *hexutil.Big) *big.Int {
	if v == nil {
		return nil
	}
	return v.ToInt()
}

type SyncStatus struct {
	StartingBlock hexutil.Uint64 `json:"startingBlock"`
	CurrentBlock  hexutil.Uint64 `json:"currentBlock"`
	HighestBlock  hexutil.Uint64 `json:"highestBlock"`
}

func NewSyncStatus(p *ethereum.SyncProgress) *SyncStatus {
	if p == nil {
		return nil
	}

	return &SyncStatus{
		StartingBlock: hexutil.Uint64(p.StartingBlock),
		CurrentBlock:  hexutil.Uint64(p.CurrentBlock),
		HighestBlock:  hexutil.Uint64(p.HighestBlock),
	}
}

// FilterChanges is the result of polling a filter: block or transaction
// hashes for hash filters, logs for log filters.
type FilterChanges struct {
	Hashes []common.Hash
	Logs   []types.Log
}

func (f FilterChanges) MarshalJSON() ([]byte, error) {
	switch {
	case f.Logs != nil:
		return json.Marshal(f.Logs)
	case f.Hashes != nil:
		return json.Marshal(f.Hashes)
	default:
		return []byte(`[]`), nil
	}
}
