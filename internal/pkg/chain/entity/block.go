package entity

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

type Block struct {
	BaseFeePerGas         *hexutil.Big      `json:"baseFeePerGas,omitempty"`
	BlobGasUsed           *hexutil.Uint64   `json:"blobGasUsed,omitempty"`
	Difficulty            *hexutil.Big      `json:"difficulty"`
	ExcessBlobGas         *hexutil.Uint64   `json:"excessBlobGas,omitempty"`
	ExtraData             hexutil.Bytes     `json:"extraData"`
	GasLimit              hexutil.Uint64    `json:"gasLimit"`
	GasUsed               hexutil.Uint64    `json:"gasUsed"`
	Hash                  common.Hash       `json:"hash"`
	LogsBloom             types.Bloom       `json:"logsBloom"`
	Miner                 common.Address    `json:"miner"`
	MixHash               common.Hash       `json:"mixHash"`
	Nonce                 types.BlockNonce  `json:"nonce"`
	Number                hexutil.Uint64    `json:"number"`
	ParentBeaconBlockRoot *common.Hash      `json:"parentBeaconBlockRoot,omitempty"`
	ParentHash            common.Hash       `json:"parentHash"`
	ReceiptsRoot          common.Hash       `json:"receiptsRoot"`
	Sha3Uncles            common.Hash       `json:"sha3Uncles"`
	Size                  hexutil.Uint64    `json:"size"`
	StateRoot             common.Hash       `json:"stateRoot"`
	Timestamp             hexutil.Uint64    `json:"timestamp"`
	TotalDifficulty       *hexutil.Big      `json:"totalDifficulty,omitempty"`
	Transactions          BlockTransactions `json:"transactions"`
	TransactionsRoot      common.Hash       `json:"transactionsRoot"`
	Uncles                []common.Hash     `json:"uncles"`
	Withdrawals           []*Withdrawal     `json:"withdrawals,omitempty"`
	WithdrawalsRoot       *common.Hash      `json:"withdrawalsRoot,omitempty"`
}

func (e *Block) GetNumber() uint64 {
	return uint64(e.Number)
}

func (e *Block) GetTimestamp() uint64 {
	return uint64(e.Timestamp)
}

type Withdrawal struct {
	Index          hexutil.Uint64 `json:"index"`
	ValidatorIndex hexutil.Uint64 `json:"validatorIndex"`
	Address        common.Address `json:"address"`
	Amount         hexutil.Uint64 `json:"amount"`
}

// BlockTransactions holds either transaction hashes or full transaction
// objects, depending on how the block was requested. Full takes precedence.
type BlockTransactions struct {
	Hashes []common.Hash
	Full   []*Transaction
}

func (t BlockTransactions) Len() int {
	if t.Full != nil {
		return len(t.Full)
	}
	return len(t.Hashes)
}

func (t BlockTransactions) MarshalJSON() ([]byte, error) {
	if t.Full != nil {
		return json.Marshal(t.Full)
	}
	if t.Hashes == nil {
		return []byte(`[]`), nil
	}
	return json.Marshal(t.Hashes)
}

func (t *BlockTransactions) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("transactions: %w", err)
	}

	t.Hashes, t.Full = nil, nil
	if len(raw) == 0 {
		t.Hashes = []common.Hash{}
		return nil
	}

	if bytes.HasPrefix(bytes.TrimSpace(raw[0]), []byte(`"`)) {
		t.Hashes = make([]common.Hash, 0, len(raw))
		for _, r := range raw {
			var h common.Hash
			if err := json.Unmarshal(r, &h); err != nil {
				return fmt.Errorf("transaction hash: %w", err)
			}
			t.Hashes = append(t.Hashes, h)
		}
		return nil
	}

	t.Full = make([]*Transaction, 0, len(raw))
	for _, r := range raw {
		var tx Transaction
		if err := json.Unmarshal(r, &tx); err != nil {
			return fmt.Errorf("transaction object: %w", err)
		}
		t.Full = append(t.Full, &tx)
	}
	return nil
}
