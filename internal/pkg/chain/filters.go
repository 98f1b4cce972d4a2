package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain/entity"
)

// FilterTimeout matches the idle deadline after which execution nodes drop
// filters that are not polled.
const FilterTimeout = 5 * time.Minute

type filterEntry struct {
	upstreamID string
	lastUsed   time.Time
}

// filterTable maps the numeric ids handed out to callers onto the ids
// issued by the execution node. Entries idle for longer than ttl are
// dropped, since the node has forgotten them by then.
type filterTable struct {
	mu      sync.Mutex
	nextID  uint64
	ttl     time.Duration
	now     func() time.Time
	entries map[uint64]*filterEntry
}

func newFilterTable(ttl time.Duration) *filterTable {
	return &filterTable{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[uint64]*filterEntry),
	}
}

func (t *filterTable) add(upstreamID string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.sweep(now)

	t.nextID++
	t.entries[t.nextID] = &filterEntry{upstreamID: upstreamID, lastUsed: now}
	return t.nextID
}

// get returns the upstream id and marks the filter as polled.
func (t *filterTable) get(id uint64) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	entry, ok := t.entries[id]
	if !ok {
		return "", false
	}
	if t.expired(entry, now) {
		delete(t.entries, id)
		return "", false
	}

	entry.lastUsed = now
	return entry.upstreamID, true
}

func (t *filterTable) remove(id uint64) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[id]
	if !ok {
		return "", false
	}
	delete(t.entries, id)
	if t.expired(entry, t.now()) {
		return "", false
	}
	return entry.upstreamID, true
}

// sweep must be called with mu held.
func (t *filterTable) sweep(now time.Time) {
	for id, entry := range t.entries {
		if t.expired(entry, now) {
			delete(t.entries, id)
		}
	}
}

func (t *filterTable) expired(entry *filterEntry, now time.Time) bool {
	return t.ttl > 0 && now.Sub(entry.lastUsed) > t.ttl
}

func (c *chain) NewFilter(ctx context.Context, query ethereum.FilterQuery) (uint64, error) {
	arg, err := toFilterArg(query)
	if err != nil {
		return 0, err
	}

	upstreamID, err := callRaw[string](ctx, c, "eth_newFilter", false, arg)
	if err != nil {
		return 0, err
	}
	return c.filters.add(upstreamID), nil
}

func (c *chain) NewBlockFilter(ctx context.Context) (uint64, error) {
	upstreamID, err := callRaw[string](ctx, c, "eth_newBlockFilter", false)
	if err != nil {
		return 0, err
	}
	return c.filters.add(upstreamID), nil
}

func (c *chain) NewPendingTransactionFilter(ctx context.Context) (uint64, error) {
	upstreamID, err := callRaw[string](ctx, c, "eth_newPendingTransactionFilter", false)
	if err != nil {
		return 0, err
	}
	return c.filters.add(upstreamID), nil
}

func (c *chain) FilterChanges(ctx context.Context, id uint64) (*entity.FilterChanges, error) {
	upstreamID, ok := c.filters.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFilterNotFound, hexutil.EncodeUint64(id))
	}

	raw, err := callRaw[[]json.RawMessage](ctx, c, "eth_getFilterChanges", false, upstreamID)
	if err != nil {
		return nil, err
	}
	return decodeFilterChanges(raw)
}

func (c *chain) UninstallFilter(ctx context.Context, id uint64) (bool, error) {
	upstreamID, ok := c.filters.remove(id)
	if !ok {
		return false, nil
	}
	return callRaw[bool](ctx, c, "eth_uninstallFilter", false, upstreamID)
}

func decodeFilterChanges(raw []json.RawMessage) (*entity.FilterChanges, error) {
	if len(raw) == 0 {
		return &entity.FilterChanges{Hashes: []common.Hash{}}, nil
	}

	if bytes.HasPrefix(bytes.TrimSpace(raw[0]), []byte(`"`)) {
		hashes := make([]common.Hash, len(raw))
		for i := range raw {
			if err := json.Unmarshal(raw[i], &hashes[i]); err != nil {
				return nil, fmt.Errorf("could not decode filter hash: %w", err)
			}
		}
		return &entity.FilterChanges{Hashes: hashes}, nil
	}

	logs := make([]types.Log, len(raw))
	for i := range raw {
		if err := json.Unmarshal(raw[i], &logs[i]); err != nil {
			return nil, fmt.Errorf("could not decode filter log: %w", err)
		}
	}
	return &entity.FilterChanges{Logs: logs}, nil
}

func toFilterArg(q ethereum.FilterQuery) (any, error) {
	arg := map[string]any{
		"address": q.Addresses,
		"topics":  q.Topics,
	}

	if q.BlockHash != nil {
		arg["blockHash"] = *q.BlockHash
		if q.FromBlock != nil || q.ToBlock != nil {
			return nil, errors.New("cannot specify both BlockHash and FromBlock/ToBlock")
		}
		return arg, nil
	}

	arg["fromBlock"] = toBlockNumArg(q.FromBlock)
	arg["toBlock"] = toBlockNumArg(q.ToBlock)

	return arg, nil
}

func toBlockNumArg(number *big.Int) string {
	if number == nil {
		return string(Latest)
	}
	if number.Sign() >= 0 {
		return hexutil.EncodeBig(number)
	}
	return rpc.BlockNumber(number.Int64()).String()
}
