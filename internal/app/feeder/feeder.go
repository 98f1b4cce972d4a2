package feeder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/klauspost/compress/zstd"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/lidofinance/lightclient-gateway/internal/connectors/metrics"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain/entity"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/lifecycle"
)

type ClientProvider interface {
	WithClient(fn func(chain.Client) error) error
}

type Publisher interface {
	PublishAsync(subject string, payload []byte, opts ...jetstream.PublishOpt) (jetstream.PubAckFuture, error)
}

type BlockDto struct {
	Number     uint64         `json:"number"`
	Hash       common.Hash    `json:"hash"`
	ParentHash common.Hash    `json:"parentHash"`
	Timestamp  uint64         `json:"timestamp"`
	Receipts   []ReceiptDto   `json:"receipts"`
	Miner      common.Address `json:"miner"`
}

type ReceiptDto struct {
	TransactionHash common.Hash     `json:"transactionHash"`
	From            common.Address  `json:"from"`
	To              *common.Address `json:"to"`
	Status          uint64          `json:"status"`
	Logs            []*types.Log    `json:"logs"`
}

var (
	errStaleReceipts = errors.New("receipts belong to another block")
	errNoBlock       = errors.New("client returned no latest block")
)

type Feeder struct {
	log          *slog.Logger
	clients      ClientProvider
	js           Publisher
	metricsStore *metrics.Store
	topic        string
	interval     time.Duration

	prevHash common.Hash
}

func New(log *slog.Logger, clients ClientProvider, js Publisher, metricsStore *metrics.Store, topic string, interval time.Duration) *Feeder {
	return &Feeder{
		log:          log,
		clients:      clients,
		js:           js,
		metricsStore: metricsStore,
		topic:        topic,
		interval:     interval,
	}
}

func (w *Feeder) Run(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := w.tick(ctx); err != nil {
					if errors.Is(err, lifecycle.ErrNotInitialized) {
						w.log.Debug("light client is not running yet, skip feeding")
						continue
					}

					w.metricsStore.PublishedBlocks.With(prometheus.Labels{metrics.Status: metrics.StatusFail}).Inc()
					w.log.Error(fmt.Sprintf("could not feed block: %v", err))
				}
			}
		}
	})
}

// tick publishes the latest block once. Blocks already published are skipped.
func (w *Feeder) tick(ctx context.Context) error {
	var (
		block    *entity.Block
		receipts []*entity.Receipt
	)
	err := w.clients.WithClient(func(c chain.Client) error {
		var err error
		block, err = c.BlockByNumber(ctx, chain.Latest, false)
		if err != nil {
			return fmt.Errorf("could not get latest block: %w", err)
		}
		if block == nil {
			return errNoBlock
		}
		if block.Hash == w.prevHash {
			return nil
		}

		receipts, err = c.BlockReceipts(ctx, chain.Latest)
		if err != nil {
			return fmt.Errorf("could not get block receipts: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if block.Hash == w.prevHash {
		return nil
	}

	blockDto, err := toDto(block, receipts)
	if err != nil {
		return err
	}

	payload, marshalErr := json.Marshal(blockDto)
	if marshalErr != nil {
		return fmt.Errorf("could not marshal blockDto: %w", marshalErr)
	}

	cPayload, compressErr := compress(payload)
	if compressErr != nil {
		return fmt.Errorf("could not compress blockDto by zstd: %w", compressErr)
	}

	payloadSize := slog.String("payloadSize", fmt.Sprintf(`%.6f mb`, float64(len(payload))/(1024*1024)))
	cPayloadSize := slog.String("cPayloadSize", fmt.Sprintf(`%.6f mb`, float64(cPayload.Len())/(1024*1024)))

	if _, publishErr := w.js.PublishAsync(w.topic, cPayload.Bytes(),
		jetstream.WithMsgID(blockDto.Hash.Hex()),
		//nolint
		jetstream.WithRetryAttempts(5),
		//nolint
		jetstream.WithRetryWait(250*time.Millisecond),
	); publishErr != nil {
		return fmt.Errorf("could not publish block %d to JetStream: %w", blockDto.Number, publishErr)
	}

	w.prevHash = block.Hash
	w.log.Info(fmt.Sprintf(`%d, %s`, blockDto.Number, blockDto.Hash), payloadSize, cPayloadSize)
	w.metricsStore.PublishedBlocks.With(prometheus.Labels{metrics.Status: metrics.StatusOk}).Inc()
	return nil
}

func toDto(block *entity.Block, receipts []*entity.Receipt) (*BlockDto, error) {
	dto := &BlockDto{
		Number:     block.GetNumber(),
		Hash:       block.Hash,
		ParentHash: block.ParentHash,
		Timestamp:  block.GetTimestamp(),
		Miner:      block.Miner,
		Receipts:   make([]ReceiptDto, 0, len(receipts)),
	}

	for _, receipt := range receipts {
		if receipt.BlockHash != block.Hash {
			return nil, fmt.Errorf("%w: %s", errStaleReceipts, receipt.BlockHash)
		}

		logs := receipt.Logs
		if logs == nil {
			logs = []*types.Log{}
		}
		dto.Receipts = append(dto.Receipts, ReceiptDto{
			TransactionHash: receipt.TransactionHash,
			From:            receipt.From,
			To:              receipt.To,
			Status:          uint64(receipt.Status),
			Logs:            logs,
		})
	}

	return dto, nil
}

func compress(payload []byte) (*bytes.Buffer, error) {
	cPayload := &bytes.Buffer{}
	zstdWriter, err := zstd.NewWriter(cPayload)
	if err != nil {
		return nil, err
	}

	if _, zstdErr := zstdWriter.Write(payload); zstdErr != nil {
		zstdWriter.Close()
		return nil, zstdErr
	}
	if closeErr := zstdWriter.Close(); closeErr != nil {
		return nil, closeErr
	}

	return cPayload, nil
}
