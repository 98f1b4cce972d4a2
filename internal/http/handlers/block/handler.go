package block

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lidofinance/lightclient-gateway/internal/pkg/chain/entity"
	"github.com/lidofinance/lightclient-gateway/internal/pkg/lifecycle"
)

type BlockSource interface {
	LatestBlock(ctx context.Context) (*entity.Block, error)
}

type handler struct {
	source BlockSource
}

func New(source BlockSource) *handler {
	return &handler{
		source: source,
	}
}

func (h *handler) Handler(w http.ResponseWriter, r *http.Request) {
	block, err := h.source.LatestBlock(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, lifecycle.ErrNotInitialized) {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(block)
}
