package start

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/lidofinance/lightclient-gateway/internal/pkg/lifecycle"
)

type Initializer interface {
	Initialize(ctx context.Context) error
}

type handler struct {
	manager Initializer
}

func New(manager Initializer) *handler {
	return &handler{
		manager: manager,
	}
}

type response struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler starts the light client and answers once it is synced. The
// client keeps starting when the caller goes away.
func (h *handler) Handler(w http.ResponseWriter, r *http.Request) {
	// Syncing outlives the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	err := h.manager.Initialize(context.WithoutCancel(r.Context()))

	status := http.StatusOK
	body := response{Message: lifecycle.StartedMessage}
	switch {
	case err == nil:
	case errors.Is(err, lifecycle.ErrAlreadyRunning):
		status = http.StatusConflict
		body = response{Error: err.Error()}
	case errors.Is(err, lifecycle.ErrClosed):
		status = http.StatusServiceUnavailable
		body = response{Error: err.Error()}
	default:
		status = http.StatusInternalServerError
		body = response{Error: err.Error()}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
