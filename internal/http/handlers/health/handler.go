package health

import (
	"encoding/json"
	"net/http"

	"github.com/lidofinance/lightclient-gateway/internal/pkg/lifecycle"
)

type StateReporter interface {
	State() lifecycle.State
	InstanceID() string
}

type handler struct {
	reporter StateReporter
}

func New(reporter StateReporter) *handler {
	return &handler{
		reporter: reporter,
	}
}

type response struct {
	Status   string `json:"status"`
	Client   string `json:"client"`
	Instance string `json:"instance,omitempty"`
}

func (h *handler) Handler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response{
		Status:   "ok",
		Client:   h.reporter.State().String(),
		Instance: h.reporter.InstanceID(),
	})
}
