package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const beaconSyncingPath = `/eth/v1/node/syncing`

type BeaconSyncing struct {
	Data struct {
		HeadSlot     string `json:"head_slot"`
		SyncDistance string `json:"sync_distance"`
		IsSyncing    bool   `json:"is_syncing"`
		IsOptimistic bool   `json:"is_optimistic"`
		ElOffline    bool   `json:"el_offline"`
	} `json:"data"`
}

func (c *chain) consensusSyncing(ctx context.Context) (*BeaconSyncing, error) {
	return doCall(ctx, c, beaconSyncingPath, true, func(ctx context.Context) (*BeaconSyncing, error) {
		requestURL := strings.TrimRight(c.cfg.ConsensusRPC, "/") + beaconSyncingPath

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("could not create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("could not send request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("could not read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("received from consensus rpc non-200 response code: %v", resp.Status)
		}

		var status BeaconSyncing
		if err := json.Unmarshal(body, &status); err != nil {
			return nil, fmt.Errorf("could not unmarshal response: %w", err)
		}

		return &status, nil
	})
}
