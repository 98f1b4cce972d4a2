package chain

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const checkpointFile = `checkpoint`

// readCheckpoint loads the hash of the latest block seen at the last
// successful sync. Missing or malformed files are treated as absent.
func (c *chain) readCheckpoint() (common.Hash, bool) {
	if c.cfg.DataDir == "" {
		return common.Hash{}, false
	}

	raw, err := os.ReadFile(filepath.Join(c.cfg.DataDir, checkpointFile))
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn("could not read checkpoint", slog.String("error", err.Error()))
		}
		return common.Hash{}, false
	}

	b, err := hexutil.Decode(strings.TrimSpace(string(raw)))
	if err != nil || len(b) != common.HashLength {
		c.log.Warn("malformed checkpoint ignored", slog.String("dataDir", c.cfg.DataDir))
		return common.Hash{}, false
	}

	return common.BytesToHash(b), true
}

func (c *chain) writeCheckpoint(hash common.Hash) {
	if c.cfg.DataDir == "" {
		return
	}

	if err := os.MkdirAll(c.cfg.DataDir, 0o755); err != nil {
		c.log.Warn("could not create data dir", slog.String("error", err.Error()))
		return
	}

	if err := os.WriteFile(filepath.Join(c.cfg.DataDir, checkpointFile), []byte(hash.Hex()+"\n"), 0o600); err != nil {
		c.log.Warn("could not write checkpoint", slog.String("error", err.Error()))
	}
}
