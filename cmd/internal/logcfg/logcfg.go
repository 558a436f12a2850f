package logcfg

import (
	"os"
	"path/filepath"

	logs "github.com/danmuck/smplog"
)

const envConfigPath = "GUESTBOOK_LOG_CONFIG"

// Load returns file-backed logging configuration when available, otherwise
// defaults. Candidates are tried in order: $GUESTBOOK_LOG_CONFIG, the working
// directory, then next to the guestbook root when one is given.
func Load(roots ...string) logs.Config {
	if path := os.Getenv(envConfigPath); path != "" {
		if cfg, err := logs.ConfigFromFile(path); err == nil {
			return cfg
		}
	}

	candidates := []string{
		"./smplog.config.toml",
		"./local/smplog.config.toml",
	}
	for _, root := range roots {
		if root != "" {
			candidates = append(candidates, filepath.Join(root, "smplog.config.toml"))
		}
	}

	for _, path := range candidates {
		if cfg, err := logs.ConfigFromFile(path); err == nil {
			return cfg
		}
	}

	return logs.DefaultConfig()
}
