package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultConfigYAML is the commented starter config written on first run.
// Keys and defaults mirror the Config struct; config_test.go keeps the
// two in sync.
const defaultConfigYAML = `# ghtickets configuration

# Overrides the server name recorded on every created ticket.
# Leave empty to use the name supplied by the caller.
serverName: ""

# Minimum number of words a ticket body must contain.
ticketMinWordCount: 2

# debug, info, warn or error.
logLevel: info

notify:
  onLogin:
    staff: true
    player: true
  onCreate:
    staff: true
    player: false
  onStatusChange:
    staff: true
    player: true
  onComment:
    staff: true
    player: true

github:
  auth:
    # Configure either a personal access token, or username/password.
    # Never both.
    token: ""
    username: ""
    password: ""
  repository:
    owner: ""
    name: ""

api:
  # Base delay between consecutive API calls. GitHub allows 5000
  # authenticated calls per hour; one call every 2s stays well inside.
  callDelay: 2s
  # How many server instances share the same account. The effective
  # delay is callDelay multiplied by this count.
  instanceCount: 1

fetch:
  # Delay before the first cache refresh after startup.
  startupDelay: 1s
  # Interval between full cache refreshes.
  interval: 10s
`

// WriteDefault writes the commented starter config to path, creating
// parent directories. It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
