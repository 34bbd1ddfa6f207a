package domkey

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/domkey/keys"
)

// Config holds all domkey configuration.
type Config struct {
	// DBPath locates the baseline SQLite database.
	DBPath string `yaml:"db_path"`
	// Algo selects the text-hash algorithm (see keys.ByName). The service
	// defaults to a stable algorithm so fingerprints can be recorded.
	Algo string `yaml:"algo"`
	// Verify makes the matcher confirm equal keys by full structural
	// comparison, trading speed for immunity to key collisions.
	Verify bool `yaml:"verify"`
	// TraceSQL opens the baseline database through the "sqlite-trace"
	// driver, logging every statement (see the trace package).
	TraceSQL bool          `yaml:"trace_sql"`
	Monitor  MonitorConfig `yaml:"monitor"`
}

// MonitorConfig controls the file watcher behind the monitor mode.
type MonitorConfig struct {
	Interval time.Duration `yaml:"interval"`
	Debounce time.Duration `yaml:"debounce"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "domkey.db"
	}
	if c.Algo == "" {
		c.Algo = keys.AlgoFNV
	}
	if c.Monitor.Interval <= 0 {
		c.Monitor.Interval = 2 * time.Second
	}
	if c.Monitor.Debounce <= 0 {
		c.Monitor.Debounce = 500 * time.Millisecond
	}
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
