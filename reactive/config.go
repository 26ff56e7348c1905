package reactive

import (
	"fmt"
	"os"

	yaml "go.yaml.in/yaml/v2"
)

// FileConfig is the YAML-serializable shape of Options, for Domains
// configured from a file rather than functional options in code.
type FileConfig struct {
	Engine         string `yaml:"engine"`
	WorkerCount    int    `yaml:"worker_count"`
	MergePolicy    string `yaml:"merge_policy"`
	RelaxedBarrier bool   `yaml:"relaxed_barrier"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`

	Tracing struct {
		Enabled  bool   `yaml:"enabled"`
		Exporter string `yaml:"exporter"` // "otel", "log", or "" (none)
	} `yaml:"tracing"`
}

// LoadFileConfig reads and parses a Domain config file.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reactive: read config %s: %w", path, err)
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("reactive: parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Options translates a FileConfig into Option values, ready to pass to
// NewDomain. A Metrics recorder is constructed (against
// prometheus.DefaultRegisterer) only when cfg.Metrics.Enabled; an Emitter
// is left for the caller to attach, since the choice of sink (log, null,
// buffered, otel) depends on exporter wiring this package doesn't own.
func (cfg *FileConfig) Options() ([]Option, error) {
	var opts []Option

	switch cfg.Engine {
	case "", string(EngineSequential):
		opts = append(opts, WithEngine(EngineSequential))
	case string(EngineParallel):
		opts = append(opts, WithEngine(EngineParallel))
	default:
		return nil, fmt.Errorf("reactive: unknown engine %q", cfg.Engine)
	}

	if cfg.WorkerCount > 0 {
		opts = append(opts, WithWorkerCount(cfg.WorkerCount))
	}

	switch cfg.MergePolicy {
	case "", string(MergeNone):
		opts = append(opts, WithMergePolicy(MergeNone))
	case string(MergeAdjacent):
		opts = append(opts, WithMergePolicy(MergeAdjacent))
	default:
		return nil, fmt.Errorf("reactive: unknown merge_policy %q", cfg.MergePolicy)
	}

	if cfg.RelaxedBarrier {
		opts = append(opts, WithRelaxedBarrier(true))
	}

	if cfg.Metrics.Enabled {
		opts = append(opts, WithMetrics(NewMetrics(nil)))
	}

	return opts, nil
}

const defaultConfigTemplate = `# reactor-go Domain configuration
#
# engine: "sequential" (deterministic reference) or "parallel"
engine: sequential

# worker_count bounds per-level concurrency under the parallel engine.
# 0 or a negative value keeps the Domain default of 1.
worker_count: 0

# merge_policy: "none" (two sequential commits) or "adjacent" (coalesce
# async turns queued back-to-back while the engine is busy).
merge_policy: none

# relaxed_barrier lets the parallel engine start a node as soon as its own
# predecessors have resolved, instead of waiting for the whole previous
# level.
relaxed_barrier: false

metrics:
  enabled: false

tracing:
  enabled: false
  exporter: ""
`

// WriteDefaultConfig writes defaultConfigTemplate to path unless a file
// already exists there.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(defaultConfigTemplate), 0o644)
}
