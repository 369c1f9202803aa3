package summary

import (
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v2"

	"github.com/VictoriaMetrics/streamstats/lib/moments"
	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

// Supported value types.
const (
	ValueTypeFloat64 = "float64"
	ValueTypeFloat32 = "float32"
)

// DefaultQuantiles contains quantiles estimated when the config doesn't specify them.
var DefaultQuantiles = []float64{0.5, 0.9, 0.99}

// Config is the summary configuration.
//
// Summaries can be merged only if they are built with equal configs.
type Config struct {
	// ValueType is the scalar type used by accumulators. Either float64 or float32.
	ValueType string `yaml:"valueType,omitempty"`

	// Quantiles contains the estimated quantiles in the range [0..1].
	Quantiles []float64 `yaml:"quantiles,omitempty"`

	// MomentsOrder enables central moments up to the given order if it is bigger than zero.
	MomentsOrder int `yaml:"momentsOrder,omitempty"`

	// Histogram enables the fixed-bin histogram if set.
	Histogram *HistogramConfig `yaml:"histogram,omitempty"`
}

// HistogramConfig contains histogram bins configuration.
//
// Either Edges or Start, End and Bins must be set.
type HistogramConfig struct {
	Edges []float64 `yaml:"edges,omitempty"`
	Start *float64  `yaml:"start,omitempty"`
	End   *float64  `yaml:"end,omitempty"`
	Bins  int       `yaml:"bins,omitempty"`
}

// LoadConfigFromFile reads the config from the YAML file at path.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read summary config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("cannot parse summary config from %q: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses the config from YAML data.
//
// Empty data results in the default config.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w: %w", err, numeric.ErrInvalidConfig)
	}
	if err := cfg.init(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns the config with default settings.
func DefaultConfig() *Config {
	var cfg Config
	if err := cfg.init(); err != nil {
		panic(fmt.Errorf("BUG: unexpected error for default config: %w", err))
	}
	return &cfg
}

func (cfg *Config) init() error {
	switch cfg.ValueType {
	case "":
		cfg.ValueType = ValueTypeFloat64
	case ValueTypeFloat64, ValueTypeFloat32:
	default:
		return fmt.Errorf("unsupported valueType %q; supported values: %s, %s: %w", cfg.ValueType, ValueTypeFloat64, ValueTypeFloat32, numeric.ErrInvalidConfig)
	}

	if len(cfg.Quantiles) == 0 {
		cfg.Quantiles = append([]float64{}, DefaultQuantiles...)
	}
	for _, q := range cfg.Quantiles {
		if math.IsNaN(q) || q < 0 || q > 1 {
			return fmt.Errorf("quantile must be in the range [0..1]; got %v: %w", q, numeric.ErrInvalidConfig)
		}
	}
	slices.Sort(cfg.Quantiles)
	cfg.Quantiles = slices.Compact(cfg.Quantiles)

	if cfg.MomentsOrder < 0 || cfg.MomentsOrder > moments.MaxOrder {
		return fmt.Errorf("momentsOrder must be in the range [0..%d]; got %d: %w", moments.MaxOrder, cfg.MomentsOrder, numeric.ErrInvalidConfig)
	}
	if cfg.MomentsOrder == 1 {
		return fmt.Errorf("momentsOrder must be 0 or at least 2; got 1: %w", numeric.ErrInvalidConfig)
	}

	if hc := cfg.Histogram; hc != nil {
		hasRange := hc.Start != nil || hc.End != nil || hc.Bins != 0
		if len(hc.Edges) > 0 && hasRange {
			return fmt.Errorf("histogram must contain either edges or start, end and bins, but not both: %w", numeric.ErrInvalidConfig)
		}
		if len(hc.Edges) == 0 && (hc.Start == nil || hc.End == nil || hc.Bins <= 0) {
			return fmt.Errorf("histogram must contain either edges or start, end and positive bins: %w", numeric.ErrInvalidConfig)
		}
	}
	return nil
}
