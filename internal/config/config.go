package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultPath is used when PB_CONFIG_PATH is unset.
const DefaultPath = "config.toml"

// PathFromEnv loads a .env file if present and returns the config path
// from PB_CONFIG_PATH.
func PathFromEnv() string {
	_ = godotenv.Load()
	if p := os.Getenv("PB_CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

type Config struct {
	General  GeneralConfig  `toml:"general"`
	Schedule ScheduleConfig `toml:"schedule"`
	Market   MarketConfig   `toml:"market"`
	Policy   PolicyConfig   `toml:"policy"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

type GeneralConfig struct {
	DBPath   string `toml:"db_path"`
	LogLevel string `toml:"log_level"`
}

type ScheduleConfig struct {
	// ReportInterval is how often the forecast accuracy report is logged.
	ReportInterval Duration `toml:"report_interval"`
	QueueSize      int      `toml:"queue_size"`
}

// BidStrategy selects how buy orders are priced.
type BidStrategy string

const (
	BidStrategyDP     BidStrategy = "dp13"
	BidStrategyBase   BidStrategy = "base"
	BidStrategyMarket BidStrategy = "mkt"
)

type MarketConfig struct {
	MinOrderMWh     float64     `toml:"min_order_mwh"`
	BidMargin       float64     `toml:"bid_margin"`
	NumStairs       int         `toml:"num_stairs"`
	BidStrategy     BidStrategy `toml:"bid_strategy"`
	UseBal          bool        `toml:"use_bal"`
	UseMtx          bool        `toml:"use_mtx"`
	UseFudge        bool        `toml:"use_fudge"`
	UseShiftPred    bool        `toml:"use_shift_pred"`
	UseStairExplore bool        `toml:"use_stair_explore"`
	MinSampleSize   int         `toml:"min_sample_size"`
	RecordLength    int         `toml:"record_length"`
}

// PolicyConfig holds the empirically tuned constants of the bidding policy.
type PolicyConfig struct {
	BuyLimitMax  float64 `toml:"buy_limit_max"`
	BuyLimitMin  float64 `toml:"buy_limit_min"`
	SellLimitMax float64 `toml:"sell_limit_max"`
	SellLimitMin float64 `toml:"sell_limit_min"`

	BidEpsilon       float64 `toml:"bid_epsilon"`
	OrderbookEpsilon float64 `toml:"orderbook_epsilon"`

	BootstrapLimitMultiplier float64 `toml:"bootstrap_limit_multiplier"`
	BalancingSeedSigmas      float64 `toml:"balancing_seed_sigmas"`
	BalancingSeedMWh         float64 `toml:"balancing_seed_mwh"`

	ReductionFactor float64 `toml:"reduction_factor"`
	ReductionLead   int     `toml:"reduction_lead"`

	ExplorationSteps    int     `toml:"exploration_steps"`
	ExplorationLowerBid float64 `toml:"exploration_lower_bid"`

	// ProtectUntilTimeslot ends the first-week floor on the balancing stage value.
	ProtectUntilTimeslot int `toml:"protect_until_timeslot"`
	SellPriceSteps       int `toml:"sell_price_steps"`
	MaxLead              int `toml:"max_lead"`

	// FudgeGain scales the last settled forecast miss fed back into the
	// next-timeslot need.
	FudgeGain float64 `toml:"fudge_gain"`
}

type MetricsConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

// Duration wraps time.Duration for TOML unmarshaling.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Market.BidStrategy {
	case BidStrategyDP, BidStrategyBase, BidStrategyMarket:
	default:
		return fmt.Errorf("unknown bid_strategy %q", c.Market.BidStrategy)
	}
	if c.Market.MinOrderMWh <= 0 {
		return fmt.Errorf("min_order_mwh must be > 0, got %v", c.Market.MinOrderMWh)
	}
	if c.Market.RecordLength <= 0 {
		return fmt.Errorf("record_length must be > 0, got %d", c.Market.RecordLength)
	}
	if c.Policy.MaxLead <= 0 {
		return fmt.Errorf("max_lead must be > 0, got %d", c.Policy.MaxLead)
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			DBPath:   ":memory:",
			LogLevel: "info",
		},
		Schedule: ScheduleConfig{
			ReportInterval: Duration{1 * time.Minute},
			QueueSize:      1024,
		},
		Market: MarketConfig{
			MinOrderMWh:     0.001,
			BidMargin:       0,
			NumStairs:       2,
			BidStrategy:     BidStrategyDP,
			UseShiftPred:    true,
			UseStairExplore: true,
			MinSampleSize:   24,
			RecordLength:    168,
		},
		Policy: PolicyConfig{
			BuyLimitMax:              -1.0,
			BuyLimitMin:              -70.0,
			SellLimitMax:             70.0,
			SellLimitMin:             0.5,
			BidEpsilon:               0.001,
			OrderbookEpsilon:         0.00001,
			BootstrapLimitMultiplier: 3,
			BalancingSeedSigmas:      2,
			BalancingSeedMWh:         0.001,
			ReductionFactor:          0.8,
			ReductionLead:            6,
			ExplorationSteps:         18,
			ExplorationLowerBid:      -1.0,
			ProtectUntilTimeslot:     360 + 168,
			SellPriceSteps:           24,
			MaxLead:                  24,
			FudgeGain:                1.0,
		},
	}
}
