package engine

import (
	"fmt"
	"time"
)

// TimeWindow is a per-detector activity window expressed in minutes since
// local-session midnight in the configured timezone, so it stays correct
// across daylight-saving transitions. Start is inclusive, End exclusive; a
// zero window means always active.
type TimeWindow struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Contains reports whether a minute-of-day falls inside the window.
func (w TimeWindow) Contains(minuteOfDay int) bool {
	if w.Start == 0 && w.End == 0 {
		return true
	}
	return minuteOfDay >= w.Start && minuteOfDay < w.End
}

func (w TimeWindow) validate(name string) error {
	if w.Start < 0 || w.End < 0 || w.Start > 1440 || w.End > 1440 {
		return fmt.Errorf("%s window bounds must lie in [0,1440]", name)
	}
	if w.End != 0 && w.End <= w.Start {
		return fmt.Errorf("%s window end must be after start", name)
	}
	return nil
}

// StopTargetConfig bounds signal stop/target sizing, shared by all three
// detectors.
type StopTargetConfig struct {
	StopBuffer  float64 `yaml:"stop_buffer" default:"1.0"`
	MinStop     float64 `yaml:"min_stop" default:"3.0"`
	MaxStop     float64 `yaml:"max_stop" default:"15.0"`
	RMultiple   float64 `yaml:"r_multiple" default:"1.5"`
	MinTarget   float64 `yaml:"min_target" default:"4.0"`
}

func (c StopTargetConfig) validate(name string) error {
	if c.MinStop <= 0 || c.MaxStop <= 0 || c.MaxStop < c.MinStop {
		return fmt.Errorf("%s: stop bounds invalid (min %.2f max %.2f)", name, c.MinStop, c.MaxStop)
	}
	if c.RMultiple <= 0 {
		return fmt.Errorf("%s: r_multiple must be positive", name)
	}
	if c.MinTarget < 0 || c.StopBuffer < 0 {
		return fmt.Errorf("%s: min_target and stop_buffer must be non-negative", name)
	}
	return nil
}

// CrossoverConfig parameterizes the momentum-crossover detector.
type CrossoverConfig struct {
	Enabled      bool             `yaml:"enabled" default:"true"`
	Timeframe    int              `yaml:"timeframe" default:"2"`
	FastPeriod   int              `yaml:"fast_period" default:"9"`
	SlowPeriod   int              `yaml:"slow_period" default:"21"`
	HistoryExtra int              `yaml:"history_extra" default:"3"`
	MinRange     float64          `yaml:"min_range" default:"2.0"`
	MinBodyRatio float64          `yaml:"min_body_ratio" default:"0.5"`
	Sizing       StopTargetConfig `yaml:"sizing"`
	Window       TimeWindow       `yaml:"window" default:"{\"start\":570,\"end\":690}"`
}

// PullbackConfig parameterizes the pullback-retracement detector, which
// always drives off sealed five-minute bars.
type PullbackConfig struct {
	Enabled         bool             `yaml:"enabled" default:"true"`
	Timeframe       int              `yaml:"timeframe" default:"5"`
	MinImpulseRange float64          `yaml:"min_impulse_range" default:"4.0"`
	MinImpulseBody  float64          `yaml:"min_impulse_body" default:"0.6"`
	MinRetrace      float64          `yaml:"min_retrace" default:"0.25"`
	MaxRetrace      float64          `yaml:"max_retrace" default:"0.75"`
	MaxCloseDrift   float64          `yaml:"max_close_drift" default:"0.30"`
	Sizing          StopTargetConfig `yaml:"sizing"`
	Window          TimeWindow       `yaml:"window" default:"{\"start\":780,\"end\":930}"`
}

// ReversionTarget selects how the mean-reversion target is priced.
type ReversionTarget string

const (
	TargetVWAP      ReversionTarget = "vwap"
	TargetRMultiple ReversionTarget = "rmultiple"
)

// ReversionConfig parameterizes the VWAP mean-reversion detector.
type ReversionConfig struct {
	Enabled        bool             `yaml:"enabled" default:"true"`
	SigmaTrigger   float64          `yaml:"sigma_trigger" default:"2.0"`
	TargetMode     ReversionTarget  `yaml:"target_mode" default:"vwap"`
	MinVolumeRatio float64          `yaml:"min_volume_ratio" default:"0.8"`
	CooldownBars   int              `yaml:"cooldown_bars" default:"10"`
	Sizing         StopTargetConfig `yaml:"sizing"`
	Window         TimeWindow       `yaml:"window" default:"{\"start\":690,\"end\":780}"`
}

// ConfluenceConfig parameterizes the multi-factor scorer.
type ConfluenceConfig struct {
	MinScore         int     `yaml:"min_score" default:"3"`
	VolumeLookback   int     `yaml:"volume_lookback" default:"20"`
	MinVolumeRatio   float64 `yaml:"min_volume_ratio" default:"0.8"`
	MomentumLookback int     `yaml:"momentum_lookback" default:"3"`
	LevelTolerance   float64 `yaml:"level_tolerance" default:"5.0"`
	RSIOverbought    float64 `yaml:"rsi_overbought" default:"70"`
	RSIOversold      float64 `yaml:"rsi_oversold" default:"30"`
	MaxExtension     float64 `yaml:"max_extension" default:"2.0"`
}

// Config is the full signal-engine configuration. All knobs carry defaults;
// invalid combinations are rejected at construction, not at first use.
type Config struct {
	Timezone    string           `yaml:"timezone" default:"America/New_York"`
	VWAPMinBars int              `yaml:"vwap_min_bars" default:"10"`
	RSIPeriod   int              `yaml:"rsi_period" default:"14"`
	Crossover   CrossoverConfig  `yaml:"crossover"`
	Pullback    PullbackConfig   `yaml:"pullback"`
	Reversion   ReversionConfig  `yaml:"reversion"`
	Confluence  ConfluenceConfig `yaml:"confluence"`
}

// Validate checks the configuration invariants the detectors rely on.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if c.VWAPMinBars < 1 {
		return fmt.Errorf("vwap_min_bars must be >= 1")
	}
	if c.RSIPeriod < 2 {
		return fmt.Errorf("rsi_period must be >= 2")
	}

	x := c.Crossover
	if x.Timeframe < 1 || 60%x.Timeframe != 0 {
		return fmt.Errorf("crossover timeframe must divide 60, got %d", x.Timeframe)
	}
	if x.FastPeriod < 1 || x.SlowPeriod < 1 || x.FastPeriod >= x.SlowPeriod {
		return fmt.Errorf("crossover periods invalid: fast %d slow %d", x.FastPeriod, x.SlowPeriod)
	}
	if x.HistoryExtra < 1 {
		return fmt.Errorf("crossover history_extra must be >= 1")
	}
	if x.SlowPeriod+x.HistoryExtra > maxDetectorHistory {
		return fmt.Errorf("crossover slow_period + history_extra exceeds the %d-bar retention cap", maxDetectorHistory)
	}
	if x.MinRange < 0 || x.MinBodyRatio < 0 || x.MinBodyRatio > 1 {
		return fmt.Errorf("crossover bar filters invalid")
	}
	if err := x.Sizing.validate("crossover"); err != nil {
		return err
	}
	if err := x.Window.validate("crossover"); err != nil {
		return err
	}

	p := c.Pullback
	if p.Timeframe < 1 || 60%p.Timeframe != 0 {
		return fmt.Errorf("pullback timeframe must divide 60, got %d", p.Timeframe)
	}
	if p.MinRetrace < 0 || p.MaxRetrace > 1 || p.MaxRetrace < p.MinRetrace {
		return fmt.Errorf("pullback retrace bounds invalid: min %.2f max %.2f", p.MinRetrace, p.MaxRetrace)
	}
	if p.MinImpulseRange < 0 || p.MinImpulseBody < 0 || p.MinImpulseBody > 1 || p.MaxCloseDrift < 0 {
		return fmt.Errorf("pullback bar filters invalid")
	}
	if err := p.Sizing.validate("pullback"); err != nil {
		return err
	}
	if err := p.Window.validate("pullback"); err != nil {
		return err
	}

	r := c.Reversion
	if r.SigmaTrigger <= 0 {
		return fmt.Errorf("reversion sigma_trigger must be positive")
	}
	if r.TargetMode != TargetVWAP && r.TargetMode != TargetRMultiple {
		return fmt.Errorf("reversion target_mode must be %q or %q", TargetVWAP, TargetRMultiple)
	}
	if r.MinVolumeRatio < 0 || r.CooldownBars < 0 {
		return fmt.Errorf("reversion volume ratio and cooldown must be non-negative")
	}
	if err := r.Sizing.validate("reversion"); err != nil {
		return err
	}
	if err := r.Window.validate("reversion"); err != nil {
		return err
	}

	cf := c.Confluence
	if cf.MinScore < 0 || cf.MinScore > 7 {
		return fmt.Errorf("confluence min_score must lie in [0,7]")
	}
	if cf.VolumeLookback < 2 || cf.MomentumLookback < 1 {
		return fmt.Errorf("confluence lookbacks invalid")
	}
	if cf.LevelTolerance < 0 || cf.MinVolumeRatio < 0 || cf.MaxExtension <= 0 {
		return fmt.Errorf("confluence thresholds invalid")
	}
	if cf.RSIOversold >= cf.RSIOverbought {
		return fmt.Errorf("confluence rsi_oversold must be below rsi_overbought")
	}
	return nil
}
