package engine

import (
	"fmt"

	"SignalForge/internal/domain/models"
)

// ConfluenceResult is the ephemeral outcome of one scoring pass. The factor
// list travels to the emitted signal unmodified.
type ConfluenceResult struct {
	Score    int
	MaxScore int
	Passed   bool
	Factors  []models.Factor
}

// ScoreInput carries the indicator snapshot a detector hands to the scorer.
// Indicators whose ok flag is false are treated as missing: the factor is
// skipped and MaxScore shrinks, it does not auto-fail.
type ScoreInput struct {
	Direction models.Direction
	Price     float64
	Tag       models.StrategyTag

	EMAFast float64
	EMASlow float64
	EMAOK   bool

	RSI   float64
	RSIOK bool

	// RecentBars are the detector's own-timeframe bars, newest last. The
	// last element is the candidate signal bar.
	RecentBars []models.Bar
}

// ConfluenceScorer evaluates up to seven independent alignment factors for a
// signal candidate against the shared VWAP engine. It is stateless; all
// session state lives in the engine it reads.
type ConfluenceScorer struct {
	cfg ConfluenceConfig
}

// NewConfluenceScorer builds a scorer from validated configuration.
func NewConfluenceScorer(cfg ConfluenceConfig) *ConfluenceScorer {
	return &ConfluenceScorer{cfg: cfg}
}

// Score runs every factor whose inputs are available. For the mean-reversion
// tag the vwap-bias, momentum and band-extension factors invert their
// alignment test: a reversion trade wants the signal direction to oppose
// recent price action.
func (s *ConfluenceScorer) Score(vw *VWAPEngine, in ScoreInput) ConfluenceResult {
	inverted := in.Tag == models.TagReversion
	buy := in.Direction == models.Buy
	res := ConfluenceResult{}

	add := func(name string, passed bool, reason string) {
		res.MaxScore++
		if passed {
			res.Score++
		}
		res.Factors = append(res.Factors, models.Factor{Name: name, Passed: passed, Reason: reason})
	}

	// 1. VWAP trend bias
	if vw.Ready() {
		above := in.Price > vw.VWAP()
		passed := above == buy
		if inverted {
			passed = !passed
		}
		add("vwap_bias", passed, fmt.Sprintf("price %.2f vs vwap %.2f", in.Price, vw.VWAP()))
	}

	// 2. EMA stack alignment
	if in.EMAOK {
		passed := (in.EMAFast > in.EMASlow) == buy
		add("ema_stack", passed, fmt.Sprintf("fast %.2f slow %.2f", in.EMAFast, in.EMASlow))
	}

	// 3. Volume versus trailing average
	if n := len(in.RecentBars); n >= s.cfg.VolumeLookback+1 {
		trailing := in.RecentBars[n-1-s.cfg.VolumeLookback : n-1]
		sum := 0.0
		for _, b := range trailing {
			sum += b.Volume
		}
		avg := sum / float64(len(trailing))
		cur := in.RecentBars[n-1].Volume
		passed := avg > 0 && cur >= s.cfg.MinVolumeRatio*avg
		add("volume", passed, fmt.Sprintf("bar %.0f vs %.0f%% of avg %.0f", cur, s.cfg.MinVolumeRatio*100, avg))
	}

	// 4. Prior-day level proximity
	if vw.PriorDay() != nil {
		levels := vw.NearbyPriorLevels(in.Price, s.cfg.LevelTolerance)
		reason := "no prior level nearby"
		if len(levels) > 0 {
			reason = fmt.Sprintf("%s at %.2f (%.2f away)", levels[0].Name, levels[0].Price, levels[0].Distance)
		}
		add("prior_level", len(levels) > 0, reason)
	}

	// 5. RSI regime: continuation wants room to run, reversion wants an
	// extreme to revert from
	if in.RSIOK {
		var passed bool
		if inverted {
			if buy {
				passed = in.RSI <= s.cfg.RSIOversold
			} else {
				passed = in.RSI >= s.cfg.RSIOverbought
			}
		} else {
			if buy {
				passed = in.RSI < s.cfg.RSIOverbought
			} else {
				passed = in.RSI > s.cfg.RSIOversold
			}
		}
		add("rsi", passed, fmt.Sprintf("rsi %.1f", in.RSI))
	}

	// 6. Short-window price momentum
	if n := len(in.RecentBars); n >= s.cfg.MomentumLookback+1 {
		mom := in.RecentBars[n-1].Close - in.RecentBars[n-1-s.cfg.MomentumLookback].Close
		passed := (mom > 0) == buy
		if inverted {
			passed = !passed
		}
		add("momentum", passed, fmt.Sprintf("%d-bar change %.2f", s.cfg.MomentumLookback, mom))
	}

	// 7. VWAP band extension: continuation rejects entries already stretched
	// beyond the outer band in the trade direction; reversion requires price
	// still on the far side of the mean it is reverting from
	if vw.Ready() {
		dist := vw.VWAPDistance(in.Price)
		var passed bool
		if inverted {
			if buy {
				passed = dist < 0
			} else {
				passed = dist > 0
			}
		} else {
			if buy {
				passed = dist < s.cfg.MaxExtension
			} else {
				passed = dist > -s.cfg.MaxExtension
			}
		}
		add("band_extension", passed, fmt.Sprintf("sigma distance %.2f", dist))
	}

	res.Passed = res.Score >= s.cfg.MinScore
	return res
}
