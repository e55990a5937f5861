package engine

import (
	"time"

	"SignalForge/internal/domain/models"
)

// sessionStart is an arbitrary fixed Monday 15:00 UTC.
var sessionStart = time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)

func barAt(minute int, open, high, low, close, volume float64) models.Bar {
	return models.Bar{
		OpenTime: sessionStart.Add(time.Duration(minute) * time.Minute),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    close,
		Volume:   volume,
	}
}

// flatBar is a featureless bar at the given price.
func flatBar(minute int, price, volume float64) models.Bar {
	return barAt(minute, price, price, price, price, volume)
}

// testSizing is permissive so pattern checks, not sizing, decide outcomes.
func testSizing() StopTargetConfig {
	return StopTargetConfig{StopBuffer: 1, MinStop: 1, MaxStop: 50, RMultiple: 1.5, MinTarget: 0}
}

// testConfig returns a fully valid configuration with open windows, UTC
// clock and a zero confluence floor, so individual tests opt in to the
// constraint they exercise.
func testConfig() Config {
	return Config{
		Timezone:    "UTC",
		VWAPMinBars: 2,
		RSIPeriod:   14,
		Crossover: CrossoverConfig{
			Enabled:      true,
			Timeframe:    2,
			FastPeriod:   3,
			SlowPeriod:   5,
			HistoryExtra: 2,
			MinRange:     0,
			MinBodyRatio: 0,
			Sizing:       testSizing(),
		},
		Pullback: PullbackConfig{
			Enabled:         true,
			Timeframe:       5,
			MinImpulseRange: 4,
			MinImpulseBody:  0.6,
			MinRetrace:      0.25,
			MaxRetrace:      0.75,
			MaxCloseDrift:   0.30,
			Sizing:          testSizing(),
		},
		Reversion: ReversionConfig{
			Enabled:        true,
			SigmaTrigger:   2,
			TargetMode:     TargetVWAP,
			MinVolumeRatio: 0.8,
			CooldownBars:   10,
			Sizing:         testSizing(),
		},
		Confluence: ConfluenceConfig{
			MinScore:         0,
			VolumeLookback:   3,
			MinVolumeRatio:   0.8,
			MomentumLookback: 2,
			LevelTolerance:   5,
			RSIOverbought:    70,
			RSIOversold:      30,
			MaxExtension:     2,
		},
	}
}

// seedVWAP feeds two heavy equal-weight bars with typical prices 98 and 102,
// pinning vwap at 100 and stdDev at 2 against later light bars.
func seedVWAP(vw *VWAPEngine, startMinute int) {
	vw.OnBar(barAt(startMinute, 98, 99, 97, 98, 1e6))
	vw.OnBar(barAt(startMinute+1, 102, 103, 101, 102, 1e6))
}
