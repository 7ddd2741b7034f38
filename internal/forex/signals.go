package forex

import (
	"github.com/markcheno/go-talib"
)

const (
	SignalBuy  = "BUY"
	SignalSell = "SELL"
	SignalHold = "HOLD"
)

// WithSignals annotates a newest-first candle series with short/long SMAs
// and a crossover signal: BUY when the short SMA crosses above the long,
// SELL when it crosses below, HOLD otherwise.
func WithSignals(candles []Candle, shortPeriod, longPeriod int) []Candle {
	if len(candles) < longPeriod || shortPeriod >= longPeriod {
		return candles
	}

	// talib wants chronological input.
	closes := make([]float64, len(candles))
	for i, candle := range candles {
		closes[len(candles)-1-i] = candle.Close
	}
	smaShort := talib.Sma(closes, shortPeriod)
	smaLong := talib.Sma(closes, longPeriod)

	for i := range candles {
		chrono := len(candles) - 1 - i
		candles[i].Signal = SignalHold
		if chrono >= shortPeriod-1 {
			value := smaShort[chrono]
			candles[i].SMAShort = &value
		}
		if chrono >= longPeriod-1 {
			value := smaLong[chrono]
			candles[i].SMALong = &value
		}
		if chrono < longPeriod {
			continue
		}
		prevShort, prevLong := smaShort[chrono-1], smaLong[chrono-1]
		curShort, curLong := smaShort[chrono], smaLong[chrono]
		switch {
		case prevShort <= prevLong && curShort > curLong:
			candles[i].Signal = SignalBuy
		case prevShort >= prevLong && curShort < curLong:
			candles[i].Signal = SignalSell
		}
	}
	return candles
}
