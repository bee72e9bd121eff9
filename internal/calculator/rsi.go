package calculator

import "BreakoutScanner/internal/model"

// NeutralRSI is reported when there is not enough history to seed the averages.
const NeutralRSI = 50.0

// RSI computes Wilder's relative strength index of closes over period.
// A period below 1 or a series of period bars or fewer yields NeutralRSI.
func RSI(bars []model.OHLCV, period int) float64 {
	if period < 1 || len(bars) <= period {
		return NeutralRSI
	}
	n := float64(period)
	var avgGain, avgLoss float64
	for i := 1; i < len(bars); i++ {
		gain, loss := splitChange(bars[i].Close - bars[i-1].Close)
		if i <= period {
			avgGain += gain / n
			avgLoss += loss / n
			continue
		}
		avgGain = (avgGain*(n-1) + gain) / n
		avgLoss = (avgLoss*(n-1) + loss) / n
	}
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

func splitChange(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}
