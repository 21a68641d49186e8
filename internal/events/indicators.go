package events

import (
	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// talibSecondDerivative approximates acceleration as the linear-regression
// slope of the slope itself: talib.LinearRegSlope over the trailing window,
// then the slope of that slope series. Falls back to 0 on insufficient data
// or NaN, matching the teacher's formulas package convention of returning a
// zero-value rather than propagating NaN into the caller.
func talibSecondDerivative(values []float64, period int) float64 {
	if len(values) < period+2 {
		return 0
	}
	slopes := talib.LinearRegSlope(values, period)
	if len(slopes) < period+1 {
		return 0
	}
	accel := talib.LinearRegSlope(slopes, period)
	if len(accel) == 0 {
		return 0
	}
	last := accel[len(accel)-1]
	if isNaN(last) {
		return 0
	}
	mean := stat.Mean(values, nil)
	if mean == 0 {
		return 0
	}
	return last / mean
}

// stdevRatio returns the sample (n-1) standard deviation of values scaled by
// their mean, i.e. the coefficient of variation used for price volatility.
func stdevRatio(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := stat.Mean(values, nil)
	if mean == 0 {
		return 0
	}
	return stat.StdDev(values, nil) / mean
}

func isNaN(f float64) bool {
	return f != f
}
