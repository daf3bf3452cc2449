package pipeline

import "math"

// Zoom ramp tuning: one step every rampInterval until the applied factor
// reaches the target, so zoom changes glide instead of jumping.
const (
	rampStep             = 0.12
	rampIntervalMillis   = 16
	zoomSettledTolerance = 1e-3
)

// ClampZoom limits a requested zoom factor to [1, min(configuredMax,
// deviceMax)]. Ceilings below 1 are ignored.
func ClampZoom(requested, configuredMax, deviceMax float64) float64 {
	limit := math.Inf(1)
	if configuredMax >= 1 {
		limit = configuredMax
	}
	if deviceMax >= 1 && deviceMax < limit {
		limit = deviceMax
	}
	if requested > limit {
		requested = limit
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}

// rampToward moves applied one step toward target, returning the new
// applied value and whether the ramp has settled.
func rampToward(applied, target float64) (float64, bool) {
	diff := target - applied
	if math.Abs(diff) <= zoomSettledTolerance {
		return target, true
	}
	step := rampStep
	if math.Abs(diff) < step {
		step = math.Abs(diff)
	}
	if diff < 0 {
		step = -step
	}
	return applied + step, false
}
