package touchtrail

import "time"

// rebuildStats holds timing and size metrics for one rebuild of the active
// view. Only populated when Context.debug is true.
type rebuildStats struct {
	step    uint64
	elapsed time.Duration
	fingers int
	retired int
	scanned int
	touches int
}

// debugLog reports rebuild stats at debug level.
func (c *Context) debugLog(stats rebuildStats) {
	if !c.debug {
		return
	}
	c.log.Debug("active touches rebuilt",
		"step", stats.step,
		"elapsed", stats.elapsed,
		"fingers", stats.fingers,
		"retired", stats.retired,
		"records", stats.scanned,
		"touches", stats.touches)
	if stats.scanned > debugMaxScanPerFinger*max(stats.fingers+stats.retired, 1) {
		c.log.Warn("active rebuild scanned deep into history",
			"records", stats.scanned,
			"threshold", debugMaxScanPerFinger)
	}
}

// debugMaxScanPerFinger is the average number of records per finger past
// which a rebuild is reported as unusually deep.
const debugMaxScanPerFinger = 16
