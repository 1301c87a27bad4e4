package tracking

import "time"

// tierState is the one-shot accuracy sub-machine: relaxed -> upgraded.
type tierState int

const (
	tierRelaxed tierState = iota
	tierUpgraded
)

// shouldUpgrade reports whether a relaxed subscription has produced enough
// samples, or run long enough, to switch to the precise tier.
func shouldUpgrade(samples int, elapsed time.Duration, cfg Config) bool {
	return samples >= cfg.UpgradeAfterSamples || elapsed >= cfg.UpgradeAfter
}
