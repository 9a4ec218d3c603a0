package domain

import "time"

const (
	// MaxFixAge is the staleness bound. Device subsystems replay cached
	// fixes on startup; anything older than this is treated as replayed
	// and never reported as fresh.
	MaxFixAge = 30 * time.Second

	// MaxAccuracyLoss is how much accuracy a newer fix may give up and
	// still beat the current best. Beyond this the accuracy regression is
	// considered significant and recency no longer wins.
	MaxAccuracyLoss = 200.0 // meters

	// significantAge is the recency window after which a newer fix wins
	// outright regardless of accuracy. Largely shadowed by MaxFixAge, but
	// kept so the comparison rule is complete on its own.
	significantAge = 2 * time.Minute
)

// Eligible reports whether a fix may be considered for selection at all:
// it must carry a valid accuracy and timestamp and be younger than
// MaxFixAge.
func Eligible(f Fix, now time.Time) bool {
	return f.HasAccuracy() && f.HasTime() && f.Age(now) <= MaxFixAge
}

// SelectBest reduces a delivered batch to the single most trustworthy
// fix. Ineligible fixes are discarded first; the survivors are folded
// left to right, replacing the running best only when a candidate is
// strictly better under betterFix. Returns false when nothing survives.
//
// Pure function of the batch and the package clock: a fixed batch and a
// fixed clock always yield the same result.
func SelectBest(batch []Fix) (Fix, bool) {
	now := Now()
	var best Fix
	found := false
	for _, f := range batch {
		if !Eligible(f, now) {
			continue
		}
		if !found {
			best = f
			found = true
			continue
		}
		if betterFix(f, best) {
			best = f
		}
	}
	return best, found
}

// betterFix decides whether candidate should replace best, trading
// accuracy against recency the way mobile platforms' own location
// comparison does. Equal time and accuracy keeps best, so earlier batch
// order wins ties.
func betterFix(candidate, best Fix) bool {
	dt := candidate.Time.Sub(best.Time)
	if dt > significantAge {
		return true
	}
	if dt < -significantAge {
		return false
	}

	accuracyLoss := candidate.Accuracy - best.Accuracy
	switch {
	case accuracyLoss < 0:
		// Strictly more accurate wins even when slightly older.
		return true
	case dt > 0 && accuracyLoss == 0:
		return true
	case dt > 0 && accuracyLoss <= MaxAccuracyLoss:
		return true
	}
	return false
}
