package spaced_repetition

import "math"

// SM2 implements the SuperMemo-2 interval and ease update.
type SM2 struct {
	// PassThreshold is the lowest quality counted as a successful recall.
	PassThreshold int
	// FirstInterval is the interval after the first successful review.
	FirstInterval int
	// MaxInterval caps the interval in days. Zero means uncapped.
	MaxInterval int
	// InitialEase is the ease of a new item.
	InitialEase float64
	// MinEase is the floor applied after every ease update.
	MinEase float64
}

// NewSM2 returns the rule with the standard SM-2 constants.
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold: 3,
		FirstInterval: 6,
		MaxInterval:   0,
		InitialEase:   2.5,
		MinEase:       1.3,
	}
}

// QualityResponse is how well an item was recalled, 0..5.
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// Valid reports whether q is within 0..5.
func (q QualityResponse) Valid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}

// easeScale is the precision ease is kept at.
const easeScale = 1e6

// ceilTolerance absorbs float error when interval × ease is mathematically
// an integer.
const ceilTolerance = 1e-9

// maxIntervalDays is the span of the four-digit-year calendar. The raw
// product is clamped to it before the int conversion.
const maxIntervalDays = 3652058

// NextEase applies the additive ease update and the floor.
func (sm *SM2) NextEase(ease float64, q QualityResponse) float64 {
	miss := 5.0 - float64(q)
	next := ease + (0.1 - miss*(0.08+miss*0.02))
	next = math.Round(next*easeScale) / easeScale
	if next < sm.MinEase {
		next = sm.MinEase
	}
	return next
}

// NextInterval computes the interval following a grade. hadSuccess reports
// whether any earlier review passed.
func (sm *SM2) NextInterval(interval int, ease float64, hadSuccess bool, q QualityResponse) int {
	var next int
	switch {
	case int(q) < sm.PassThreshold:
		return 1
	case !hadSuccess:
		next = sm.FirstInterval
	default:
		raw := math.Ceil(float64(interval)*ease - ceilTolerance)
		if raw > maxIntervalDays {
			raw = maxIntervalDays
		}
		next = int(raw)
	}
	if next < 1 {
		next = 1
	}
	if sm.MaxInterval > 0 && next > sm.MaxInterval {
		next = sm.MaxInterval
	}
	return next
}

// Passed reports whether q counts as a successful recall.
func (sm *SM2) Passed(q QualityResponse) bool {
	return int(q) >= sm.PassThreshold
}

// IsMastered determines if an item is considered "mastered": reviewed
// successfully at least 5 times, last quality 4 or 5, interval 30+ days.
func (sm *SM2) IsMastered(item *Item) bool {
	if len(item.History) == 0 {
		return false
	}
	successes := 0
	for _, r := range item.History {
		if sm.Passed(r.Quality) {
			successes++
		}
	}
	last := item.History[len(item.History)-1].Quality
	return successes >= 5 &&
		last >= QualityCorrectHesitation &&
		item.IntervalDays >= 30
}
