package daily

import (
	"time"
	"unicode/utf16"
)

// DateLayout is the calendar-day key every caller hashes.
const DateLayout = "2006-01-02"

// DateKey formats t as YYYY-MM-DD in loc. A nil loc means UTC.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// Seed hashes key into a non-negative 32-bit seed.
//
// The hash walks UTF-16 code units and accumulates hash*31 + c with int32
// wraparound, then takes the absolute value. math.MinInt32 maps to 1<<31.
func Seed(key string) uint32 {
	var hash int32
	for _, c := range utf16.Encode([]rune(key)) {
		hash = hash<<5 - hash + int32(c)
	}
	return abs32(hash)
}

// abs32 is |v| as an unsigned value, so math.MinInt32 maps to 1<<31.
func abs32(v int32) uint32 {
	if v < 0 {
		return uint32(-int64(v))
	}
	return uint32(v)
}

// Rand is a mulberry32 generator. The zero value is seeded with 0.
type Rand struct {
	state uint32
}

// NewRand returns a generator seeded with seed.
func NewRand(seed uint32) *Rand {
	return &Rand{state: seed}
}

// ForDate returns a generator seeded from the date key.
func ForDate(key string) *Rand {
	return NewRand(Seed(key))
}

// Uint32 advances the generator and returns the next 32-bit output.
func (r *Rand) Uint32() uint32 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return t ^ t>>14
}

// Float64 returns the next value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.Uint32()) / (1 << 32)
}
