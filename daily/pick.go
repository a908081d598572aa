package daily

import "errors"

// ErrEmptyCollection is returned when there is nothing to pick from.
var ErrEmptyCollection = errors.New("daily: empty collection")

// Source yields values in [0, 1).
type Source interface {
	Float64() float64
}

// Index maps the next value of src onto [0, n). It returns false when n is 0.
func Index(n int, src Source) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	i := int(src.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i, true
}

// Pick returns the element of items chosen by src.
func Pick[T any](items []T, src Source) (T, int, error) {
	var zero T
	i, ok := Index(len(items), src)
	if !ok {
		return zero, -1, ErrEmptyCollection
	}
	return items[i], i, nil
}

// Pair holds the generators for the two independent picks of one day.
type Pair struct {
	Photo *Rand
	Song  *Rand
}

// PairForDate builds the photo and song generators for key. Both start from
// the same seed; the song generator is advanced once so the two picks do not
// share an index on equally sized collections.
func PairForDate(key string) Pair {
	song := ForDate(key)
	song.Uint32()
	return Pair{
		Photo: ForDate(key),
		Song:  song,
	}
}
