// Package dyad builds the composite keys used to join and deduplicate dyad-year
// observations.
//
// A directed key keeps the order of the pair, so (A,B) and (B,A) in the same
// year are distinct. An undirected key sorts the pair first and is used where
// the relationship is the same regardless of listing order: counting unique
// dyads, and looking up conflict history and alliances.
package dyad

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is a directed dyad-year.
type Key struct {
	A, B int
	Year int
}

// Pair is an undirected dyad with Low <= High.
type Pair struct {
	Low, High int
}

// YearPair is an undirected dyad-year.
type YearPair struct {
	Pair
	Year int
}

// NewKey returns the directed key for (a, b, year).
func NewKey(a, b, year int) Key {
	return Key{A: a, B: b, Year: year}
}

// NewPair returns the undirected pair of a and b.
func NewPair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Low: a, High: b}
}

// NewYearPair returns the undirected dyad-year of (a, b, year).
func NewYearPair(a, b, year int) YearPair {
	return YearPair{Pair: NewPair(a, b), Year: year}
}

// Undirected drops the direction of k.
func (k Key) Undirected() YearPair {
	return NewYearPair(k.A, k.B, k.Year)
}

// Reverse returns the key with the pair swapped.
func (k Key) Reverse() Key {
	return Key{A: k.B, B: k.A, Year: k.Year}
}

// String renders the directed key as "A_B_year".
func (k Key) String() string {
	return Directed(k.A, k.B, k.Year)
}

// String renders the pair as "low_high"; this is the undirected dyad id.
func (p Pair) String() string {
	return strconv.Itoa(p.Low) + "_" + strconv.Itoa(p.High)
}

// String renders the undirected dyad-year as "low_high_year".
func (y YearPair) String() string {
	return y.Pair.String() + "_" + strconv.Itoa(y.Year)
}

// Directed returns the order-sensitive key "ccode1_ccode2_year".
func Directed(ccode1, ccode2, year int) string {
	return strconv.Itoa(ccode1) + "_" + strconv.Itoa(ccode2) + "_" + strconv.Itoa(year)
}

// Undirected returns the order-insensitive key "min_max_year".
func Undirected(ccode1, ccode2, year int) string {
	return NewYearPair(ccode1, ccode2, year).String()
}

// UndirectedID returns the undirected dyad id "min_max" used to group a
// dyad's observations across years.
func UndirectedID(ccode1, ccode2 int) string {
	return NewPair(ccode1, ccode2).String()
}

// ParseKey parses a directed key produced by Directed.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("malformed dyad key %q: expected 3 parts, got %d", s, len(parts))
	}
	var vals [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return Key{}, fmt.Errorf("malformed dyad key %q: %w", s, err)
		}
		vals[i] = v
	}
	return Key{A: vals[0], B: vals[1], Year: vals[2]}, nil
}
