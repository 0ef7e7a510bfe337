package hnt

import (
	"errors"
	"time"
)

// MinValidYear is the year the Helium blockchain started paying rewards
const MinValidYear = 2019

// Year validation errors
var (
	ErrYearRequired   = errors.New("year is required")
	ErrYearOutOfRange = errors.New("year out of valid range")
)

// Year is a reward year in YYYY format
type Year uint64

// ParseYearFromUint64 creates a Year from uint64 with domain validation.
// Only completed or current years can be reported.
func ParseYearFromUint64(year uint64) (Year, error) {
	if year == 0 {
		return 0, ErrYearRequired
	}

	if year < MinValidYear || year > uint64(time.Now().Year()) {
		return 0, ErrYearOutOfRange
	}

	return Year(year), nil
}

// Uint64 returns the underlying uint64 value
func (y Year) Uint64() uint64 {
	return uint64(y)
}

// Int returns the year as int
func (y Year) Int() int {
	return int(y)
}
